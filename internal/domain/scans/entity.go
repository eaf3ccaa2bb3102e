package scans

import (
	"time"
)

// ID tipe untuk Record
type RecordID string

// DefaultCap jumlah maksimum entry di history
const DefaultCap = 100

// DefaultTimeFormat format jam yang dikirim ke dashboard
const DefaultTimeFormat = "15:04:05"

// Record is one accepted scan. Immutable once created.
type Record struct {
	ID          RecordID  `json:"id"`
	Code        string    `json:"raw_code"`
	DisplayCode string    `json:"code"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Entry is the wire form returned by GET /scans
type Entry struct {
	Code string `json:"code"`
	Time string `json:"time"`
}

// ToEntry renders r for the dashboard using layout in loc.
func (r Record) ToEntry(layout string, loc *time.Location) Entry {
	if layout == "" {
		layout = DefaultTimeFormat
	}
	t := r.CapturedAt
	if loc != nil {
		t = t.In(loc)
	}
	return Entry{Code: r.DisplayCode, Time: t.Format(layout)}
}

// Matches reports whether r is addressed by any of codes.
// Dashboards send back the formatted code, older clients the raw one.
func (r Record) Matches(codes map[string]struct{}) bool {
	if _, ok := codes[r.DisplayCode]; ok {
		return true
	}
	_, ok := codes[r.Code]
	return ok
}

// CodeSet builds the lookup set used by DeleteWhere implementations.
func CodeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}
