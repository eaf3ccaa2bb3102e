package scans

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// utf8BOM supaya Excel baca CSV sebagai UTF-8
const utf8BOM = "\ufeff"

// CSVHeader kolom CSV export
var CSVHeader = []string{"scan time", "code"}

// WriteCSV writes BOM, header and one row per entry, newest first.
func WriteCSV(w io.Writer, entries []Entry) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return &ExportError{Err: err}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return &ExportError{Err: err}
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Time, e.Code}); err != nil {
			return &ExportError{Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &ExportError{Err: err}
	}
	return nil
}

// CSVFileName returns the download name for an export taken at now.
func CSVFileName(now time.Time) string {
	return fmt.Sprintf("scans_%s.csv", now.Format("2006-01-02"))
}
