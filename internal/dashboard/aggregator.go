// Package dashboard keeps a polled view of the scan history and the
// operator actions on it: clipboard export, CSV export and deletion.
package dashboard

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/logger"
)

const DefaultPollInterval = 2 * time.Second

// Source is the history backend, usually the HTTP client.
type Source interface {
	List(ctx context.Context) ([]domain.Entry, error)
	Delete(ctx context.Context, codes []string) (string, error)
	DeleteAll(ctx context.Context) (string, error)
}

// Aggregator is safe for concurrent use.
type Aggregator struct {
	src      Source
	clip     ClipboardSink
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	entries  []domain.Entry
	selected map[string]struct{}
	polledAt time.Time
	lastErr  error

	log *logger.Logger
}

func New(src Source, clip ClipboardSink, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Aggregator{
		src:      src,
		clip:     clip,
		interval: interval,
		now:      time.Now,
		selected: make(map[string]struct{}),
		log:      logger.Named("dashboard"),
	}
}

// Poll replaces the local view with the server list.
// On failure the previous view is kept.
func (a *Aggregator) Poll(ctx context.Context) error {
	list, err := a.src.List(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err != nil {
		a.log.Debug().Err(err).Msg("poll failed")
		return err
	}
	a.entries = list
	a.polledAt = a.now()
	return nil
}

// Run polls immediately and then every interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context, onUpdate func([]domain.Entry, error)) error {
	if onUpdate == nil {
		onUpdate = func([]domain.Entry, error) {}
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		err := a.Poll(ctx)
		onUpdate(a.Entries(), err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Entries returns a copy of the current view, newest first.
func (a *Aggregator) Entries() []domain.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.Entry(nil), a.entries...)
}

// PolledAt is the time of the last successful poll.
func (a *Aggregator) PolledAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.polledAt
}

// LastError is the error of the last poll, nil when it succeeded.
func (a *Aggregator) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// ExportAll copies every code, separators stripped, one per line.
func (a *Aggregator) ExportAll() (int, error) {
	entries := a.Entries()
	if len(entries) == 0 {
		return 0, &domain.ClipboardError{Err: errors.New("nothing to copy")}
	}
	if a.clip == nil {
		return 0, &domain.ClipboardError{Err: errors.New("no clipboard available")}
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = domain.StripSeparators(e.Code)
	}
	if err := a.clip.Copy(strings.Join(lines, "\n")); err != nil {
		return 0, &domain.ClipboardError{Err: err}
	}
	return len(lines), nil
}

// WriteCSV writes the current view as CSV.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	return domain.WriteCSV(w, a.Entries())
}

// SaveCSV writes scans_<date>.csv into dir and returns its path.
func (a *Aggregator) SaveCSV(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, domain.CSVFileName(a.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", &domain.ExportError{Target: path, Err: err}
	}
	if err := a.WriteCSV(f); err != nil {
		f.Close()
		return "", &domain.ExportError{Target: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &domain.ExportError{Target: path, Err: err}
	}
	return path, nil
}

// Toggle flips code in the selection and reports whether it is now selected.
func (a *Aggregator) Toggle(code string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.selected[code]; ok {
		delete(a.selected, code)
		return false
	}
	a.selected[code] = struct{}{}
	return true
}

// IsSelected reports whether code is in the selection.
func (a *Aggregator) IsSelected(code string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.selected[code]
	return ok
}

// Selected returns the selection, sorted.
func (a *Aggregator) Selected() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.selected))
	for c := range a.selected {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// DeleteSelected deletes the selection, clears it and re-polls right away.
// A failed re-poll does not fail the delete; it shows up in LastError.
func (a *Aggregator) DeleteSelected(ctx context.Context) (string, error) {
	codes := a.Selected()
	if len(codes) == 0 {
		return "nothing selected", nil
	}
	msg, err := a.src.Delete(ctx, codes)
	if err != nil {
		return "", err
	}
	a.afterDelete(ctx)
	return msg, nil
}

// DeleteAll clears the whole history and re-polls.
func (a *Aggregator) DeleteAll(ctx context.Context) (string, error) {
	msg, err := a.src.DeleteAll(ctx)
	if err != nil {
		return "", err
	}
	a.afterDelete(ctx)
	return msg, nil
}

func (a *Aggregator) afterDelete(ctx context.Context) {
	a.mu.Lock()
	a.selected = make(map[string]struct{})
	a.mu.Unlock()
	_ = a.Poll(ctx)
}
