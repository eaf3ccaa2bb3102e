package memory

import (
	"context"
	"sync"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

// HistoryStore keeps the scan history bounded to cap entries in a ring buffer.
type HistoryStore struct {
	mu    sync.RWMutex
	buf   []domain.Record
	pos   int // next write slot
	count int
}

// NewHistoryStore constructs a store with the provided capacity.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = domain.DefaultCap
	}
	return &HistoryStore{buf: make([]domain.Record, capacity)}
}

// Append inserts r at the head; once full the oldest entry is overwritten.
func (s *HistoryStore) Append(_ context.Context, r domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.pos] = r
	s.pos = (s.pos + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return nil
}

// List returns a snapshot, newest first.
func (s *HistoryStore) List(_ context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

func (s *HistoryStore) snapshot() []domain.Record {
	out := make([]domain.Record, s.count)
	for i := 0; i < s.count; i++ {
		idx := (s.pos - 1 - i + 2*len(s.buf)) % len(s.buf)
		out[i] = s.buf[idx]
	}
	return out
}

// ClearAll empties the store.
func (s *HistoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *HistoryStore) reset() {
	for i := range s.buf {
		s.buf[i] = domain.Record{}
	}
	s.pos, s.count = 0, 0
}

// DeleteWhere removes every record addressed by codes, keeping the order of the rest.
func (s *HistoryStore) DeleteWhere(_ context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	set := domain.CodeSet(codes)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot()
	kept := current[:0]
	for _, r := range current {
		if !r.Matches(set) {
			kept = append(kept, r)
		}
	}
	removed := s.count - len(kept)
	if removed == 0 {
		return 0, nil
	}

	// tulis ulang dari yang paling lama supaya urutan tetap
	s.reset()
	for i := len(kept) - 1; i >= 0; i-- {
		s.buf[s.pos] = kept[i]
		s.pos++
	}
	s.pos %= len(s.buf)
	s.count = len(kept)
	return removed, nil
}

// Count returns the number of stored records.
func (s *HistoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Cap returns the configured capacity.
func (s *HistoryStore) Cap() int { return len(s.buf) }
