package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

func rec(code string) domain.Record {
	return domain.Record{
		ID:          domain.RecordID("id-" + code),
		Code:        code,
		DisplayCode: code,
		CapturedAt:  time.Unix(0, 0),
	}
}

func codes(t *testing.T, s *HistoryStore) []string {
	t.Helper()
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Code
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAppend_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(10)
	for _, c := range []string{"a", "b", "c"} {
		r := rec(c)
		if err := s.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
		list, _ := s.List(ctx)
		if list[0] != r {
			t.Fatalf("head = %+v, want %+v", list[0], r)
		}
	}
	if got := codes(t, s); !equal(got, []string{"c", "b", "a"}) {
		t.Fatalf("got %v", got)
	}
}

func TestAppend_EvictsOldestAtCap(t *testing.T) {
	ctx := context.Background()
	const capacity = 5
	s := NewHistoryStore(capacity)
	for i := 0; i <= capacity; i++ {
		_ = s.Append(ctx, rec(fmt.Sprintf("c%d", i)))
	}
	n, _ := s.Count(ctx)
	if n != capacity {
		t.Fatalf("count = %d", n)
	}
	for _, c := range codes(t, s) {
		if c == "c0" {
			t.Fatal("oldest entry should be evicted")
		}
	}
	if got := codes(t, s); got[0] != "c5" || got[capacity-1] != "c1" {
		t.Fatalf("got %v", got)
	}
}

func TestDeleteWhere_KeepsOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(10)
	for _, c := range []string{"a", "x", "b", "x", "c"} {
		_ = s.Append(ctx, rec(c))
	}
	removed, err := s.DeleteWhere(ctx, []string{"x"})
	if err != nil || removed != 2 {
		t.Fatalf("removed=%d err=%v", removed, err)
	}
	if got := codes(t, s); !equal(got, []string{"c", "b", "a"}) {
		t.Fatalf("got %v", got)
	}
	removed, _ = s.DeleteWhere(ctx, nil)
	if removed != 0 {
		t.Fatalf("empty set removed %d", removed)
	}
}

func TestDeleteWhere_MatchesDisplayCode(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(10)
	_ = s.Append(ctx, domain.Record{Code: "ABCDEFGHIJKLMNOPQRST", DisplayCode: "ABCDEF GHIJK LMNOPQRST"})
	removed, _ := s.DeleteWhere(ctx, []string{"ABCDEF GHIJK LMNOPQRST"})
	if removed != 1 {
		t.Fatalf("removed %d", removed)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(3)
	_ = s.Append(ctx, rec("a"))
	_ = s.ClearAll(ctx)
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("count after clear = %d", n)
	}
	_ = s.Append(ctx, rec("b"))
	if got := codes(t, s); !equal(got, []string{"b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestList_IsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(3)
	_ = s.Append(ctx, rec("a"))
	list, _ := s.List(ctx)
	list[0].Code = "mutated"
	if got := codes(t, s); got[0] != "a" {
		t.Fatalf("store mutated through snapshot: %v", got)
	}
}

func TestConcurrentAppendAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(1000)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = s.Append(ctx, rec(fmt.Sprintf("w%d-%d", w, i)))
				if i%10 == 0 {
					_, _ = s.DeleteWhere(ctx, []string{"nothing"})
					_, _ = s.List(ctx)
				}
			}
		}(w)
	}
	wg.Wait()
	if n, _ := s.Count(ctx); n != 400 {
		t.Fatalf("lost updates: count = %d", n)
	}
	seen := map[string]bool{}
	for _, c := range codes(t, s) {
		if seen[c] {
			t.Fatalf("duplicated record %s", c)
		}
		seen[c] = true
	}
}
