package controller

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

const serial = "ABCDEFGHIJKLMNOPQRST"

type recorder struct {
	mu    sync.Mutex
	codes []string
	err   error
	gate  chan struct{}
}

func (r *recorder) Submit(_ context.Context, code string) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.codes = append(r.codes, code)
	return nil
}

func (r *recorder) submitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

func newController(sub domain.Submitter) *Controller {
	return New(domain.Validator{StrictLength: true}, sub)
}

func TestHandleDecode_IgnoredUntilStarted(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	if _, ok := c.HandleDecode(context.Background(), serial); ok {
		t.Fatal("idle controller must drop decodes")
	}
	if len(rec.submitted()) != 0 {
		t.Fatal("nothing should be submitted")
	}
}

func TestHandleDecode_AcceptThenPause(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	c := newController(rec)
	c.Start()

	ev, ok := c.HandleDecode(ctx, serial)
	if !ok || ev.Kind != EventAccepted || ev.Display != "ABCDEF GHIJK LMNOPQRST" {
		t.Fatalf("event %+v ok=%v", ev, ok)
	}
	if _, ok := c.HandleDecode(ctx, serial); ok {
		t.Fatal("paused controller must drop decodes")
	}
	if got := rec.submitted(); len(got) != 1 || got[0] != serial {
		t.Fatalf("submitted %v", got)
	}

	s := c.Session()
	if s.State != Paused || s.LastDisplay != "ABCDEF GHIJK LMNOPQRST" || s.LastError != nil {
		t.Fatalf("session %+v", s)
	}

	if !c.Advance() {
		t.Fatal("advance from paused")
	}
	if s := c.Session(); s.State != Armed || s.LastRaw != "" || s.LastDisplay != "" {
		t.Fatalf("session not reset: %+v", s)
	}
}

func TestHandleDecode_RejectionNotSubmitted(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	c.Start()

	ev, ok := c.HandleDecode(context.Background(), "short")
	if !ok || ev.Kind != EventRejected {
		t.Fatalf("event %+v", ev)
	}
	var le *domain.LengthError
	if !errors.As(ev.Err, &le) || le.Length != 5 {
		t.Fatalf("err %v", ev.Err)
	}
	if len(rec.submitted()) != 0 {
		t.Fatal("rejected code reached the submitter")
	}
	if s := c.Session(); s.LastRaw != "short" || s.LastError == nil {
		t.Fatalf("session %+v", s)
	}
}

func TestHandleDecode_SubmissionFailure(t *testing.T) {
	c := newController(&recorder{err: errors.New("offline")})
	c.Start()
	ev, _ := c.HandleDecode(context.Background(), serial)
	var se *domain.SubmissionError
	if ev.Kind != EventSubmitFailed || !errors.As(ev.Err, &se) {
		t.Fatalf("event %+v", ev)
	}
	if !errors.As(c.Session().LastError, &se) {
		t.Fatal("session should carry the submission error")
	}
}

func TestHandleDecode_ConcurrentEmissionsSubmitOnce(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	c.Start()

	var handled atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.HandleDecode(context.Background(), serial); ok {
				handled.Add(1)
			}
		}()
	}
	wg.Wait()
	if handled.Load() != 1 || len(rec.submitted()) != 1 {
		t.Fatalf("handled=%d submitted=%d", handled.Load(), len(rec.submitted()))
	}
}

func TestAdvance_RefusedWhileSubmitting(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	c := newController(rec)
	c.Start()

	done := make(chan struct{})
	go func() {
		c.HandleDecode(context.Background(), serial)
		close(done)
	}()
	for c.Session().State != Paused {
	}
	if c.Advance() {
		t.Fatal("advance must wait for the submission")
	}
	close(rec.gate)
	<-done
	if !c.Advance() {
		t.Fatal("advance after submission")
	}
}

func TestClose_DropsLateDecodes(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	c := newController(rec)
	c.Start()

	go c.HandleDecode(context.Background(), serial)
	for c.Session().State != Paused {
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("close returned before the in-flight submission finished")
	default:
	}
	close(rec.gate)
	<-closed

	if c.Advance() {
		t.Fatal("advance after close")
	}
	if _, ok := c.HandleDecode(context.Background(), serial); ok {
		t.Fatal("decode after close")
	}
	if got := rec.submitted(); len(got) != 1 {
		t.Fatalf("submitted %v", got)
	}
}

func TestRun_LineDecoder(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	input := strings.Join([]string{
		serial, // idle: dropped
		"",     // start
		serial,
		serial, // paused: dropped
		"",     // advance
		"bad!",
		"",
		"12345678901234567890",
	}, "\n")

	dec := NewLineDecoder(strings.NewReader(input))
	defer dec.Close()

	var kinds []EventKind
	if err := c.Run(context.Background(), dec, func(ev Event) { kinds = append(kinds, ev.Kind) }); err != nil {
		t.Fatal(err)
	}
	want := []EventKind{EventStarted, EventAccepted, EventAdvanced, EventRejected, EventAdvanced, EventAccepted}
	if len(kinds) != len(want) {
		t.Fatalf("events %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events %v, want %v", kinds, want)
		}
	}
	if got := rec.submitted(); len(got) != 2 || got[1] != "12345678901234567890" {
		t.Fatalf("submitted %v", got)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, w := io.Pipe()
	defer w.Close()
	dec := NewLineDecoder(r)
	defer dec.Close()
	if err := newController(&recorder{}).Run(ctx, dec, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err %v", err)
	}
}
