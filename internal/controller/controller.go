// Package controller runs the scan state machine: one physical scan yields
// exactly one accepted or rejected event, then waits for the operator.
package controller

import (
	"context"
	"errors"
	"io"
	"sync"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/logger"
)

type State int

const (
	Idle State = iota
	Armed
	Paused
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventAccepted
	EventRejected
	EventSubmitFailed
	EventAdvanced
)

// Event is what the operator sees after each transition.
type Event struct {
	Kind    EventKind
	Raw     string
	Display string
	Err     error
}

// Session is the transient state shown to the operator; reset on Advance.
type Session struct {
	State       State
	Started     bool
	LastRaw     string
	LastDisplay string
	LastError   error
}

// Controller is safe for concurrent use.
type Controller struct {
	validator domain.Validator
	submitter domain.Submitter

	mu      sync.Mutex
	session Session
	busy    bool
	closed  bool
	wg      sync.WaitGroup

	log *logger.Logger
}

func New(v domain.Validator, s domain.Submitter) *Controller {
	return &Controller{
		validator: v,
		submitter: s,
		log:       logger.Named("controller"),
	}
}

// Start moves Idle -> Armed.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.session.State != Idle {
		return false
	}
	c.session.State = Armed
	c.session.Started = true
	return true
}

// HandleDecode consumes one decode. It returns false when the decode was
// dropped because the controller is not Armed (or already closed).
func (c *Controller) HandleDecode(ctx context.Context, raw string) (Event, bool) {
	c.mu.Lock()
	if c.closed || c.session.State != Armed {
		c.mu.Unlock()
		return Event{}, false
	}
	// pause dulu sebelum validasi, decode berikutnya langsung di-drop
	c.session.State = Paused
	c.session.LastRaw = raw
	c.session.LastDisplay = ""
	c.session.LastError = nil
	c.busy = true
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	ev := c.process(ctx, raw)

	c.mu.Lock()
	c.busy = false
	c.session.LastDisplay = ev.Display
	c.session.LastError = ev.Err
	c.mu.Unlock()
	return ev, true
}

func (c *Controller) process(ctx context.Context, raw string) Event {
	accepted, err := c.validator.Validate(raw)
	if err != nil {
		c.log.Debug().Str("raw", raw).Err(err).Msg("decode rejected")
		return Event{Kind: EventRejected, Raw: raw, Err: err}
	}

	if err := c.submitter.Submit(ctx, accepted.Code); err != nil {
		var se *domain.SubmissionError
		if !errors.As(err, &se) {
			err = &domain.SubmissionError{Code: accepted.Code, Err: err}
		}
		c.log.Debug().Str("code", accepted.Display).Err(err).Msg("submission failed")
		return Event{Kind: EventSubmitFailed, Raw: raw, Display: accepted.Display, Err: err}
	}
	c.log.Debug().Str("code", accepted.Display).Msg("scan accepted")
	return Event{Kind: EventAccepted, Raw: raw, Display: accepted.Display}
}

// Advance moves Paused -> Armed and clears what was on screen.
// Refused while the last decode is still being submitted.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.busy || c.session.State != Paused {
		return false
	}
	c.session = Session{State: Armed, Started: true}
	return true
}

// Close drops every later decode and waits for an in-flight submission.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Run drives the controller from dec until EOF or ctx is done.
// Empty payloads start the session, then advance after each decode.
func (c *Controller) Run(ctx context.Context, dec Decoder, onEvent func(Event)) error {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	for {
		text, err := dec.Decode(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if text == "" {
			switch {
			case c.Start():
				onEvent(Event{Kind: EventStarted})
			case c.Advance():
				onEvent(Event{Kind: EventAdvanced})
			}
			continue
		}
		if ev, ok := c.HandleDecode(ctx, text); ok {
			onEvent(ev)
		}
	}
}
