package controller

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// Decoder yields decoded barcode payloads. An empty payload is an operator
// trigger (start or advance). io.EOF ends the stream.
type Decoder interface {
	Decode(ctx context.Context) (string, error)
}

type lineResult struct {
	text string
	err  error
}

// LineDecoder reads one payload per line, e.g. from a keyboard-wedge scanner on stdin.
type LineDecoder struct {
	lines chan lineResult
	done  chan struct{}
	once  sync.Once
}

// NewLineDecoder starts reading r in the background.
func NewLineDecoder(r io.Reader) *LineDecoder {
	d := &LineDecoder{
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
	go d.read(r)
	return d
}

func (d *LineDecoder) read(r io.Reader) {
	defer close(d.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case d.lines <- lineResult{text: strings.TrimSpace(sc.Text())}:
		case <-d.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case d.lines <- lineResult{err: err}:
		case <-d.done:
		}
	}
}

// Decode blocks until the next line, ctx cancellation or end of input.
func (d *LineDecoder) Decode(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-d.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// Close stops the reader goroutine once it wakes up.
func (d *LineDecoder) Close() error {
	d.once.Do(func() { close(d.done) })
	return nil
}
