package dashboard

import (
	"io"
	"os"

	"github.com/aymanbagabas/go-osc52/v2"
)

// ClipboardSink receives the text of an export-all.
type ClipboardSink interface {
	Copy(text string) error
}

// OSC52Sink copies through the terminal with an OSC 52 escape sequence,
// which also works over SSH.
type OSC52Sink struct {
	Out  io.Writer // default os.Stderr
	Tmux bool
}

func (s OSC52Sink) Copy(text string) error {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	seq := osc52.New(text)
	if s.Tmux || os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(out)
	return err
}
