package scans

import (
	"errors"
	"fmt"
)

// ErrStorageDisabled returned when CSV archive is requested without object storage.
var ErrStorageDisabled = errors.New("export storage not configured")

// ErrEmptyCode means POST /scans arrived without a code.
var ErrEmptyCode = errors.New("code is required")

// LengthError rejects a decode with the wrong number of characters.
type LengthError struct {
	Length int
	Want   int // exact length, 0 when Min applies
	Min    int
}

func (e *LengthError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("invalid length: expected %d characters, got %d", e.Want, e.Length)
	}
	return fmt.Sprintf("invalid length: expected at least %d characters, got %d", e.Min, e.Length)
}

// CharsetError rejects a decode containing characters outside [A-Za-z0-9].
type CharsetError struct {
	Code     string
	Position int
}

func (e *CharsetError) Error() string {
	return fmt.Sprintf("invalid character at position %d: only letters and digits allowed", e.Position)
}

// SubmissionError wraps a failure forwarding an accepted code.
type SubmissionError struct {
	Code string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Code, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ClipboardError wraps a failed copy to the clipboard sink.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string { return "copy to clipboard: " + e.Err.Error() }

func (e *ClipboardError) Unwrap() error { return e.Err }

// ExportError wraps a failed CSV export.
type ExportError struct {
	Target string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Target == "" {
		return "export: " + e.Err.Error()
	}
	return fmt.Sprintf("export %s: %v", e.Target, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// IsValidation reports whether err came from the validator.
func IsValidation(err error) bool {
	var le *LengthError
	var ce *CharsetError
	return errors.As(err, &le) || errors.As(err, &ce)
}
