package scans

import (
	"strings"
	"unicode"
)

// Serial layout: 6 + 5 + 9 characters
const (
	SerialLength = 20
	groupOneEnd  = 6
	groupTwoEnd  = 11
)

// AcceptedCode is a decode that passed every Validator rule.
type AcceptedCode struct {
	Code    string
	Display string
}

// Validator applies the shape rules to decoded strings.
// StrictLength=false is the legacy mode accepting any code of 11+ characters.
type Validator struct {
	StrictLength bool
}

// Validate trims raw and classifies it. Pure.
func (v Validator) Validate(raw string) (AcceptedCode, error) {
	code := strings.TrimSpace(raw)
	n := len([]rune(code))

	if v.StrictLength {
		if n != SerialLength {
			return AcceptedCode{}, &LengthError{Length: n, Want: SerialLength}
		}
	} else if n < groupTwoEnd {
		return AcceptedCode{}, &LengthError{Length: n, Min: groupTwoEnd}
	}

	for i, r := range []rune(code) {
		if !isAlnum(r) {
			return AcceptedCode{}, &CharsetError{Code: code, Position: i}
		}
	}

	return AcceptedCode{Code: code, Display: group(code)}, nil
}

// FormatCode applies the server-side display rule: serials are grouped,
// anything else is stored as sent. Legacy mode groups every code of 11+.
func (v Validator) FormatCode(code string) string {
	n := len([]rune(code))
	if n == SerialLength || (!v.StrictLength && n >= groupTwoEnd) {
		return group(code)
	}
	return code
}

// StripSeparators removes the grouping whitespace.
func StripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func group(code string) string {
	rs := []rune(code)
	if len(rs) < groupTwoEnd {
		return code
	}
	out := string(rs[:groupOneEnd]) + " " + string(rs[groupOneEnd:groupTwoEnd])
	if len(rs) > groupTwoEnd {
		out += " " + string(rs[groupTwoEnd:])
	}
	return out
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
