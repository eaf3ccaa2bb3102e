package scans

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestValidate_StrictLength(t *testing.T) {
	v := Validator{StrictLength: true}
	for _, n := range []int{0, 1, 5, 11, 19, 21, 40} {
		raw := strings.Repeat("A", n)
		_, err := v.Validate(raw)
		var le *LengthError
		if !errors.As(err, &le) {
			t.Fatalf("len %d: expected LengthError, got %v", n, err)
		}
		if le.Length != n {
			t.Fatalf("len %d: LengthError.Length = %d", n, le.Length)
		}
		if !strings.Contains(err.Error(), strconv.Itoa(n)) {
			t.Fatalf("len %d: message %q lacks observed length", n, err.Error())
		}
	}
}

func TestValidate_ShortScenario(t *testing.T) {
	_, err := Validator{StrictLength: true}.Validate("short")
	var le *LengthError
	if !errors.As(err, &le) || !strings.Contains(err.Error(), "5") {
		t.Fatalf("expected LengthError mentioning 5, got %v", err)
	}
}

func TestValidate_Charset(t *testing.T) {
	v := Validator{StrictLength: true}
	cases := []string{
		"ABCDEFGHIJKLMNOPQRS-",
		"ABCDEF GHIJKLMNOPQRS",
		"ABCDEFGHIJKLMNOPQRS_",
		"ÄBCDEFGHIJKLMNOPQRST",
		"ABCDEFGHIJ.LMNOPQRST",
	}
	for _, c := range cases {
		_, err := v.Validate(c)
		var ce *CharsetError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: expected CharsetError, got %v", c, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%q: IsValidation false", c)
		}
	}
}

func TestValidate_AcceptsAndFormats(t *testing.T) {
	v := Validator{StrictLength: true}
	cases := []string{
		"ABCDEFGHIJKLMNOPQRST",
		"89820012345678901234",
		"abcDEF12345ghiJKL678",
	}
	for _, s := range cases {
		got, err := v.Validate("  " + s + "\n")
		if err != nil {
			t.Fatalf("%q: unexpected %v", s, err)
		}
		want := s[0:6] + " " + s[6:11] + " " + s[11:20]
		if got.Display != want || got.Code != s {
			t.Fatalf("%q: got %+v want display %q", s, got, want)
		}
	}
}

func TestValidate_Degraded(t *testing.T) {
	v := Validator{StrictLength: false}

	got, err := v.Validate("ABCDEFGHIJKLMNO")
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	if got.Display != "ABCDEF GHIJK LMNO" {
		t.Fatalf("display = %q", got.Display)
	}

	got, err = v.Validate("ABCDEFGHIJK")
	if err != nil || got.Display != "ABCDEF GHIJK" {
		t.Fatalf("11 chars: %+v %v", got, err)
	}

	_, err = v.Validate("ABCDEFGHIJ")
	var le *LengthError
	if !errors.As(err, &le) || le.Min != 11 {
		t.Fatalf("expected min LengthError, got %v", err)
	}
}

func TestFormatCode(t *testing.T) {
	strict := Validator{StrictLength: true}
	if got := strict.FormatCode("ABCDEFGHIJKLMNOPQRST"); got != "ABCDEF GHIJK LMNOPQRST" {
		t.Fatalf("got %q", got)
	}
	if got := strict.FormatCode("ABCDEFGHIJKLMNO"); got != "ABCDEFGHIJKLMNO" {
		t.Fatalf("non-serial should pass through, got %q", got)
	}
	legacy := Validator{}
	if got := legacy.FormatCode("ABCDEFGHIJKLMNO"); got != "ABCDEF GHIJK LMNO" {
		t.Fatalf("legacy got %q", got)
	}
}

func TestStripSeparators(t *testing.T) {
	if got := StripSeparators("ABCDEF GHIJK\tLMNOPQRST"); got != "ABCDEFGHIJKLMNOPQRST" {
		t.Fatalf("got %q", got)
	}
}
