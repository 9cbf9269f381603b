package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(CodeParse, "bad line").
		WithContext("line", 12).
		WithContext("column", "A")

	got := err.Error()
	if !strings.HasPrefix(got, "[E301] bad line") {
		t.Errorf("Error() = %q", got)
	}
	// Context keys render in sorted order so messages are deterministic.
	if !strings.Contains(got, "column=A, line=12") {
		t.Errorf("Error() = %q, want sorted context", got)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fs.ErrPermission
	err := Wrap(cause, CodeIO, "cannot read input file")

	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("wrapped cause should be reachable through errors.Is")
	}
	if Wrap(nil, CodeIO, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestIsCode(t *testing.T) {
	err := InvalidDeviceConfig("6400", "fluorometer")
	if !IsCode(err, CodeInvalidDeviceConfig) {
		t.Error("IsCode should match the constructor's code")
	}
	if IsCode(err, CodeParse) {
		t.Error("IsCode should not match other codes")
	}

	// Codes survive further wrapping with %w.
	wrapped := fmt.Errorf("file x: %w", err)
	if !IsCode(wrapped, CodeInvalidDeviceConfig) {
		t.Error("IsCode should see through fmt wrapping")
	}

	if IsCode(nil, CodeParse) {
		t.Error("IsCode(nil) should be false")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Error("plain errors report CodeUnknown")
	}
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		code Code
	}{
		{FileNotFound("/x"), CodeFileNotFound},
		{IO(stderrors.New("disk"), "/x"), CodeIO},
		{Parse(7, "bad"), CodeParse},
		{MissingVariable("gsw", "standard"), CodeMissingVariable},
		{UnsupportedOutput("xlsx"), CodeUnsupportedOutput},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("constructor code = %s, want %s", tc.err.Code, tc.code)
		}
	}

	if Parse(7, "bad").Context["line"] != 7 {
		t.Error("Parse should carry the line number")
	}
}

func TestMultiError(t *testing.T) {
	m := &MultiError{}
	if m.Combined() != nil {
		t.Error("empty MultiError combines to nil")
	}

	m.Add(nil)
	if m.HasErrors() {
		t.Error("Add(nil) should be ignored")
	}

	first := Parse(1, "a")
	m.Add(first)
	if m.Combined() != first {
		t.Error("single error combines to itself")
	}

	m.Add(Parse(2, "b"))
	combined := m.Combined()
	if combined == nil || !strings.Contains(combined.Error(), "2 errors occurred") {
		t.Errorf("combined = %v", combined)
	}
}
