// Package errors provides structured error handling for licorflow.
// Errors carry codes and context so callers can report a useful message
// without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error kind for programmatic handling.
type Code string

const (
	// Selection errors (1xx): bad device/config pair, detected before file access.
	CodeInvalidDeviceConfig Code = "E101"

	// Input errors (2xx): the file itself.
	CodeFileNotFound Code = "E201"
	CodeIO           Code = "E202"

	// Structural errors (3xx): the log cannot be trusted past this point.
	CodeParse           Code = "E301"
	CodeInvalidHeader   Code = "E302"
	CodeMissingVariable Code = "E303"
	CodeEmptyData       Code = "E304"

	// Output errors (4xx): the adapter boundary.
	CodeUnsupportedOutput Code = "E401"
	CodeWriteFailed       Code = "E402"

	// Unknown
	CodeUnknown Code = "E999"
)

// Error is the base error type for all licorflow errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for _, k := range sortedKeys(e.Context) {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, e.Context[k]))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// --- Convenience constructors ---

// InvalidDeviceConfig reports an unregistered (device, config) pair.
func InvalidDeviceConfig(device, config string) *Error {
	return New(CodeInvalidDeviceConfig, "unsupported device/config pair").
		WithContext("device", device).
		WithContext("config", config)
}

// FileNotFound reports a missing input file.
func FileNotFound(path string) *Error {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// IO wraps a read failure on the input file.
func IO(err error, path string) *Error {
	return Wrap(err, CodeIO, "cannot read input file").WithContext("path", path)
}

// Parse reports a structural error at a specific line.
func Parse(line int, message string) *Error {
	return New(CodeParse, message).WithContext("line", line)
}

// MissingVariable reports a required schema column absent from the file layout.
func MissingVariable(variable, config string) *Error {
	return New(CodeMissingVariable, "required variable missing from file layout").
		WithContext("variable", variable).
		WithContext("config", config)
}

// UnsupportedOutput reports an unrecognized output kind at the sink boundary.
func UnsupportedOutput(kind string) *Error {
	return New(CodeUnsupportedOutput, "unsupported output format").
		WithContext("kind", kind)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort keeps error strings deterministic without importing sort.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// MultiError collects per-file errors from batch conversion.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil if no errors, the single error if one, or the MultiError.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
