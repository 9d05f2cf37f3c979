// Package fserrors defines the error taxonomy shared by every pathscout package.
//
// All errors leaving the discovery core are *Error values carrying a Code.
// Callers match them with errors.Is against the exported sentinels, which
// compare by code only.
package fserrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Code classifies an Error.
type Code string

const (
	CodeInvalidConfig       Code = "INVALID_CONFIG"
	CodeInvalidRoot         Code = "INVALID_ROOT"
	CodeTraversalFailed     Code = "TRAVERSAL_FAILED"
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	CodeTraversalLoop       Code = "TRAVERSAL_LOOP"
	CodeRepositoryNotFound  Code = "REPOSITORY_NOT_FOUND"
	CodeInvalidStartPath    Code = "INVALID_START_PATH"
	CodeInvalidBoundary     Code = "INVALID_BOUNDARY"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
)

// Severity tells the caller how the error was treated by the core.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

// Sentinels for errors.Is.
var (
	ErrInvalidConfig       = &Error{Code: CodeInvalidConfig}
	ErrInvalidRoot         = &Error{Code: CodeInvalidRoot}
	ErrTraversalFailed     = &Error{Code: CodeTraversalFailed}
	ErrConstraintViolation = &Error{Code: CodeConstraintViolation}
	ErrTraversalLoop       = &Error{Code: CodeTraversalLoop}
	ErrRepositoryNotFound  = &Error{Code: CodeRepositoryNotFound}
	ErrInvalidStartPath    = &Error{Code: CodeInvalidStartPath}
	ErrInvalidBoundary     = &Error{Code: CodeInvalidBoundary}
	ErrValidationFailed    = &Error{Code: CodeValidationFailed}
)

// Error is a classified pathscout error.
type Error struct {
	Code     Code
	Message  string
	Path     string         // Offending path, if any.
	Severity Severity       // Empty means fatal.
	Context  map[string]any // Diagnostic fields (boundary, markers, depth, ...).
	Err      error          // Underlying cause.
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error with the given code around an underlying cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithPath sets the offending path and returns the receiver.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithContext adds a diagnostic field and returns the receiver.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsWarning marks the error as reported-and-skipped rather than fatal.
func (e *Error) AsWarning() *Error {
	e.Severity = SeverityWarning
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (path: %s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// MarshalLogObject lets zap emit the error as a structured object.
func (e *Error) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("code", string(e.Code))
	if e.Message != "" {
		enc.AddString("message", e.Message)
	}
	if e.Path != "" {
		enc.AddString("path", e.Path)
	}
	if e.Severity != "" {
		enc.AddString("severity", string(e.Severity))
	}
	if e.Err != nil {
		enc.AddString("cause", e.Err.Error())
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := enc.AddReflected(k, e.Context[k]); err != nil {
			return err
		}
	}
	return nil
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// IsFatal reports whether err should terminate the call it was raised in.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return true
	}
	return e.Severity != SeverityWarning
}
