// Package apperr defines the error codes surfaced by the pantry layers.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of application error.
type Code string

const (
	CodeNotFound    Code = "NOT_FOUND"
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeUnavailable Code = "PERSISTENCE_UNAVAILABLE"
)

// Error is an application error with a code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	// Fields maps a field name to a human-readable problem (validation only).
	Fields map[string]string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, apperr.ErrUnavailable) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for use with errors.Is.
var (
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnavailable = &Error{Code: CodeUnavailable, Message: "persistence unavailable"}
)

// NotFound returns a not-found error with the given message.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Validation returns a validation error carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// Unavailable wraps a storage failure that happened while doing op.
func Unavailable(op string, err error) *Error {
	return &Error{Code: CodeUnavailable, Message: "persistence unavailable: " + op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// FieldsOf returns the validation fields of err, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
