// Package apierror defines coded errors for the public HTTP surface.
//
// An Error carries the short title and the human-readable message returned to
// clients (Portuguese, matching the intake form audience), plus an optional
// field name for per-field rejections. Internal causes are never embedded in
// the client-facing strings; wrap infrastructure errors separately and log them
// server-side.
package apierror

import (
	"errors"
	"fmt"
)

// Code classifies an API error for HTTP status mapping.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeTooMany      Code = "too_many_requests"
	CodeInternal     Code = "internal"
)

// Error is a client-safe API error.
type Error struct {
	Code    Code
	Title   string // short error label, e.g. "Dados invalidos"
	Message string // human-readable detail shown to the end user
	Field   string // offending form field, when one can be named
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s (field %s)", e.Code, e.Title, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Title, e.Message)
}

// New constructs an API error with the given code, title and message.
func New(code Code, title, message string) *Error {
	return &Error{Code: code, Title: title, Message: message}
}

// WithField returns a copy of the error naming the offending form field.
func (e *Error) WithField(field string) *Error {
	clone := *e
	clone.Field = field
	return &clone
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code Code) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// From extracts an *Error from err, or nil when err is not an API error.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
