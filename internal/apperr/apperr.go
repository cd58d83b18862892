// Package apperr defines the application error taxonomy shared by the
// engine and its delivery layers. Every error is per-request and
// recoverable; none is fatal to the process.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodePersistence = "PERSISTENCE_ERROR"
	CodeInternal    = "INTERNAL_ERROR"
)

// Error is an application error with a machine code and an HTTP status.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a VALIDATION_ERROR. The input was malformed or
// failed a sanity check; safe to retry after fixing the input.
func Validation(format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadRequest,
	}
}

// NotFound creates a NOT_FOUND error for a missing referenced entity.
func NotFound(resource string, id any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// Conflict creates a CONFLICT error. Used for duplicate idempotency
// keys, which callers treat as success-no-op rather than failure.
func Conflict(format string, args ...any) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusConflict,
	}
}

// Persistence wraps a storage commit failure. The coordinated update is
// retried as a whole, never sub-step by sub-step.
func Persistence(err error) *Error {
	return &Error{
		Code:    CodePersistence,
		Message: "failed to persist update",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "internal error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CodeOf returns the application error code for err, or CodeInternal
// if err is not an *Error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
