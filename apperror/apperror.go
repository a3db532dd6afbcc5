// Package apperror defines the application error model: operational errors
// carry a caller-safe message and an HTTP status code, everything else is
// treated as a programming error and hidden behind a generic 500 outside
// development.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is an operational application error.
type Error struct {
	Code        int
	Message     string
	Err         error
	Operational bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the envelope status string: "fail" for 4xx, "error"
// otherwise.
func (e *Error) Status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

// New creates an operational error with the given status code and message.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message, Operational: true}
}

// Wrap attaches a cause to an operational error.
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err, Operational: true}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Internal(message string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message, Err: err, Operational: true}
}

// ValidationError carries the individual constraint violations collected
// while validating a document write.
type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Error() string {
	return "Invalid input data. " + strings.Join(v.Problems, ". ")
}
