// Package apperr defines the error taxonomy shared by services and handlers.
// Services return *Error values; handlers translate them into HTTP responses
// with StatusOf.
package apperr

import (
	"errors"
	"net/http"
)

// Kind sentinels. Use errors.Is(err, apperr.ErrConflict) to test an error's kind.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Is lets errors.Is match the kind sentinel.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind error, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Unauthenticated(msg string) *Error { return newErr(ErrUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return newErr(ErrForbidden, msg) }
func Validation(msg string) *Error      { return newErr(ErrValidation, msg) }
func Conflict(msg string) *Error        { return newErr(ErrConflict, msg) }
func NotFound(msg string) *Error        { return newErr(ErrNotFound, msg) }

// Unavailable wraps an infrastructure failure that the caller may retry later.
func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: ErrUnavailable, Message: msg, Cause: cause}
}

// StatusOf maps an error to its HTTP status code. Unknown errors are 500.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-facing text for err. Internal errors never leak
// their cause.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return "internal server error"
}
