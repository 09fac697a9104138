package apierr

import "net/http"

// Code is the machine-readable error code surfaced in API responses.
type Code string

const (
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeConfigError     Code = "CONFIG_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error carries an HTTP status, a stable code, and a human-readable message.
// Domain failures are surfaced to the transport layer as values of this type;
// anything else is treated as an internal error.
type Error struct {
	Status  int
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status/code pair.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, message)
}

func Config(message string) *Error {
	return New(http.StatusInternalServerError, CodeConfigError, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// From normalizes any error into an *Error. Non-API errors map to a generic
// internal error so details never leak to clients.
func From(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return Internal("internal error")
}
