package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Violation is a single failed input rule, in the shape the client's form
// error handler expects.
type Violation struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// Error is a classified API error. Handlers map it straight to a status
// code and the {message, data} response envelope.
type Error struct {
	Status  int         `json:"-"`
	Message string      `json:"message"`
	Data    []Violation `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Validation builds a 422 carrying the violated rules.
func Validation(message string, data ...Violation) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: message, Data: data}
}

// Unauthenticated builds a 401 for missing, malformed or expired credentials.
func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden builds a 403 for an authenticated caller who is not the owner.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound builds a 404 for an absent entity.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// UnsupportedMedia builds a 422 for an upload of a disallowed type.
func UnsupportedMedia(message string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Data:    []Violation{{Param: "image", Msg: message}},
	}
}

// Internal builds a 500 with a generic message; the underlying cause is for
// the logs, not the client.
func Internal() *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal server error."}
}

// FromErr classifies err: already-classified errors pass through unchanged,
// anything else is normalized to Internal.
func FromErr(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal()
}
