// Package apperr defines the error taxonomy every handler maps to HTTP.
// Raw backend error text never reaches a client: unclassified errors become
// a generic internal error and the original is logged server-side.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Code string

const (
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvalidTransition  Code = "invalid_transition"
	CodePreconditionFailed Code = "precondition_failed"
	CodeInternal           Code = "internal_error"
)

type Error struct {
	Code    Code
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg, Status: fiber.StatusUnauthorized}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg, Status: fiber.StatusForbidden}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Status: fiber.StatusBadRequest}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Status: fiber.StatusNotFound}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg, Status: fiber.StatusConflict}
}

func InvalidTransition(msg string) *Error {
	return &Error{Code: CodeInvalidTransition, Message: msg, Status: fiber.StatusUnprocessableEntity}
}

func PreconditionFailed(msg string) *Error {
	return &Error{Code: CodePreconditionFailed, Message: msg, Status: fiber.StatusUnprocessableEntity}
}

// Internal wraps an unexpected error. The cause is kept for server-side
// logging; the client-facing message stays generic.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", Status: fiber.StatusInternalServerError, cause: cause}
}

// From classifies err: an *Error passes through, anything else is Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
