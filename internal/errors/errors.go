// Package errors provides coded errors shared by every layer of the service.
// Handlers map codes to HTTP statuses; services and repositories only ever
// deal in codes.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies the class of an error.
type Code string

const (
	ErrCodeValidation        Code = "VALIDATION"
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeConflict          Code = "CONFLICT"
	ErrCodeUnauthorized      Code = "UNAUTHORIZED"
	ErrCodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	ErrCodeAlreadyResolved   Code = "ALREADY_RESOLVED"
	ErrCodeTokenInvalid      Code = "INVALID_OR_EXPIRED_TOKEN"
	ErrCodeExternal          Code = "EXTERNAL_SERVICE_FAILURE"
	ErrCodePartialMutation   Code = "PARTIAL_MUTATION_FAILURE"
	ErrCodeInternal          Code = "INTERNAL"
)

// Error is an error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// InvalidInput reports a validation failure for a named field.
func InvalidInput(field, message string) error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf("%s: %s", field, message)}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// CodeOf returns the code carried by err, or ErrCodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
