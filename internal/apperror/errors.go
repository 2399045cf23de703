// Package apperror holds the error categories shared by every domain package.
// Domain sentinels wrap one of these so the HTTP layer can map any error to a
// status code without knowing about individual domains.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrUnprocessable   = errors.New("operation not allowed in current state")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Error is a domain error with a client-safe message and a category.
type Error struct {
	Kind    error
	Message string
}

func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Message returns the client-facing text carried by err, or fallback when err
// is not a domain error.
func Message(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
