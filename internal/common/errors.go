// Package common defines the error taxonomy and shared constants used by
// both the identity service and the terminal client. Callers should match
// sentinels with errors.Is and typed errors with errors.As.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrUnauthenticated  = errors.New("unauthenticated")

	// Edge-level errors.
	ErrMalformedInput = errors.New("malformed input")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// FieldError describes one failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// ConflictError reports a uniqueness violation on a single user field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists.", e.Field, e.Value)
}

// UnauthenticatedError is a guard rejection. Message is safe to show to the
// caller, Cause is for logs only.
type UnauthenticatedError struct {
	Message string
	Cause   error
}

func (e *UnauthenticatedError) Error() string { return e.Message }

func (e *UnauthenticatedError) Unwrap() error { return ErrUnauthenticated }
