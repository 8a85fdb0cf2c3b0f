package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by every layer. Callers match with errors.Is.
var (
	// ErrValidation marks input that is missing or out of range. Nothing is
	// written when it is returned.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a record store read or write failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrSuggestion marks a failing or unparseable suggestion service.
	ErrSuggestion = errors.New("suggestion service failure")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *FieldError) Unwrap() error { return ErrValidation }

// Invalid builds a FieldError.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
