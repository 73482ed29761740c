package services

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotRecurring  = errors.New("event is not part of a recurring series")
	ErrCategoryInUse = errors.New("category still has events")
	ErrConflict      = errors.New("already exists")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed input. It is never retried.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it carries field errors and nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid builds a validation error without field details.
func Invalid(message string) *ValidationError {
	return &ValidationError{Message: message}
}
