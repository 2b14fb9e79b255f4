package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrIndexNotFound signals an index name that is not configured.
	ErrIndexNotFound = errors.New("index not found")
	// ErrUnknownClass signals a class name missing from the class registry.
	ErrUnknownClass = errors.New("unknown class")
	// ErrUnknownField signals a field that cannot be resolved against the class registry.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidIndex signals an invalid index definition.
	ErrInvalidIndex = errors.New("invalid index definition")
	// ErrWriteFailed signals that an index write was not accepted by the engine.
	ErrWriteFailed = errors.New("index write failed")
	// ErrEngineUnavailable signals that the search engine could not be reached.
	ErrEngineUnavailable = errors.New("search engine unavailable")
)

// FieldError wraps ErrUnknownField with the offending field name.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrUnknownField.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrUnknownField }

// NewFieldError creates a field resolution error.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
