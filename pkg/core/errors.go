package core

import (
	"errors"
	"fmt"
	"strings"
)

// ReferenceError is returned when a join names a parent alias that is not
// present in the join tree. It aborts query construction.
type ReferenceError struct {
	Alias string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("the table %s was not identified", e.Alias)
}

// ValidationError reports a malformed argument: a missing join target,
// a duplicate alias, a key/column shape mismatch.
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

// NotFoundError is returned by single-record lookups that matched zero rows.
type NotFoundError struct {
	Table string
	Key   []any
}

func (e *NotFoundError) Error() string {
	if len(e.Key) == 0 {
		return fmt.Sprintf("registry not found in %s", e.Table)
	}
	parts := make([]string, len(e.Key))
	for i, k := range e.Key {
		parts[i] = fmt.Sprint(k)
	}
	return fmt.Sprintf("registry not found in %s (key %s)", e.Table, strings.Join(parts, ":"))
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsReferenceError reports whether err wraps a ReferenceError.
func IsReferenceError(err error) bool {
	var re *ReferenceError
	return errors.As(err, &re)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
