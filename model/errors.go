package model

import (
	"fmt"
	"strings"
)

// ErrValueConversion is returned by a field type when a raw value cannot be
// converted to the typed representation.
type ErrValueConversion struct {
	Value      any
	TargetType string
}

// Error implements [error].
func (e ErrValueConversion) Error() string {
	return fmt.Sprintf("cannot convert %T value [%v] to %s", e.Value, e.Value, e.TargetType)
}

// ErrTypeValidation is returned when a loaded value has the wrong runtime
// type for its field.
type ErrTypeValidation struct {
	ExpectedType string
	Value        any
}

// Error implements [error].
func (e ErrTypeValidation) Error() string {
	return fmt.Sprintf("expect type %s, got %T value [%v]", e.ExpectedType, e.Value, e.Value)
}

// ErrChoiceValidation is returned when a value is not a member of the field's
// declared choice set.
type ErrChoiceValidation struct {
	Value   any
	Choices []any
}

// Error implements [error].
func (e ErrChoiceValidation) Error() string {
	return fmt.Sprintf("value [%v] not in choices %v", e.Value, e.Choices)
}

// ErrUnknownField is returned during strict construction when the raw data
// contains a key the schema does not declare.
type ErrUnknownField struct {
	Field string
}

// Error implements [error].
func (e ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// ErrMissingRequiredField is returned when a required field has no value and
// no default to back-fill it.
type ErrMissingRequiredField struct {
	Field string
}

// Error implements [error].
func (e ErrMissingRequiredField) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ErrMissingField is returned by [Model.Get] for a field that has no value,
// when the schema is not configured to yield nil instead.
type ErrMissingField struct {
	Field string
}

// Error implements [error].
func (e ErrMissingField) Error() string {
	return fmt.Sprintf("field %q has no value", e.Field)
}

// NestedError wraps an error raised inside a nested structure, keyed by field
// name, map key or list index, so callers can locate the failing sub-value.
type NestedError struct {
	Key string
	Err error
}

// Error implements [error].
func (e *NestedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Err)
}

// Unwrap exposes the wrapped error to [errors.Is] and [errors.As].
func (e *NestedError) Unwrap() error { return e.Err }

// CompoundError aggregates several field-level errors produced while
// operating in continue-on-error mode.
type CompoundError struct {
	Errors []error
}

// Error implements [error].
func (e *CompoundError) Error() string {
	msgs := make([]string, len(e.Errors))
	for n, err := range e.Errors {
		msgs[n] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the aggregated errors to [errors.Is] and [errors.As].
func (e *CompoundError) Unwrap() []error { return e.Errors }

// combine collapses an error list the way the accumulation pipeline reports
// it: nothing, or a [CompoundError]. The aggregate shape is kept even for a
// single error so callers inspect one type on every accumulation path.
func combine(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &CompoundError{Errors: errs}
}
