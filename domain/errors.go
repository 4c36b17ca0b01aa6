package domain

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is returned when a replace, update or delete targets an
// identity that does not exist.
var ErrModelNotFound = errors.New("model not found")

// ErrDuplicatedKey is returned by create without overwrite when an entity
// with the same identity or an equal unique-index key already exists.
type ErrDuplicatedKey struct {
	Key string
}

func (e ErrDuplicatedKey) Error() string {
	return fmt.Sprintf("duplicated key [%s]", e.Key)
}

// ErrFeatureNotSupported is returned by repository methods the adapter does
// not implement.
type ErrFeatureNotSupported struct {
	Feature Feature
}

func (e ErrFeatureNotSupported) Error() string {
	return fmt.Sprintf("feature [%s] not supported", e.Feature)
}

// ErrFeatureNotEnabled is returned by the manager when an operation maps to
// a feature outside the enabled set.
type ErrFeatureNotEnabled struct {
	Feature Feature
}

func (e ErrFeatureNotEnabled) Error() string {
	return fmt.Sprintf("feature [%s] not enabled", e.Feature)
}

// ErrInvalidParameter reports a caller-correctable argument problem.
type ErrInvalidParameter struct {
	Reason string
}

func (e ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter: %s", e.Reason)
}

// ErrBadValue reports a value the storage layer cannot represent or
// translate.
type ErrBadValue struct {
	Reason  string
	Context any
}

func (e ErrBadValue) Error() string {
	if e.Context == nil {
		return fmt.Sprintf("bad value: %s", e.Reason)
	}
	return fmt.Sprintf("bad value: %s [%v]", e.Reason, e.Context)
}
