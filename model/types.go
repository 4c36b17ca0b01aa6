// Package model contains the declarative typed data-model layer: field types
// with load/dump/validate/query semantics, schemas built from named fields,
// and the Model entity the condition algebra queries into.
//
// Raw data enters through [Schema.Load] as a map of primitives, is converted
// field by field into typed values, and leaves through [Model.Dump] the same
// way. Dot-separated paths ("a.b.c") traverse nested models and fan out
// across collections, which is what lets a condition reach arbitrarily deep
// into an entity.
package model

import "iter"

// Type defines the behavior of one kind of field value. Implementations are
// stateless; per-field configuration (required, default, choices) lives on
// [Field].
type Type interface {
	// Load converts a raw primitive into the typed representation. A nil
	// or empty raw value loads as nil without error; anything else that
	// cannot be converted returns [ErrValueConversion].
	Load(value any) (any, error)
	// Dump converts a typed value back to a raw primitive. The second
	// return reports whether the value should appear in the output at
	// all; an empty value is omitted rather than failing.
	Dump(value any, ctx *DumpContext) (any, bool, error)
	// Validate re-checks the runtime type of a loaded value and recurses
	// into nested structures.
	Validate(value any, vctx ValidateContext) error
	// Query traverses into the value following a dot-separated path,
	// fanning out across collection elements. Unresolvable segments yield
	// nothing.
	Query(value any, path string) iter.Seq[any]
	// Equals compares two typed values using the type's own notion of
	// equality.
	Equals(a, b any) bool
	// Clone deep-copies the value so the copy shares no mutable
	// sub-structure with the original.
	Clone(value any) any
	// Empty reports whether the value counts as unset for this type.
	Empty(value any) bool
	// EmptyValue returns the canonical empty representation used to
	// back-fill declared-but-absent fields on dump.
	EmptyValue() any
}

// baseType carries the default behavior shared by the scalar types.
type baseType struct{}

func (baseType) Query(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {}
}

func (baseType) Equals(a, b any) bool { return a == b }

func (baseType) Clone(value any) any { return value }

func (baseType) Empty(value any) bool { return value == nil }

func (baseType) EmptyValue() any { return nil }

// dumpValue is the shared scalar dump path: omit when empty, else pass the
// typed value through.
func dumpValue(t Type, value any) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	return value, true, nil
}
