package model

import "github.com/goccy/go-reflect"

// Field describes one named attribute of a schema: its type plus the
// per-field configuration the declarative layer needs (required-ness,
// default, choice set, dump behavior and override hooks).
type Field struct {
	name          string
	typ           Type
	required      bool
	defaultValue  any
	defaultFunc   func() any
	choices       []any
	dumpWhenEmpty bool
	loadFunc      func(f *Field, value any) (any, error)
	dumpFunc      func(f *Field, value any, ctx *DumpContext) (any, bool, error)
	validateFunc  func(f *Field, value any, vctx ValidateContext) error
}

// FieldOption configures a [Field] through the functional options pattern.
type FieldOption func(*Field)

// Required marks the field as required. A required field with a default never
// fails the missing-field sweep: absence is back-filled from the default.
func Required() FieldOption {
	return func(f *Field) { f.required = true }
}

// Default sets a static default value, materialized at construction or
// validation time when the field has no value.
func Default(value any) FieldOption {
	return func(f *Field) { f.defaultValue = value }
}

// DefaultFunc sets a generated default, called each time a default is
// materialized.
func DefaultFunc(fn func() any) FieldOption {
	return func(f *Field) { f.defaultFunc = fn }
}

// Choices restricts valid values to an enumerated set.
func Choices(values ...any) FieldOption {
	return func(f *Field) { f.choices = values }
}

// DumpWhenEmpty makes the field appear in dumps even when its value is
// empty, using the type's canonical empty representation for absent values.
func DumpWhenEmpty() FieldOption {
	return func(f *Field) { f.dumpWhenEmpty = true }
}

// WithLoader overrides the type's load behavior for this field.
func WithLoader(fn func(f *Field, value any) (any, error)) FieldOption {
	return func(f *Field) { f.loadFunc = fn }
}

// WithDumper overrides the type's dump behavior for this field.
func WithDumper(fn func(f *Field, value any, ctx *DumpContext) (any, bool, error)) FieldOption {
	return func(f *Field) { f.dumpFunc = fn }
}

// WithValidator overrides the type's validate behavior for this field.
func WithValidator(fn func(f *Field, value any, vctx ValidateContext) error) FieldOption {
	return func(f *Field) { f.validateFunc = fn }
}

// NewField returns a new field with the given name and type.
func NewField(name string, typ Type, opts ...FieldOption) *Field {
	f := &Field{name: name, typ: typ}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field name, which is also its key in raw data.
func (f *Field) Name() string { return f.name }

// Type returns the field's value type.
func (f *Field) Type() Type { return f.typ }

// Required reports whether the field must carry a non-empty value on a
// validated model.
func (f *Field) Required() bool { return f.required }

// HasDefault reports whether the field can back-fill itself.
func (f *Field) HasDefault() bool { return f.defaultValue != nil || f.defaultFunc != nil }

// DefaultValue produces the default, calling the generator when one is set.
func (f *Field) DefaultValue() any {
	if f.defaultFunc != nil {
		return f.defaultFunc()
	}
	return f.defaultValue
}

// Load converts a raw value into the typed representation and validates the
// result (type and choice membership, but not required-ness, which is a
// model-level concern).
func (f *Field) Load(value any) (any, error) {
	var typed any
	var err error
	if f.loadFunc != nil {
		typed, err = f.loadFunc(f, value)
	} else {
		typed, err = f.typ.Load(value)
	}
	if err != nil {
		return nil, err
	}
	if err := f.Validate(typed, ValidateContext{}); err != nil {
		return nil, err
	}
	return typed, nil
}

// Dump converts the typed value back to raw. The second return reports
// whether the value should appear in the output; an empty value on a field
// without DumpWhenEmpty is omitted.
func (f *Field) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if ctx == nil {
		ctx = DefaultDumpContext
	}
	if f.typ.Empty(value) && !f.dumpWhenEmpty {
		return nil, false, nil
	}
	if f.dumpFunc != nil {
		return f.dumpFunc(f, value, ctx)
	}
	raw, ok, err := f.typ.Dump(value, ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok && f.dumpWhenEmpty {
		return f.typ.EmptyValue(), true, nil
	}
	return raw, ok, err
}

// Validate checks choice membership and runs the type's validation,
// accumulating errors when the context asks for it.
func (f *Field) Validate(value any, vctx ValidateContext) error {
	var errs []error
	if !f.typ.Empty(value) && len(f.choices) > 0 && !f.inChoices(value) {
		err := ErrChoiceValidation{Value: value, Choices: f.choices}
		if !vctx.ContinueOnError {
			return err
		}
		errs = append(errs, err)
	}
	var err error
	if f.validateFunc != nil {
		err = f.validateFunc(f, value, vctx)
	} else {
		err = f.typ.Validate(value, vctx)
	}
	if err != nil {
		if !vctx.ContinueOnError {
			return err
		}
		errs = append(errs, err)
	}
	return combine(errs)
}

// Empty reports whether the value counts as unset for this field's type.
func (f *Field) Empty(value any) bool { return f.typ.Empty(value) }

func (f *Field) inChoices(value any) bool {
	for _, choice := range f.choices {
		if reflect.DeepEqual(value, choice) {
			return true
		}
	}
	return false
}
