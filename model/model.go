package model

import (
	"iter"
	"strings"
)

// Model is one typed record: a schema plus the concrete values currently
// assigned. Values are always stored in their loaded, in-memory
// representation, never raw wire form.
type Model struct {
	schema *Schema
	values map[string]any
}

// Schema returns the schema the model was built from.
func (m *Model) Schema() *Schema { return m.schema }

// Initialize materializes defaults for every unset field that declares one.
func (m *Model) Initialize() error {
	var errs []error
	for _, name := range m.schema.order {
		f := m.schema.fields[name]
		if !f.HasDefault() {
			continue
		}
		if _, set := m.values[name]; set {
			continue
		}
		typed, err := f.Load(f.DefaultValue())
		if err != nil {
			errs = append(errs, &NestedError{Key: name, Err: err})
			continue
		}
		if typed != nil {
			m.values[name] = typed
		}
	}
	return combine(errs)
}

// Get returns the value of a field. An unset field yields nil when the
// schema allows it, [ErrMissingField] otherwise. Unknown names always fail.
func (m *Model) Get(name string) (any, error) {
	if _, known := m.schema.fields[name]; !known {
		return nil, ErrUnknownField{Field: name}
	}
	value, set := m.values[name]
	if !set {
		if m.schema.meta.NilForUnassigned {
			return nil, nil
		}
		return nil, ErrMissingField{Field: name}
	}
	return value, nil
}

// Lookup returns the value of a field and whether it is set.
func (m *Model) Lookup(name string) (any, bool) {
	value, set := m.values[name]
	return value, set
}

// Set assigns a field, converting the given value through the field's type.
func (m *Model) Set(name string, value any) error {
	f, known := m.schema.fields[name]
	if !known {
		return ErrUnknownField{Field: name}
	}
	typed, err := f.Load(value)
	if err != nil {
		return &NestedError{Key: name, Err: err}
	}
	if typed == nil {
		delete(m.values, name)
		return nil
	}
	m.values[name] = typed
	return nil
}

// Unset removes a field's value.
func (m *Model) Unset(name string) {
	delete(m.values, name)
}

// ID returns the model's "_id" value, or the empty string when unset.
func (m *Model) ID() string {
	id, _ := m.values["_id"].(string)
	return id
}

// Query yields every value reachable through a dot-separated path. A set
// collection field additionally yields its elements, so membership checks
// see both the container and its items. Unset fields and dead-end paths
// yield nothing.
func (m *Model) Query(path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		head, rest, _ := strings.Cut(path, ".")
		f, known := m.schema.fields[head]
		if !known {
			return
		}
		value, set := m.values[head]
		if !set {
			return
		}
		if rest != "" {
			for v := range f.typ.Query(value, rest) {
				if !yield(v) {
					return
				}
			}
			return
		}
		if !yield(value) {
			return
		}
		switch items := value.(type) {
		case []any:
			for _, item := range items {
				if !yield(item) {
					return
				}
			}
		case Set:
			for item := range items {
				if !yield(item) {
					return
				}
			}
		}
	}
}

// Dump serializes the model back to a raw key/value map. A nil context uses
// [DefaultDumpContext]. Fields whose dump is omitted do not appear in the
// result.
func (m *Model) Dump(ctx *DumpContext) (map[string]any, error) {
	if ctx == nil {
		ctx = DefaultDumpContext
	}
	raw := make(map[string]any, len(m.values))
	var errs []error
	for _, name := range m.schema.order {
		f := m.schema.fields[name]
		value := m.values[name]
		dumped, ok, err := f.Dump(value, ctx)
		if err != nil {
			err = &NestedError{Key: name, Err: err}
			if !m.schema.meta.ContinueOnError {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		if ok {
			raw[name] = dumped
		}
	}
	if err := combine(errs); err != nil {
		return nil, err
	}
	return raw, nil
}

// Validate runs the required-field sweep and per-field validation with the
// schema's error-accumulation policy.
func (m *Model) Validate() error {
	return m.ValidateContext(ValidateContext{ContinueOnError: m.schema.meta.ContinueOnError})
}

// ValidateContext validates under an explicit context.
func (m *Model) ValidateContext(vctx ValidateContext) error {
	var errs []error
	if err := m.ValidateRequired(true); err != nil {
		if !vctx.ContinueOnError {
			return err
		}
		errs = append(errs, err)
	}
	for _, name := range m.schema.order {
		value, set := m.values[name]
		if !set {
			continue
		}
		f := m.schema.fields[name]
		if err := f.Validate(value, vctx); err != nil {
			err = &NestedError{Key: name, Err: err}
			if !vctx.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return combine(errs)
}

// ValidateRequired checks that every required field has a value, filling in
// defaults first when fill is true.
func (m *Model) ValidateRequired(fill bool) error {
	var errs []error
	for _, name := range m.schema.order {
		f := m.schema.fields[name]
		if !f.Required() {
			continue
		}
		if _, set := m.values[name]; set {
			continue
		}
		if fill && f.HasDefault() {
			typed, err := f.Load(f.DefaultValue())
			if err == nil && typed != nil {
				m.values[name] = typed
				continue
			}
		}
		errs = append(errs, ErrMissingRequiredField{Field: name})
	}
	return combine(errs)
}

// Clone returns a deep copy sharing the schema but none of the values.
func (m *Model) Clone() *Model {
	clone := &Model{schema: m.schema, values: make(map[string]any, len(m.values))}
	for name, value := range m.values {
		if f, known := m.schema.fields[name]; known {
			clone.values[name] = f.typ.Clone(value)
		}
	}
	return clone
}

// Equals compares two models field by field. A field set on one side and
// empty or unset on the other breaks equality; fields empty on both sides
// are ignored.
func (m *Model) Equals(other *Model) bool {
	if other == nil {
		return false
	}
	seen := make(map[string]struct{}, len(m.values))
	for _, name := range m.schema.order {
		seen[name] = struct{}{}
		if !fieldEquals(m.schema.fields[name].typ, m.values[name], other.values[name]) {
			return false
		}
	}
	for name, value := range other.values {
		if _, done := seen[name]; done {
			continue
		}
		f, known := other.schema.fields[name]
		if !known || !f.typ.Empty(value) {
			return false
		}
	}
	return true
}

func fieldEquals(t Type, a, b any) bool {
	ea, eb := t.Empty(a), t.Empty(b)
	if ea || eb {
		return ea == eb
	}
	return t.Equals(a, b)
}
