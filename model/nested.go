package model

import (
	"iter"
	"strings"

	"github.com/goccy/go-reflect"
)

type nestedType struct {
	schema *Schema
}

// Nested returns a field type holding a sub-model of the given schema.
func Nested(schema *Schema) Type { return nestedType{schema: schema} }

func (t nestedType) Load(value any) (any, error) {
	switch v := value.(type) {
	case *Model:
		return v, nil
	case map[string]any:
		return t.schema.Load(v)
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "model"}
	}
}

func (t nestedType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	raw, err := value.(*Model).Dump(ctx)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (t nestedType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	m, ok := value.(*Model)
	if !ok {
		return ErrTypeValidation{ExpectedType: "*model.Model", Value: value}
	}
	return m.ValidateContext(vctx)
}

func (t nestedType) Query(value any, path string) iter.Seq[any] {
	return modelQuery(value, path)
}

func (t nestedType) Equals(a, b any) bool { return modelEquals(a, b) }

func (t nestedType) Clone(value any) any {
	if m, ok := value.(*Model); ok {
		return m.Clone()
	}
	return value
}

func (t nestedType) Empty(value any) bool { return value == nil }

func (t nestedType) EmptyValue() any { return nil }

// SchemaSelector inspects a raw map and decides which concrete schema to
// parse it into.
type SchemaSelector func(raw map[string]any) (*Schema, error)

type dynamicType struct {
	selector SchemaSelector
}

// Dynamic returns a polymorphic model field type: the selector picks the
// concrete schema from the raw content before loading.
func Dynamic(selector SchemaSelector) Type { return dynamicType{selector: selector} }

func (t dynamicType) Load(value any) (any, error) {
	switch v := value.(type) {
	case *Model:
		return v, nil
	case map[string]any:
		schema, err := t.selector(v)
		if err != nil {
			return nil, err
		}
		return schema.Load(v)
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "model"}
	}
}

func (t dynamicType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return nestedType{}.Dump(value, ctx)
}

func (t dynamicType) Validate(value any, vctx ValidateContext) error {
	if value == nil {
		return nil
	}
	m, ok := value.(*Model)
	if !ok {
		return ErrTypeValidation{ExpectedType: "*model.Model", Value: value}
	}
	return m.ValidateContext(vctx)
}

func (t dynamicType) Query(value any, path string) iter.Seq[any] {
	return modelQuery(value, path)
}

func (t dynamicType) Equals(a, b any) bool { return modelEquals(a, b) }

func (t dynamicType) Clone(value any) any {
	if m, ok := value.(*Model); ok {
		return m.Clone()
	}
	return value
}

func (t dynamicType) Empty(value any) bool { return value == nil }

func (t dynamicType) EmptyValue() any { return nil }

func modelQuery(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		m, ok := value.(*Model)
		if !ok {
			return
		}
		for v := range m.Query(path) {
			if !yield(v) {
				return
			}
		}
	}
}

func modelEquals(a, b any) bool {
	ma, ok1 := a.(*Model)
	mb, ok2 := b.(*Model)
	if ok1 && ok2 {
		return ma.Equals(mb)
	}
	return a == b
}

type anyType struct{ baseType }

// Any returns the untyped field type. Values pass through load and dump
// unchanged; queries walk raw maps and fan out across raw slices.
func Any() Type { return anyType{} }

func (anyType) Load(value any) (any, error) { return value, nil }

func (t anyType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return dumpValue(t, value)
}

func (anyType) Validate(value any, vctx ValidateContext) error { return nil }

func (t anyType) Query(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		t.query(value, path, yield)
	}
}

func (t anyType) query(value any, path string, yield func(any) bool) bool {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if !t.query(item, path, yield) {
				return false
			}
		}
	case map[string]any:
		name, rest, hasRest := strings.Cut(path, ".")
		next, found := v[name]
		if !found {
			return true
		}
		if !hasRest {
			return yield(next)
		}
		return t.query(next, rest, yield)
	}
	// A scalar mid-path resolves to nothing.
	return true
}

func (anyType) Equals(a, b any) bool { return reflect.DeepEqual(a, b) }

func (anyType) Clone(value any) any { return deepClone(value) }

// deepClone copies the raw-value shapes Any can hold: maps, slices and
// scalars.
func deepClone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(v))
		for k, item := range v {
			cloned[k] = deepClone(item)
		}
		return cloned
	case []any:
		cloned := make([]any, len(v))
		for n, item := range v {
			cloned[n] = deepClone(item)
		}
		return cloned
	default:
		return v
	}
}
