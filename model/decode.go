package model

import (
	"fmt"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
)

// ErrDecodeTargetNil is returned by [Decode] when the target is nil.
var ErrDecodeTargetNil = fmt.Errorf("decode target is nil")

// ErrDecodeNonPointer is returned by [Decode] when the target is not a
// pointer.
var ErrDecodeNonPointer = fmt.Errorf("decode target is not a pointer")

// ErrDecode reports a failed decode from a model into a Go value.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// Decode copies a model's values into an arbitrary Go struct or map, using
// "datahub" struct tags for field mapping. Nested models are flattened into
// plain maps first.
func Decode(m *Model, target any) error {
	if target == nil {
		return ErrDecodeTargetNil
	}
	value := reflect.ValueNoEscapeOf(target)
	if value.Kind() != reflect.Ptr {
		return ErrDecodeNonPointer
	}
	source := flatten(m)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "datahub",
		Result:  target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := ErrDecode{Source: m, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

func flatten(m *Model) map[string]any {
	values := make(map[string]any, len(m.values))
	for name, value := range m.values {
		values[name] = flattenValue(value)
	}
	return values
}

func flattenValue(value any) any {
	switch t := value.(type) {
	case *Model:
		return flatten(t)
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = flattenValue(v)
		}
		return lst
	case Set:
		lst := make([]any, 0, len(t))
		for v := range t {
			lst = append(lst, flattenValue(v))
		}
		return lst
	case map[string]any:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = flattenValue(v)
		}
		return doc
	default:
		return value
	}
}
