package model

import (
	"iter"
	"strconv"
	"strings"

	"github.com/goccy/go-reflect"
)

// Set is the typed representation of a set field. Items must be comparable
// values such as the scalar types produce.
type Set map[any]struct{}

// asSlice widens the accepted raw encodings of a sequence: []any directly,
// any other slice or array kind via reflection.
func asSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for n := range items {
		items[n] = rv.Index(n).Interface()
	}
	return items, true
}

type listType struct {
	item Type
}

// List returns a list field type whose elements are loaded, validated,
// dumped and cloned through the given item type.
func List(item Type) Type { return listType{item: item} }

func (t listType) Load(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := asSlice(value)
	if !ok {
		return nil, ErrValueConversion{Value: value, TargetType: "list"}
	}
	loaded := make([]any, 0, len(items))
	for n, raw := range items {
		v, err := loadItem(t.item, raw)
		if err != nil {
			return nil, &NestedError{Key: strconv.Itoa(n), Err: err}
		}
		loaded = append(loaded, v)
	}
	return loaded, nil
}

func (t listType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	items := value.([]any)
	dumped := make([]any, 0, len(items))
	for n, v := range items {
		raw, ok, err := t.item.Dump(v, ctx)
		if err != nil {
			return nil, false, &NestedError{Key: strconv.Itoa(n), Err: err}
		}
		if ok {
			dumped = append(dumped, raw)
		}
	}
	return dumped, true, nil
}

func (t listType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return ErrTypeValidation{ExpectedType: "[]any", Value: value}
	}
	var errs []error
	for n, v := range items {
		if err := t.item.Validate(v, vctx); err != nil {
			err = &NestedError{Key: strconv.Itoa(n), Err: err}
			if !vctx.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return combine(errs)
}

func (t listType) Query(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		items, ok := value.([]any)
		if !ok {
			return
		}
		for _, item := range items {
			for v := range t.item.Query(item, path) {
				if !yield(v) {
					return
				}
			}
		}
	}
}

func (t listType) Equals(a, b any) bool {
	la, ok1 := a.([]any)
	lb, ok2 := b.([]any)
	if !ok1 || !ok2 || len(la) != len(lb) {
		return false
	}
	for n := range la {
		if !t.item.Equals(la[n], lb[n]) {
			return false
		}
	}
	return true
}

func (t listType) Clone(value any) any {
	items, ok := value.([]any)
	if !ok {
		return value
	}
	cloned := make([]any, len(items))
	for n, v := range items {
		cloned[n] = t.item.Clone(v)
	}
	return cloned
}

func (t listType) Empty(value any) bool {
	if value == nil {
		return true
	}
	items, ok := value.([]any)
	return ok && len(items) == 0
}

func (t listType) EmptyValue() any { return []any{} }

type setType struct {
	item Type
}

// NewSet returns a set field type. Raw sequences load into a [Set]; item
// order is not preserved and duplicates collapse.
func NewSet(item Type) Type { return setType{item: item} }

func (t setType) Load(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var items []any
	switch v := value.(type) {
	case Set:
		for item := range v {
			items = append(items, item)
		}
	default:
		var ok bool
		items, ok = asSlice(value)
		if !ok {
			return nil, ErrValueConversion{Value: value, TargetType: "set"}
		}
	}
	loaded := make(Set, len(items))
	for n, raw := range items {
		v, err := loadItem(t.item, raw)
		if err != nil {
			return nil, &NestedError{Key: strconv.Itoa(n), Err: err}
		}
		loaded[v] = struct{}{}
	}
	return loaded, nil
}

func (t setType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	set := value.(Set)
	dumped := make([]any, 0, len(set))
	for v := range set {
		raw, ok, err := t.item.Dump(v, ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			dumped = append(dumped, raw)
		}
	}
	return dumped, true, nil
}

func (t setType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	set, ok := value.(Set)
	if !ok {
		return ErrTypeValidation{ExpectedType: "model.Set", Value: value}
	}
	var errs []error
	for v := range set {
		if err := t.item.Validate(v, vctx); err != nil {
			if !vctx.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return combine(errs)
}

func (t setType) Query(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		set, ok := value.(Set)
		if !ok {
			return
		}
		for item := range set {
			for v := range t.item.Query(item, path) {
				if !yield(v) {
					return
				}
			}
		}
	}
}

func (t setType) Equals(a, b any) bool {
	sa, ok1 := a.(Set)
	sb, ok2 := b.(Set)
	if !ok1 || !ok2 || len(sa) != len(sb) {
		return false
	}
	for v := range sa {
		if _, found := sb[v]; !found {
			return false
		}
	}
	return true
}

func (t setType) Clone(value any) any {
	set, ok := value.(Set)
	if !ok {
		return value
	}
	cloned := make(Set, len(set))
	for v := range set {
		cloned[t.item.Clone(v)] = struct{}{}
	}
	return cloned
}

func (t setType) Empty(value any) bool {
	if value == nil {
		return true
	}
	set, ok := value.(Set)
	return ok && len(set) == 0
}

func (t setType) EmptyValue() any { return Set{} }

type mapType struct {
	item Type
}

// Map returns a string-keyed map field type with item-typed values.
func Map(item Type) Type { return mapType{item: item} }

func (t mapType) Load(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, ErrValueConversion{Value: value, TargetType: "map"}
	}
	loaded := make(map[string]any, len(raw))
	for k, v := range raw {
		item, err := loadItem(t.item, v)
		if err != nil {
			return nil, &NestedError{Key: k, Err: err}
		}
		loaded[k] = item
	}
	return loaded, nil
}

func (t mapType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	items := value.(map[string]any)
	dumped := make(map[string]any, len(items))
	for k, v := range items {
		raw, ok, err := t.item.Dump(v, ctx)
		if err != nil {
			return nil, false, &NestedError{Key: k, Err: err}
		}
		if ok {
			dumped[k] = raw
		}
	}
	return dumped, true, nil
}

func (t mapType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	items, ok := value.(map[string]any)
	if !ok {
		return ErrTypeValidation{ExpectedType: "map[string]any", Value: value}
	}
	var errs []error
	for k, v := range items {
		if err := t.item.Validate(v, vctx); err != nil {
			err = &NestedError{Key: k, Err: err}
			if !vctx.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return combine(errs)
}

func (t mapType) Query(value any, path string) iter.Seq[any] {
	return func(yield func(any) bool) {
		items, ok := value.(map[string]any)
		if !ok {
			return
		}
		name, rest, hasRest := strings.Cut(path, ".")
		item, found := items[name]
		if !found {
			return
		}
		if !hasRest {
			yield(item)
			return
		}
		for v := range t.item.Query(item, rest) {
			if !yield(v) {
				return
			}
		}
	}
}

func (t mapType) Equals(a, b any) bool {
	ma, ok1 := a.(map[string]any)
	mb, ok2 := b.(map[string]any)
	if !ok1 || !ok2 || len(ma) != len(mb) {
		return false
	}
	for k, v := range ma {
		w, found := mb[k]
		if !found || !t.item.Equals(v, w) {
			return false
		}
	}
	return true
}

func (t mapType) Clone(value any) any {
	items, ok := value.(map[string]any)
	if !ok {
		return value
	}
	cloned := make(map[string]any, len(items))
	for k, v := range items {
		cloned[k] = t.item.Clone(v)
	}
	return cloned
}

func (t mapType) Empty(value any) bool {
	if value == nil {
		return true
	}
	items, ok := value.(map[string]any)
	return ok && len(items) == 0
}

func (t mapType) EmptyValue() any { return map[string]any{} }

// loadItem runs one collection element through the full item pipeline: type
// load plus type validation, the same contract [Field.Load] applies.
func loadItem(t Type, raw any) (any, error) {
	v, err := t.Load(raw)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(v, ValidateContext{}); err != nil {
		return nil, err
	}
	return v, nil
}
