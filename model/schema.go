package model

import "sort"

// UnknownFieldPolicy decides what construction does with raw keys the schema
// does not declare.
type UnknownFieldPolicy int

const (
	// UnknownFieldError rejects undeclared keys.
	UnknownFieldError UnknownFieldPolicy = iota
	// UnknownFieldIgnore silently drops undeclared keys.
	UnknownFieldIgnore
)

// Index declares a secondary index a store adapter should build for the
// schema's collection.
type Index struct {
	Keys   []string
	Unique bool
	Sparse bool
}

// Meta carries schema-wide construction and storage policy.
type Meta struct {
	// Namespace is the storage collection name.
	Namespace string
	// Strict runs the required-field sweep after construction.
	Strict bool
	// NilForUnassigned makes [Model.Get] return nil for unset fields
	// instead of [ErrMissingField].
	NilForUnassigned bool
	// UnknownFields is the policy for undeclared raw keys.
	UnknownFields UnknownFieldPolicy
	// ContinueOnError accumulates construction errors into one
	// [CompoundError] instead of failing on the first.
	ContinueOnError bool
	// AutoInitialize materializes defaults at construction time.
	AutoInitialize bool
	// Indices are secondary indexes for the store adapter.
	Indices []Index
	// Expires names datetime fields that drive store-side expiry (TTL)
	// indexes.
	Expires []string
}

// DefaultMeta mirrors the conventional schema policy: lenient reads, error
// accumulation, automatic defaults.
var DefaultMeta = Meta{
	NilForUnassigned: true,
	ContinueOnError:  true,
	AutoInitialize:   true,
}

// Schema is the field registry of one entity type, built once and shared by
// every model instance.
type Schema struct {
	meta   Meta
	fields map[string]*Field
	order  []string
}

// NewSchema builds a schema from the given fields. A later field with the
// same name overrides an earlier one, which is how extension merges work.
func NewSchema(meta Meta, fields ...*Field) *Schema {
	s := &Schema{meta: meta, fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		s.add(f)
	}
	return s
}

// Extend derives a new schema that inherits every field of s, with the given
// fields overriding by name.
func (s *Schema) Extend(meta Meta, fields ...*Field) *Schema {
	derived := &Schema{meta: meta, fields: make(map[string]*Field, len(s.fields)+len(fields))}
	for _, name := range s.order {
		derived.add(s.fields[name])
	}
	for _, f := range fields {
		derived.add(f)
	}
	return derived
}

func (s *Schema) add(f *Field) {
	if _, exists := s.fields[f.name]; !exists {
		s.order = append(s.order, f.name)
	}
	s.fields[f.name] = f
}

// Meta returns the schema policy.
func (s *Schema) Meta() Meta { return s.meta }

// Namespace returns the storage collection name.
func (s *Schema) Namespace() string { return s.meta.Namespace }

// Field looks a field up by name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// FieldNames returns the declared field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// New returns an empty model of this schema, with defaults materialized when
// the schema auto-initializes. A declared default the field type rejects is
// reported instead of leaving the model half initialized.
func (s *Schema) New() (*Model, error) {
	m := &Model{schema: s, values: make(map[string]any)}
	if s.meta.AutoInitialize {
		if err := m.Initialize(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load constructs a model from a raw key/value map, honoring the schema's
// unknown-field, error-accumulation, default and strictness policies.
func (s *Schema) Load(raw map[string]any) (*Model, error) {
	m := &Model{schema: s, values: make(map[string]any, len(raw))}
	var errs []error
	for _, name := range s.sortedRawKeys(raw) {
		value := raw[name]
		f, known := s.fields[name]
		if !known {
			if s.meta.UnknownFields == UnknownFieldIgnore {
				continue
			}
			err := &NestedError{Key: name, Err: ErrUnknownField{Field: name}}
			if !s.meta.ContinueOnError {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		typed, err := f.Load(value)
		if err != nil {
			err = &NestedError{Key: name, Err: err}
			if !s.meta.ContinueOnError {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		if typed != nil {
			m.values[name] = typed
		}
	}
	if err := combine(errs); err != nil {
		return nil, err
	}
	if s.meta.Strict {
		if err := m.ValidateRequired(true); err != nil {
			return nil, err
		}
	}
	if s.meta.AutoInitialize {
		if err := m.Initialize(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// sortedRawKeys fixes the load order so error accumulation is deterministic.
func (s *Schema) sortedRawKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for _, name := range s.order {
		if _, ok := raw[name]; ok {
			keys = append(keys, name)
		}
	}
	var unknown []string
	for name := range raw {
		if _, known := s.fields[name]; !known {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return append(keys, unknown...)
}
