package model

import "time"

// MetadataSchema builds the envelope schema shared by every stored resource:
// creation time, logical timestamp, optional expiry and free-form labels.
func MetadataSchema() *Schema {
	return NewSchema(DefaultMeta,
		NewField("createTime", Datetime(), Required()),
		NewField("timestamp", Float(), Required()),
		NewField("expireTime", Datetime()),
		NewField("labels", Map(String())),
	)
}

// NewIDSchema builds a schema whose "_id" field is a required string with a
// generated default. A nil gen falls back to random identifiers from the
// store's generator at write time, so the field carries no default then.
func NewIDSchema(meta Meta, gen func() string, fields ...*Field) *Schema {
	idOpts := []FieldOption{Required()}
	if gen != nil {
		idOpts = append(idOpts, DefaultFunc(func() any { return gen() }))
	}
	all := make([]*Field, 0, len(fields)+1)
	all = append(all, NewField("_id", String(), idOpts...))
	all = append(all, fields...)
	return NewSchema(meta, all...)
}

// NewResourceSchema builds an ID schema carrying the standard "metadata"
// envelope alongside the given fields.
func NewResourceSchema(meta Meta, gen func() string, fields ...*Field) *Schema {
	all := make([]*Field, 0, len(fields)+1)
	all = append(all, NewField("metadata", Nested(MetadataSchema())))
	all = append(all, fields...)
	return NewIDSchema(meta, gen, all...)
}

// ResourceMetadata returns the model's metadata envelope, or nil when unset.
func ResourceMetadata(m *Model) *Model {
	meta, _ := m.values["metadata"].(*Model)
	return meta
}

// ResourceTimestamp returns the logical timestamp of the model's metadata,
// or zero when no metadata is set.
func ResourceTimestamp(m *Model) float64 {
	meta := ResourceMetadata(m)
	if meta == nil {
		return 0
	}
	ts, _ := meta.values["timestamp"].(float64)
	return ts
}

// Timestamp converts a wall-clock instant to the logical timestamp
// representation, seconds since the epoch with sub-second precision.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// StampResource writes creation time and logical timestamp into the model's
// metadata envelope, creating the envelope when missing. Creation time is
// only set once.
func StampResource(m *Model, now time.Time) error {
	meta := ResourceMetadata(m)
	if meta == nil {
		f, known := m.schema.fields["metadata"]
		if !known {
			return ErrUnknownField{Field: "metadata"}
		}
		nested, ok := f.typ.(nestedType)
		if !ok {
			return ErrTypeValidation{ExpectedType: "nested metadata", Value: f.typ}
		}
		fresh, err := nested.schema.New()
		if err != nil {
			return err
		}
		meta = fresh
		m.values["metadata"] = meta
	}
	if _, set := meta.values["createTime"]; !set {
		if err := meta.Set("createTime", now); err != nil {
			return err
		}
	}
	return meta.Set("timestamp", Timestamp(now))
}
