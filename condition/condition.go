// Package condition implements the query condition algebra: an immutable
// tree of leaf predicates and boolean combinators, with an in-memory
// evaluator over models and a wire codec for the tagged map form.
package condition

import (
	"github.com/vinicius-lino-figueiredo/datahub/model"
)

// Condition tags.
const (
	TagAnd       = "and"
	TagOr        = "or"
	TagNot       = "not"
	TagKeyValue  = "kv"
	TagKeyValues = "kvs"
	TagExist     = "exist"
	TagNonExist  = "nonexist"
	TagGreater   = "greater"
	TagLesser    = "lesser"

	// Early wire dialect used different comparison tags. They are accepted
	// on load and never emitted.
	tagLarger  = "larger"
	tagSmaller = "smaller"
)

// Condition is one node of a query condition tree. Conditions are never
// mutated after construction.
type Condition interface {
	// Check reports whether the model satisfies the condition. Leaf
	// predicates are satisfied when any value reachable at their key path
	// satisfies the comparison.
	Check(m *model.Model) bool
	// Tag returns the wire tag of the condition.
	Tag() string
}

// AndCondition is satisfied when every child is. An empty child list is
// vacuously true.
type AndCondition struct {
	Conditions []Condition
}

// And combines conditions conjunctively.
func And(conditions ...Condition) *AndCondition {
	return &AndCondition{Conditions: conditions}
}

// Check implements [Condition].
func (c *AndCondition) Check(m *model.Model) bool {
	for _, child := range c.Conditions {
		if !child.Check(m) {
			return false
		}
	}
	return true
}

// Tag implements [Condition].
func (c *AndCondition) Tag() string { return TagAnd }

// OrCondition is satisfied when at least one child is.
type OrCondition struct {
	Conditions []Condition
}

// Or combines conditions disjunctively.
func Or(conditions ...Condition) *OrCondition {
	return &OrCondition{Conditions: conditions}
}

// Check implements [Condition].
func (c *OrCondition) Check(m *model.Model) bool {
	for _, child := range c.Conditions {
		if child.Check(m) {
			return true
		}
	}
	return false
}

// Tag implements [Condition].
func (c *OrCondition) Tag() string { return TagOr }

// NotCondition negates its single child.
type NotCondition struct {
	Condition Condition
}

// Not negates a condition.
func Not(c Condition) *NotCondition {
	return &NotCondition{Condition: c}
}

// Check implements [Condition].
func (c *NotCondition) Check(m *model.Model) bool {
	return !c.Condition.Check(m)
}

// Tag implements [Condition].
func (c *NotCondition) Tag() string { return TagNot }

// KeyValueCondition compares reachable values at a key path against one
// target value.
//
// With Equals set it is satisfied when any reachable value equals the
// target. With Equals unset it is satisfied when any reachable value
// differs, or when the path resolves to nothing at all. Absence counts as
// satisfying "not equal", which matters for collection fan-out queries.
type KeyValueCondition struct {
	Key    string
	Value  any
	Equals bool
}

// KeyValue builds an equality predicate.
func KeyValue(key string, value any) *KeyValueCondition {
	return &KeyValueCondition{Key: key, Value: value, Equals: true}
}

// KeyNotValue builds an inequality predicate.
func KeyNotValue(key string, value any) *KeyValueCondition {
	return &KeyValueCondition{Key: key, Value: value}
}

// Check implements [Condition].
func (c *KeyValueCondition) Check(m *model.Model) bool {
	if c.Equals {
		for v := range m.Query(c.Key) {
			if Equal(v, c.Value) {
				return true
			}
		}
		return false
	}
	hasValue := false
	for v := range m.Query(c.Key) {
		if !Equal(v, c.Value) {
			return true
		}
		hasValue = true
	}
	return !hasValue
}

// Tag implements [Condition].
func (c *KeyValueCondition) Tag() string { return TagKeyValue }

// KeyValuesCondition is the membership counterpart of [KeyValueCondition],
// with the same absence-satisfies-negation rule when Includes is unset.
type KeyValuesCondition struct {
	Key      string
	Values   []any
	Includes bool
}

// KeyValues builds a membership predicate.
func KeyValues(key string, values ...any) *KeyValuesCondition {
	return &KeyValuesCondition{Key: key, Values: values, Includes: true}
}

// KeyNotValues builds an exclusion predicate.
func KeyNotValues(key string, values ...any) *KeyValuesCondition {
	return &KeyValuesCondition{Key: key, Values: values}
}

// Check implements [Condition].
func (c *KeyValuesCondition) Check(m *model.Model) bool {
	if c.Includes {
		for v := range m.Query(c.Key) {
			if c.contains(v) {
				return true
			}
		}
		return false
	}
	hasValue := false
	for v := range m.Query(c.Key) {
		if !c.contains(v) {
			return true
		}
		hasValue = true
	}
	return !hasValue
}

func (c *KeyValuesCondition) contains(v any) bool {
	for _, candidate := range c.Values {
		if Equal(v, candidate) {
			return true
		}
	}
	return false
}

// Tag implements [Condition].
func (c *KeyValuesCondition) Tag() string { return TagKeyValues }

// ExistCondition is satisfied when the key path resolves to at least one
// value.
type ExistCondition struct {
	Key string
}

// Exist builds an existence predicate.
func Exist(key string) *ExistCondition {
	return &ExistCondition{Key: key}
}

// Check implements [Condition].
func (c *ExistCondition) Check(m *model.Model) bool {
	for range m.Query(c.Key) {
		return true
	}
	return false
}

// Tag implements [Condition].
func (c *ExistCondition) Tag() string { return TagExist }

// NonExistCondition is satisfied when the key path resolves to nothing.
type NonExistCondition struct {
	Key string
}

// NonExist builds a non-existence predicate.
func NonExist(key string) *NonExistCondition {
	return &NonExistCondition{Key: key}
}

// Check implements [Condition].
func (c *NonExistCondition) Check(m *model.Model) bool {
	for range m.Query(c.Key) {
		return false
	}
	return true
}

// Tag implements [Condition].
func (c *NonExistCondition) Tag() string { return TagNonExist }

// GreaterCondition is satisfied when any reachable value is greater than
// the target, or greater-or-equal when Equals is set. Values that do not
// compare with the target never satisfy it.
type GreaterCondition struct {
	Key    string
	Value  any
	Equals bool
}

// Greater builds a strict greater-than predicate.
func Greater(key string, value any) *GreaterCondition {
	return &GreaterCondition{Key: key, Value: value}
}

// GreaterEqual builds an inclusive greater-than predicate.
func GreaterEqual(key string, value any) *GreaterCondition {
	return &GreaterCondition{Key: key, Value: value, Equals: true}
}

// Check implements [Condition]. Values outside the bound's comparison
// family are skipped, not ordered.
func (c *GreaterCondition) Check(m *model.Model) bool {
	for v := range m.Query(c.Key) {
		if !Comparable(v, c.Value) {
			continue
		}
		comp, err := Compare(v, c.Value)
		if err != nil {
			continue
		}
		if comp > 0 || (c.Equals && comp == 0) {
			return true
		}
	}
	return false
}

// Tag implements [Condition].
func (c *GreaterCondition) Tag() string { return TagGreater }

// LesserCondition is the mirror of [GreaterCondition].
type LesserCondition struct {
	Key    string
	Value  any
	Equals bool
}

// Lesser builds a strict less-than predicate.
func Lesser(key string, value any) *LesserCondition {
	return &LesserCondition{Key: key, Value: value}
}

// LesserEqual builds an inclusive less-than predicate.
func LesserEqual(key string, value any) *LesserCondition {
	return &LesserCondition{Key: key, Value: value, Equals: true}
}

// Check implements [Condition]. Values outside the bound's comparison
// family are skipped, not ordered.
func (c *LesserCondition) Check(m *model.Model) bool {
	for v := range m.Query(c.Key) {
		if !Comparable(v, c.Value) {
			continue
		}
		comp, err := Compare(v, c.Value)
		if err != nil {
			continue
		}
		if comp < 0 || (c.Equals && comp == 0) {
			return true
		}
	}
	return false
}

// Tag implements [Condition].
func (c *LesserCondition) Tag() string { return TagLesser }
