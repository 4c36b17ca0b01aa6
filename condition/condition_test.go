package condition

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/datahub/model"
)

type ConditionTestSuite struct {
	suite.Suite
	schema *model.Schema
}

func (s *ConditionTestSuite) SetupSuite() {
	address := model.NewSchema(model.DefaultMeta,
		model.NewField("city", model.String()),
	)
	s.schema = model.NewSchema(model.DefaultMeta,
		model.NewField("name", model.String()),
		model.NewField("age", model.Integer()),
		model.NewField("tags", model.List(model.String())),
		model.NewField("stops", model.List(model.Nested(address))),
	)
}

func (s *ConditionTestSuite) load(raw map[string]any) *model.Model {
	m, err := s.schema.Load(raw)
	s.Require().NoError(err)
	return m
}

// Equality matches any value reachable at the path, including collection
// elements.
func (s *ConditionTestSuite) TestKeyValue() {
	m := s.load(map[string]any{"name": "ana", "tags": []any{"a", "b"}})

	s.True(KeyValue("name", "ana").Check(m))
	s.False(KeyValue("name", "bob").Check(m))
	s.True(KeyValue("tags", "b").Check(m))
	s.False(KeyValue("tags", "c").Check(m))
}

// Numeric targets match across representation kinds.
func (s *ConditionTestSuite) TestKeyValueNumericKinds() {
	m := s.load(map[string]any{"age": 30})

	s.True(KeyValue("age", 30).Check(m))
	s.True(KeyValue("age", 30.0).Check(m))
	s.True(KeyValue("age", int64(30)).Check(m))
	s.False(KeyValue("age", 30.5).Check(m))
}

// Not-equal is satisfied by a differing value or by complete absence, not
// by "no value equals".
func (s *ConditionTestSuite) TestKeyNotValue() {
	m := s.load(map[string]any{"name": "ana", "tags": []any{"a", "b"}})

	s.False(KeyNotValue("name", "ana").Check(m))
	s.True(KeyNotValue("name", "bob").Check(m))
	s.True(KeyNotValue("age", int64(1)).Check(m), "absence satisfies not-equal")
	s.True(KeyNotValue("tags", "a").Check(m), "some element differs")
}

// Membership mirrors equality, exclusion mirrors not-equal.
func (s *ConditionTestSuite) TestKeyValues() {
	m := s.load(map[string]any{"name": "ana"})

	s.True(KeyValues("name", "ana", "bob").Check(m))
	s.False(KeyValues("name", "bob", "carl").Check(m))
	s.False(KeyNotValues("name", "ana", "bob").Check(m))
	s.True(KeyNotValues("name", "bob").Check(m))
	s.True(KeyNotValues("age", int64(1)).Check(m), "absence satisfies not-in")
}

// Existence follows path resolution, including through nested collections.
func (s *ConditionTestSuite) TestExist() {
	m := s.load(map[string]any{
		"name":  "ana",
		"stops": []any{map[string]any{"city": "porto"}},
	})

	s.True(Exist("name").Check(m))
	s.False(Exist("age").Check(m))
	s.True(Exist("stops.city").Check(m))
	s.False(NonExist("name").Check(m))
	s.True(NonExist("age").Check(m))
}

// Ordering predicates honor the inclusive flag and skip incomparable
// values.
func (s *ConditionTestSuite) TestGreaterLesser() {
	m := s.load(map[string]any{"age": 30, "name": "ana"})

	s.True(Greater("age", 29).Check(m))
	s.False(Greater("age", 30).Check(m))
	s.True(GreaterEqual("age", 30).Check(m))
	s.True(Lesser("age", 30.5).Check(m))
	s.False(Lesser("age", 30).Check(m))
	s.True(LesserEqual("age", 30).Check(m))
	s.False(Greater("missing", 1).Check(m))
}

// Ordered predicates skip values outside the bound's comparison family
// instead of ordering across families.
func (s *ConditionTestSuite) TestGreaterLesserSkipIncomparable() {
	schema := model.NewSchema(model.DefaultMeta,
		model.NewField("val", model.Any()),
	)
	m, err := schema.Load(map[string]any{"val": "abc"})
	s.Require().NoError(err)

	s.False(Greater("val", 10).Check(m))
	s.False(Lesser("val", 10).Check(m))
	s.True(Greater("val", "abb").Check(m))
}

// Combinators short-circuit over their children.
func (s *ConditionTestSuite) TestCombinators() {
	m := s.load(map[string]any{"name": "ana", "age": 30})

	s.True(And(KeyValue("name", "ana"), Greater("age", 20)).Check(m))
	s.False(And(KeyValue("name", "ana"), Greater("age", 40)).Check(m))
	s.True(Or(KeyValue("name", "bob"), Greater("age", 20)).Check(m))
	s.False(Or(KeyValue("name", "bob"), Greater("age", 40)).Check(m))
	s.True(Not(KeyValue("name", "bob")).Check(m))
	s.True(And().Check(m), "empty conjunction is vacuously true")
	s.False(Or().Check(m))
}

// The wire form round-trips and unknown or malformed payloads are
// rejected.
func (s *ConditionTestSuite) TestCodecRoundTrip() {
	cond := And(
		KeyValue("name", "ana"),
		Not(KeyValues("tags", "x", "y")),
		GreaterEqual("age", 18),
	)

	loaded, err := Load(Dump(cond))
	s.Require().NoError(err)
	m := s.load(map[string]any{"name": "ana", "age": 20})
	s.Equal(cond.Check(m), loaded.Check(m))

	and, ok := loaded.(*AndCondition)
	s.Require().True(ok)
	s.Len(and.Conditions, 3)

	_, err = Load(map[string]any{"bogus": map[string]any{}})
	s.ErrorAs(err, &ErrMalformed{})
	_, err = Load(map[string]any{"and": map[string]any{}, "or": map[string]any{}})
	s.ErrorAs(err, &ErrMalformed{})
}

// Wire defaults: kv and kvs default to the positive sense, comparisons to
// the strict sense, and the early comparison tags still load.
func (s *ConditionTestSuite) TestCodecDefaults() {
	loaded, err := Load(map[string]any{"kv": map[string]any{"key": "name", "value": "ana"}})
	s.Require().NoError(err)
	s.True(loaded.(*KeyValueCondition).Equals)

	loaded, err = Load(map[string]any{"kvs": map[string]any{"key": "name", "values": []any{"ana"}}})
	s.Require().NoError(err)
	s.True(loaded.(*KeyValuesCondition).Includes)

	loaded, err = Load(map[string]any{"larger": map[string]any{"key": "age", "value": 1}})
	s.Require().NoError(err)
	greater, ok := loaded.(*GreaterCondition)
	s.Require().True(ok)
	s.False(greater.Equals)
	s.Equal("greater", greater.Tag())

	loaded, err = Load(map[string]any{"smaller": map[string]any{"key": "age", "value": 1}})
	s.Require().NoError(err)
	s.IsType(&LesserCondition{}, loaded)
}

func TestConditionTestSuite(t *testing.T) {
	suite.Run(t, new(ConditionTestSuite))
}
