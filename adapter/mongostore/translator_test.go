package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

type TranslatorTestSuite struct {
	suite.Suite
}

// Leaf predicates map to their native operators.
func (s *TranslatorTestSuite) TestLeafPredicates() {
	cases := []struct {
		cond     condition.Condition
		expected bson.M
	}{
		{condition.KeyValue("name", "ana"), bson.M{"name": "ana"}},
		{condition.KeyNotValue("name", "ana"), bson.M{"name": bson.M{"$ne": "ana"}}},
		{condition.KeyValues("name", "a", "b"), bson.M{"name": bson.M{"$in": []any{"a", "b"}}}},
		{condition.KeyNotValues("name", "a"), bson.M{"name": bson.M{"$nin": []any{"a"}}}},
		{condition.Exist("name"), bson.M{"name": bson.M{"$exists": true}}},
		{condition.NonExist("name"), bson.M{"name": bson.M{"$exists": false}}},
		{condition.Greater("age", 10), bson.M{"age": bson.M{"$gt": 10}}},
		{condition.GreaterEqual("age", 10), bson.M{"age": bson.M{"$gte": 10}}},
		{condition.Lesser("age", 10), bson.M{"age": bson.M{"$lt": 10}}},
		{condition.LesserEqual("age", 10), bson.M{"age": bson.M{"$lte": 10}}},
	}
	for _, c := range cases {
		query, err := Translate(c.cond)
		s.NoError(err)
		s.Equal(c.expected, query)
	}
}

// Negation lowers to a singleton $nor.
func (s *TranslatorTestSuite) TestNot() {
	query, err := Translate(condition.Not(condition.KeyValue("name", "ana")))
	s.Require().NoError(err)
	s.Equal(bson.M{"$nor": bson.A{bson.M{"name": "ana"}}}, query)
}

// Nested same-operator combinators are flattened into their parent.
func (s *TranslatorTestSuite) TestOptimizeFlattensCombinators() {
	cond := condition.And(
		condition.And(
			condition.KeyValue("a", 1),
			condition.KeyValue("b", 2),
		),
		condition.KeyValue("c", 3),
	)
	query, err := Translate(cond)
	s.Require().NoError(err)
	s.Equal(bson.M{"$and": bson.A{
		bson.M{"a": 1},
		bson.M{"b": 2},
		bson.M{"c": 3},
	}}, query)

	cond2 := condition.Or(
		condition.KeyValue("a", 1),
		condition.Or(condition.KeyValue("b", 2), condition.KeyValue("c", 3)),
	)
	query, err = Translate(cond2)
	s.Require().NoError(err)
	s.Equal(bson.M{"$or": bson.A{
		bson.M{"a": 1},
		bson.M{"b": 2},
		bson.M{"c": 3},
	}}, query)
}

// The compounding not-in-seen shape of the precise bulk loop stays shallow:
// a negated disjunction folds into one $nor.
func (s *TranslatorTestSuite) TestOptimizeNorHoistsOr() {
	cond := condition.Not(condition.Or(
		condition.KeyValue("a", 1),
		condition.KeyValue("b", 2),
	))
	query, err := Translate(cond)
	s.Require().NoError(err)
	s.Equal(bson.M{"$nor": bson.A{
		bson.M{"a": 1},
		bson.M{"b": 2},
	}}, query)
}

// Double negation collapses.
func (s *TranslatorTestSuite) TestOptimizeDoubleNegation() {
	cond := condition.Not(condition.Not(condition.KeyValue("a", 1)))
	query, err := Translate(cond)
	s.Require().NoError(err)
	s.Equal(bson.M{"a": 1}, query)

	cond2 := condition.Not(condition.Not(condition.Or(
		condition.KeyValue("a", 1),
		condition.KeyValue("b", 2),
	)))
	query, err = Translate(cond2)
	s.Require().NoError(err)
	s.Equal(bson.M{"$or": bson.A{
		bson.M{"a": 1},
		bson.M{"b": 2},
	}}, query)
}

// Every optimizer rewrite must agree with the in-memory evaluator, which is
// the ground truth for condition semantics. $nor children that are not $or
// must stay put.
func (s *TranslatorTestSuite) TestOptimizeKeepsAndUnderNor() {
	cond := condition.Not(condition.And(
		condition.KeyValue("a", 1),
		condition.KeyValue("b", 2),
	))
	query, err := Translate(cond)
	s.Require().NoError(err)
	s.Equal(bson.M{"$nor": bson.A{
		bson.M{"$and": bson.A{bson.M{"a": 1}, bson.M{"b": 2}}},
	}}, query)
}

// A nil condition is an unrestricted filter.
// A second optimizer pass is a no-op.
func (s *TranslatorTestSuite) TestOptimizeIdempotent() {
	conds := []condition.Condition{
		condition.And(
			condition.And(condition.KeyValue("a", 1), condition.KeyValue("b", 2)),
			condition.Not(condition.Or(condition.KeyValue("c", 3), condition.KeyValue("d", 4))),
		),
		condition.Not(condition.Not(condition.Or(
			condition.KeyValue("a", 1),
			condition.KeyValue("b", 2),
		))),
		condition.Not(condition.And(condition.KeyValue("a", 1), condition.Exist("b"))),
	}
	for _, cond := range conds {
		query, err := Translate(cond)
		s.Require().NoError(err)
		s.Equal(query, Optimize(query))
	}
}

// Actions on different operators merge independently of order.
func (s *TranslatorTestSuite) TestUpdateMergeOrderIndependent() {
	forward, err := TranslateUpdates([]update.Action{
		update.Set("name", "ana"),
		update.Push("tags", "a"),
	}, false)
	s.Require().NoError(err)
	reversed, err := TranslateUpdates([]update.Action{
		update.Push("tags", "a"),
		update.Set("name", "ana"),
	}, false)
	s.Require().NoError(err)
	s.Equal(forward, reversed)
}

func (s *TranslatorTestSuite) TestNilCondition() {
	query, err := Translate(nil)
	s.NoError(err)
	s.Equal(bson.M{}, query)
}

// Sort rules lower to ordered direction pairs.
func (s *TranslatorTestSuite) TestSorts() {
	sorts := TranslateSorts([]domain.SortRule{
		domain.Ascending("name"),
		domain.Descending("age"),
	})
	s.Equal(bson.D{{Key: "name", Value: 1}, {Key: "age", Value: -1}}, sorts)
}

// Update actions merge per operator, pop direction follows the head flag
// and positioned pushes use $each with $position.
func (s *TranslatorTestSuite) TestUpdates() {
	updates, err := TranslateUpdates([]update.Action{
		update.Push("tags", "a"),
		update.PushAt("more", "b", 0),
		update.Pushs("bulk", "c", "d"),
		update.Pop("head"),
		update.PopTail("tail"),
		update.Set("name", "ana"),
		update.Set("age", 30),
		update.Clear("old"),
	}, false)
	s.Require().NoError(err)

	s.Equal(bson.M{
		"$push": bson.M{
			"tags": "a",
			"more": bson.M{"$each": bson.A{"b"}, "$position": 0},
			"bulk": bson.M{"$each": []any{"c", "d"}},
		},
		"$pop":   bson.M{"head": -1, "tail": 1},
		"$set":   bson.M{"name": "ana", "age": 30},
		"$unset": bson.M{"old": bson.M{}},
	}, updates)
}

// With strict merging a same-operator same-key collision errors, otherwise
// the last action wins.
func (s *TranslatorTestSuite) TestUpdateMergeCollision() {
	actions := []update.Action{
		update.Set("name", "ana"),
		update.Set("name", "bob"),
	}

	updates, err := TranslateUpdates(actions, false)
	s.Require().NoError(err)
	s.Equal(bson.M{"$set": bson.M{"name": "bob"}}, updates)

	_, err = TranslateUpdates(actions, true)
	s.ErrorAs(err, &domain.ErrBadValue{})
}

// Decoded BSON shapes normalize to the plain representations the model
// layer expects.
func (s *TranslatorTestSuite) TestNormalize() {
	instant := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := normalizeDoc(bson.M{
		"name":  "ana",
		"tags":  bson.A{"a", int32(2)},
		"child": bson.M{"when": primitive.NewDateTimeFromTime(instant)},
	})

	s.Equal("ana", doc["name"])
	s.Equal([]any{"a", int64(2)}, doc["tags"])
	child := doc["child"].(map[string]any)
	s.True(instant.Equal(child["when"].(time.Time)))
}

func TestTranslatorTestSuite(t *testing.T) {
	suite.Run(t, new(TranslatorTestSuite))
}
