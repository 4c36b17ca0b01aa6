package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

// Translate lowers a condition tree into a MongoDB filter document and runs
// the simplification pass over it. A nil condition selects everything.
func Translate(cond condition.Condition) (bson.M, error) {
	if cond == nil {
		return bson.M{}, nil
	}
	query, err := translate(cond)
	if err != nil {
		return nil, err
	}
	return Optimize(query), nil
}

func translate(cond condition.Condition) (bson.M, error) {
	switch c := cond.(type) {
	case *condition.AndCondition:
		children, err := translateChildren(c.Conditions)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": children}, nil
	case *condition.OrCondition:
		children, err := translateChildren(c.Conditions)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": children}, nil
	case *condition.NotCondition:
		child, err := translate(c.Condition)
		if err != nil {
			return nil, err
		}
		return bson.M{"$nor": bson.A{child}}, nil
	case *condition.KeyValueCondition:
		if c.Equals {
			return bson.M{c.Key: c.Value}, nil
		}
		return bson.M{c.Key: bson.M{"$ne": c.Value}}, nil
	case *condition.KeyValuesCondition:
		if c.Includes {
			return bson.M{c.Key: bson.M{"$in": c.Values}}, nil
		}
		return bson.M{c.Key: bson.M{"$nin": c.Values}}, nil
	case *condition.ExistCondition:
		return bson.M{c.Key: bson.M{"$exists": true}}, nil
	case *condition.NonExistCondition:
		return bson.M{c.Key: bson.M{"$exists": false}}, nil
	case *condition.GreaterCondition:
		if c.Equals {
			return bson.M{c.Key: bson.M{"$gte": c.Value}}, nil
		}
		return bson.M{c.Key: bson.M{"$gt": c.Value}}, nil
	case *condition.LesserCondition:
		if c.Equals {
			return bson.M{c.Key: bson.M{"$lte": c.Value}}, nil
		}
		return bson.M{c.Key: bson.M{"$lt": c.Value}}, nil
	default:
		return nil, domain.ErrBadValue{Reason: fmt.Sprintf("unknown condition type %T", cond)}
	}
}

func translateChildren(conditions []condition.Condition) (bson.A, error) {
	children := make(bson.A, 0, len(conditions))
	for _, child := range conditions {
		q, err := translate(child)
		if err != nil {
			return nil, err
		}
		children = append(children, q)
	}
	return children, nil
}

// Optimize flattens nested boolean combinators so that programmatically
// composed conditions, notably the compounding not-in-seen conjunct of the
// precise bulk loops, do not produce deeply nested filters. Only rewrites
// that preserve the evaluator's semantics are applied:
//
//   - $and children of an $and and $or children of an $or are hoisted,
//   - $or children of a $nor are hoisted, since none-of(a or b) is
//     none-of(a, b),
//   - a $nor whose only clause is another $nor collapses, with two or more
//     inner clauses the double negation turns into an $or.
func Optimize(query bson.M) bson.M {
	if len(query) != 1 {
		return query
	}
	var key string
	var value any
	for k, v := range query {
		key, value = k, v
	}
	switch key {
	case "$and", "$or":
		clauses, ok := asClauses(value)
		if !ok {
			return query
		}
		flattened := make(bson.A, 0, len(clauses))
		for _, clause := range clauses {
			optimized := Optimize(clause)
			if inner, ok := singleOperator(optimized, key); ok {
				flattened = append(flattened, inner...)
				continue
			}
			flattened = append(flattened, optimized)
		}
		return bson.M{key: flattened}
	case "$nor":
		clauses, ok := asClauses(value)
		if !ok {
			return query
		}
		flattened := make(bson.A, 0, len(clauses))
		for _, clause := range clauses {
			optimized := Optimize(clause)
			if inner, ok := singleOperator(optimized, "$or"); ok {
				flattened = append(flattened, inner...)
				continue
			}
			flattened = append(flattened, optimized)
		}
		if len(flattened) == 1 {
			only, isQuery := flattened[0].(bson.M)
			if inner, ok := singleOperator(only, "$nor"); isQuery && ok {
				if len(inner) == 1 {
					if innerQuery, isQuery := inner[0].(bson.M); isQuery {
						return innerQuery
					}
				}
				return bson.M{"$or": inner}
			}
		}
		return bson.M{"$nor": flattened}
	default:
		return query
	}
}

// asClauses accepts the combinator clause list in either array shape.
func asClauses(value any) ([]bson.M, bool) {
	switch t := value.(type) {
	case bson.A:
		clauses := make([]bson.M, 0, len(t))
		for _, item := range t {
			clause, ok := item.(bson.M)
			if !ok {
				return nil, false
			}
			clauses = append(clauses, clause)
		}
		return clauses, true
	case []bson.M:
		return t, true
	default:
		return nil, false
	}
}

func singleOperator(query bson.M, op string) (bson.A, bool) {
	if len(query) != 1 {
		return nil, false
	}
	value, ok := query[op]
	if !ok {
		return nil, false
	}
	clauses, ok := value.(bson.A)
	return clauses, ok
}

// TranslateSorts lowers sort rules into the driver's sort document.
func TranslateSorts(sorts []domain.SortRule) bson.D {
	out := make(bson.D, 0, len(sorts))
	for _, rule := range sorts {
		direction := 1
		if !rule.Ascending {
			direction = -1
		}
		out = append(out, bson.E{Key: rule.Key, Value: direction})
	}
	return out
}

// TranslateUpdates lowers update actions into a MongoDB update document,
// merging actions that share an operator. Two actions targeting the same
// key under the same operator collide; the last one wins unless strict
// merging is on, in which case the collision is an error.
func TranslateUpdates(actions []update.Action, strict bool) (bson.M, error) {
	out := bson.M{}
	put := func(op, key string, value any) error {
		fields, ok := out[op].(bson.M)
		if !ok {
			fields = bson.M{}
			out[op] = fields
		}
		if _, exists := fields[key]; exists && strict {
			return domain.ErrBadValue{Reason: fmt.Sprintf("conflicting %s actions on key [%s]", op, key)}
		}
		fields[key] = value
		return nil
	}
	for _, action := range actions {
		var err error
		switch a := action.(type) {
		case *update.PushAction:
			if a.Position != nil {
				err = put("$push", a.TargetKey, bson.M{"$each": bson.A{a.Value}, "$position": *a.Position})
			} else {
				err = put("$push", a.TargetKey, a.Value)
			}
		case *update.PushsAction:
			if a.Position != nil {
				err = put("$push", a.TargetKey, bson.M{"$each": a.Values, "$position": *a.Position})
			} else {
				err = put("$push", a.TargetKey, bson.M{"$each": a.Values})
			}
		case *update.PopAction:
			direction := 1
			if a.Head {
				direction = -1
			}
			err = put("$pop", a.TargetKey, direction)
		case *update.SetAction:
			err = put("$set", a.TargetKey, a.Value)
		case *update.ClearAction:
			err = put("$unset", a.TargetKey, bson.M{})
		default:
			err = domain.ErrBadValue{Reason: fmt.Sprintf("unknown update action type %T", action)}
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
