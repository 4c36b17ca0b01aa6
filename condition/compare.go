package condition

import (
	"cmp"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"time"

	"github.com/vinicius-lino-figueiredo/datahub/model"
)

// Comparable reports whether two values belong to the same comparison
// family, numbers, strings or instants. [GreaterCondition] and
// [LesserCondition] use it to skip values their bound cannot order.
func Comparable(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return false
	}
	if _, ok := asNumber(a); ok {
		_, ok = asNumber(b)
		return ok
	}
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case time.Time:
		_, ok := b.(time.Time)
		return ok
	}
	return false
}

// Compare orders two values. Mixed families order nil first, then numbers,
// strings, booleans, instants, lists and documents, matching the ordering
// the sort rules rely on.
func Compare(a, b any) (int, error) {
	a, b = normalize(a), normalize(b)

	if c, ok := checkNil(a, b); ok {
		return c, nil
	}
	if c, ok := checkNumbers(a, b); ok {
		return c, nil
	}
	if c, ok := checkStrings(a, b); ok {
		return c, nil
	}
	if c, ok := checkBooleans(a, b); ok {
		return c, nil
	}
	if c, ok := checkTime(a, b); ok {
		return c, nil
	}
	if c, ok, err := checkArrays(a, b); err != nil || ok {
		return c, err
	}
	if c, ok, err := checkDocs(a, b); err != nil || ok {
		return c, err
	}
	return 0, fmt.Errorf("cannot compare unexpected types %T and %T", a, b)
}

// Equal reports value equality across representation kinds: an int64 equals
// the float64 with the same magnitude, models compare field-wise, lists and
// documents compare element-wise.
func Equal(a, b any) bool {
	if ma, ok := a.(*model.Model); ok {
		mb, ok := b.(*model.Model)
		return ok && ma.Equals(mb)
	}
	if _, ok := b.(*model.Model); ok {
		return false
	}
	comp, err := Compare(a, b)
	return err == nil && comp == 0
}

// normalize widens special in-memory kinds into the comparable families:
// durations become second counts and sets become sorted-insensitive lists.
func normalize(v any) any {
	switch t := v.(type) {
	case time.Duration:
		return t.Seconds()
	case model.Set:
		items := make([]any, 0, len(t))
		for item := range t {
			items = append(items, item)
		}
		slices.SortFunc(items, func(a, b any) int {
			comp, _ := Compare(a, b)
			return comp
		})
		return items
	default:
		return v
	}
}

func checkNil(a, b any) (int, bool) {
	if a == nil {
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	if b == nil {
		return 1, true
	}
	return 0, false
}

func checkNumbers(a, b any) (int, bool) {
	if a, ok := asNumber(a); ok {
		// big.Float compares float64 and int64 without precision loss
		if b, ok := asNumber(b); ok {
			return a.Cmp(b), true
		}
		return -1, true
	}
	if _, ok := asNumber(b); ok {
		return 1, true
	}
	return 0, false
}

func checkStrings(a, b any) (int, bool) {
	if a, ok := a.(string); ok {
		if b, ok := b.(string); ok {
			return cmp.Compare(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(string); ok {
		return 1, true
	}
	return 0, false
}

func checkBooleans(a, b any) (int, bool) {
	if a, ok := a.(bool); ok {
		if b, ok := b.(bool); ok {
			return compareBool(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(bool); ok {
		return 1, true
	}
	return 0, false
}

func checkTime(a, b any) (int, bool) {
	if a, ok := a.(time.Time); ok {
		if b, ok := b.(time.Time); ok {
			return a.Compare(b), true
		}
		return -1, true
	}
	if _, ok := b.(time.Time); ok {
		return 1, true
	}
	return 0, false
}

func checkArrays(a, b any) (int, bool, error) {
	if a, ok := a.([]any); ok {
		if b, ok := b.([]any); ok {
			comp, err := compareArray(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.([]any); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func checkDocs(a, b any) (int, bool, error) {
	if a, ok := a.(map[string]any); ok {
		if b, ok := b.(map[string]any); ok {
			comp, err := compareDoc(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.(map[string]any); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func compareArray(a, b []any) (int, error) {
	for i := range min(len(a), len(b)) {
		comp, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}

	// Common section was identical, longest one wins
	return cmp.Compare(len(a), len(b)), nil
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func compareDoc(a, b map[string]any) (int, error) {
	aKeys := slices.Sorted(maps.Keys(a))
	bKeys := slices.Sorted(maps.Keys(b))

	for i := range min(len(aKeys), len(bKeys)) {
		comp, err := Compare(a[aKeys[i]], b[bKeys[i]])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}
	if comp := cmp.Compare(len(a), len(b)); comp != 0 {
		return comp, nil
	}
	return slices.Compare(aKeys, bKeys), nil
}

func asNumber(v any) (*big.Float, bool) {
	r := big.NewFloat(0)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		r.SetFloat64(float64(n))
	case float64:
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
