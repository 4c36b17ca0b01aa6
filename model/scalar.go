package model

import (
	"math"
	"strconv"
	"strings"
)

type stringType struct{ baseType }

// String returns the string field type. Empty means nil or the empty string.
func String() Type { return stringType{} }

func (stringType) Load(value any) (any, error) { return value, nil }

func (t stringType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return dumpValue(t, value)
}

func (t stringType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(string); !ok {
		return ErrTypeValidation{ExpectedType: "string", Value: value}
	}
	return nil
}

func (stringType) Empty(value any) bool { return value == nil || value == "" }

func (stringType) EmptyValue() any { return "" }

type integerType struct{ baseType }

// Integer returns the integer field type. Values load as int64; digit-only
// strings and integral floats are accepted as lenient encodings.
func Integer() Type { return integerType{} }

func (t integerType) Load(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, ErrValueConversion{Value: value, TargetType: "int64"}
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "int64"}
		}
		return n, nil
	case float32:
		return t.Load(float64(v))
	case float64:
		// JSON decoding hands integers over as floats.
		if v != math.Trunc(v) {
			return nil, ErrValueConversion{Value: value, TargetType: "int64"}
		}
		return int64(v), nil
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "int64"}
	}
}

func (t integerType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return dumpValue(t, value)
}

func (t integerType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(int64); !ok {
		return ErrTypeValidation{ExpectedType: "int64", Value: value}
	}
	return nil
}

type floatType struct{ baseType }

// Float returns the float field type. Values load as float64; numeric
// strings and integer inputs are accepted.
func Float() Type { return floatType{} }

func (t floatType) Load(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "float64"}
		}
		return f, nil
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "float64"}
	}
}

func (t floatType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return dumpValue(t, value)
}

func (t floatType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(float64); !ok {
		return ErrTypeValidation{ExpectedType: "float64", Value: value}
	}
	return nil
}

type booleanType struct{ baseType }

// Boolean returns the boolean field type. The loader accepts the usual
// lenient encodings: "true"/"yes"/"1"/"on" strings, 0/1 integers and floats
// close enough to 0.0 or 1.0.
func Boolean() Type { return booleanType{} }

func (t booleanType) Load(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		default:
			return nil, ErrValueConversion{Value: value, TargetType: "bool"}
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := integerType{}.Load(v)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "bool"}
		}
		switch n.(int64) {
		case 1:
			return true, nil
		case 0:
			return false, nil
		default:
			return nil, ErrValueConversion{Value: value, TargetType: "bool"}
		}
	case float32:
		return t.Load(float64(v))
	case float64:
		if v >= 0.9999999 && v <= 1.0000001 {
			return true, nil
		}
		if v >= -0.00000001 && v <= 0.00000001 {
			return false, nil
		}
		return nil, ErrValueConversion{Value: value, TargetType: "bool"}
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "bool"}
	}
}

func (t booleanType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	return dumpValue(t, value)
}

func (t booleanType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(bool); !ok {
		return ErrTypeValidation{ExpectedType: "bool", Value: value}
	}
	return nil
}
