package model

import (
	"strconv"
	"time"
)

const (
	datetimeDumpLayout = "2006-01-02T15:04:05.999999"
	dateDumpLayout     = "2006-01-02"
	timeDumpLayout     = "15:04:05.000000"
)

// datetimeLayouts are tried in order when loading a datetime from a string.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// stripZone discards the offset of a parsed datetime and keeps the civil
// time. Stored payloads carry naive wall-clock values, so the normalization
// is lossy on purpose.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

func parseDatetime(value string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return stripZone(t), true
		}
	}
	return time.Time{}, false
}

type datetimeType struct{ baseType }

// Datetime returns the datetime field type. String input is parsed from a
// small family of ISO-8601-ish layouts and normalized to naive local
// wall-clock time; numeric input is taken as a unix timestamp.
func Datetime() Type { return datetimeType{} }

func (t datetimeType) Load(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if parsed, ok := parseDatetime(v); ok {
			return parsed, nil
		}
		return nil, ErrValueConversion{Value: value, TargetType: "time.Time"}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		sec, err := integerSeconds(v)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "time.Time"}
		}
		return time.Unix(sec, 0), nil
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "time.Time"}
	}
}

func (t datetimeType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	v := value.(time.Time)
	if ctx.DatetimeToString {
		layout := ctx.DatetimeFormat
		if layout == "" {
			layout = datetimeDumpLayout
		}
		return v.Format(layout), true, nil
	}
	return v, true, nil
}

func (t datetimeType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(time.Time); !ok {
		return ErrTypeValidation{ExpectedType: "time.Time", Value: value}
	}
	return nil
}

func (datetimeType) Equals(a, b any) bool { return timeEquals(a, b) }

type dateType struct{ baseType }

// Date returns the date field type. Values are normalized to midnight local
// time.
func Date() Type { return dateType{} }

func (t dateType) Load(value any) (any, error) {
	v, err := datetimeType{}.Load(value)
	if err != nil {
		return nil, ErrValueConversion{Value: value, TargetType: "date"}
	}
	if v == nil {
		return nil, nil
	}
	d := v.(time.Time)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local), nil
}

func (t dateType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	v := value.(time.Time)
	if ctx.DateToString {
		layout := ctx.DateFormat
		if layout == "" {
			layout = dateDumpLayout
		}
		return v.Format(layout), true, nil
	}
	return v, true, nil
}

func (t dateType) Validate(value any, vctx ValidateContext) error {
	return datetimeType{}.Validate(value, vctx)
}

func (dateType) Equals(a, b any) bool { return timeEquals(a, b) }

type timeType struct{ baseType }

// Time returns the time-of-day field type. Values are normalized to a zero
// date so only the clock part carries meaning.
func Time() Type { return timeType{} }

func (t timeType) Load(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return zeroDate(v), nil
	case string:
		for _, layout := range []string{timeDumpLayout, "15:04:05"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return zeroDate(parsed), nil
			}
		}
		return nil, ErrValueConversion{Value: value, TargetType: "time-of-day"}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		sec, err := integerSeconds(v)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "time-of-day"}
		}
		return zeroDate(time.Unix(sec, 0)), nil
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "time-of-day"}
	}
}

func zeroDate(t time.Time) time.Time {
	return time.Date(0, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (t timeType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	v := value.(time.Time)
	if ctx.TimeToString {
		layout := ctx.TimeFormat
		if layout == "" {
			layout = timeDumpLayout
		}
		return v.Format(layout), true, nil
	}
	return v, true, nil
}

func (t timeType) Validate(value any, vctx ValidateContext) error {
	return datetimeType{}.Validate(value, vctx)
}

func (timeType) Equals(a, b any) bool { return timeEquals(a, b) }

type durationType struct{ baseType }

// Duration returns the duration field type. Raw values are seconds, either
// numeric or as a numeric string; dumps are float seconds.
func Duration() Type { return durationType{} }

func (t durationType) Load(value any) (any, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, ErrValueConversion{Value: value, TargetType: "time.Duration"}
		}
		return time.Duration(sec * float64(time.Second)), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		sec, _ := integerSeconds(v)
		return time.Duration(sec) * time.Second, nil
	case float32:
		return time.Duration(float64(v) * float64(time.Second)), nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case nil:
		return nil, nil
	default:
		return nil, ErrValueConversion{Value: value, TargetType: "time.Duration"}
	}
}

func (t durationType) Dump(value any, ctx *DumpContext) (any, bool, error) {
	if t.Empty(value) {
		return nil, false, nil
	}
	return value.(time.Duration).Seconds(), true, nil
}

func (t durationType) Validate(value any, vctx ValidateContext) error {
	if t.Empty(value) {
		return nil
	}
	if _, ok := value.(time.Duration); !ok {
		return ErrTypeValidation{ExpectedType: "time.Duration", Value: value}
	}
	return nil
}

func timeEquals(a, b any) bool {
	ta, ok1 := a.(time.Time)
	tb, ok2 := b.(time.Time)
	if ok1 && ok2 {
		return ta.Equal(tb)
	}
	return a == b
}

// integerSeconds truncates any numeric raw value to whole unix seconds.
func integerSeconds(value any) (int64, error) {
	switch v := value.(type) {
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		n, err := integerType{}.Load(value)
		if err != nil {
			return 0, err
		}
		return n.(int64), nil
	}
}
