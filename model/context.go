package model

// DumpContext controls how typed values are rendered back to raw,
// transport-safe primitives.
type DumpContext struct {
	// DatetimeToString renders datetime values as strings. When false the
	// [time.Time] value is passed through, which is what a document-store
	// adapter wants.
	DatetimeToString bool
	// DatetimeFormat overrides the ISO-style default layout.
	DatetimeFormat string
	DateToString   bool
	DateFormat     string
	TimeToString   bool
	TimeFormat     string
}

// DefaultDumpContext is used when Dump is called with a nil context. It
// renders all temporal values as ISO-style strings.
var DefaultDumpContext = &DumpContext{
	DatetimeToString: true,
	DateToString:     true,
	TimeToString:     true,
}

// ValidateContext controls error accumulation during validation: fail fast on
// the first error, or collect everything into a [CompoundError].
type ValidateContext struct {
	ContinueOnError bool
}
