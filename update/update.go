// Package update implements the update action algebra: the small set of
// mutation primitives applied to stored models by id- or query-scoped
// updates, with a wire codec for the tagged map form.
package update

// Action tags.
const (
	TagPush  = "push"
	TagPushs = "pushs"
	TagPop   = "pop"
	TagSet   = "set"
	TagClear = "clear"
)

// Action is one mutation primitive targeting a dot-separated key path.
type Action interface {
	// Key returns the targeted key path.
	Key() string
	// Tag returns the wire tag of the action.
	Tag() string
}

// PushAction appends one value to a list field, or inserts it at Position
// when set.
type PushAction struct {
	TargetKey string
	Value     any
	Position  *int
}

// Push builds a list append action.
func Push(key string, value any) *PushAction {
	return &PushAction{TargetKey: key, Value: value}
}

// PushAt builds a list insert action.
func PushAt(key string, value any, position int) *PushAction {
	return &PushAction{TargetKey: key, Value: value, Position: &position}
}

// Key implements [Action].
func (a *PushAction) Key() string { return a.TargetKey }

// Tag implements [Action].
func (a *PushAction) Tag() string { return TagPush }

// PushsAction appends several values to a list field, or inserts them at
// Position when set.
type PushsAction struct {
	TargetKey string
	Values    []any
	Position  *int
}

// Pushs builds a multi-value list append action.
func Pushs(key string, values ...any) *PushsAction {
	return &PushsAction{TargetKey: key, Values: values}
}

// PushsAt builds a multi-value list insert action.
func PushsAt(key string, position int, values ...any) *PushsAction {
	return &PushsAction{TargetKey: key, Values: values, Position: &position}
}

// Key implements [Action].
func (a *PushsAction) Key() string { return a.TargetKey }

// Tag implements [Action].
func (a *PushsAction) Tag() string { return TagPushs }

// PopAction removes one element from a list field, from the head by
// default.
type PopAction struct {
	TargetKey string
	Head      bool
}

// Pop builds a pop-from-head action.
func Pop(key string) *PopAction {
	return &PopAction{TargetKey: key, Head: true}
}

// PopTail builds a pop-from-tail action.
func PopTail(key string) *PopAction {
	return &PopAction{TargetKey: key}
}

// Key implements [Action].
func (a *PopAction) Key() string { return a.TargetKey }

// Tag implements [Action].
func (a *PopAction) Tag() string { return TagPop }

// SetAction assigns a value to a field.
type SetAction struct {
	TargetKey string
	Value     any
}

// Set builds an assignment action.
func Set(key string, value any) *SetAction {
	return &SetAction{TargetKey: key, Value: value}
}

// Key implements [Action].
func (a *SetAction) Key() string { return a.TargetKey }

// Tag implements [Action].
func (a *SetAction) Tag() string { return TagSet }

// ClearAction removes a field entirely.
type ClearAction struct {
	TargetKey string
}

// Clear builds a field removal action.
func Clear(key string) *ClearAction {
	return &ClearAction{TargetKey: key}
}

// Key implements [Action].
func (a *ClearAction) Key() string { return a.TargetKey }

// Tag implements [Action].
func (a *ClearAction) Tag() string { return TagClear }
