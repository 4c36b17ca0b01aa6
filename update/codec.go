package update

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrMalformed reports a wire form that does not parse as an update action.
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("malformed update action: %s", e.Reason)
}

type pushPayload struct {
	Key      string `mapstructure:"key"`
	Value    any    `mapstructure:"value"`
	Position *int   `mapstructure:"position"`
}

type pushsPayload struct {
	Key      string `mapstructure:"key"`
	Values   []any  `mapstructure:"values"`
	Position *int   `mapstructure:"position"`
}

type popPayload struct {
	Key  string `mapstructure:"key"`
	Head *bool  `mapstructure:"head"`
}

type setPayload struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
}

type clearPayload struct {
	Key string `mapstructure:"key"`
}

// Load deserializes an action from its tagged single-key map form.
func Load(raw map[string]any) (Action, error) {
	if len(raw) != 1 {
		return nil, ErrMalformed{Reason: "update action map must have exactly one key"}
	}
	var tag string
	var payload any
	for k, v := range raw {
		tag, payload = k, v
	}
	switch tag {
	case TagPush:
		var p pushPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &PushAction{TargetKey: p.Key, Value: p.Value, Position: p.Position}, nil
	case TagPushs:
		var p pushsPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &PushsAction{TargetKey: p.Key, Values: p.Values, Position: p.Position}, nil
	case TagPop:
		var p popPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		head := true
		if p.Head != nil {
			head = *p.Head
		}
		return &PopAction{TargetKey: p.Key, Head: head}, nil
	case TagSet:
		var p setPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &SetAction{TargetKey: p.Key, Value: p.Value}, nil
	case TagClear:
		var p clearPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &ClearAction{TargetKey: p.Key}, nil
	default:
		return nil, ErrMalformed{Reason: fmt.Sprintf("unknown update action tag %q", tag)}
	}
}

// LoadAll deserializes a list of actions.
func LoadAll(raws []map[string]any) ([]Action, error) {
	actions := make([]Action, 0, len(raws))
	for _, raw := range raws {
		action, err := Load(raw)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func decodePayload(tag string, payload any, target any) error {
	if err := mapstructure.Decode(payload, target); err != nil {
		return ErrMalformed{Reason: fmt.Sprintf("bad %s payload: %v", tag, err)}
	}
	return nil
}

// Dump serializes an action to its tagged single-key map form.
func Dump(a Action) map[string]any {
	switch t := a.(type) {
	case *PushAction:
		payload := map[string]any{"key": t.TargetKey, "value": t.Value}
		if t.Position != nil {
			payload["position"] = *t.Position
		}
		return map[string]any{TagPush: payload}
	case *PushsAction:
		payload := map[string]any{"key": t.TargetKey, "values": t.Values}
		if t.Position != nil {
			payload["position"] = *t.Position
		}
		return map[string]any{TagPushs: payload}
	case *PopAction:
		return map[string]any{TagPop: map[string]any{"key": t.TargetKey, "head": t.Head}}
	case *SetAction:
		return map[string]any{TagSet: map[string]any{"key": t.TargetKey, "value": t.Value}}
	case *ClearAction:
		return map[string]any{TagClear: map[string]any{"key": t.TargetKey}}
	default:
		return map[string]any{a.Tag(): map[string]any{"key": a.Key()}}
	}
}

// DumpAll serializes a list of actions.
func DumpAll(actions []Action) []map[string]any {
	out := make([]map[string]any, len(actions))
	for n, action := range actions {
		out[n] = Dump(action)
	}
	return out
}
