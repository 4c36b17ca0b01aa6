package condition

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrMalformed reports a wire form that does not parse as a condition.
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("malformed condition: %s", e.Reason)
}

type keyValuePayload struct {
	Key    string `mapstructure:"key"`
	Value  any    `mapstructure:"value"`
	Equals *bool  `mapstructure:"equals"`
}

type keyValuesPayload struct {
	Key      string `mapstructure:"key"`
	Values   []any  `mapstructure:"values"`
	Includes *bool  `mapstructure:"includes"`
}

type keyPayload struct {
	Key string `mapstructure:"key"`
}

// Load deserializes a condition from its tagged single-key map form. Both
// comparison tag dialects are accepted.
func Load(raw map[string]any) (Condition, error) {
	if len(raw) != 1 {
		return nil, ErrMalformed{Reason: "condition map must have exactly one key"}
	}
	var tag string
	var payload any
	for k, v := range raw {
		tag, payload = k, v
	}
	switch tag {
	case TagAnd:
		children, err := loadChildren(payload)
		if err != nil {
			return nil, err
		}
		return &AndCondition{Conditions: children}, nil
	case TagOr:
		children, err := loadChildren(payload)
		if err != nil {
			return nil, err
		}
		return &OrCondition{Conditions: children}, nil
	case TagNot:
		doc, ok := payload.(map[string]any)
		if !ok {
			return nil, ErrMalformed{Reason: "not payload must be a map"}
		}
		childDoc, ok := doc["condition"].(map[string]any)
		if !ok {
			return nil, ErrMalformed{Reason: "not payload requires a condition"}
		}
		child, err := Load(childDoc)
		if err != nil {
			return nil, err
		}
		return &NotCondition{Condition: child}, nil
	case TagKeyValue:
		var p keyValuePayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &KeyValueCondition{Key: p.Key, Value: p.Value, Equals: boolOr(p.Equals, true)}, nil
	case TagKeyValues:
		var p keyValuesPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &KeyValuesCondition{Key: p.Key, Values: p.Values, Includes: boolOr(p.Includes, true)}, nil
	case TagExist:
		var p keyPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &ExistCondition{Key: p.Key}, nil
	case TagNonExist:
		var p keyPayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &NonExistCondition{Key: p.Key}, nil
	case TagGreater, tagLarger:
		var p keyValuePayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &GreaterCondition{Key: p.Key, Value: p.Value, Equals: boolOr(p.Equals, false)}, nil
	case TagLesser, tagSmaller:
		var p keyValuePayload
		if err := decodePayload(tag, payload, &p); err != nil {
			return nil, err
		}
		return &LesserCondition{Key: p.Key, Value: p.Value, Equals: boolOr(p.Equals, false)}, nil
	default:
		return nil, ErrMalformed{Reason: fmt.Sprintf("unknown condition tag %q", tag)}
	}
}

func loadChildren(payload any) ([]Condition, error) {
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrMalformed{Reason: "combinator payload must be a map"}
	}
	rawChildren, ok := doc["conditions"].([]any)
	if !ok {
		return nil, ErrMalformed{Reason: "combinator payload requires a conditions list"}
	}
	children := make([]Condition, 0, len(rawChildren))
	for _, rawChild := range rawChildren {
		childDoc, ok := rawChild.(map[string]any)
		if !ok {
			return nil, ErrMalformed{Reason: "combinator children must be maps"}
		}
		child, err := Load(childDoc)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func decodePayload(tag string, payload any, target any) error {
	if err := mapstructure.Decode(payload, target); err != nil {
		return ErrMalformed{Reason: fmt.Sprintf("bad %s payload: %v", tag, err)}
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// Dump serializes a condition to its tagged single-key map form.
func Dump(c Condition) map[string]any {
	return map[string]any{c.Tag(): dumpPayload(c)}
}

func dumpPayload(c Condition) map[string]any {
	switch t := c.(type) {
	case *AndCondition:
		return map[string]any{"conditions": dumpChildren(t.Conditions)}
	case *OrCondition:
		return map[string]any{"conditions": dumpChildren(t.Conditions)}
	case *NotCondition:
		return map[string]any{"condition": Dump(t.Condition)}
	case *KeyValueCondition:
		return map[string]any{"key": t.Key, "value": t.Value, "equals": t.Equals}
	case *KeyValuesCondition:
		return map[string]any{"key": t.Key, "values": t.Values, "includes": t.Includes}
	case *ExistCondition:
		return map[string]any{"key": t.Key}
	case *NonExistCondition:
		return map[string]any{"key": t.Key}
	case *GreaterCondition:
		return map[string]any{"key": t.Key, "value": t.Value, "equals": t.Equals}
	case *LesserCondition:
		return map[string]any{"key": t.Key, "value": t.Value, "equals": t.Equals}
	default:
		return map[string]any{}
	}
}

func dumpChildren(children []Condition) []any {
	out := make([]any, len(children))
	for n, child := range children {
		out[n] = Dump(child)
	}
	return out
}
