package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// EffectOp is how an upgrade effect combines into the modifier record.
type EffectOp string

const (
	OpAdd      EffectOp = "add"
	OpMultiply EffectOp = "mul"
	OpSetFlag  EffectOp = "flag"
	OpOverride EffectOp = "set"
)

// Effect is one tagged upgrade effect. Amount is used by add and mul,
// Value by set; flag needs only the field.
type Effect struct {
	Op     EffectOp `yaml:"op" json:"op"`
	Field  string   `yaml:"field" json:"field"`
	Amount float64  `yaml:"amount" json:"amount,omitempty"`
	Value  string   `yaml:"value" json:"value,omitempty"`
}

func Add(field string, amount float64) Effect {
	return Effect{Op: OpAdd, Field: field, Amount: amount}
}

func Multiply(field string, factor float64) Effect {
	return Effect{Op: OpMultiply, Field: field, Amount: factor}
}

func SetFlag(field string) Effect {
	return Effect{Op: OpSetFlag, Field: field}
}

func Override(field, value string) Effect {
	return Effect{Op: OpOverride, Field: field, Value: value}
}

// Validate rejects effects with no field or an unknown op.
func (e Effect) Validate() error {
	if strings.TrimSpace(e.Field) == "" {
		return fmt.Errorf("effect field is required")
	}
	switch e.Op {
	case OpAdd, OpMultiply, OpSetFlag, OpOverride:
		return nil
	default:
		return fmt.Errorf("unknown effect op %q for %s", e.Op, e.Field)
	}
}

// EffectsFromLegacy converts an untagged effect map using the naming rules the
// older content was written against: a Mul suffix multiplies, numbers add,
// booleans set a flag and anything else overrides. Keys are processed in
// sorted order so the result is stable.
func EffectsFromLegacy(raw map[string]any) ([]Effect, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Effect, 0, len(keys))
	for _, k := range keys {
		v := raw[k]
		num, isNum := toFloat(v)
		switch {
		case strings.HasSuffix(k, "Mul"):
			if !isNum {
				return nil, fmt.Errorf("multiplier %s must be numeric, got %T", k, v)
			}
			out = append(out, Multiply(k, num))
		case isNum:
			out = append(out, Add(k, num))
		default:
			if b, ok := v.(bool); ok {
				if b {
					out = append(out, SetFlag(k))
				}
				continue
			}
			out = append(out, Override(k, fmt.Sprint(v)))
		}
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
