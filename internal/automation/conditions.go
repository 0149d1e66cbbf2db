package automation

import (
	"encoding/json"

	"github.com/checkfox/lead_engage/internal/models"
)

// conditionsMet reports whether every condition passes against the payload.
// A field missing from the payload (or null) does not block the rule.
func conditionsMet(conditions []models.Condition, payload map[string]interface{}) bool {
	for _, c := range conditions {
		if !conditionMet(c, payload) {
			return false
		}
	}
	return true
}

func conditionMet(c models.Condition, payload map[string]interface{}) bool {
	actual, ok := payload[c.Field]
	if !ok || actual == nil {
		return true
	}
	return compare(actual, c.Operator, c.Value)
}

// compare applies op to actual and expected. Numbers compare numerically,
// strings lexically and booleans by equality only; mixed kinds never match.
func compare(actual interface{}, op models.Operator, expected interface{}) bool {
	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		if !ok {
			return false
		}
		return compareOrdered(a, op, e)
	}

	if a, ok := actual.(string); ok {
		e, ok := expected.(string)
		if !ok {
			return false
		}
		return compareOrdered(a, op, e)
	}

	if a, ok := actual.(bool); ok {
		e, ok := expected.(bool)
		if !ok {
			return false
		}
		switch op {
		case models.OpEqual:
			return a == e
		case models.OpNotEqual:
			return a != e
		}
	}

	return false
}

func compareOrdered[T float64 | string](a T, op models.Operator, e T) bool {
	switch op {
	case models.OpGreaterOrEqual:
		return a >= e
	case models.OpLessOrEqual:
		return a <= e
	case models.OpEqual:
		return a == e
	case models.OpNotEqual:
		return a != e
	case models.OpGreater:
		return a > e
	case models.OpLess:
		return a < e
	default:
		return false
	}
}

// toFloat widens any numeric payload value to float64
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
