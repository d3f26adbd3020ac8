package primitive

import (
	"fmt"
	"math"
)

// TypeName returns a short, user facing type name for error messages.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// AsInt reads an integer. Integral floats are accepted.
func AsInt(v any) (int64, error) {
	n, ok := Normalize(v)
	if !ok {
		return 0, fmt.Errorf("expected int, got %s", TypeName(v))
	}
	switch x := n.(type) {
	case int64:
		return x, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), nil
		}
		return 0, fmt.Errorf("expected int, got non-integral float %v", x)
	case string:
		if c, ok := Classify(x).(int64); ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("expected int, got %s", TypeName(v))
}

// AsFloat reads a float. Integers are widened.
func AsFloat(v any) (float64, error) {
	n, ok := Normalize(v)
	if !ok {
		return 0, fmt.Errorf("expected float, got %s", TypeName(v))
	}
	switch x := n.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		switch c := Classify(x).(type) {
		case float64:
			return c, nil
		case int64:
			return float64(c), nil
		}
	}
	return 0, fmt.Errorf("expected float, got %s", TypeName(v))
}

// AsBool reads a boolean.
func AsBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		if b, ok := Classify(x).(bool); ok {
			return b, nil
		}
	}
	return false, fmt.Errorf("expected bool, got %s", TypeName(v))
}

// AsString reads a string. Numbers and booleans are not converted.
func AsString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected str, got %s", TypeName(v))
	}
	return s, nil
}
