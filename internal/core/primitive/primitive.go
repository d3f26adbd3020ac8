// Package primitive classifies raw option tokens of the ARK configuration
// dialect into booleans, integers, floats or strings, and renders them back.
package primitive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	boolPattern  = regexp.MustCompile(`(?i)^(true|false)$`)
	floatPattern = regexp.MustCompile(`^[+-]?\d*\.\d+$`)
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
)

// Classify converts a raw token into a bool, int64, float64 or string.
//
// The token is trimmed first. Booleans are matched case-insensitively, floats
// need at least one digit after the decimal point and integers are plain
// signed digit runs. Anything else, including integers that overflow int64,
// is returned as the trimmed string.
func Classify(token string) any {
	value := strings.TrimSpace(token)

	if boolPattern.MatchString(value) {
		return strings.EqualFold(value, "true")
	}

	if floatPattern.MatchString(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return value
	}

	if intPattern.MatchString(value) {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		return value
	}

	return value
}

// IsPrimitive reports whether v is one of the normalised primitive types.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case bool, int64, float64, string:
		return true
	default:
		return false
	}
}

// Normalize widens Go numeric types to int64/float64. The second result is
// false when v is not a primitive at all.
func Normalize(v any) (any, bool) {
	switch x := v.(type) {
	case bool, int64, float64, string:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float32:
		return float64(x), true
	default:
		return nil, false
	}
}

// Render returns the dialect text of a primitive value.
func Render(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return FormatFloat(x)
	case string:
		return x
	default:
		if n, ok := Normalize(v); ok {
			return Render(n)
		}
		return fmt.Sprint(v)
	}
}

// FormatFloat renders f in its shortest decimal form, always keeping a
// fractional part so the text classifies as a float again.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// FormatFixed renders f with a fixed number of decimals.
func FormatFixed(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// FormatTitleBool renders a boolean the way the game exports struct fields.
func FormatTitleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
