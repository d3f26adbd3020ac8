package document

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"arkman.dev/cli/internal/core/primitive"
	"arkman.dev/cli/internal/pkg/json"
)

// EncodeJSON renders document values as JSON, keeping mapping key order.
// An empty indent produces compact output.
func EncodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, indent, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON keeps key order when a Map is embedded in other JSON values.
func (m *Map) MarshalJSON() ([]byte, error) {
	return EncodeJSON(m, "")
}

func writeJSON(buf *bytes.Buffer, v any, indent string, depth int) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("cannot encode %v as JSON", x)
		}
		buf.WriteString(primitive.FormatFloat(x))
	case string:
		quoted, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(quoted)
	case *Map:
		if x.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, e := range x.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			key, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			if err := writeJSON(buf, e.Value, indent, depth+1); err != nil {
				return fmt.Errorf("%s: %w", e.Key, err)
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte('}')
	case []any:
		if len(x) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			if err := writeJSON(buf, item, indent, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte(']')
	case map[string]any, []string, []float64, []int64:
		return writeJSON(buf, Normalize(v), indent, depth)
	default:
		n, ok := primitive.Normalize(v)
		if !ok {
			return fmt.Errorf("unsupported document value of type %T", v)
		}
		return writeJSON(buf, n, indent, depth)
	}
	return nil
}

func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}
