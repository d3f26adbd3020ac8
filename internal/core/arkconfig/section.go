package arkconfig

import (
	"fmt"
	"strings"

	"arkman.dev/cli/internal/core/complexvalue"
	"arkman.dev/cli/internal/core/document"
	"arkman.dev/cli/internal/core/primitive"
)

// Section is an ordered set of options. Options that are set more than once
// fold into a list in the order they were first seen.
type Section struct {
	entries *document.Map
}

// NewSection returns an empty section.
func NewSection() *Section {
	return &Section{entries: document.NewMap()}
}

// Set stores value under key. A single string is classified into a
// primitive; strings inside a list are kept as given. Go numbers are widened
// and mappings of registered options become complex values. Setting a key
// again appends to the existing value.
func (s *Section) Set(key string, value any) error {
	normalized, err := normalizeOption(key, value)
	if err != nil {
		return err
	}

	existing, ok := s.entries.Get(key)
	if !ok {
		s.entries.Set(key, normalized)
		return nil
	}

	var folded []any
	if list, isList := existing.([]any); isList {
		folded = list
	} else {
		folded = []any{existing}
	}
	if list, isList := normalized.([]any); isList {
		folded = append(folded, list...)
	} else {
		folded = append(folded, normalized)
	}
	s.entries.Set(key, folded)
	return nil
}

// replace overwrites a value in place without folding.
func (s *Section) replace(key string, value any) {
	s.entries.Set(key, value)
}

func (s *Section) Get(key string) (any, bool) {
	return s.entries.Get(key)
}

func (s *Section) Has(key string) bool {
	return s.entries.Has(key)
}

func (s *Section) Delete(key string) {
	s.entries.Delete(key)
}

func (s *Section) Keys() []string {
	return s.entries.Keys()
}

// Items returns the options in insertion order.
func (s *Section) Items() []document.Entry {
	return s.entries.Entries()
}

func (s *Section) Len() int {
	return s.entries.Len()
}

// Clone copies the section. Lists and raw mappings are copied, complex
// values are shared.
func (s *Section) Clone() *Section {
	return &Section{entries: s.entries.Clone()}
}

// Dump renders the section as key=value lines. List values produce one line
// per element.
func (s *Section) Dump(newline string) string {
	var lines []string
	for _, e := range s.entries.Entries() {
		if list, ok := e.Value.([]any); ok {
			for _, item := range list {
				lines = append(lines, e.Key+"="+renderOption(item))
			}
			continue
		}
		lines = append(lines, e.Key+"="+renderOption(e.Value))
	}
	return strings.Join(lines, newline)
}

func renderOption(v any) string {
	switch x := v.(type) {
	case complexvalue.Value:
		return x.Literal()
	case *document.Map:
		return complexvalue.RenderLiteral(x)
	default:
		return primitive.Render(v)
	}
}

// toDocument converts a stored value into plain document values.
func toDocument(v any) any {
	switch x := v.(type) {
	case complexvalue.Value:
		return x.ToMapping()
	case *document.Map:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = toDocument(item)
		}
		return out
	default:
		return v
	}
}

func normalizeOption(key string, value any) (any, error) {
	kind, registered := complexvalue.KindForKey(key)

	switch v := value.(type) {
	case string:
		return primitive.Classify(v), nil
	case complexvalue.Value:
		return v, nil
	case *document.Map:
		if registered {
			return buildComplex(key, kind, v)
		}
		return v, nil
	case map[string]any:
		return normalizeOption(key, document.FromGoMap(v))
	case []string, []float64, []int64:
		return normalizeOption(key, document.Normalize(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			elem, err := normalizeElement(key, kind, registered, item)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}

	if n, ok := primitive.Normalize(value); ok {
		return n, nil
	}
	return nil, typeMismatch(key, value)
}

func normalizeElement(key string, kind complexvalue.Kind, registered bool, item any) (any, error) {
	switch v := item.(type) {
	case string:
		return v, nil
	case complexvalue.Value:
		return v, nil
	case *document.Map:
		if registered {
			return buildComplex(key, kind, v)
		}
		return v, nil
	case map[string]any:
		return normalizeElement(key, kind, registered, document.FromGoMap(v))
	}

	if n, ok := primitive.Normalize(item); ok {
		return n, nil
	}
	return nil, typeMismatch(key, item)
}

func buildComplex(key string, kind complexvalue.Kind, m *document.Map) (complexvalue.Value, error) {
	v, err := complexvalue.FromMapping(kind, m)
	if err != nil {
		return nil, &StructuralError{Key: key, Err: err}
	}
	return v, nil
}

func typeMismatch(key string, value any) error {
	return &StructuralError{
		Key: key,
		Reason: fmt.Sprintf(
			"value must be a bool, int, float, str, mapping, complex value or a list of these, not %s",
			primitive.TypeName(value)),
	}
}
