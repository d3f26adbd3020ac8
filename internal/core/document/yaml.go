package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"arkman.dev/cli/internal/core/primitive"
)

// IncludeTag is the local YAML tag that pulls a fragment file in place.
const IncludeTag = "!include"

const maxIncludeDepth = 16

var (
	// ErrMissingInclude is returned when an included fragment does not exist.
	ErrMissingInclude = errors.New("include file does not exist")
	// ErrIncludeCycle is returned when fragments include each other.
	ErrIncludeCycle = errors.New("include cycle")
)

// IncludeError describes a failed !include resolution.
type IncludeError struct {
	Name string
	Path string
	Err  error
}

func (e *IncludeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("include %q (%s): %v", e.Name, e.Path, e.Err)
	}
	return fmt.Sprintf("include %q: %v", e.Name, e.Err)
}

func (e *IncludeError) Unwrap() error {
	return e.Err
}

// IncludeResolver loads the raw text of an included fragment by name.
type IncludeResolver func(name string) ([]byte, error)

// DirIncludes resolves fragments relative to dir.
func DirIncludes(dir string) IncludeResolver {
	return func(name string) ([]byte, error) {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &IncludeError{Name: name, Path: path, Err: ErrMissingInclude}
			}
			return nil, &IncludeError{Name: name, Path: path, Err: err}
		}
		return data, nil
	}
}

// DecodeOptions controls YAML decoding.
type DecodeOptions struct {
	// Includes resolves !include tags. Nil makes any !include an error.
	Includes IncludeResolver
}

// DecodeYAML parses YAML text into document values. An empty document
// decodes to nil.
func DecodeYAML(data []byte, opts DecodeOptions) (any, error) {
	d := &decoder{opts: opts}
	return d.decodeText(data)
}

type decoder struct {
	opts  DecodeOptions
	stack []string
}

func (d *decoder) decodeText(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil
	}
	return d.decode(&root)
}

func (d *decoder) decode(n *yaml.Node) (any, error) {
	if n.Tag == IncludeTag {
		return d.include(n)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.decode(n.Content[0])
	case yaml.AliasNode:
		return d.decode(n.Alias)
	case yaml.ScalarNode:
		return decodeScalar(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := d.decode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return d.decodeMapping(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %v", n.Line, n.Kind)
	}
}

func (d *decoder) decodeMapping(n *yaml.Node) (*Map, error) {
	out := NewMap()
	var explicit []Entry

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]

		if keyNode.ShortTag() == "!!merge" {
			if err := d.mergeInto(out, valueNode); err != nil {
				return nil, err
			}
			continue
		}

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}

		value, err := d.decode(valueNode)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, Entry{Key: keyNode.Value, Value: value})
	}

	for _, e := range explicit {
		out.Set(e.Key, e.Value)
	}
	return out, nil
}

// mergeInto applies a YAML merge key. Earlier sources win over later ones and
// explicit keys of the host mapping are applied afterwards.
func (d *decoder) mergeInto(dst *Map, n *yaml.Node) error {
	sources := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		sources = n.Content
	}

	for _, src := range sources {
		v, err := d.decode(src)
		if err != nil {
			return err
		}
		m, ok := v.(*Map)
		if !ok {
			return fmt.Errorf("line %d: merge value must be a mapping, got %s", src.Line, primitive.TypeName(v))
		}
		for _, e := range m.Entries() {
			if !dst.Has(e.Key) {
				dst.Set(e.Key, e.Value)
			}
		}
	}
	return nil
}

func (d *decoder) include(n *yaml.Node) (any, error) {
	name := strings.TrimSpace(n.Value)
	if d.opts.Includes == nil {
		return nil, &IncludeError{Name: name, Err: errors.New("includes are not enabled")}
	}
	for _, seen := range d.stack {
		if seen == name {
			return nil, &IncludeError{Name: name, Err: ErrIncludeCycle}
		}
	}
	if len(d.stack) >= maxIncludeDepth {
		return nil, &IncludeError{Name: name, Err: fmt.Errorf("nested deeper than %d levels", maxIncludeDepth)}
	}

	data, err := d.opts.Includes(name)
	if err != nil {
		return nil, err
	}

	d.stack = append(d.stack, name)
	defer func() { d.stack = d.stack[:len(d.stack)-1] }()

	v, err := d.decodeText(data)
	if err != nil {
		var incErr *IncludeError
		if errors.As(err, &incErr) {
			return nil, err
		}
		return nil, &IncludeError{Name: name, Err: err}
	}
	return v, nil
}

func decodeScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// out of range integers keep their text
			return n.Value, nil
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	default:
		return n.Value, nil
	}
}

// EncodeYAML renders document values as YAML with two space indentation.
func EncodeYAML(v any) ([]byte, error) {
	node, err := ToNode(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML keeps key order when a Map is embedded in other YAML values.
func (m *Map) MarshalYAML() (any, error) {
	return ToNode(m)
}

// UnmarshalYAML decodes a mapping node without include support.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	d := &decoder{}
	v, err := d.decode(node)
	if err != nil {
		return err
	}
	decoded, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, primitive.TypeName(v))
	}
	*m = *decoded
	return nil
}

// ToNode converts document values into a YAML node tree. Floats always carry
// a fractional part so they decode as floats again.
func ToNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(x)), nil
	case int64:
		return scalarNode("!!int", strconv.FormatInt(x, 10)), nil
	case float64:
		return scalarNode("!!float", formatYAMLFloat(x)), nil
	case string:
		return scalarNode("!!str", x), nil
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range x.Entries() {
			valueNode, err := ToNode(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			node.Content = append(node.Content, scalarNode("!!str", e.Key), valueNode)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range x {
			itemNode, err := ToNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil
	case map[string]any, []string, []float64, []int64:
		return ToNode(Normalize(v))
	default:
		if n, ok := primitive.Normalize(v); ok {
			return ToNode(n)
		}
		return nil, fmt.Errorf("unsupported document value of type %T", v)
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return primitive.FormatFloat(f)
	}
}
