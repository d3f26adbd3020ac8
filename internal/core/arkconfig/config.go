// Package arkconfig reads and writes the INI dialect of ARK server
// configuration files and bridges it to YAML documents.
package arkconfig

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"arkman.dev/cli/internal/core/complexvalue"
	"arkman.dev/cli/internal/core/document"
)

var (
	sectionPattern = regexp.MustCompile(`^\[(.+)\]`)
	envPattern     = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)
)

// Config is an ordered set of named sections.
type Config struct {
	// Encoding is recorded by Read and used by Write.
	Encoding Encoding

	names    []string
	sections map[string]*Section
}

// New returns an empty configuration without an encoding.
func New() *Config {
	return &Config{sections: make(map[string]*Section)}
}

// SectionNames lists the sections in file order.
func (c *Config) SectionNames() []string {
	return append([]string(nil), c.names...)
}

func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// Section returns the named section.
func (c *Config) Section(name string) (*Section, error) {
	s, ok := c.sections[name]
	if !ok {
		return nil, &StructuralError{Section: name, Reason: "section not found"}
	}
	return s, nil
}

// AddSection returns the named section, creating it when missing.
func (c *Config) AddSection(name string) *Section {
	if s, ok := c.sections[name]; ok {
		return s
	}
	s := NewSection()
	c.SetSection(name, s)
	return s
}

// SetSection adds or replaces a section. A replaced section keeps its
// position.
func (c *Config) SetSection(name string, s *Section) {
	if c.sections == nil {
		c.sections = make(map[string]*Section)
	}
	if _, ok := c.sections[name]; !ok {
		c.names = append(c.names, name)
	}
	c.sections[name] = s
}

func (c *Config) RemoveSection(name string) {
	if _, ok := c.sections[name]; !ok {
		return
	}
	delete(c.sections, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
}

// Read loads an INI file. The file is decoded as UTF-8 or, failing that, as
// UTF-16 and the encoding that worked is recorded on the result.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	text, enc, err := decodeText(data)
	if err != nil {
		return nil, &EncodingError{Path: path, Err: err}
	}

	c, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Encoding = enc
	return c, nil
}

// Parse reads INI text. Blank lines and lines starting with ';' are
// skipped, lines without '=' are ignored and an option before the first
// section header is an error.
func Parse(text string) (*Config, error) {
	c := New()
	var current *Section
	var currentName string

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			currentName = m[1]
			current = c.AddSection(currentName)
			continue
		}

		if current == nil {
			return nil, &StructuralError{Line: i + 1, Reason: fmt.Sprintf("no section for option: %s", line)}
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		// "=value" is stored under the empty option name.
		key = strings.TrimSpace(key)
		if err := current.Set(key, strings.TrimSpace(value)); err != nil {
			return nil, withLocation(err, currentName, i+1)
		}
	}
	return c, nil
}

func withLocation(err error, section string, line int) error {
	if se, ok := err.(*StructuralError); ok {
		located := *se
		located.Section = section
		located.Line = line
		return &located
	}
	return &StructuralError{Section: section, Line: line, Err: err}
}

// Dump renders the configuration as INI text. Each section is its header,
// its options and a blank line.
func (c *Config) Dump(opts ...Option) string {
	o := buildOptions(opts)

	lines := make([]string, 0, len(c.names)*3)
	for _, name := range c.names {
		lines = append(lines, "["+name+"]", c.sections[name].Dump(o.newline), "")
	}
	return strings.Join(lines, o.newline)
}

// Encode renders the configuration in its encoding, or the one passed with
// WithEncoding.
func (c *Config) Encode(opts ...Option) ([]byte, error) {
	o := buildOptions(opts)

	enc := c.Encoding
	if o.encoding != "" {
		enc = o.encoding
	}
	if enc == "" {
		return nil, fmt.Errorf("config has no encoding, use WithEncoding")
	}
	return encodeText(c.Dump(opts...), enc)
}

// Write stores the configuration as an INI file.
func (c *Config) Write(path string, opts ...Option) error {
	data, err := c.Encode(opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ToDocument converts the configuration into plain document values. Complex
// values become mappings.
func (c *Config) ToDocument() *document.Map {
	root := document.NewMap()
	for _, name := range c.names {
		section := document.NewMap()
		for _, e := range c.sections[name].Items() {
			section.Set(e.Key, toDocument(e.Value))
		}
		root.Set(name, section)
	}
	return root
}

// FromDocument builds a configuration from a section → option → value
// document. Mappings under registered options become complex values.
func FromDocument(root *document.Map) (*Config, error) {
	c := New()
	for _, e := range root.Entries() {
		s := c.AddSection(e.Key)
		if e.Value == nil {
			continue
		}
		options, ok := e.Value.(*document.Map)
		if !ok {
			return nil, &StructuralError{
				Section: e.Key,
				Reason:  fmt.Sprintf("section must be a mapping, got %s", describeValue(e.Value)),
			}
		}
		for _, opt := range options.Entries() {
			if err := s.Set(opt.Key, opt.Value); err != nil {
				return nil, withSection(err, e.Key)
			}
		}
	}
	return c, nil
}

func withSection(err error, section string) error {
	if se, ok := err.(*StructuralError); ok {
		located := *se
		located.Section = section
		return &located
	}
	return err
}

func describeValue(v any) string {
	switch v.(type) {
	case *document.Map:
		return "mapping"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FromYAML parses a YAML document. !include tags are resolved, then
// ${NAME} placeholders are replaced with environment values.
func FromYAML(data []byte, opts ...Option) (*Config, error) {
	o := buildOptions(opts)

	parsed, err := document.DecodeYAML(data, document.DecodeOptions{Includes: o.includes})
	if err != nil {
		return nil, err
	}
	root, ok := parsed.(*document.Map)
	if !ok {
		return nil, &StructuralError{Reason: "YAML root must be a mapping"}
	}

	c, err := FromDocument(root)
	if err != nil {
		return nil, err
	}
	if err := c.expandEnv(o); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadYAMLFile loads a YAML document from disk.
func ReadYAMLFile(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	c, err := FromYAML(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ToYAML renders the configuration as a YAML document.
func (c *Config) ToYAML() ([]byte, error) {
	return document.EncodeYAML(c.ToDocument())
}

// WriteYAMLFile stores the configuration as a YAML document.
func (c *Config) WriteYAMLFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// ToJSON renders the configuration as indented JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return document.EncodeJSON(c.ToDocument(), "  ")
}

func (c *Config) expandEnv(o options) error {
	for _, name := range c.names {
		s := c.sections[name]
		for _, e := range s.Items() {
			switch v := e.Value.(type) {
			case string:
				expanded, ok, err := expandPlaceholder(v, o, name, e.Key)
				if err != nil {
					return err
				}
				if ok {
					s.replace(e.Key, expanded)
				}
			case []any:
				for i, item := range v {
					text, isString := item.(string)
					if !isString {
						continue
					}
					expanded, ok, err := expandPlaceholder(text, o, name, e.Key)
					if err != nil {
						return err
					}
					if ok {
						v[i] = expanded
					}
				}
			}
		}
	}
	return nil
}

func expandPlaceholder(text string, o options, section, key string) (any, bool, error) {
	m := envPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false, nil
	}

	value, found := o.lookupEnv(m[1])
	if !found && o.envPolicy == EnvStrict {
		return nil, false, &EnvVarError{Name: m[1], Section: section, Key: key}
	}
	n, _ := normalizeOption(key, value)
	return n, true, nil
}

// Merge returns a new configuration holding the sections of both. Options
// of other win on collision. Lists are copied so the result never shares
// them with either operand.
func (c *Config) Merge(other *Config) *Config {
	merged := New()
	merged.Encoding = c.Encoding
	if other.Encoding != "" {
		merged.Encoding = other.Encoding
	}

	for _, name := range c.names {
		merged.SetSection(name, c.sections[name].Clone())
	}
	for _, name := range other.names {
		target := merged.AddSection(name)
		for _, e := range other.sections[name].Items() {
			target.replace(e.Key, document.CloneValue(e.Value))
		}
	}
	return merged
}

// ExpandComplex turns inline literals stored under registered options into
// complex values.
func (c *Config) ExpandComplex() error {
	for _, name := range c.names {
		s := c.sections[name]
		for _, e := range s.Items() {
			kind, ok := complexvalue.KindForKey(e.Key)
			if !ok {
				continue
			}

			switch v := e.Value.(type) {
			case string:
				if !complexvalue.IsLiteral(v) {
					continue
				}
				built, err := complexvalue.FromLiteral(kind, v)
				if err != nil {
					return &StructuralError{Section: name, Key: e.Key, Err: err}
				}
				s.replace(e.Key, built)
			case []any:
				for i, item := range v {
					text, isString := item.(string)
					if !isString || !complexvalue.IsLiteral(text) {
						continue
					}
					built, err := complexvalue.FromLiteral(kind, text)
					if err != nil {
						return &StructuralError{Section: name, Key: fmt.Sprintf("%s[%d]", e.Key, i), Err: err}
					}
					v[i] = built
				}
			}
		}
	}
	return nil
}
