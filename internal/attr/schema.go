package attr

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute describes one device parameter.
type Attribute struct {
	// Key is a stable identifier safe for flags, URLs and config documents
	// (e.g. "UV_Ratio").
	Key string `yaml:"key" json:"key"`

	// Name is the attribute as v4lctl reports it (e.g. "UV Ratio").
	Name string `yaml:"name" json:"name"`

	Kind Kind `yaml:"kind" json:"kind"`

	// Command is the write command, passed to v4lctl before the value
	// (e.g. `setattr "UV Ratio"`, `setnorm`, `bright`).
	Command string `yaml:"command" json:"command"`

	// Default is the textual default, parsed with the attribute's kind.
	Default string `yaml:"default" json:"default"`

	// Limit is the hardware maximum of a percent attribute, or the upper
	// bound of an int attribute (0 = unbounded).
	Limit int `yaml:"limit,omitempty" json:"limit,omitempty"`

	// Options lists the accepted values of a choice attribute.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Parse parses operator input for this attribute, enforcing int bounds and
// choice options.
func (a Attribute) Parse(text string) (Value, error) {
	v, err := ParseValue(a.Kind, text)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Key = a.Key
		}
		return Value{}, err
	}

	switch a.Kind {
	case KindInt:
		if v.n < 0 || (a.Limit > 0 && v.n > a.Limit) {
			return Value{}, &ParseError{Key: a.Key, Text: text, Reason: fmt.Sprintf("out of range 0-%d", a.Limit)}
		}
	case KindChoice:
		if len(a.Options) > 0 && !slices.Contains(a.Options, v.s) {
			return Value{}, &ParseError{Key: a.Key, Text: text, Reason: "not one of " + strings.Join(a.Options, ", ")}
		}
	}
	return v, nil
}

// SchemaFile is the on-disk and on-wire form of a schema.
type SchemaFile struct {
	Model      string      `yaml:"model" json:"model"`
	Attributes []Attribute `yaml:"attributes" json:"attributes"`
}

// Schema is a validated, ordered attribute table. Declaration order is the
// order in which reconciliation issues writes.
type Schema struct {
	model    string
	attrs    []Attribute
	defaults []Value
	byKey    map[string]int
	byName   map[string]int
}

// NewSchema validates a schema file and builds its lookup tables.
func NewSchema(file SchemaFile) (*Schema, error) {
	if len(file.Attributes) == 0 {
		return nil, errors.New("schema has no attributes")
	}

	s := &Schema{
		model:    file.Model,
		attrs:    slices.Clone(file.Attributes),
		defaults: make([]Value, len(file.Attributes)),
		byKey:    make(map[string]int, len(file.Attributes)),
		byName:   make(map[string]int, len(file.Attributes)),
	}

	for i, a := range s.attrs {
		switch {
		case a.Key == "":
			return nil, fmt.Errorf("attribute %d: missing key", i)
		case a.Name == "":
			return nil, fmt.Errorf("attribute %s: missing name", a.Key)
		case a.Command == "":
			return nil, fmt.Errorf("attribute %s: missing command", a.Key)
		case !a.Kind.Valid():
			return nil, fmt.Errorf("attribute %s: invalid kind", a.Key)
		case a.Kind == KindPercent && a.Limit <= 0:
			return nil, fmt.Errorf("attribute %s: percent attributes need a positive limit", a.Key)
		}
		if _, dup := s.byKey[a.Key]; dup {
			return nil, fmt.Errorf("attribute %s: duplicate key", a.Key)
		}
		if _, dup := s.byName[a.Name]; dup {
			return nil, fmt.Errorf("attribute %s: duplicate name %q", a.Key, a.Name)
		}

		def, err := a.Parse(a.Default)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: bad default: %w", a.Key, err)
		}

		s.defaults[i] = def
		s.byKey[a.Key] = i
		s.byName[a.Name] = i
	}

	return s, nil
}

// LoadSchema reads a schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	s, err := NewSchema(file)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return s, nil
}

// File returns the schema in its serialisable form.
func (s *Schema) File() SchemaFile {
	return SchemaFile{Model: s.model, Attributes: slices.Clone(s.attrs)}
}

// Model returns the device model the schema was written for
func (s *Schema) Model() string { return s.model }

// Len returns the number of attributes
func (s *Schema) Len() int { return len(s.attrs) }

// Attribute returns the i-th attribute in declaration order
func (s *Schema) Attribute(i int) Attribute { return s.attrs[i] }

// Attributes returns a copy of the attribute table
func (s *Schema) Attributes() []Attribute { return slices.Clone(s.attrs) }

// Default returns the parsed default of the i-th attribute
func (s *Schema) Default(i int) Value { return s.defaults[i] }

// Lookup finds an attribute by key, falling back to its v4lctl name.
func (s *Schema) Lookup(keyOrName string) (Attribute, int, bool) {
	if i, ok := s.byKey[keyOrName]; ok {
		return s.attrs[i], i, true
	}
	if i, ok := s.byName[keyOrName]; ok {
		return s.attrs[i], i, true
	}
	return Attribute{}, -1, false
}

// Defaults returns the revision holding every attribute's default
func (s *Schema) Defaults() Revision {
	return Revision{schema: s, values: slices.Clone(s.defaults)}
}

// Build computes a revision, one FromHardware call per attribute in
// declaration order.
func (s *Schema) Build(useDefaults bool, read Reader) Revision {
	values := make([]Value, len(s.attrs))
	for i, a := range s.attrs {
		values[i] = FromHardware(a, s.defaults[i], useDefaults, read)
	}
	return Revision{schema: s, values: values}
}
