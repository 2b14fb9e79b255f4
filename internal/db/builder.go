package db

import (
	"errors"
	"sort"
	"strings"
)

// Engine mapping types used by reserved fields.
const (
	TypeText    = "text"
	TypeKeyword = "keyword"
	TypeLong    = "long"
	TypeDate    = "date"
)

// Property is the mapping of one field.
type Property struct {
	Type string `json:"type"`
}

// Mapping is an index mapping: {"properties": {...}}.
type Mapping struct {
	Properties map[string]Property `json:"properties"`
}

// MappingBuilder is a fluent builder for index mappings.
type MappingBuilder struct {
	props map[string]Property
	err   error
}

// NewMapping starts building a mapping.
func NewMapping() *MappingBuilder {
	return &MappingBuilder{props: map[string]Property{}}
}

// Field adds a field of the given engine type. Redefining a field with another type is an error.
func (b *MappingBuilder) Field(name, typ string) *MappingBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = errors.New("field name is required")
		return b
	}
	if typ == "" {
		b.err = errors.New("field type is required for " + name)
		return b
	}
	if existing, ok := b.props[name]; ok && existing.Type != typ {
		b.err = errors.New("conflicting types for " + name + ": " + existing.Type + " and " + typ)
		return b
	}
	b.props[name] = Property{Type: typ}
	return b
}

// Text adds a text field.
func (b *MappingBuilder) Text(name string) *MappingBuilder { return b.Field(name, TypeText) }

// Keyword adds a keyword field.
func (b *MappingBuilder) Keyword(name string) *MappingBuilder { return b.Field(name, TypeKeyword) }

// Long adds a long field.
func (b *MappingBuilder) Long(name string) *MappingBuilder { return b.Field(name, TypeLong) }

// Build validates and returns the mapping.
func (b *MappingBuilder) Build() (*Mapping, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.props) == 0 {
		return nil, errors.New("at least one field is required")
	}
	return &Mapping{Properties: b.props}, nil
}

// MustBuild calls Build and panics on error.
func (b *MappingBuilder) MustBuild() *Mapping {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// String returns a compact debug representation, fields sorted.
func (m *Mapping) String() string {
	names := make([]string, 0, len(m.Properties))
	for n := range m.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ":" + m.Properties[n].Type
	}
	return "MAPPING " + strings.Join(parts, " ")
}
