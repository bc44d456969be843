// Package model describes the entity types stored in a graph and the
// entities themselves: their fields, dirty state, identity, and lazily
// loaded relationships.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind int

const (
	Vertex Kind = iota
	Edge
)

func (k Kind) String() string {
	if k == Edge {
		return "edge"
	}
	return "vertex"
}

type FieldType string

const (
	Any    FieldType = ""
	String FieldType = "string"
	Int    FieldType = "int"
	Float  FieldType = "float"
	Bool   FieldType = "bool"
	List   FieldType = "list"
	Map    FieldType = "map"
	Enum   FieldType = "enum"
)

// Field is a declared, persisted property.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
	// Values lists the allowed values of an Enum field.
	Values []string
}

type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
	Both     Direction = "any"
)

// Arrows returns the pattern pieces placed around an edge for d.
func (d Direction) Arrows() (left, right string) {
	switch d {
	case Inbound:
		return "<-", "-"
	case Both:
		return "-", "-"
	default:
		return "-", "->"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "outbound", "out":
		return Outbound, nil
	case "inbound", "in":
		return Inbound, nil
	case "any", "both":
		return Both, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Relationship is a lazily loaded association declared on a type. It is not
// persisted as a property.
type Relationship struct {
	Name      string
	Target    *Target
	EdgeLabel string
	Direction Direction
	Many      bool
	Cache     bool
	Depth     int
}

// Type declares an entity type. Label defaults to Name. Types are only
// usable once they have been through Define.
type Type struct {
	Name          string
	Label         string
	Kind          Kind
	Fields        []Field
	Relationships []Relationship
	// Abstract types are usable for construction but never registered.
	Abstract bool

	fieldIndex map[string]int
	relIndex   map[string]int
}

func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

func (t *Type) Relationship(name string) (Relationship, bool) {
	i, ok := t.relIndex[name]
	if !ok {
		return Relationship{}, false
	}
	return t.Relationships[i], true
}

func (t *Type) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

func (t *Type) String() string {
	return t.Name
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether s can be used unquoted as a label, graph, column
// or property name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// compile validates t and fills defaults and lookup indexes.
func compile(t Type) (*Type, error) {
	if t.Label == "" {
		t.Label = t.Name
	}
	if t.Name == "" {
		t.Name = t.Label
	}
	if !ValidName(t.Label) {
		return nil, NewValidationError(t.Label, fmt.Errorf("label must match %s", namePattern))
	}

	t.Fields = append([]Field(nil), t.Fields...)
	t.fieldIndex = make(map[string]int, len(t.Fields))
	for i, f := range t.Fields {
		if !ValidName(f.Name) {
			return nil, NewValidationError(f.Name, fmt.Errorf("%s: field name must match %s", t.Label, namePattern))
		}
		if _, dup := t.fieldIndex[f.Name]; dup {
			return nil, NewValidationError(f.Name, fmt.Errorf("%s: duplicate field", t.Label))
		}
		if f.Type == Enum && len(f.Values) == 0 {
			return nil, NewValidationError(f.Name, fmt.Errorf("%s: enum has no values", t.Label))
		}
		if f.Default != nil {
			if err := checkValue(f, f.Default); err != nil {
				return nil, NewValidationError(f.Name, fmt.Errorf("%s: default: %w", t.Label, err))
			}
		}
		t.fieldIndex[f.Name] = i
	}

	t.Relationships = append([]Relationship(nil), t.Relationships...)
	t.relIndex = make(map[string]int, len(t.Relationships))
	for i := range t.Relationships {
		r := &t.Relationships[i]
		if !ValidName(r.Name) {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: relationship name must match %s", t.Label, namePattern))
		}
		if _, clash := t.fieldIndex[r.Name]; clash {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: relationship shadows a field", t.Label))
		}
		if _, dup := t.relIndex[r.Name]; dup {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: duplicate relationship", t.Label))
		}
		if r.Target == nil {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: relationship has no target", t.Label))
		}
		if !ValidName(r.EdgeLabel) {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: edge label %q is not a valid name", t.Label, r.EdgeLabel))
		}
		dir, err := ParseDirection(string(r.Direction))
		if err != nil {
			return nil, NewValidationError(r.Name, err)
		}
		r.Direction = dir
		if r.Depth == 0 {
			r.Depth = 1
		}
		if r.Depth < 1 {
			return nil, NewValidationError(r.Name, fmt.Errorf("%s: depth must be at least 1", t.Label))
		}
		t.relIndex[r.Name] = i
	}
	return &t, nil
}
