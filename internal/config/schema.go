package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ageorm/model"
)

type Schema struct {
	Version     int        `yaml:"version"`
	VertexTypes []TypeSpec `yaml:"vertex_types"`
	EdgeTypes   []TypeSpec `yaml:"edge_types"`

	index map[string]*TypeSpec
}

type TypeSpec struct {
	Name          string             `yaml:"name"`
	Label         string             `yaml:"label"`
	Fields        []Property         `yaml:"fields"`
	Relationships []RelationshipSpec `yaml:"relationships"`

	kind model.Kind
}

type Property struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Values   []string `yaml:"values"`
	Default  any      `yaml:"default"`
	Required bool     `yaml:"required"`
}

type RelationshipSpec struct {
	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
	Edge      string `yaml:"edge"`
	Direction string `yaml:"direction"`
	Many      bool   `yaml:"many"`
	Cache     bool   `yaml:"cache"`
	Depth     int    `yaml:"depth"`
}

var fieldTypes = map[string]model.FieldType{
	"":        model.Any,
	"any":     model.Any,
	"string":  model.String,
	"int":     model.Int,
	"integer": model.Int,
	"float":   model.Float,
	"number":  model.Float,
	"bool":    model.Bool,
	"boolean": model.Bool,
	"list":    model.List,
	"map":     model.Map,
	"enum":    model.Enum,
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.index = make(map[string]*TypeSpec)
	for i := range schema.VertexTypes {
		spec := &schema.VertexTypes[i]
		spec.kind = model.Vertex
		schema.index[strings.ToLower(spec.Name)] = spec
	}
	for i := range schema.EdgeTypes {
		spec := &schema.EdgeTypes[i]
		spec.kind = model.Edge
		schema.index[strings.ToLower(spec.Name)] = spec
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.VertexTypes)+len(s.EdgeTypes) == 0 {
		return fmt.Errorf("at least one vertex or edge type is required")
	}

	typeNames := make(map[string]struct{})
	check := func(kind string, i int, spec TypeSpec) error {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("%s type %d name is required", kind, i)
		}
		key := strings.ToLower(spec.Name)
		if _, exists := typeNames[key]; exists {
			return fmt.Errorf("duplicate type name: %s", spec.Name)
		}
		typeNames[key] = struct{}{}

		propNames := make(map[string]struct{})
		for _, prop := range spec.Fields {
			name := strings.TrimSpace(prop.Name)
			if name == "" {
				return fmt.Errorf("type %s has field with empty name", spec.Name)
			}
			if _, exists := propNames[name]; exists {
				return fmt.Errorf("type %s has duplicate field: %s", spec.Name, prop.Name)
			}
			propNames[name] = struct{}{}
			ft, ok := fieldTypes[strings.ToLower(prop.Type)]
			if !ok {
				return fmt.Errorf("type %s field %s has unknown type: %s", spec.Name, prop.Name, prop.Type)
			}
			if ft == model.Enum && len(prop.Values) == 0 {
				return fmt.Errorf("type %s field %s enum has no values", spec.Name, prop.Name)
			}
		}

		for _, rel := range spec.Relationships {
			if strings.TrimSpace(rel.Name) == "" {
				return fmt.Errorf("type %s has relationship with empty name", spec.Name)
			}
			if strings.TrimSpace(rel.Target) == "" {
				return fmt.Errorf("type %s relationship %s has no target", spec.Name, rel.Name)
			}
			if strings.TrimSpace(rel.Edge) == "" {
				return fmt.Errorf("type %s relationship %s has no edge label", spec.Name, rel.Name)
			}
			if _, err := model.ParseDirection(rel.Direction); err != nil {
				return fmt.Errorf("type %s relationship %s: %w", spec.Name, rel.Name, err)
			}
			if rel.Depth < 0 {
				return fmt.Errorf("type %s relationship %s depth must not be negative", spec.Name, rel.Name)
			}
		}
		return nil
	}

	for i, spec := range s.VertexTypes {
		if err := check("vertex", i, spec); err != nil {
			return err
		}
	}
	for i, spec := range s.EdgeTypes {
		if len(spec.Relationships) > 0 {
			return fmt.Errorf("edge type %s cannot declare relationships", spec.Name)
		}
		if err := check("edge", i, spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) TypeByName(name string) (*TypeSpec, bool) {
	if s == nil {
		return nil, false
	}
	spec, ok := s.index[strings.ToLower(name)]
	return spec, ok
}

func (s *Schema) IsValidType(name string) bool {
	_, ok := s.TypeByName(name)
	return ok
}

// Kind reports whether spec was declared under vertex_types or edge_types.
func (spec *TypeSpec) Kind() model.Kind { return spec.kind }

// Type converts spec into a model type ready for model.Define.
func (spec *TypeSpec) Type() model.Type {
	t := model.Type{Name: spec.Name, Label: spec.Label, Kind: spec.kind}
	for _, p := range spec.Fields {
		t.Fields = append(t.Fields, model.Field{
			Name:     strings.TrimSpace(p.Name),
			Type:     fieldTypes[strings.ToLower(p.Type)],
			Required: p.Required,
			Default:  p.Default,
			Values:   p.Values,
		})
	}
	for _, r := range spec.Relationships {
		dir, _ := model.ParseDirection(r.Direction)
		t.Relationships = append(t.Relationships, model.Relationship{
			Name:      r.Name,
			Target:    model.ToLabel(r.Target),
			EdgeLabel: r.Edge,
			Direction: dir,
			Many:      r.Many,
			Cache:     r.Cache,
			Depth:     r.Depth,
		})
	}
	return t
}

// Define registers every declared type, vertices first. Types whose label is
// already registered are rejected with *model.AlreadyExistsError.
func (s *Schema) Define() ([]*model.Type, error) {
	out := make([]*model.Type, 0, len(s.VertexTypes)+len(s.EdgeTypes))
	groups := []struct {
		kind  model.Kind
		specs []TypeSpec
	}{{model.Vertex, s.VertexTypes}, {model.Edge, s.EdgeTypes}}
	for _, group := range groups {
		for i := range group.specs {
			spec := &group.specs[i]
			spec.kind = group.kind
			t, err := model.Define(spec.Type())
			if err != nil {
				return out, fmt.Errorf("defining %s: %w", spec.Name, err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}
