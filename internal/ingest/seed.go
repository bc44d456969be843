package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is one fixture file: vertices keyed for reference by the edges that
// follow them.
type Seed struct {
	Vertices []VertexSeed `yaml:"vertices"`
	Edges    []EdgeSeed   `yaml:"edges"`

	SourceFile string `yaml:"-"`
}

type VertexSeed struct {
	Key        string         `yaml:"key"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties"`
}

type EdgeSeed struct {
	From       string         `yaml:"from"`
	To         string         `yaml:"to"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties"`
}

var (
	ErrEmptySeed   = errors.New("seed declares no vertices or edges")
	ErrInvalidYAML = errors.New("invalid YAML in seed")
)

func ParseFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	seed, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	seed.SourceFile = path
	return seed, nil
}

func Parse(content []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if len(seed.Vertices)+len(seed.Edges) == 0 {
		return nil, ErrEmptySeed
	}

	for i, v := range seed.Vertices {
		if strings.TrimSpace(v.Key) == "" {
			return nil, fmt.Errorf("vertex %d has no key", i)
		}
		if strings.TrimSpace(v.Type) == "" {
			return nil, fmt.Errorf("vertex %s has no type", v.Key)
		}
	}
	for i, e := range seed.Edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("edge %d missing from or to", i)
		}
		if strings.TrimSpace(e.Type) == "" {
			return nil, fmt.Errorf("edge %d has no type", i)
		}
	}
	return &seed, nil
}
