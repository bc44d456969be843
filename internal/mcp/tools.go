package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"ageorm/agtype"
	"ageorm/graph"
	"ageorm/model"
)

type ListGraphsInput struct{}

type ListGraphsOutput struct {
	Graphs []string `json:"graphs"`
}

type RunCypherInput struct {
	Graph     string         `json:"graph,omitempty" jsonschema:"graph name; defaults to the configured graph"`
	Statement string         `json:"statement" jsonschema:"cypher statement with optional $name placeholders"`
	Columns   []string       `json:"columns,omitempty" jsonschema:"result column names, one per returned expression"`
	Params    map[string]any `json:"params,omitempty" jsonschema:"values for $name placeholders"`
}

type RunCypherOutput struct {
	Rows []any `json:"rows"`
}

type CountLabelInput struct {
	Graph string `json:"graph,omitempty" jsonschema:"graph name; defaults to the configured graph"`
	Label string `json:"label" jsonschema:"vertex label to count"`
}

type CountLabelOutput struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type ListTypesInput struct{}

type ListTypesOutput struct {
	Types []TypeOutput `json:"types"`
}

type TypeOutput struct {
	Name          string               `json:"name"`
	Label         string               `json:"label"`
	Kind          string               `json:"kind"`
	Fields        []FieldOutput        `json:"fields"`
	Relationships []RelationshipOutput `json:"relationships,omitempty"`
}

type FieldOutput struct {
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Required bool     `json:"required,omitempty"`
	Values   []string `json:"values,omitempty"`
}

type RelationshipOutput struct {
	Name      string `json:"name"`
	Target    string `json:"target"`
	Edge      string `json:"edge"`
	Direction string `json:"direction"`
	Many      bool   `json:"many,omitempty"`
}

type EntityOutput struct {
	ID         int64          `json:"id"`
	Label      string         `json:"label"`
	StartID    *int64         `json:"start_id,omitempty"`
	EndID      *int64         `json:"end_id,omitempty"`
	Properties map[string]any `json:"properties"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_graphs",
		Description: "List the graphs in the database",
	}, s.handleListGraphs)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_cypher",
		Description: "Run a cypher statement against a graph",
	}, s.handleRunCypher)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "count_label",
		Description: "Count the vertices carrying a label",
	}, s.handleCountLabel)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_types",
		Description: "Describe the registered vertex and edge types",
	}, s.handleListTypes)
}

func (s *Server) handleListGraphs(ctx context.Context, req *sdk.CallToolRequest, input ListGraphsInput) (*sdk.CallToolResult, ListGraphsOutput, error) {
	names, err := s.db.ListGraphs(ctx)
	if err != nil {
		return nil, ListGraphsOutput{}, err
	}
	return nil, ListGraphsOutput{Graphs: names}, nil
}

func (s *Server) handleRunCypher(ctx context.Context, req *sdk.CallToolRequest, input RunCypherInput) (*sdk.CallToolResult, RunCypherOutput, error) {
	if input.Statement == "" {
		return nil, RunCypherOutput{}, fmt.Errorf("statement is required")
	}
	g, err := s.open(ctx, input.Graph)
	if err != nil {
		return nil, RunCypherOutput{}, err
	}
	rows, err := g.Cypher(ctx, input.Statement, graph.CypherOptions{
		Columns: input.Columns,
		Params:  input.Params,
		Remap:   len(input.Columns) > 0,
	})
	if err != nil {
		return nil, RunCypherOutput{}, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, plain(row))
	}
	return nil, RunCypherOutput{Rows: out}, nil
}

func (s *Server) handleCountLabel(ctx context.Context, req *sdk.CallToolRequest, input CountLabelInput) (*sdk.CallToolResult, CountLabelOutput, error) {
	if !model.ValidName(input.Label) {
		return nil, CountLabelOutput{}, fmt.Errorf("invalid label: %q", input.Label)
	}
	g, err := s.open(ctx, input.Graph)
	if err != nil {
		return nil, CountLabelOutput{}, err
	}
	rows, err := g.Cypher(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n)", input.Label), graph.CypherOptions{})
	if err != nil {
		return nil, CountLabelOutput{}, err
	}
	out := CountLabelOutput{Label: input.Label}
	if len(rows) > 0 {
		if sc, ok := rows[0].(agtype.Scalar); ok {
			n, _ := sc.Value.(int64)
			out.Count = n
		}
	}
	return nil, out, nil
}

func (s *Server) handleListTypes(ctx context.Context, req *sdk.CallToolRequest, input ListTypesInput) (*sdk.CallToolResult, ListTypesOutput, error) {
	types := model.Registered()
	out := ListTypesOutput{Types: make([]TypeOutput, 0, len(types))}
	for _, t := range types {
		out.Types = append(out.Types, typeOutput(t))
	}
	return nil, out, nil
}

func (s *Server) open(ctx context.Context, name string) (*graph.Graph, error) {
	if name == "" {
		name = s.graph
	}
	if name == "" {
		return nil, fmt.Errorf("graph is required")
	}
	return s.db.Graph(ctx, name, false)
}

func typeOutput(t *model.Type) TypeOutput {
	out := TypeOutput{
		Name:   t.Name,
		Label:  t.Label,
		Kind:   t.Kind.String(),
		Fields: make([]FieldOutput, 0, len(t.Fields)),
	}
	for _, f := range t.Fields {
		out.Fields = append(out.Fields, FieldOutput{
			Name:     f.Name,
			Type:     string(f.Type),
			Required: f.Required,
			Values:   f.Values,
		})
	}
	for _, r := range t.Relationships {
		out.Relationships = append(out.Relationships, RelationshipOutput{
			Name:      r.Name,
			Target:    r.Target.Label(),
			Edge:      r.EdgeLabel,
			Direction: string(r.Direction),
			Many:      r.Many,
		})
	}
	return out
}

// plain turns a cypher result into JSON-friendly values.
func plain(v any) any {
	switch x := v.(type) {
	case *model.Entity:
		return entityOutput(x)
	case agtype.Value:
		return agtype.Plain(x)
	case map[string]any:
		for k, item := range x {
			x[k] = plain(item)
		}
		return x
	default:
		return v
	}
}

func entityOutput(e *model.Entity) EntityOutput {
	id, _ := e.ID()
	out := EntityOutput{ID: id, Label: e.Label(), Properties: e.Dump(false).Map()}
	if start, ok := e.StartID(); ok {
		end, _ := e.EndID()
		out.StartID, out.EndID = &start, &end
	}
	return out
}
