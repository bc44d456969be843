package mcp

import (
	"context"
	"strings"
	"testing"

	"ageorm/agtype"
	"ageorm/graph"
	"ageorm/model"
	"ageorm/store"
	"ageorm/store/storetest"
)

var (
	toolPerson = model.MustDefine(model.Type{
		Name: "ToolPerson",
		Fields: []model.Field{
			{Name: "name", Type: model.String, Required: true},
			{Name: "mood", Type: model.Enum, Values: []string{"calm", "busy"}},
		},
		Relationships: []model.Relationship{
			{Name: "friends", Target: model.ToLabel("ToolPerson"), EdgeLabel: "TOOL_KNOWS", Many: true},
		},
	})
	_ = model.MustDefine(model.Type{Name: "TOOL_KNOWS", Kind: model.Edge})
)

func newServer(t *testing.T) (*storetest.Fake, *Server) {
	t.Helper()
	fake := storetest.New().On("ag_catalog.ag_graph WHERE name", store.Row{int32(1)})
	return fake, NewServer(graph.New(fake), "social", "test")
}

func TestListGraphs(t *testing.T) {
	fake, server := newServer(t)
	fake.On("ORDER BY name", store.Row{"alpha"}, store.Row{"social"})

	_, output, err := server.handleListGraphs(context.Background(), nil, ListGraphsInput{})
	if err != nil {
		t.Fatalf("handleListGraphs: %v", err)
	}
	if len(output.Graphs) != 2 || output.Graphs[1] != "social" {
		t.Fatalf("unexpected graphs: %v", output.Graphs)
	}
}

func TestRunCypher_RequiresStatement(t *testing.T) {
	_, server := newServer(t)

	_, _, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunCypher_Entities(t *testing.T) {
	fake, server := newServer(t)
	fake.On("RETURN n", storetest.Vertex(7, "ToolPerson", map[string]any{"name": "Ada", "mood": "calm"}))

	_, output, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{
		Statement: "MATCH (n:ToolPerson) WHERE n.name = $name RETURN n",
		Params:    map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("handleRunCypher: %v", err)
	}
	if !strings.Contains(fake.Last(), "n.name = 'Ada'") {
		t.Fatalf("params not substituted: %s", fake.Last())
	}
	if !strings.Contains(fake.Last(), "cypher('social'") {
		t.Fatalf("default graph not used: %s", fake.Last())
	}
	if len(output.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(output.Rows))
	}
	ent, ok := output.Rows[0].(EntityOutput)
	if !ok {
		t.Fatalf("expected EntityOutput, got %T", output.Rows[0])
	}
	if ent.ID != 7 || ent.Label != "ToolPerson" || ent.Properties["name"] != "Ada" {
		t.Fatalf("unexpected entity: %+v", ent)
	}
	if ent.StartID != nil {
		t.Fatalf("vertex should not carry endpoints")
	}
}

func TestRunCypher_Columns(t *testing.T) {
	fake, server := newServer(t)
	fake.On("RETURN n.name, e", store.Row{`"Ada"`, storetest.EdgeText(9, "TOOL_KNOWS", 1, 2, nil)})

	_, output, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{
		Graph:     "other",
		Statement: "MATCH (n)-[e]->() RETURN n.name, e",
		Columns:   []string{"name", "edge"},
	})
	if err != nil {
		t.Fatalf("handleRunCypher: %v", err)
	}
	if !strings.Contains(fake.Last(), "cypher('other'") {
		t.Fatalf("graph argument not used: %s", fake.Last())
	}
	row, ok := output.Rows[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map row, got %T", output.Rows[0])
	}
	if row["name"] != "Ada" {
		t.Fatalf("unexpected name: %v", row["name"])
	}
	edge, ok := row["edge"].(EntityOutput)
	if !ok {
		t.Fatalf("expected EntityOutput edge, got %T", row["edge"])
	}
	if edge.StartID == nil || *edge.StartID != 1 || *edge.EndID != 2 {
		t.Fatalf("unexpected endpoints: %+v", edge)
	}
}

func TestCountLabel(t *testing.T) {
	fake, server := newServer(t)
	fake.On("RETURN count(n)", storetest.Scalar(3))

	_, output, err := server.handleCountLabel(context.Background(), nil, CountLabelInput{Label: "ToolPerson"})
	if err != nil {
		t.Fatalf("handleCountLabel: %v", err)
	}
	if output.Count != 3 || output.Label != "ToolPerson" {
		t.Fatalf("unexpected output: %+v", output)
	}

	if _, _, err := server.handleCountLabel(context.Background(), nil, CountLabelInput{Label: "x) DELETE (y"}); err == nil {
		t.Fatalf("expected invalid label error")
	}
}

func TestCountLabel_MissingGraph(t *testing.T) {
	server := NewServer(graph.New(storetest.New()), "", "test")

	_, _, err := server.handleCountLabel(context.Background(), nil, CountLabelInput{Label: "ToolPerson"})
	if err == nil || !strings.Contains(err.Error(), "graph is required") {
		t.Fatalf("expected graph is required, got %v", err)
	}

	_, _, err = server.handleCountLabel(context.Background(), nil, CountLabelInput{Graph: "nowhere", Label: "ToolPerson"})
	if !model.IsGraphNotFound(err) {
		t.Fatalf("expected graph not found, got %v", err)
	}
}

func TestListTypes(t *testing.T) {
	_, server := newServer(t)

	_, output, err := server.handleListTypes(context.Background(), nil, ListTypesInput{})
	if err != nil {
		t.Fatalf("handleListTypes: %v", err)
	}
	var found *TypeOutput
	for i := range output.Types {
		if output.Types[i].Name == toolPerson.Name {
			found = &output.Types[i]
		}
	}
	if found == nil {
		t.Fatalf("ToolPerson not listed")
	}
	if found.Kind != model.Vertex.String() || len(found.Fields) != 2 {
		t.Fatalf("unexpected type: %+v", found)
	}
	if found.Fields[1].Type != "enum" || len(found.Fields[1].Values) != 2 {
		t.Fatalf("unexpected enum field: %+v", found.Fields[1])
	}
	if len(found.Relationships) != 1 || found.Relationships[0].Target != "ToolPerson" || found.Relationships[0].Direction != "outbound" {
		t.Fatalf("unexpected relationships: %+v", found.Relationships)
	}
}

func TestPlain(t *testing.T) {
	if got := plain(agtype.Raw{Text: "x"}); got != "x" {
		t.Fatalf("plain raw = %v", got)
	}
	if got := plain(int64(4)); got != int64(4) {
		t.Fatalf("plain passthrough = %v", got)
	}
}
