package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ageorm/agtype"
	"ageorm/model"
	"ageorm/store"
	"ageorm/store/storetest"
)

func TestExpandGroupsByLastEdge(t *testing.T) {
	fake, g := newGraph(t)
	knows := storetest.EdgeText(10, "GRAPH_KNOWS", 1, 2, nil)
	lives := storetest.EdgeText(11, "GRAPH_LIVES_IN", 2, 3, nil)
	fake.On("RETURN e, m",
		store.Row{storetest.Path(knows), storetest.VertexText(2, "GraphPerson", map[string]any{"name": "B"})},
		store.Row{storetest.Path(knows, lives), storetest.VertexText(3, "GraphCity", map[string]any{"name": "Oslo"})},
		store.Row{storetest.Path(), storetest.VertexText(4, "GraphCity", nil)},
	)

	a := person(t, "A", 1)
	a.Bind(g.Binding(), 1)
	require.NoError(t, g.Expand(context.Background(), a, ExpandOptions{Depth: 2}))

	assert.Equal(t, "MATCH (n)-[e*1..2]-(m) WHERE id(n) = 1 RETURN e, m", cypherOf(fake.Last()))
	assert.Contains(t, fake.Last(), "AS (e agtype, m agtype)")
	assert.Equal(t, []string{"GRAPH_KNOWS", "GRAPH_LIVES_IN"}, a.RelationLabels())

	rel := a.Relations()["GRAPH_LIVES_IN"]
	require.Len(t, rel, 1)
	edge, ok := rel[0].Edge.(*model.Entity)
	require.True(t, ok)
	id, _ := edge.ID()
	assert.Equal(t, int64(11), id)
	city, ok := rel[0].Target.(*model.Entity)
	require.True(t, ok)
	assert.Equal(t, "Oslo", city.StringField("name"))
}

func TestExpandOptions(t *testing.T) {
	fake, g := newGraph(t)
	fake.On("RETURN e, m",
		store.Row{storetest.Path(storetest.EdgeText(10, "GRAPH_KNOWS", 1, 2, nil)), storetest.VertexText(2, "GraphPerson", nil)},
		store.Row{storetest.Path(storetest.EdgeText(11, "OTHER", 1, 5, nil)), storetest.VertexText(5, "Elsewhere", nil)},
	)
	a := person(t, "A", 1)
	a.Bind(g.Binding(), 1)

	require.NoError(t, g.Expand(context.Background(), a, ExpandOptions{Direction: model.Outbound, Only: []string{"OTHER"}}))
	assert.Equal(t, "MATCH (n)-[e*1..1]->(m) WHERE id(n) = 1 RETURN e, m", cypherOf(fake.Last()))
	assert.Equal(t, []string{"OTHER"}, a.RelationLabels())
	rec, ok := a.Relations()["OTHER"][0].Target.(*agtype.GraphRecord)
	require.True(t, ok)
	assert.Equal(t, "Elsewhere", rec.Label)

	assert.True(t, model.IsNotPersisted(g.Expand(context.Background(), person(t, "T", 1), ExpandOptions{})))
}

func TestTraverse(t *testing.T) {
	fake, g := newGraph(t)
	fake.On("GRAPH_LIVES_IN",
		storetest.Vertex(3, "GraphCity", map[string]any{"name": "Oslo"}),
		storetest.Vertex(4, "Village", map[string]any{"name": "Nes"}),
	)
	a := person(t, "A", 1)
	a.Bind(g.Binding(), 1)

	out, err := g.Traverse(context.Background(), a, graphLivesIn.Label, TraverseOptions{Depth: 3, Direction: model.Inbound})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n)<-[:GRAPH_LIVES_IN*1..3]-(m) WHERE id(n) = 1 RETURN m", cypherOf(fake.Last()))
	require.Len(t, out, 2)
	_, isEntity := out[0].(*model.Entity)
	assert.True(t, isEntity)
	_, isRecord := out[1].(*agtype.GraphRecord)
	assert.True(t, isRecord)

	typed, err := g.TraverseTo(context.Background(), a, "GRAPH_LIVES_IN", graphCity, TraverseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n)-[:GRAPH_LIVES_IN*1..1]->(m) WHERE id(n) = 1 RETURN m", cypherOf(fake.Last()))
	require.Len(t, typed, 2)
	assert.Equal(t, "Nes", typed[1].StringField("name"))
	assert.Equal(t, graphCity, typed[1].Type())

	_, err = g.Traverse(context.Background(), a, "bad label", TraverseOptions{})
	assert.True(t, model.IsValidationError(err))
}

func TestSchemaHelpers(t *testing.T) {
	ctx := context.Background()
	fake, g := newGraph(t)

	require.NoError(t, g.EnsureLabel(ctx, graphKnows))
	assert.Equal(t, "SELECT create_elabel($1, $2)", fake.Last())

	require.NoError(t, g.CreateIndex(ctx, graphPerson, "name", true))
	assert.Equal(t,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_g_GraphPerson_name ON g."GraphPerson" ((properties::json->>'name'))`,
		fake.Last())

	require.NoError(t, g.CreateIndex(ctx, graphPerson, "age", false))
	assert.Contains(t, fake.Last(), "CREATE INDEX IF NOT EXISTS idx_g_GraphPerson_age")

	assert.True(t, model.IsValidationError(g.CreateIndex(ctx, graphPerson, "x'); --", false)))
}
