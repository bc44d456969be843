package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ageorm/model"
	"ageorm/store"
	"ageorm/store/storetest"
)

var queryPerson = model.MustDefine(model.Type{
	Name: "QueryPerson",
	Fields: []model.Field{
		{Name: "name", Type: model.String},
		{Name: "age", Type: model.Int},
	},
})

func newQuery(fake *storetest.Fake) *Query {
	return New(queryPerson, model.Binding{Executor: fake, Graph: "g"})
}

func build(t *testing.T, q *Query) string {
	t.Helper()
	s, err := q.Build()
	require.NoError(t, err)
	return s
}

func TestBuildClauseOrder(t *testing.T) {
	q := newQuery(storetest.New()).Sort("n.age").Limit(2, 1)
	assert.Equal(t, "MATCH (n:QueryPerson)\nRETURN n\nORDER BY n.age\nSKIP 1\nLIMIT 2", build(t, q))
	assert.NotContains(t, q.String(), "WHERE")
}

func TestBuildNoSkipWhenZero(t *testing.T) {
	q := newQuery(storetest.New()).Limit(5, 0)
	assert.Equal(t, "MATCH (n:QueryPerson)\nRETURN n\nLIMIT 5", build(t, q))
}

func TestFilterBy(t *testing.T) {
	q := newQuery(storetest.New()).FilterBy(Eq("name", "Alice"), Eq("age", 30))
	assert.Equal(t, "MATCH (n:QueryPerson)\nWHERE (n.name = 'Alice' AND n.age = 30)\nRETURN n", build(t, q))

	single := newQuery(storetest.New()).FilterBy(Eq("name", "Bob"))
	assert.Equal(t, "MATCH (n:QueryPerson)\nWHERE n.name = 'Bob'\nRETURN n", build(t, single))

	empty := newQuery(storetest.New()).FilterBy()
	assert.Equal(t, "MATCH (n:QueryPerson)\nRETURN n", build(t, empty))
}

func TestFilterJoiners(t *testing.T) {
	q := newQuery(storetest.New()).
		Filter("n.age > $min", map[string]any{"min": 20}).
		Filter("n.age < $max", map[string]any{"max": 50}).
		OrFilter("n.name = $who", map[string]any{"who": "Root"})
	assert.Equal(t,
		"MATCH (n:QueryPerson)\nWHERE n.age > 20 AND n.age < 50 OR n.name = 'Root'\nRETURN n",
		build(t, q))

	first := newQuery(storetest.New()).OrFilter("n.age = 1", nil)
	assert.Equal(t, "MATCH (n:QueryPerson)\nWHERE n.age = 1\nRETURN n", build(t, first))
}

func TestFilterPrefixPlaceholders(t *testing.T) {
	q := newQuery(storetest.New()).Filter("n.age > $age AND n.age < $age_max", map[string]any{"age": 20, "age_max": 50})
	assert.Contains(t, build(t, q), "WHERE n.age > 20 AND n.age < 50")
}

func TestFilterBindCollisions(t *testing.T) {
	q := newQuery(storetest.New()).
		FilterBy(Eq("name", "Alice")).
		OrFilterBy(Eq("name", "Bob"))
	assert.Contains(t, build(t, q), "WHERE n.name = 'Alice' OR n.name = 'Bob'")

	raw := newQuery(storetest.New()).
		FilterBy(Eq("age", 30)).
		Filter("n.score > $age", map[string]any{"age": 7})
	assert.Contains(t, build(t, raw), "WHERE n.age = 30 AND n.score > 7")
}

func TestFilterByInvalidName(t *testing.T) {
	q := newQuery(storetest.New()).FilterBy(Eq("bad name", 1))
	_, err := q.Build()
	require.Error(t, err)
	assert.Contains(t, q.String(), "invalid query")

	_, err = q.All(context.Background())
	require.Error(t, err)
}

func TestReturnsOverwrites(t *testing.T) {
	q := newQuery(storetest.New()).Returns("n.name").Returns("n.name", "n.age").Limit(1, 0).Limit(3, 0)
	assert.Equal(t, "MATCH (n:QueryPerson)\nRETURN n.name, n.age\nLIMIT 3", build(t, q))
}

func TestAll(t *testing.T) {
	fake := storetest.New().On("MATCH (n:QueryPerson)",
		storetest.Vertex(1, "QueryPerson", map[string]any{"name": "Alice", "age": 30}),
		storetest.Vertex(2, "QueryPerson", map[string]any{"name": "Bob", "age": 25}),
	)
	people, err := newQuery(fake).Sort("n.name").All(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Alice", people[0].StringField("name"))
	assert.Empty(t, people[0].Dirty())
	id, _ := people[1].ID()
	assert.Equal(t, int64(2), id)
	assert.Contains(t, fake.Last(), "ORDER BY n.name")
}

func TestIterRestarts(t *testing.T) {
	fake := storetest.New().On("MATCH", storetest.Vertex(1, "QueryPerson", map[string]any{"name": "A"}), storetest.Vertex(2, "QueryPerson", map[string]any{"name": "B"}))
	q := newQuery(fake)
	seq := q.Iter(context.Background())
	assert.Empty(t, fake.Statements())

	for e, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "A", e.StringField("name"))
		break
	}
	var names []string
	for e, err := range seq {
		require.NoError(t, err)
		names = append(names, e.StringField("name"))
	}
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Len(t, fake.Statements(), 2)
}

func TestFirst(t *testing.T) {
	fake := storetest.New().On("LIMIT 1", storetest.Vertex(1, "QueryPerson", map[string]any{"name": "A"}))
	q := newQuery(fake).Limit(10, 0)
	e, err := q.First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Contains(t, fake.Last(), "LIMIT 1")
	assert.Contains(t, q.String(), "LIMIT 10")

	none, err := newQuery(storetest.New()).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOne(t *testing.T) {
	ctx := context.Background()

	_, err := newQuery(storetest.New()).One(ctx)
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))

	two := storetest.New().On("MATCH", storetest.Vertex(1, "QueryPerson", nil), storetest.Vertex(2, "QueryPerson", nil))
	_, err = newQuery(two).One(ctx)
	require.Error(t, err)
	assert.True(t, model.IsMultipleResults(err))

	one := storetest.New().On("MATCH", storetest.Vertex(1, "QueryPerson", map[string]any{"name": "Solo"}))
	e, err := newQuery(one).One(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Solo", e.StringField("name"))
}

func TestCount(t *testing.T) {
	fake := storetest.New().On("RETURN count(n)", storetest.Scalar(3))
	n, err := newQuery(fake).FilterBy(Eq("age", 30)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Contains(t, fake.Last(), "MATCH (n:QueryPerson)\nWHERE n.age = 30\nRETURN count(n)")

	zero, err := newQuery(storetest.New()).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestByIDAndProperty(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New().
		On("id(n) = 9", storetest.Vertex(9, "QueryPerson", map[string]any{"name": "Nine"})).
		On("n.name = 'O\\'Neil'", storetest.Vertex(4, "QueryPerson", map[string]any{"name": "O'Neil"}))

	q := newQuery(fake).FilterBy(Eq("name", "ignored"))
	e, err := q.ByID(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Nine", e.StringField("name"))
	assert.NotContains(t, fake.Last(), "ignored")

	e, err = q.ByProperty(ctx, "name", "O'Neil")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "O'Neil", e.StringField("name"))

	missing, err := q.ByID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = q.ByProperty(ctx, "a b", 1)
	assert.True(t, model.IsValidationError(err))
}

func TestUpdate(t *testing.T) {
	fake := storetest.New().On("SET", storetest.Scalar(2))
	n, err := newQuery(fake).Filter("n.age < $age", map[string]any{"age": 18}).
		Update(context.Background(), Eq("minor", true), Eq("note", "it's"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, fake.Last(), "MATCH (n:QueryPerson)\nWHERE n.age < 18\nSET n.minor = true, n.note = 'it\\'s'\nRETURN count(n)")

	none, err := newQuery(fake).Update(context.Background())
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestDeleteCountsFirst(t *testing.T) {
	fake := storetest.New().On("RETURN count(n)", storetest.Scalar(4))
	n, err := newQuery(fake).FilterBy(Eq("name", "x")).Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	stmts := fake.Statements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "RETURN count(n)")
	assert.Contains(t, stmts[1], "WHERE n.name = 'x'\nDETACH DELETE n")
}

func TestRows(t *testing.T) {
	fake := storetest.New().On("RETURN n.name, n.age", store.Row{`"w1"`, "5"}, store.Row{`"w2"`, "7"})
	rows, err := newQuery(fake).Returns("n.name", "n.age").Rows(context.Background(), "word", "count")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"word": "w1", "count": int64(5)}, {"word": "w2", "count": int64(7)}}, rows)
	assert.Contains(t, fake.Last(), "AS (word agtype, count agtype)")

	_, err = newQuery(fake).Returns("n.name", "n.age").Rows(context.Background(), "only")
	assert.Error(t, err)

	_, err = newQuery(fake).Returns("n.name").All(context.Background())
	assert.Error(t, err)
}

func TestRowsHydratesRecords(t *testing.T) {
	fake := storetest.New().On("RETURN n", storetest.Vertex(1, "QueryPerson", map[string]any{"name": "A"}))
	rows, err := newQuery(fake).Rows(context.Background(), "person")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	e, ok := rows[0]["person"].(*model.Entity)
	require.True(t, ok)
	assert.Equal(t, "A", e.StringField("name"))
}

func TestCypherPassthrough(t *testing.T) {
	fake := storetest.New().On("RETURN 1", storetest.Scalar(1))
	out, err := newQuery(fake).Cypher(context.Background(), "MATCH (n) WHERE n.x = $x RETURN 1", map[string]any{"x": "y"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, strings.Contains(fake.Last(), "n.x = 'y'"))
}

func TestUnboundQuery(t *testing.T) {
	_, err := New(queryPerson, model.Binding{}).All(context.Background())
	assert.True(t, model.IsDetached(err))
}

func TestTransportError(t *testing.T) {
	boom := errors.New("boom")
	fake := storetest.New().Fail("MATCH", boom)
	_, err := newQuery(fake).Count(context.Background())
	assert.ErrorIs(t, err, boom)
}
