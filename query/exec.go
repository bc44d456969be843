package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"ageorm/agtype"
	"ageorm/model"
	"ageorm/store"
)

var errProjection = errors.New("query has a projection; use Rows")

// All runs the query and hydrates every match.
func (q *Query) All(ctx context.Context) ([]*model.Entity, error) {
	var out []*model.Entity
	for e, err := range q.Iter(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Iter runs the query when iteration starts and yields hydrated matches.
// Each range over the sequence issues the query again.
func (q *Query) Iter(ctx context.Context) iter.Seq2[*model.Entity, error] {
	return func(yield func(*model.Entity, error) bool) {
		if len(q.returns) > 0 {
			yield(nil, errProjection)
			return
		}
		cypher, err := q.Build()
		if err != nil {
			yield(nil, err)
			return
		}
		records, err := q.run(ctx, cypher)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, rec := range records {
			e, err := q.hydrate(rec.Result())
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// First returns the first match, or nil when there is none.
func (q *Query) First(ctx context.Context) (*model.Entity, error) {
	limit, limited := q.limit, q.limited
	q.limit, q.limited = 1, true
	defer func() { q.limit, q.limited = limit, limited }()

	results, err := q.All(ctx)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// One returns the only match, failing with *model.NotFoundError or
// *model.MultipleResultsError otherwise.
func (q *Query) One(ctx context.Context) (*model.Entity, error) {
	results, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, model.NewNotFoundError(q.typ.Label)
	case 1:
		return results[0], nil
	default:
		return nil, model.NewMultipleResultsError(q.typ.Label, len(results))
	}
}

// Count returns the number of matches.
func (q *Query) Count(ctx context.Context) (int64, error) {
	cypher, err := q.countCypher()
	if err != nil {
		return 0, err
	}
	records, err := q.run(ctx, cypher)
	if err != nil {
		return 0, err
	}
	return scalarCount(records)
}

// ByID looks up the entity with id under the query's label, ignoring filters.
func (q *Query) ByID(ctx context.Context, id int64) (*model.Entity, error) {
	cypher := fmt.Sprintf("MATCH (%s:%s) WHERE id(%s) = %d RETURN %s", Var, q.typ.Label, Var, id, Var)
	return q.single(ctx, cypher)
}

// ByProperty returns the first entity whose name equals value, ignoring filters.
func (q *Query) ByProperty(ctx context.Context, name string, value any) (*model.Entity, error) {
	if !model.ValidName(name) {
		return nil, model.NewValidationError(name, errors.New("invalid property name"))
	}
	cypher := fmt.Sprintf("MATCH (%s:%s) WHERE %s.%s = %s RETURN %s",
		Var, q.typ.Label, Var, name, agtype.EncodeLiteral(value), Var)
	return q.single(ctx, cypher)
}

func (q *Query) single(ctx context.Context, cypher string) (*model.Entity, error) {
	records, err := q.run(ctx, cypher)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return q.hydrate(records[0].Result())
}

// Update sets values on every match and returns how many were updated.
func (q *Query) Update(ctx context.Context, values ...Pair) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	if q.err != nil {
		return 0, q.err
	}
	sets := make([]string, 0, len(values))
	for _, v := range values {
		if !model.ValidName(v.Name) {
			return 0, model.NewValidationError(v.Name, errors.New("invalid property name"))
		}
		sets = append(sets, fmt.Sprintf("%s.%s = %s", Var, v.Name, agtype.EncodeLiteral(v.Value)))
	}
	cypher := q.matchWhere() + "\nSET " + strings.Join(sets, ", ") + "\nRETURN count(" + Var + ")"
	records, err := q.run(ctx, cypher)
	if err != nil {
		return 0, err
	}
	return scalarCount(records)
}

// Delete detach-deletes every match and returns how many there were. AGE
// reports no count for DELETE, so matches are counted first.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	n, err := q.Count(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := q.run(ctx, q.matchWhere()+"\nDETACH DELETE "+Var); err != nil {
		return 0, err
	}
	return n, nil
}

// Rows runs a projection query. Each returned map is keyed by names, or by
// col_i when names is empty; registered graph records are hydrated.
func (q *Query) Rows(ctx context.Context, names ...string) ([]map[string]any, error) {
	cypher, err := q.Build()
	if err != nil {
		return nil, err
	}
	width := max(len(q.returns), 1)
	if len(names) > 0 && len(names) != width {
		return nil, fmt.Errorf("got %d column names for %d returned expressions", len(names), width)
	}
	columns := make([]string, width)
	for i := range columns {
		if i < len(names) {
			if !model.ValidName(names[i]) {
				return nil, model.NewValidationError(names[i], errors.New("invalid column name"))
			}
			columns[i] = names[i]
		} else {
			columns[i] = agtype.Key(i)
		}
	}
	records, err := q.runColumns(ctx, cypher, columns)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = columns
	}
	rows := agtype.RemapColumns(records, names)
	for _, row := range rows {
		for k, v := range row {
			if val, ok := v.(agtype.Value); ok {
				row[k] = model.HydrateAny(val, q.binding)
			}
		}
	}
	return rows, nil
}

// Cypher runs statement in the query's graph with params substituted.
// Registered graph records in the single result column are hydrated.
func (q *Query) Cypher(ctx context.Context, statement string, params map[string]any) ([]any, error) {
	records, err := q.run(ctx, agtype.Substitute(statement, params))
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(records))
	for _, rec := range records {
		out = append(out, model.HydrateAny(rec.Result(), q.binding))
	}
	return out, nil
}

func (q *Query) run(ctx context.Context, cypher string) ([]agtype.Record, error) {
	return q.runColumns(ctx, cypher, nil)
}

func (q *Query) runColumns(ctx context.Context, cypher string, columns []string) ([]agtype.Record, error) {
	if !q.binding.Bound() {
		return nil, model.NewDetachedError(q.typ.Label, "query")
	}
	records, err := store.Cypher(ctx, q.binding.Executor, q.binding.Graph, cypher, columns...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.typ.Label, err)
	}
	return records, nil
}

func (q *Query) hydrate(v agtype.Value) (*model.Entity, error) {
	rec, ok := v.(*agtype.GraphRecord)
	if !ok {
		return nil, fmt.Errorf("querying %s: expected a graph record, got %T", q.typ.Label, v)
	}
	return model.Hydrate(rec, q.typ, q.binding)
}

func scalarCount(records []agtype.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	s, ok := records[0].Result().(agtype.Scalar)
	if !ok {
		return 0, fmt.Errorf("count: unexpected result %T", records[0].Result())
	}
	switch n := s.Value.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("count: unexpected value %T", s.Value)
	}
}
