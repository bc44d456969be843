package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"ageorm/agtype"
	"ageorm/model"
)

// ExpandOptions controls Graph.Expand.
type ExpandOptions struct {
	// Direction defaults to model.Both.
	Direction model.Direction
	// Depth is the maximum number of hops, at least 1.
	Depth int
	// Only keeps relations reached through these edge labels.
	Only []string
}

// TraverseOptions controls Graph.Traverse and Graph.TraverseTo.
type TraverseOptions struct {
	// Direction defaults to model.Outbound.
	Direction model.Direction
	Depth     int
}

// Expand loads every entity reachable from vertex v within opts.Depth hops
// and stores them on v, grouped by the label of the last edge of each path.
func (g *Graph) Expand(ctx context.Context, v *model.Entity, opts ExpandOptions) error {
	id, ok := v.ID()
	if !ok {
		return model.NewNotPersistedError(v.Label(), "expand")
	}
	dir := opts.Direction
	if dir == "" {
		dir = model.Both
	}
	left, right := dir.Arrows()
	cypher := fmt.Sprintf("MATCH (n)%s[e*1..%d]%s(m) WHERE id(n) = %d RETURN e, m",
		left, max(opts.Depth, 1), right, id)
	records, err := g.run(ctx, cypher, "e", "m")
	if err != nil {
		return fmt.Errorf("expanding %s: %w", v, err)
	}

	b := g.Binding()
	relations := make(map[string][]model.Relation)
	for _, rec := range records {
		edge := lastEdge(rec[agtype.Key(0)])
		target := rec[agtype.Key(1)]
		if edge == nil || target == nil {
			continue
		}
		if len(opts.Only) > 0 && !slices.Contains(opts.Only, edge.Label) {
			continue
		}
		relations[edge.Label] = append(relations[edge.Label], model.Relation{
			Edge:   model.HydrateAny(edge, b),
			Target: model.HydrateAny(target, b),
		})
	}
	v.SetRelations(relations)
	return nil
}

// lastEdge returns the edge adjacent to the target of a path. Variable-length
// matches return the path as a list of edges.
func lastEdge(v agtype.Value) *agtype.GraphRecord {
	switch x := v.(type) {
	case *agtype.GraphRecord:
		if x.Edge {
			return x
		}
	case agtype.Scalar:
		list, ok := x.Value.([]any)
		if !ok || len(list) == 0 {
			return nil
		}
		if rec, ok := list[len(list)-1].(*agtype.GraphRecord); ok && rec.Edge {
			return rec
		}
	}
	return nil
}

// Traverse follows edgeLabel from v and returns what it reaches. Vertices
// with a registered label are returned as *model.Entity.
func (g *Graph) Traverse(ctx context.Context, v *model.Entity, edgeLabel string, opts TraverseOptions) ([]any, error) {
	records, err := g.traverse(ctx, v, edgeLabel, opts)
	if err != nil {
		return nil, err
	}
	b := g.Binding()
	out := make([]any, 0, len(records))
	for _, rec := range records {
		out = append(out, model.HydrateAny(rec.Result(), b))
	}
	return out, nil
}

// TraverseTo is Traverse with every result hydrated as t.
func (g *Graph) TraverseTo(ctx context.Context, v *model.Entity, edgeLabel string, t *model.Type, opts TraverseOptions) ([]*model.Entity, error) {
	records, err := g.traverse(ctx, v, edgeLabel, opts)
	if err != nil {
		return nil, err
	}
	b := g.Binding()
	out := make([]*model.Entity, 0, len(records))
	for _, rec := range records {
		gr, ok := rec.Result().(*agtype.GraphRecord)
		if !ok {
			return nil, fmt.Errorf("traversing %s: expected a graph record, got %T", edgeLabel, rec.Result())
		}
		e, err := model.Hydrate(gr, t, b)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (g *Graph) traverse(ctx context.Context, v *model.Entity, edgeLabel string, opts TraverseOptions) ([]agtype.Record, error) {
	id, ok := v.ID()
	if !ok {
		return nil, model.NewNotPersistedError(v.Label(), "traverse")
	}
	if !model.ValidName(edgeLabel) {
		return nil, model.NewValidationError(edgeLabel, errors.New("invalid edge label"))
	}
	left, right := opts.Direction.Arrows()
	cypher := fmt.Sprintf("MATCH (n)%s[:%s*1..%d]%s(m) WHERE id(n) = %d RETURN m",
		left, edgeLabel, max(opts.Depth, 1), right, id)
	records, err := g.run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("traversing %s from %s: %w", edgeLabel, v, err)
	}
	return records, nil
}
