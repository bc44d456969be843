package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ageorm/agtype"
	"ageorm/model"
	"ageorm/store"
)

// Triple is one edge to insert with its endpoints.
type Triple struct {
	From, Edge, To *model.Entity
}

// BulkAdd inserts vertices of one label with a single SQL INSERT into the
// label table, bypassing Cypher. No lifecycle events fire. On success every
// vertex is bound and clean.
func (g *Graph) BulkAdd(ctx context.Context, vertices []*model.Entity) error {
	if len(vertices) == 0 {
		return nil
	}
	if vertices[0] == nil {
		return errors.New("bulk adding: nil vertex")
	}
	label := vertices[0].Label()
	values := make([]string, 0, len(vertices))
	for _, v := range vertices {
		if err := checkBulk(v, label, model.Vertex); err != nil {
			return err
		}
		values = append(values, fmt.Sprintf("('%s'::agtype)", agtype.EscapeSQLLiteral(agtype.EncodeProperties(v.Dump(false)))))
	}
	if err := g.ensureLabel(ctx, label, model.Vertex); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s."%s" (properties) VALUES %s RETURNING id`,
		g.name, label, strings.Join(values, ", "))
	ids, err := g.insert(ctx, stmt, len(vertices))
	if err != nil {
		return fmt.Errorf("bulk adding %s: %w", label, err)
	}
	b := g.Binding()
	for i, v := range vertices {
		v.Bind(b, ids[i])
		v.MarkClean()
	}
	return nil
}

// BulkAddEdges inserts edges of one label the way BulkAdd inserts vertices.
// Every endpoint must already be persisted.
func (g *Graph) BulkAddEdges(ctx context.Context, triples []Triple) error {
	if len(triples) == 0 {
		return nil
	}
	if triples[0].Edge == nil {
		return errors.New("bulk connecting: nil edge")
	}
	label := triples[0].Edge.Label()
	values := make([]string, 0, len(triples))
	for _, tr := range triples {
		if err := checkBulk(tr.Edge, label, model.Edge); err != nil {
			return err
		}
		if tr.From == nil || tr.To == nil {
			return fmt.Errorf("bulk insert into %s: nil endpoint", label)
		}
		from, fromOK := tr.From.ID()
		to, toOK := tr.To.ID()
		if !fromOK || !toOK {
			return model.NewNotPersistedError(label, "bulk connect: every endpoint must be persisted")
		}
		if err := tr.Edge.CheckEndpoints(from, to); err != nil {
			return fmt.Errorf("bulk connecting %s: %w", label, err)
		}
		values = append(values, fmt.Sprintf("(ag_catalog.graphid_in('%d'), ag_catalog.graphid_in('%d'), '%s'::agtype)",
			from, to, agtype.EscapeSQLLiteral(agtype.EncodeProperties(tr.Edge.Dump(false)))))
	}
	if err := g.ensureLabel(ctx, label, model.Edge); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s."%s" (start_id, end_id, properties) VALUES %s RETURNING id`,
		g.name, label, strings.Join(values, ", "))
	ids, err := g.insert(ctx, stmt, len(triples))
	if err != nil {
		return fmt.Errorf("bulk connecting %s: %w", label, err)
	}
	b := g.Binding()
	for i, tr := range triples {
		from, _ := tr.From.ID()
		to, _ := tr.To.ID()
		if err := tr.Edge.SetEndpoints(from, to); err != nil {
			return err
		}
		tr.Edge.Bind(b, ids[i])
		tr.Edge.MarkClean()
	}
	return nil
}

func checkBulk(e *model.Entity, label string, kind model.Kind) error {
	switch {
	case e == nil:
		return fmt.Errorf("bulk insert into %s: nil entity", label)
	case e.Kind() != kind:
		return fmt.Errorf("bulk insert into %s: %s is not a %s", label, e.Label(), kind)
	case e.Label() != label:
		return fmt.Errorf("bulk insert into %s: mixed labels (%s)", label, e.Label())
	case e.Persisted():
		return model.NewAlreadyExistsError("entity", e.String())
	}
	return nil
}

// insert runs stmt on one pinned connection and returns the assigned ids in
// insertion order. A label's ids come from one sequence, so sorting the
// returned ids recovers the order rows were inserted in.
func (g *Graph) insert(ctx context.Context, stmt string, want int) ([]int64, error) {
	var ids []int64
	err := g.db.x.Pinned(ctx, func(x store.Executor) error {
		rows, err := x.Execute(ctx, stmt)
		if err != nil {
			return err
		}
		if len(rows) != want {
			return fmt.Errorf("inserted %d rows, expected %d", len(rows), want)
		}
		ids = make([]int64, 0, len(rows))
		for _, row := range rows {
			if len(row) == 0 {
				return errors.New("empty row returned")
			}
			id, err := graphID(row[0])
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func graphID(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case string:
		return parseGraphID(x)
	case []byte:
		return parseGraphID(string(x))
	default:
		return 0, fmt.Errorf("unexpected id value %T", v)
	}
}

func parseGraphID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing graph id %q: %w", s, err)
	}
	return id, nil
}
