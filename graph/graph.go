package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ageorm/agtype"
	"ageorm/event"
	"ageorm/model"
	"ageorm/query"
	"ageorm/store"
)

// Graph runs entity operations against one named graph.
type Graph struct {
	name string
	db   *Database
}

func (g *Graph) Name() string { return g.name }

// Binding is what entities written or loaded through g are bound to.
func (g *Graph) Binding() model.Binding {
	return model.Binding{Executor: g.db.x, Graph: g.name}
}

// Query starts a query over t in g.
func (g *Graph) Query(t *model.Type) *query.Query {
	return query.New(t, g.Binding())
}

func (g *Graph) info() map[string]any {
	return map[string]any{"graph": g.name}
}

func (g *Graph) run(ctx context.Context, cypher string, columns ...string) ([]agtype.Record, error) {
	return store.Cypher(ctx, g.db.x, g.name, cypher, columns...)
}

// Add creates vertex e, provisioning its label first when needed. On success
// e is bound to g and clean.
func (g *Graph) Add(ctx context.Context, e *model.Entity) error {
	if e == nil {
		return errors.New("adding: nil entity")
	}
	if e.Kind() != model.Vertex {
		return fmt.Errorf("adding %s: edges are created with Connect", e.Label())
	}
	if e.Persisted() {
		return model.NewAlreadyExistsError("entity", e.String())
	}
	if err := checkKeys(e); err != nil {
		return err
	}
	if err := event.Dispatch(ctx, e, event.PreAdd, g.info()); err != nil {
		return err
	}
	if err := g.ensureLabel(ctx, e.Label(), model.Vertex); err != nil {
		return err
	}

	cypher := fmt.Sprintf("CREATE (n:%s %s) RETURN n", e.Label(), agtype.EncodeLiteralProperties(e.Dump(false)))
	rec, err := g.created(ctx, cypher, e.Label())
	if err != nil {
		return err
	}
	e.Bind(g.Binding(), rec.ID)
	e.MarkClean()
	return event.Dispatch(ctx, e, event.PostAdd, g.info())
}

// Update writes e's fields, or only the changed ones with dirtyOnly. Nothing
// is sent when there is nothing to write.
func (g *Graph) Update(ctx context.Context, e *model.Entity, dirtyOnly bool) error {
	id, ok := e.ID()
	if !ok {
		return model.NewNotPersistedError(e.Label(), "update")
	}
	if err := checkKeys(e); err != nil {
		return err
	}
	if err := event.Dispatch(ctx, e, event.PreUpdate, g.info()); err != nil {
		return err
	}
	props := e.Dump(dirtyOnly)
	if len(props) == 0 {
		return nil
	}

	sets := make([]string, 0, len(props))
	for _, p := range props {
		sets = append(sets, fmt.Sprintf("x.%s = %s", agtype.LiteralKey(p.Key), agtype.EncodeLiteral(p.Value)))
	}
	cypher := fmt.Sprintf("%s SET %s RETURN x", matchByID(e.Kind(), id), strings.Join(sets, ", "))
	if _, err := g.run(ctx, cypher); err != nil {
		return fmt.Errorf("updating %s: %w", e, err)
	}
	e.MarkClean()
	return event.Dispatch(ctx, e, event.PostUpdate, g.info())
}

// Delete removes e, detaching a vertex from its edges first, and leaves e
// transient.
func (g *Graph) Delete(ctx context.Context, e *model.Entity) error {
	id, ok := e.ID()
	if !ok {
		return model.NewNotPersistedError(e.Label(), "delete")
	}
	if err := event.Dispatch(ctx, e, event.PreDelete, g.info()); err != nil {
		return err
	}
	verb := "DETACH DELETE"
	if e.Kind() == model.Edge {
		verb = "DELETE"
	}
	if _, err := g.run(ctx, fmt.Sprintf("%s %s x", matchByID(e.Kind(), id), verb)); err != nil {
		return fmt.Errorf("deleting %s: %w", e, err)
	}
	e.Detach()
	return event.Dispatch(ctx, e, event.PostDelete, g.info())
}

// Connect creates edge from src to dst. Both vertices must be persisted.
func (g *Graph) Connect(ctx context.Context, src, edge, dst *model.Entity) error {
	if src == nil || edge == nil || dst == nil {
		return errors.New("connecting: nil entity")
	}
	if edge.Kind() != model.Edge {
		return fmt.Errorf("connecting: %s is not an edge", edge.Label())
	}
	if edge.Persisted() {
		return model.NewAlreadyExistsError("entity", edge.String())
	}
	srcID, srcOK := src.ID()
	dstID, dstOK := dst.ID()
	if !srcOK || !dstOK {
		return model.NewNotPersistedError(edge.Label(), "connect: both endpoints must be persisted")
	}
	if err := edge.CheckEndpoints(srcID, dstID); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	if err := checkKeys(edge); err != nil {
		return err
	}
	if err := event.Dispatch(ctx, edge, event.PreAdd, g.info()); err != nil {
		return err
	}
	if err := g.ensureLabel(ctx, edge.Label(), model.Edge); err != nil {
		return err
	}

	cypher := fmt.Sprintf("MATCH (a), (b) WHERE id(a) = %d AND id(b) = %d CREATE (a)-[e:%s %s]->(b) RETURN e",
		srcID, dstID, edge.Label(), agtype.EncodeLiteralProperties(edge.Dump(false)))
	rec, err := g.created(ctx, cypher, edge.Label())
	if err != nil {
		return err
	}
	if err := edge.SetEndpoints(srcID, dstID); err != nil {
		return err
	}
	edge.Bind(g.Binding(), rec.ID)
	edge.MarkClean()
	return event.Dispatch(ctx, edge, event.PostAdd, g.info())
}

func (g *Graph) created(ctx context.Context, cypher, label string) (*agtype.GraphRecord, error) {
	records, err := g.run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", label, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("creating %s: no record returned", label)
	}
	rec, ok := records[0].Result().(*agtype.GraphRecord)
	if !ok {
		return nil, fmt.Errorf("creating %s: expected a graph record, got %T", label, records[0].Result())
	}
	return rec, nil
}

// checkKeys rejects property names that cannot be written into a statement.
// Undeclared keys retained from stored records are not validated on load.
func checkKeys(e *model.Entity) error {
	for _, name := range e.Dump(false).Keys() {
		if !agtype.ValidKey(name) {
			return model.NewValidationError(name, errors.New("property name cannot be written to cypher"))
		}
	}
	return nil
}

func matchByID(kind model.Kind, id int64) string {
	if kind == model.Edge {
		return fmt.Sprintf("MATCH ()-[x]->() WHERE id(x) = %d", id)
	}
	return fmt.Sprintf("MATCH (x) WHERE id(x) = %d", id)
}

// CypherOptions controls Graph.Cypher.
type CypherOptions struct {
	// Columns names the result columns. With none a single column is read.
	Columns []string
	// Params fill $name placeholders in the statement.
	Params map[string]any
	// Remap keys each row by Columns and unwraps scalar values.
	Remap bool
}

// Cypher runs statement in g. Each element of the result is one row: the
// single column's value, or a map of columns. Graph records whose label is
// registered come back as *model.Entity.
func (g *Graph) Cypher(ctx context.Context, statement string, opts CypherOptions) ([]any, error) {
	for _, c := range opts.Columns {
		if !model.ValidName(c) {
			return nil, model.NewValidationError(c, errors.New("invalid column name"))
		}
	}
	records, err := g.run(ctx, agtype.Substitute(statement, opts.Params), opts.Columns...)
	if err != nil {
		return nil, fmt.Errorf("running cypher: %w", err)
	}

	b := g.Binding()
	out := make([]any, 0, len(records))
	if opts.Remap && len(opts.Columns) > 0 {
		for _, row := range agtype.RemapColumns(records, opts.Columns) {
			for k, v := range row {
				if val, ok := v.(agtype.Value); ok {
					row[k] = model.HydrateAny(val, b)
				}
			}
			out = append(out, row)
		}
		return out, nil
	}
	for _, rec := range records {
		if len(opts.Columns) <= 1 {
			out = append(out, model.HydrateAny(rec.Result(), b))
			continue
		}
		row := make(map[string]any, len(rec))
		for k, v := range rec {
			row[k] = model.HydrateAny(v, b)
		}
		out = append(out, row)
	}
	return out, nil
}
