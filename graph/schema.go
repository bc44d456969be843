package graph

import (
	"context"
	"errors"
	"fmt"

	"ageorm/model"
)

// EnsureLabel creates the vertex or edge label of t unless g already has it.
func (g *Graph) EnsureLabel(ctx context.Context, t *model.Type) error {
	return g.ensureLabel(ctx, t.Label, t.Kind)
}

func (g *Graph) ensureLabel(ctx context.Context, label string, kind model.Kind) error {
	if !model.ValidName(label) {
		return model.NewValidationError(label, errors.New("invalid label"))
	}
	rows, err := g.db.x.Execute(ctx,
		"SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2",
		g.name, label)
	if err != nil {
		return fmt.Errorf("checking label %s: %w", label, err)
	}
	if len(rows) > 0 {
		return nil
	}

	fn := "create_vlabel"
	if kind == model.Edge {
		fn = "create_elabel"
	}
	if _, err := g.db.x.Execute(ctx, "SELECT "+fn+"($1, $2)", g.name, label); err != nil {
		return fmt.Errorf("creating %s label %s: %w", kind, label, err)
	}
	g.db.log.InfoContext(ctx, "created label", "graph", g.name, "label", label, "kind", kind.String())
	return nil
}

// IndexName is the name CreateIndex gives the index on field of label.
func (g *Graph) IndexName(label, field string) string {
	return fmt.Sprintf("idx_%s_%s_%s", g.name, label, field)
}

// CreateIndex indexes the text value of property field across t's label
// table. It is a no-op when the index already exists.
func (g *Graph) CreateIndex(ctx context.Context, t *model.Type, field string, unique bool) error {
	if !model.ValidName(field) {
		return model.NewValidationError(field, errors.New("invalid property name"))
	}
	kind := ""
	if unique {
		kind = "UNIQUE "
	}
	name := g.IndexName(t.Label, field)
	stmt := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %s ON %s."%s" ((properties::json->>'%s'))`,
		kind, name, g.name, t.Label, field)
	if _, err := g.db.x.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("creating index %s: %w", name, err)
	}
	g.db.log.InfoContext(ctx, "created index", "graph", g.name, "index", name, "unique", unique)
	return nil
}
