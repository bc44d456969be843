// Package graph maps entities onto named Apache AGE graphs.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ageorm/model"
	"ageorm/store"
)

type Option func(*Database)

// WithLogger sets the logger statements and provisioning are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.log = l
		}
	}
}

// Database manages the graphs reachable through one transport.
type Database struct {
	transport store.Transport
	x         store.Transport
	log       *slog.Logger
	session   string
}

func New(t store.Transport, opts ...Option) *Database {
	d := &Database{transport: t, log: slog.New(slog.DiscardHandler), session: uuid.NewString()}
	for _, opt := range opts {
		opt(d)
	}
	d.x = logged{Transport: t, log: d.log.With("session", d.session)}
	return d
}

// Session identifies d in statement logs.
func (d *Database) Session() string { return d.session }

// Close releases the underlying transport.
func (d *Database) Close() {
	d.transport.Close()
}

func (d *Database) Logger() *slog.Logger { return d.log }

// Graph returns a handle on the named graph. With create a missing graph is
// created; otherwise it fails with *model.GraphNotFoundError.
func (d *Database) Graph(ctx context.Context, name string, create bool) (*Graph, error) {
	if err := validGraphName(name); err != nil {
		return nil, err
	}
	exists, err := d.GraphExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		if !create {
			return nil, model.NewGraphNotFoundError(name)
		}
		return d.CreateGraph(ctx, name)
	}
	return &Graph{name: name, db: d}, nil
}

// CreateGraph creates name and fails with *model.AlreadyExistsError when it
// is already there.
func (d *Database) CreateGraph(ctx context.Context, name string) (*Graph, error) {
	if err := validGraphName(name); err != nil {
		return nil, err
	}
	exists, err := d.GraphExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewAlreadyExistsError("graph", name)
	}
	if _, err := d.x.Execute(ctx, "SELECT create_graph($1)", name); err != nil {
		return nil, fmt.Errorf("creating graph %s: %w", name, err)
	}
	d.log.InfoContext(ctx, "created graph", "graph", name)
	return &Graph{name: name, db: d}, nil
}

// DropGraph drops name, and with cascade everything in it. It fails with
// *model.GraphNotFoundError when the graph does not exist.
func (d *Database) DropGraph(ctx context.Context, name string, cascade bool) error {
	exists, err := d.GraphExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewGraphNotFoundError(name)
	}
	if _, err := d.x.Execute(ctx, "SELECT drop_graph($1, $2)", name, cascade); err != nil {
		return fmt.Errorf("dropping graph %s: %w", name, err)
	}
	d.log.InfoContext(ctx, "dropped graph", "graph", name, "cascade", cascade)
	return nil
}

func (d *Database) GraphExists(ctx context.Context, name string) (bool, error) {
	rows, err := d.x.Execute(ctx, "SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1", name)
	if err != nil {
		return false, fmt.Errorf("checking graph %s: %w", name, err)
	}
	return len(rows) > 0, nil
}

// ListGraphs returns every graph name, sorted.
func (d *Database) ListGraphs(ctx context.Context) ([]string, error) {
	rows, err := d.x.Execute(ctx, "SELECT name FROM ag_catalog.ag_graph ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing graphs: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		names = append(names, text(row[0]))
	}
	return names, nil
}

func validGraphName(name string) error {
	if !model.ValidName(name) {
		return model.NewValidationError(name, errors.New("invalid graph name"))
	}
	return nil
}

func text(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
