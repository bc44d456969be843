package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ageorm/graph"
	"ageorm/internal/config"
	"ageorm/store"
	"ageorm/store/postgres"
	"ageorm/store/sqldb"
)

type session struct {
	cfg *config.ProjectConfig
	db  *graph.Database
}

func (s *session) Close() { s.db.Close() }

// graph returns name, or the configured graph when name is empty.
func (s *session) graph(ctx context.Context, name string, create bool) (*graph.Graph, error) {
	if name == "" {
		name = s.cfg.Graph
	}
	if name == "" {
		return nil, fmt.Errorf("no graph given and none configured")
	}
	return s.db.Graph(ctx, name, create)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// connect loads the project config and schema and opens the configured
// transport.
func connect(ctx context.Context) (*session, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := defineSchema(cfg); err != nil {
		return nil, err
	}

	t, err := openTransport(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, db: newDatabase(t)}, nil
}

func newDatabase(t store.Transport) *graph.Database {
	return graph.New(t, graph.WithLogger(newLogger()))
}

func defineSchema(cfg *config.ProjectConfig) error {
	path := cfg.SchemaPath()
	if path == "" {
		return nil
	}
	schema, err := config.LoadSchema(path)
	if err != nil {
		return err
	}
	_, err = schema.Define()
	return err
}

func openTransport(ctx context.Context, db config.DatabaseConfig) (store.Transport, error) {
	if db.Driver == config.DriverPq {
		client, err := sqldb.Open(ctx, db.DSN, db.MaxConns, db.MinConns)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	client, err := postgres.New(ctx, db.DSN, postgres.Options{
		MaxConns: int32(db.MaxConns),
		MinConns: int32(db.MinConns),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
