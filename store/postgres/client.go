// Package postgres is a store.Transport over a pgx connection pool. Every
// pooled connection loads the AGE extension and puts ag_catalog on the
// search path before first use.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ageorm/store"
)

var _ store.Transport = (*Client)(nil)

// SessionSetup is run on every new connection.
var SessionSetup = []string{
	"LOAD 'age'",
	`SET search_path = ag_catalog, "$user", public`,
}

type Options struct {
	MaxConns int32
	MinConns int32
}

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string, opts Options) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	// agtype has no registered codec; the simple protocol returns it as text.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cfg.AfterConnect = configureSession

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

func configureSession(ctx context.Context, conn *pgx.Conn) error {
	for _, stmt := range SessionSetup {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("configuring age session: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	return query(ctx, c.pool, stmt, args...)
}

func (c *Client) Pinned(ctx context.Context, fn func(store.Executor) error) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(txExecutor{tx: tx})
	})
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type txExecutor struct {
	tx pgx.Tx
}

func (t txExecutor) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	return query(ctx, t.tx, stmt, args...)
}

func query(ctx context.Context, q querier, stmt string, args ...any) ([]store.Row, error) {
	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("running statement: %w", describe(err))
	}
	defer rows.Close()

	results := make([]store.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("getting row values: %w", err)
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", describe(err))
	}
	return results, nil
}

// describe keeps the server's detail and hint next to the message.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || (pgErr.Detail == "" && pgErr.Hint == "") {
		return err
	}
	return &serverError{PgError: pgErr}
}

type serverError struct {
	*pgconn.PgError
}

func (e *serverError) Error() string {
	msg := e.PgError.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

func (e *serverError) Unwrap() error {
	return e.PgError
}
