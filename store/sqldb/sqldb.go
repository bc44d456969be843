// Package sqldb is a store.Transport over database/sql. Open dials with
// lib/pq and configures each new connection for AGE; Wrap adopts a *sql.DB
// the caller already set up.
package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ageorm/store"
)

var _ store.Transport = (*Client)(nil)

var sessionSetup = []string{
	"LOAD 'age'",
	`SET search_path = ag_catalog, "$user", public`,
}

type Client struct {
	db *sql.DB
}

// Open creates a pool for dsn. maxConns <= 0 leaves database/sql's default.
func Open(ctx context.Context, dsn string, maxConns, minConns int) (*Client, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	db := sql.OpenDB(ageConnector{Connector: connector})
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if minConns > 0 {
		db.SetMaxIdleConns(minConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{db: db}, nil
}

// Wrap uses db as is. Its connections must already have AGE loaded.
func Wrap(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() {
	c.db.Close()
}

func (c *Client) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	return query(ctx, c.db, stmt, args...)
}

func (c *Client) Pinned(ctx context.Context, fn func(store.Executor) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rolling back: %w", rerr))
			}
		}
	}()
	if err = fn(txExecutor{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type txExecutor struct {
	tx *sql.Tx
}

func (t txExecutor) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	return query(ctx, t.tx, stmt, args...)
}

func query(ctx context.Context, q querier, stmt string, args ...any) ([]store.Row, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("running statement: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	results := make([]store.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			// lib/pq hands back text-format values it has no decoder for as bytes.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

// ageConnector runs the AGE session setup on every connection the pool opens.
type ageConnector struct {
	driver.Connector
}

func (c ageConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("driver connection %T cannot execute session setup", conn)
	}
	for _, stmt := range sessionSetup {
		if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("configuring age session: %w", err)
		}
	}
	return conn, nil
}
