// Package store defines the transport the graph layer talks to: something
// that executes one SQL statement and hands back raw rows.
package store

import "context"

// Row is one result row. Cells are strings, []byte, or driver-native values.
type Row = []any

// Executor runs a single statement.
type Executor interface {
	Execute(ctx context.Context, stmt string, args ...any) ([]Row, error)
}

// Transport is an Executor backed by a pool. Pinned runs fn on a single
// acquired connection inside one transaction, so statements issued through
// the Executor passed to fn cannot interleave with other writers on it.
type Transport interface {
	Executor
	Pinned(ctx context.Context, fn func(Executor) error) error
	Close()
}
