package graph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ageorm/store"
)

// logged reports every statement at Debug before handing it on. Statements
// run on one pinned connection share a "pin" attribute.
type logged struct {
	store.Transport
	log *slog.Logger
}

func (l logged) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	l.log.DebugContext(ctx, "executing", "statement", stmt, "args", len(args))
	return l.Transport.Execute(ctx, stmt, args...)
}

func (l logged) Pinned(ctx context.Context, fn func(store.Executor) error) error {
	return l.Transport.Pinned(ctx, func(x store.Executor) error {
		return fn(loggedExecutor{x: x, log: l.log.With("pin", uuid.NewString())})
	})
}

type loggedExecutor struct {
	x   store.Executor
	log *slog.Logger
}

func (l loggedExecutor) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	l.log.DebugContext(ctx, "executing pinned", "statement", stmt, "args", len(args))
	return l.x.Execute(ctx, stmt, args...)
}
