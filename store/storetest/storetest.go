// Package storetest provides an in-memory store.Transport that records every
// statement and answers from canned responses.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"ageorm/store"
)

var _ store.Transport = (*Fake)(nil)

type rule struct {
	match string
	rows  []store.Row
	err   error
	once  bool
	used  bool
}

// Fake answers each statement with the rows of the first rule whose match
// text is contained in it. Unmatched statements return no rows.
type Fake struct {
	mu         sync.Mutex
	rules      []*rule
	statements []string
	args       [][]any
	pinned     int
	closed     bool
}

func New() *Fake {
	return &Fake{}
}

// On answers statements containing match with rows.
func (f *Fake) On(match string, rows ...store.Row) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, rows: rows})
	return f
}

// Once is like On but the rule is spent after one use.
func (f *Fake) Once(match string, rows ...store.Row) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, rows: rows, once: true})
	return f
}

// Fail makes statements containing match return err.
func (f *Fake) Fail(match string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, err: err})
	return f
}

func (f *Fake) Execute(ctx context.Context, stmt string, args ...any) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, stmt)
	f.args = append(f.args, args)
	for _, r := range f.rules {
		if r.used || !strings.Contains(stmt, r.match) {
			continue
		}
		if r.once {
			r.used = true
		}
		if r.err != nil {
			return nil, r.err
		}
		return r.rows, nil
	}
	return nil, nil
}

func (f *Fake) Pinned(ctx context.Context, fn func(store.Executor) error) error {
	f.mu.Lock()
	f.pinned++
	f.mu.Unlock()
	return fn(f)
}

func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Statements returns every statement executed so far.
func (f *Fake) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statements...)
}

// Args returns the bind arguments of statement i.
func (f *Fake) Args(i int) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.args[i]
}

// Last returns the most recent statement, or "".
func (f *Fake) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statements) == 0 {
		return ""
	}
	return f.statements[len(f.statements)-1]
}

func (f *Fake) PinnedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pinned
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Vertex renders a vertex cell the way AGE prints it.
func Vertex(id int64, label string, props map[string]any) store.Row {
	return store.Row{fmt.Sprintf(`{"id": %d, "label": %q, "properties": %s}::vertex`, id, label, mustJSON(props))}
}

// Edge renders an edge cell the way AGE prints it.
func Edge(id int64, label string, start, end int64, props map[string]any) store.Row {
	return store.Row{edgeText(id, label, start, end, props)}
}

// Path renders a list of edges as a variable-length match returns them.
func Path(edges ...string) string {
	return "[" + strings.Join(edges, ", ") + "]"
}

// EdgeText is the bare cell text of an edge, for building multi-column rows.
func EdgeText(id int64, label string, start, end int64, props map[string]any) string {
	return edgeText(id, label, start, end, props)
}

// VertexText is the bare cell text of a vertex.
func VertexText(id int64, label string, props map[string]any) string {
	return Vertex(id, label, props)[0].(string)
}

// Scalar renders a one-cell row holding v as agtype prints it.
func Scalar(v any) store.Row {
	return store.Row{mustJSON(v)}
}

func edgeText(id int64, label string, start, end int64, props map[string]any) string {
	return fmt.Sprintf(`{"id": %d, "label": %q, "end_id": %d, "start_id": %d, "properties": %s}::edge`,
		id, label, end, start, mustJSON(props))
}

func mustJSON(v any) string {
	if m, ok := v.(map[string]any); ok && m == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
