// Package query builds Cypher MATCH queries over one label and runs them
// against a bound graph.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ageorm/agtype"
	"ageorm/model"
)

// Var is the pattern variable bound to the matched node.
const Var = "n"

// Pair is one name = value equality or assignment.
type Pair struct {
	Name  string
	Value any
}

func Eq(name string, value any) Pair {
	return Pair{Name: name, Value: value}
}

// Pairs turns m into pairs ordered by name.
func Pairs(m map[string]any) []Pair {
	out := make([]Pair, 0, len(m))
	for k, v := range m {
		out = append(out, Pair{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type filter struct {
	joiner    string
	condition string
}

// Query is a mutable builder. Filter and Sort append; Limit and Returns
// replace what was set before. A Query is not safe for concurrent use.
type Query struct {
	typ     *model.Type
	binding model.Binding

	filters []filter
	sorts   []string
	returns []string
	limit   int
	limited bool
	skip    int
	params  map[string]any
	err     error
}

// New starts a query over t's label in the graph of b.
func New(t *model.Type, b model.Binding) *Query {
	return &Query{typ: t, binding: b, params: make(map[string]any)}
}

func (q *Query) Type() *model.Type { return q.typ }

// Filter adds a raw condition on n. $name placeholders are filled from params.
func (q *Query) Filter(condition string, params map[string]any) *Query {
	return q.addFilter("AND", condition, params)
}

// OrFilter is Filter joined with OR to what came before.
func (q *Query) OrFilter(condition string, params map[string]any) *Query {
	return q.addFilter("OR", condition, params)
}

// FilterBy adds one equality per pair, AND-joined and parenthesized when
// there is more than one.
func (q *Query) FilterBy(pairs ...Pair) *Query {
	return q.addEqualities("AND", pairs)
}

func (q *Query) OrFilterBy(pairs ...Pair) *Query {
	return q.addEqualities("OR", pairs)
}

func (q *Query) addFilter(joiner, condition string, params map[string]any) *Query {
	if len(q.filters) == 0 {
		joiner = ""
	}
	renames := make(map[string]string)
	for k := range params {
		if _, taken := q.params[k]; taken {
			renames[k] = q.bindName(k, params)
		}
	}
	if len(renames) > 0 {
		condition = placeholder.ReplaceAllStringFunc(condition, func(m string) string {
			if to, ok := renames[m[1:]]; ok {
				return "$" + to
			}
			return m
		})
	}
	q.filters = append(q.filters, filter{joiner: joiner, condition: condition})
	for k, v := range params {
		if to, ok := renames[k]; ok {
			k = to
		}
		q.params[k] = v
	}
	return q
}

var placeholder = regexp.MustCompile(`\$[A-Za-z0-9_]+`)

func (q *Query) addEqualities(joiner string, pairs []Pair) *Query {
	if len(pairs) == 0 {
		return q
	}
	conds := make([]string, 0, len(pairs))
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		if !model.ValidName(p.Name) {
			q.setErr(fmt.Errorf("filter on %q: invalid property name", p.Name))
			return q
		}
		bind := q.bindName(p.Name, params)
		params[bind] = p.Value
		conds = append(conds, fmt.Sprintf("%s.%s = $%s", Var, p.Name, bind))
	}
	cond := strings.Join(conds, " AND ")
	if len(conds) > 1 {
		cond = "(" + cond + ")"
	}
	return q.addFilter(joiner, cond, params)
}

// bindName picks a placeholder for name that collides neither with one bound
// by an earlier filter nor with one in pending.
func (q *Query) bindName(name string, pending map[string]any) string {
	bind := name
	for i := 2; ; i++ {
		_, taken := q.params[bind]
		_, pendingTaken := pending[bind]
		if !taken && !pendingTaken {
			return bind
		}
		bind = name + "_" + strconv.Itoa(i)
	}
}

// Sort appends an ORDER BY expression such as "n.age DESC".
func (q *Query) Sort(expr string) *Query {
	q.sorts = append(q.sorts, expr)
	return q
}

// Limit sets LIMIT and SKIP.
func (q *Query) Limit(count, skip int) *Query {
	q.limit, q.limited, q.skip = count, true, skip
	return q
}

// Returns sets the projection. With none, n itself is returned.
func (q *Query) Returns(exprs ...string) *Query {
	q.returns = append([]string(nil), exprs...)
	return q
}

func (q *Query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Build lowers the query: MATCH, WHERE, RETURN, ORDER BY, SKIP, LIMIT.
func (q *Query) Build() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	var b strings.Builder
	b.WriteString(q.matchWhere())

	b.WriteString("\nRETURN ")
	if len(q.returns) > 0 {
		b.WriteString(strings.Join(q.returns, ", "))
	} else {
		b.WriteString(Var)
	}
	if len(q.sorts) > 0 {
		b.WriteString("\nORDER BY ")
		b.WriteString(strings.Join(q.sorts, ", "))
	}
	if q.skip > 0 {
		fmt.Fprintf(&b, "\nSKIP %d", q.skip)
	}
	if q.limited {
		fmt.Fprintf(&b, "\nLIMIT %d", q.limit)
	}
	return b.String(), nil
}

func (q *Query) String() string {
	s, err := q.Build()
	if err != nil {
		return "invalid query: " + err.Error()
	}
	return s
}

func (q *Query) matchWhere() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MATCH (%s:%s)", Var, q.typ.Label)
	if len(q.filters) == 0 {
		return b.String()
	}
	parts := make([]string, 0, len(q.filters))
	for _, f := range q.filters {
		if f.joiner == "" {
			parts = append(parts, f.condition)
		} else {
			parts = append(parts, f.joiner+" "+f.condition)
		}
	}
	b.WriteString("\nWHERE ")
	b.WriteString(agtype.Substitute(strings.Join(parts, " "), q.params))
	return b.String()
}

func (q *Query) countCypher() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	return q.matchWhere() + "\nRETURN count(" + Var + ")", nil
}
