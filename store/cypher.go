package store

import (
	"context"
	"fmt"
	"strings"

	"ageorm/agtype"
)

// Statement wraps cypher in the AGE SQL envelope. With no columns a single
// "result agtype" column is declared.
func Statement(graph, cypher string, columns ...string) string {
	cols := "result agtype"
	if len(columns) > 0 {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = c + " agtype"
		}
		cols = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("SELECT * FROM cypher('%s', $$ %s $$) AS (%s)",
		agtype.EscapeSQLLiteral(graph), cypher, cols)
}

// Cypher executes cypher against graph and parses the result cells.
func Cypher(ctx context.Context, x Executor, graph, cypher string, columns ...string) ([]agtype.Record, error) {
	rows, err := x.Execute(ctx, Statement(graph, cypher, columns...))
	if err != nil {
		return nil, err
	}
	records, err := agtype.ParseRows(rows, max(len(columns), 1))
	if err != nil {
		return nil, fmt.Errorf("parsing cypher result: %w", err)
	}
	return records, nil
}
