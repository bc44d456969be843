package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ageorm/agtype"
	"ageorm/graph"
	"ageorm/model"
)

func cypherCmd() *cobra.Command {
	var graphName string
	var columns []string
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Execute a raw Cypher query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(paramPairs)
			if err != nil {
				return err
			}
			return runCypher(graphName, strings.Join(args, " "), columns, params)
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	cmd.Flags().StringSliceVar(&columns, "column", nil, "Result column name, one per returned expression (repeatable)")
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func runCypher(graphName, query string, columns []string, params map[string]any) error {
	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := s.graph(ctx, graphName, false)
	if err != nil {
		return err
	}
	rows, err := g.Cypher(ctx, query, graph.CypherOptions{
		Columns: columns,
		Params:  params,
		Remap:   len(columns) > 0,
	})
	if err != nil {
		return err
	}

	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, jsonValue(row))
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}

// parseParams reads key=value pairs. Values that parse as agtype literals
// (numbers, booleans, lists, maps, quoted strings) keep their type; anything
// else is passed as a string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		value = strings.TrimSpace(value)
		decoded, err := agtype.DecodeText(value)
		if err != nil {
			params[key] = value
			continue
		}
		params[key] = agtype.Plain(decoded)
	}
	return params, nil
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case *model.Entity:
		m := map[string]any{"label": x.Label(), "properties": x.Dump(false).Map()}
		if id, ok := x.ID(); ok {
			m["id"] = id
		}
		if start, ok := x.StartID(); ok {
			end, _ := x.EndID()
			m["start_id"], m["end_id"] = start, end
		}
		return m
	case agtype.Value:
		return agtype.Plain(x)
	case map[string]any:
		for k, item := range x {
			x[k] = jsonValue(item)
		}
		return x
	default:
		return v
	}
}
