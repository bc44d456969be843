package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ageorm/query"
)

func countCmd() *cobra.Command {
	var graphName string
	var filters []string
	cmd := &cobra.Command{
		Use:   "count <label>",
		Short: "Count the vertices of a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			params, err := parseParams(filters)
			if err != nil {
				return err
			}
			pairs := query.Pairs(params)
			q := g.Query(labelType(args[0], false))
			if len(pairs) > 0 {
				q = q.FilterBy(pairs...)
			}
			n, err := q.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	cmd.Flags().StringArrayVar(&filters, "where", nil, "Property equality filter as key=value (repeatable)")
	return cmd
}
