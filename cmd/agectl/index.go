package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage property indexes",
	}
	cmd.AddCommand(indexCreateCmd())
	return cmd
}

func indexCreateCmd() *cobra.Command {
	var graphName string
	var unique bool
	cmd := &cobra.Command{
		Use:   "create <label> <field>",
		Short: "Index a vertex property",
		Args:  cobra.ExactArgs(2),
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
			t := labelType(args[0], false)
			if err := g.CreateIndex(ctx, t, args[1], unique); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Created index %s\n", g.IndexName(t.Label, args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	cmd.Flags().BoolVar(&unique, "unique", false, "Create a unique index")
	return cmd
}
