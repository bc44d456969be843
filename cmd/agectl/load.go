package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ageorm/internal/ingest"
)

func loadCmd() *cobra.Command {
	var graphName string
	var bulk bool
	var create bool
	var workers int
	var exclude []string
	cmd := &cobra.Command{
		Use:   "load <path>...",
		Short: "Load YAML seed files into a graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			g, err := s.graph(ctx, graphName, create)
			if err != nil {
				return err
			}
			result, err := ingest.Run(ctx, g, args, ingest.Options{Bulk: bulk, Workers: workers, Exclude: exclude})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Vertices created: %d\n", result.VerticesCreated)
			fmt.Fprintf(os.Stdout, "Edges created: %d\n", result.EdgesCreated)
			fmt.Fprintf(os.Stdout, "Files skipped: %d\n", result.FilesSkipped)
			if len(result.Errors) > 0 {
				fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(result.Errors))
				for _, err := range result.Errors {
					fmt.Fprintf(os.Stdout, "  - %v\n", err)
				}
				return fmt.Errorf("load finished with %d errors", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	cmd.Flags().BoolVar(&bulk, "bulk", false, "Insert each label with one SQL statement; lifecycle events do not fire")
	cmd.Flags().IntVar(&workers, "workers", 4, "Labels bulk inserted concurrently")
	cmd.Flags().BoolVar(&create, "create", false, "Create the graph when it does not exist")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Path to skip (repeatable)")
	return cmd
}
