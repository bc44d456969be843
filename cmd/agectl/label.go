package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ageorm/model"
)

func labelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage vertex and edge labels",
	}
	cmd.AddCommand(labelEnsureCmd())
	return cmd
}

func labelEnsureCmd() *cobra.Command {
	var graphName string
	var edge bool
	cmd := &cobra.Command{
		Use:   "ensure <label>",
		Short: "Create a label unless it already exists",
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
			t := labelType(args[0], edge)
			if err := g.EnsureLabel(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Label %s ready in %s\n", t.Label, g.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	cmd.Flags().BoolVar(&edge, "edge", false, "Create an edge label")
	return cmd
}

// labelType returns the registered type for label, or an unregistered one
// carrying just the label and kind.
func labelType(label string, edge bool) *model.Type {
	if t, ok := model.Lookup(label); ok {
		return t
	}
	kind := model.Vertex
	if edge {
		kind = model.Edge
	}
	return &model.Type{Name: label, Label: label, Kind: kind}
}
