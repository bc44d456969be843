package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Create, drop and list graphs",
	}
	cmd.AddCommand(graphCreateCmd())
	cmd.AddCommand(graphDropCmd())
	cmd.AddCommand(graphListCmd())
	cmd.AddCommand(graphExistsCmd())
	return cmd
}

func graphCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			name := s.cfg.Graph
			if len(args) == 1 {
				name = args[0]
			}
			g, err := s.db.CreateGraph(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Created graph %s\n", g.Name())
			return nil
		},
	}
}

func graphDropCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.db.DropGraph(ctx, args[0], cascade); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Dropped graph %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", true, "Drop the graph's labels and data")
	return cmd
}

func graphListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.db.ListGraphs(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(os.Stdout, "No graphs found.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

func graphExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <name>",
		Short: "Report whether a graph exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ok, err := s.db.GraphExists(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("graph %s does not exist", args[0])
			}
			fmt.Fprintf(os.Stdout, "Graph %s exists\n", args[0])
			return nil
		},
	}
}
