package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ageorm/internal/config"
	"ageorm/internal/validate"
	"ageorm/model"
)

func validateCmd() *cobra.Command {
	var data bool
	var graphName string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the project config and schema, and optionally the stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := runValidate()
			if err != nil || !data {
				return err
			}
			return runAudit(graphName, types)
		},
	}
	cmd.Flags().BoolVar(&data, "data", false, "Also audit the stored vertices against the schema")
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the configured graph)")
	return cmd
}

func runValidate() ([]*model.Type, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stdout, "Project %s (driver %s, graph %s)\n", cfg.Project, cfg.Database.Driver, orNone(cfg.Graph))

	path := cfg.SchemaPath()
	if path == "" {
		fmt.Fprintln(os.Stdout, "No schema configured.")
		return nil, nil
	}
	schema, err := config.LoadSchema(path)
	if err != nil {
		return nil, err
	}
	types, err := schema.Define()
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		for _, rel := range t.Relationships {
			if _, err := rel.Target.Resolve(); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, rel.Name, err)
			}
		}
	}
	printTypes(os.Stdout, types)
	return types, nil
}

func runAudit(graphName string, types []*model.Type) error {
	ctx := context.Background()
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}
	t, err := openTransport(ctx, cfg.Database)
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, db: newDatabase(t)}
	defer s.Close()

	g, err := s.graph(ctx, graphName, false)
	if err != nil {
		return err
	}
	report, err := validate.Run(ctx, g, types)
	if err != nil {
		return err
	}

	errorIssues := report.Errors()
	warnIssues := report.Warnings()
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		if location == "" {
			location = issue.Label
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}

func printTypes(out io.Writer, types []*model.Type) {
	for _, t := range types {
		fmt.Fprintf(out, "%s %s: %d fields", t.Kind, t.Label, len(t.Fields))
		if len(t.Relationships) > 0 {
			fmt.Fprintf(out, ", %d relationships", len(t.Relationships))
		}
		fmt.Fprintln(out)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
