package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const schemaTemplate = `version: 1

vertex_types:
  - name: Person
    fields:
      - name: name
        type: string
        required: true
      - name: age
        type: integer
    relationships:
      - name: friends
        target: Person
        edge: KNOWS
        many: true

edge_types:
  - name: KNOWS
    fields:
      - name: since
        type: integer
`

func initCmd() *cobra.Command {
	var projectName string
	var graphName string
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold an ageorm project config and schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(dir, projectName, graphName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&graphName, "graph", "", "Graph name (defaults to the project name)")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the project files to")
	return cmd
}

func runInit(dir, projectName, graphName string) error {
	if graphName == "" {
		graphName = strings.ReplaceAll(strings.ToLower(projectName), "-", "_")
	}
	configPath := filepath.Join(dir, "ageorm.yaml")
	schemaPath := filepath.Join(dir, "schema.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ndatabase:\n  driver: pgx\n  dsn: ${AGE_DSN}\n  max_conns: 10\n\ngraph: %s\nschema: schema.yaml\n", projectName, graphName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(schemaTemplate), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}

	return nil
}
