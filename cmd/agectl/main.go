package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agectl",
		Short:         "Manage and query Apache AGE graphs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "ageorm.yaml", "Project config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log executed statements to stderr")
	root.AddCommand(initCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(graphCmd())
	root.AddCommand(labelCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(cypherCmd())
	root.AddCommand(countCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	return root
}
