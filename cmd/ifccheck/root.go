package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ifccheck",
		Short: "ifccheck - compliance checks for IFC building models",
		Long: `ifccheck runs compliance rules against IFC building models.

It reads .ifc and .ifczip exchange files as well as YAML/JSON entity
documents, runs each selected rule, and reports one record per checked
element followed by a summary record per rule.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newRulesCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
