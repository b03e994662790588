package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Lorekeep CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lorekeep",
		Short: "Lorekeep - campaign records with fine-grained access control",
		Long: `Lorekeep manages worlds of campaign records with per-record
read/write access modes, campaign-scoped grants, and auditable bulk
access revisions that can be reverted.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewRecordsCmd())

	return cmd
}
