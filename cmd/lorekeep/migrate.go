// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, and inspect schema migrations against the PostgreSQL database.`,
	}

	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops all tables and data)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all tables and data; re-run with --yes to confirm")
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				cmd.Println("Rolling back all migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rollback completed")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				output, err := formatMigrationStatus(m)
				if err != nil {
					return err
				}
				cmd.Println(output)
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Sets the recorded migration version without executing any SQL.
Use only to recover from a dirty state after fixing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if version < 0 {
				return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced migration version to %d\n", version)
				return nil
			})
		},
	}
}

// withMigrator opens a migrator against the configured database, runs fn,
// and closes the migrator.
func withMigrator(cmd *cobra.Command, fn func(*store.Migrator) error) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	databaseURL, err := requireDatabaseURL(cfg)
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	return fn(migrator)
}

// parseForceVersion parses a migration version argument. Sscanf semantics
// apply: parsing stops at the first non-digit, so "3abc" parses as 3.
func parseForceVersion(input string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", input).Errorf("version must be an integer")
	}
	return version, nil
}

// formatMigrationStatus renders the migration table: version, name, state.
func formatMigrationStatus(m *store.Migrator) (string, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return "", err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return "", err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATE")
	fmt.Fprintln(w, "-------\t----\t-----")

	writeRow := func(version uint, state string) error {
		name, err := store.MigrationName(version)
		if err != nil {
			return err
		}
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", version, name, state)
		return nil
	}

	for _, v := range applied {
		if err := writeRow(v, "applied"); err != nil {
			return "", err
		}
	}
	for _, v := range pending {
		if err := writeRow(v, "pending"); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", oops.With("operation", "format migration status").Wrap(err)
	}

	fmt.Fprintf(&buf, "\nCurrent version: %d", current)
	if dirty {
		buf.WriteString(" (dirty: a migration failed partway; fix the database and use migrate force)")
	}
	return buf.String(), nil
}
