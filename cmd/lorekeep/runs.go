// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/logging"
	"github.com/lorekeep/lorekeep/internal/revision"
	revisionpg "github.com/lorekeep/lorekeep/internal/revision/postgres"
	"github.com/lorekeep/lorekeep/internal/store"
	worldpg "github.com/lorekeep/lorekeep/internal/world/postgres"
)

// runsFlags are shared by the runs subcommands.
type runsFlags struct {
	actor    string
	campaign string
}

func (f *runsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.actor, "actor", "", "username performing the operation")
	cmd.Flags().StringVar(&f.campaign, "campaign", "", "campaign id the actor operates under")
	_ = cmd.MarkFlagRequired("actor") //nolint:errcheck // flag is registered one line above
}

// NewRunsCmd creates the runs subcommand and its children.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Apply, inspect, and revert bulk access revisions",
	}

	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log-format", defaultLogFormat, "log format (json or text)")

	cmd.AddCommand(newRunsApplyCmd())
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	cmd.AddCommand(newRunsRevertCmd())

	return cmd
}

// cliDeps bundles the repositories a runs subcommand works with.
type cliDeps struct {
	pool     interface{ Close() }
	users    *store.PostgresUserRepository
	worlds   *worldpg.WorldRepository
	entities *worldpg.EntityRepository
	store    revision.Store
	service  *revision.Service
}

func (d *cliDeps) Close() {
	d.pool.Close()
}

// openDeps connects to the database and wires the revision service.
func openDeps(ctx context.Context, cmd *cobra.Command) (*cliDeps, error) {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	databaseURL, err := requireDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}

	logger := logging.Setup("lorekeep", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	pool, err := store.Connect(ctx, databaseURL, logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	runStore := revisionpg.NewStore(pool)
	entities := worldpg.NewEntityRepository(pool)
	deps := &cliDeps{
		pool:     pool,
		users:    store.NewPostgresUserRepository(pool),
		worlds:   worldpg.NewWorldRepository(pool),
		entities: entities,
		store:    runStore,
		service:  revision.NewService(entities, worldpg.NewReferenceRepository(pool), runStore, logger),
	}
	return deps, nil
}

// resolveActor builds the revision actor for a username against a world:
// the world owner gets owner privileges, anyone else acts as a campaign
// actor and needs --campaign.
func resolveActor(ctx context.Context, deps *cliDeps, flags *runsFlags, worldID ulid.ULID) (revision.Actor, error) {
	user, err := deps.users.GetByUsername(ctx, flags.actor)
	if err != nil {
		return revision.Actor{}, err
	}
	w, err := deps.worlds.Get(ctx, worldID)
	if err != nil {
		return revision.Actor{}, err
	}

	actor := revision.Actor{UserID: user.ID, WorldOwner: w.OwnerID == user.ID}
	if flags.campaign != "" {
		campaignID, err := ulid.Parse(flags.campaign)
		if err != nil {
			return revision.Actor{}, oops.Code("INVALID_ID").With("campaign", flags.campaign).Wrap(err)
		}
		actor.CampaignID = &campaignID
	}
	return actor, nil
}

func newRunsApplyCmd() *cobra.Command {
	flags := &runsFlags{}
	var payloadPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a bulk access revision from a payload file",
		Long: `Reads a JSON payload describing the target records and requested
access changes, validates it, and applies it atomically. The payload
schema is available via the gen-schema tool.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunsApply(cmd, flags, payloadPath)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&payloadPath, "file", "f", "", "payload JSON file")
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // flag is registered one line above

	return cmd
}

func runRunsApply(cmd *cobra.Command, flags *runsFlags, payloadPath string) error {
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return oops.Code("PAYLOAD_UNREADABLE").With("path", payloadPath).Wrap(err)
	}
	if err := validatePayloadDocument(data); err != nil {
		return err
	}
	var payload revision.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return oops.Code("PAYLOAD_INVALID").With("path", payloadPath).Wrap(err)
	}
	if len(payload.EntityIDs) == 0 {
		return oops.Code("PAYLOAD_INVALID").Errorf("payload names no entities")
	}

	ctx := cmd.Context()
	deps, err := openDeps(ctx, cmd)
	if err != nil {
		return err
	}
	defer deps.Close()

	// The first target tells us which world the run addresses; the service
	// re-derives and enforces the single-world rule for the full list.
	first, err := deps.entities.Get(ctx, payload.EntityIDs[0])
	if err != nil {
		return err
	}
	actor, err := resolveActor(ctx, deps, flags, first.WorldID)
	if err != nil {
		return err
	}

	run, err := deps.service.Apply(ctx, payload, actor)
	if err != nil {
		return err
	}
	cmd.Printf("Applied run %s to %d record(s)\n", run.ID, run.EntityCount)
	return nil
}

func newRunsListCmd() *cobra.Command {
	flags := &runsFlags{}
	var worldFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a world's revision runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			worldID, err := ulid.Parse(worldFlag)
			if err != nil {
				return oops.Code("INVALID_ID").With("world", worldFlag).Wrap(err)
			}

			ctx := cmd.Context()
			deps, err := openDeps(ctx, cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			actor, err := resolveActor(ctx, deps, flags, worldID)
			if err != nil {
				return err
			}
			runs, err := deps.service.ListRuns(ctx, worldID, actor)
			if err != nil {
				return err
			}
			cmd.Println(formatRunsTable(runs))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&worldFlag, "world", "", "world id")
	_ = cmd.MarkFlagRequired("world") //nolint:errcheck // flag is registered one line above

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	flags := &runsFlags{}
	var showChanges bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one revision run and optionally its change log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := ulid.Parse(args[0])
			if err != nil {
				return oops.Code("INVALID_ID").With("run", args[0]).Wrap(err)
			}

			ctx := cmd.Context()
			deps, err := openDeps(ctx, cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			actor, err := resolveRunActor(ctx, deps, flags, runID)
			if err != nil {
				return err
			}
			run, err := deps.service.GetRun(ctx, runID, actor)
			if err != nil {
				return err
			}
			cmd.Println(formatRun(run))

			if showChanges {
				changes, err := deps.service.GetRunChanges(ctx, runID, actor)
				if err != nil {
					return err
				}
				cmd.Println(formatChangesTable(changes))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showChanges, "changes", false, "include the per-record change log")

	return cmd
}

func newRunsRevertCmd() *cobra.Command {
	flags := &runsFlags{}

	cmd := &cobra.Command{
		Use:   "revert <run-id>",
		Short: "Revert a revision run, restoring every touched record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := ulid.Parse(args[0])
			if err != nil {
				return oops.Code("INVALID_ID").With("run", args[0]).Wrap(err)
			}

			ctx := cmd.Context()
			deps, err := openDeps(ctx, cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			actor, err := resolveRunActor(ctx, deps, flags, runID)
			if err != nil {
				return err
			}
			run, err := deps.service.Revert(ctx, runID, actor)
			if err != nil {
				return err
			}
			cmd.Printf("Reverted run %s (%d record(s) restored)\n", run.ID, run.EntityCount)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// resolveRunActor resolves the actor for an operation addressed by run id.
// The CLI holds database credentials, so the direct store lookup only serves
// to learn the run's world; the service still enforces visibility.
func resolveRunActor(ctx context.Context, deps *cliDeps, flags *runsFlags, runID ulid.ULID) (revision.Actor, error) {
	run, err := deps.store.GetRun(ctx, runID)
	if err != nil {
		return revision.Actor{}, err
	}
	return resolveActor(ctx, deps, flags, run.WorldID)
}

// validatePayloadDocument checks raw payload JSON against the generated
// schema before unmarshalling, so malformed documents fail with a schema
// error instead of a confusing decode error.
func validatePayloadDocument(data []byte) error {
	schemaBytes, err := revision.PayloadSchema()
	if err != nil {
		return err
	}
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return oops.Code("SCHEMA_INVALID").Wrap(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("payload.json", schemaDoc); err != nil {
		return oops.Code("SCHEMA_INVALID").Wrap(err)
	}
	schema, err := compiler.Compile("payload.json")
	if err != nil {
		return oops.Code("SCHEMA_INVALID").Wrap(err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("PAYLOAD_INVALID").Wrap(err)
	}
	if err := schema.Validate(doc); err != nil {
		return oops.Code("PAYLOAD_INVALID").Wrap(err)
	}
	return nil
}

// formatRunsTable renders runs as a table, newest first.
func formatRunsTable(runs []*revision.Run) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tACTOR\tRECORDS\tREVERTED\tDESCRIPTION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.ActorID,
			run.EntityCount, run.Reverted, run.Description)
	}
	_ = w.Flush() //nolint:errcheck // strings.Builder writes cannot fail
	return strings.TrimRight(buf.String(), "\n")
}

// formatRun renders one run's details.
func formatRun(run *revision.Run) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Run:         %s\n", run.ID)
	fmt.Fprintf(&buf, "World:       %s\n", run.WorldID)
	fmt.Fprintf(&buf, "Actor:       %s\n", run.ActorID)
	if run.CampaignID != nil {
		fmt.Fprintf(&buf, "Campaign:    %s\n", run.CampaignID)
	}
	fmt.Fprintf(&buf, "Records:     %d\n", run.EntityCount)
	fmt.Fprintf(&buf, "Reverted:    %t\n", run.Reverted)
	fmt.Fprintf(&buf, "Created:     %s", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.Description != "" {
		fmt.Fprintf(&buf, "\nDescription: %s", run.Description)
	}
	return buf.String()
}

// formatChangesTable renders a run's change log in creation order.
func formatChangesTable(changes []*revision.Change) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECORD\tBEFORE READ\tBEFORE WRITE")
	for _, c := range changes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.EntityID, c.Before.ReadMode, c.Before.WriteMode)
	}
	_ = w.Flush() //nolint:errcheck // strings.Builder writes cannot fail
	return strings.TrimRight(buf.String(), "\n")
}
