// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/world"
	worldpg "github.com/lorekeep/lorekeep/internal/world/postgres"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// Well-known seed ids. Fixed ULIDs make the seed idempotent: duplicate
// inserts fail with a constraint violation we treat as "already seeded".
const (
	seedWorldID    = "01HZN3XS000000000000000000"
	seedCampaignID = "01HZN3XS000000000000000001"
	seedSquareID   = "01HZN3XS000000000000000002"
	seedVaultID    = "01HZN3XS000000000000000003"
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo world with initial data",
		Long: `Creates a demo world with two users, one campaign, and a pair of
records with contrasting access modes. Idempotent: running it again
will not create duplicates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig) error {
	conf, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	databaseURL, err := requireDatabaseURL(conf)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, databaseURL, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	if err := migrator.Close(); err != nil {
		slog.Warn("error closing migrator", "error", err)
	}

	users := store.NewPostgresUserRepository(pool)
	keeper, err := users.EnsureUser(ctx, "keeper", true)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "ensure keeper user").Wrap(err)
	}
	scribe, err := users.EnsureUser(ctx, "scribe", false)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "ensure scribe user").Wrap(err)
	}
	cmd.Println("Users ready: keeper, scribe")

	worldID := mustSeedID(seedWorldID)
	worlds := worldpg.NewWorldRepository(pool)
	err = worlds.Create(ctx, &world.World{ID: worldID, Name: "Emberfall", OwnerID: keeper.ID})
	switch {
	case isUniqueViolation(err):
		cmd.Println("World already exists, skipping")
	case err != nil:
		return oops.Code("SEED_FAILED").With("operation", "create world").Wrap(err)
	default:
		cmd.Println("Created world: Emberfall")
	}

	campaignID := mustSeedID(seedCampaignID)
	if err := seedCampaign(ctx, pool, campaignID, worldID, scribe.ID); err != nil {
		return err
	}
	cmd.Println("Campaign ready: The Long Night")

	entities := worldpg.NewEntityRepository(pool)
	square := seedEntity(seedSquareID, worldID, keeper.ID, "Market Square",
		"The open heart of Emberfall, busy from dawn until the lamps go out.")
	square.ReadMode = access.ReadGlobal
	square.WriteMode = access.WriteOwnerOnly
	square.Normalize()

	vault := seedEntity(seedVaultID, worldID, keeper.ID, "Sealed Vault",
		"A door with no handle beneath the old counting house.")
	vault.ReadMode = access.ReadSelective
	vault.WriteMode = access.WriteSelective
	vault.ReadCampaignIDs = []ulid.ULID{campaignID}
	vault.WriteUserIDs = []ulid.ULID{scribe.ID}
	vault.Normalize()

	for _, e := range []*world.Entity{square, vault} {
		if err := e.Validate(); err != nil {
			return oops.Code("SEED_FAILED").With("operation", "validate seed entity").Wrap(err)
		}
		err := entities.Create(ctx, e)
		switch {
		case isUniqueViolation(err):
			cmd.Printf("Record %q already exists, skipping\n", e.Name)
		case err != nil:
			return oops.Code("SEED_FAILED").With("operation", "create seed entity").With("name", e.Name).Wrap(err)
		default:
			cmd.Printf("Created record: %s\n", e.Name)
		}
	}

	cmd.Println("Seeding complete")
	return nil
}

func seedCampaign(ctx context.Context, pool *pgxpool.Pool, campaignID, worldID, gmID ulid.ULID) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO campaigns (id, world_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, campaignID.String(), worldID.String(), "The Long Night")
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "create campaign").Wrap(err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO campaign_members (campaign_id, user_id, role)
		VALUES ($1, $2, 'gm')
		ON CONFLICT (campaign_id, user_id) DO NOTHING
	`, campaignID.String(), gmID.String())
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "add campaign member").Wrap(err)
	}
	return nil
}

// seedEntity builds an entity with a fixed id. Access fields are set by the
// caller before Normalize and Validate.
func seedEntity(id string, worldID, createdBy ulid.ULID, name, description string) *world.Entity {
	now := time.Now().UTC()
	return &world.Entity{
		ID:          mustSeedID(id),
		WorldID:     worldID,
		Kind:        world.KindEntity,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// mustSeedID parses one of the fixed seed ULIDs. The constants are
// compile-time literals, so a parse failure is a programming error.
func mustSeedID(raw string) ulid.ULID {
	return ulid.MustParse(raw)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
