// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

//go:build integration

package store_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/revision"
	revisionpg "github.com/lorekeep/lorekeep/internal/revision/postgres"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/world"
	worldpg "github.com/lorekeep/lorekeep/internal/world/postgres"
)

// setupPostgresContainer starts a migrated PostgreSQL container.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lorekeep_test"),
		postgres.WithUsername("lorekeep"),
		postgres.WithPassword("lorekeep"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	_ = migrator.Close() //nolint:errcheck // migration already applied

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool, err := store.Connect(ctx, connStr, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("Bulk revision engine", func() {
	var (
		ctx     context.Context
		pool    *pgxpool.Pool
		cleanup func()

		users    *store.PostgresUserRepository
		entities *worldpg.EntityRepository
		refs     *worldpg.ReferenceRepository
		svc      *revision.Service

		owner   *store.User
		grantee *store.User
		worldID ulid.ULID
	)

	seedWorld := func() {
		var err error
		owner, err = users.EnsureUser(ctx, "keeper", false)
		Expect(err).NotTo(HaveOccurred())
		grantee, err = users.EnsureUser(ctx, "scribe", false)
		Expect(err).NotTo(HaveOccurred())

		worldID = ulid.Make()
		_, err = pool.Exec(ctx,
			`INSERT INTO worlds (id, name, owner_id) VALUES ($1, $2, $3)`,
			worldID.String(), "Emberfall", owner.ID.String())
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		users = store.NewPostgresUserRepository(pool)
		entities = worldpg.NewEntityRepository(pool)
		refs = worldpg.NewReferenceRepository(pool)
		svc = revision.NewService(entities, refs, revisionpg.NewStore(pool), logger)

		seedWorld()
	})

	AfterEach(func() {
		cleanup()
	})

	newEntity := func(name string) *world.Entity {
		e, err := world.NewEntity(worldID, owner.ID, world.KindEntity, name)
		Expect(err).NotTo(HaveOccurred())
		Expect(entities.Create(ctx, e)).To(Succeed())
		return e
	}

	Describe("Apply and Revert", func() {
		It("round-trips a run through the database", func() {
			e := newEntity("The Sunken Library")
			actor := revision.Actor{UserID: owner.ID, WorldOwner: true}

			run, err := svc.Apply(ctx, revision.Payload{
				EntityIDs:   []ulid.ULID{e.ID},
				ReadMode:    revision.ModeSelection("selective"),
				WriteMode:   revision.SelectUnchanged,
				ReadUserIDs: []ulid.ULID{grantee.ID},
				Description: "grant the scribe",
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.EntityCount).To(Equal(1))

			updated, err := entities.Get(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ReadUserIDs).To(ContainElement(grantee.ID))
			Expect(access.CanRead(updated.AccessRecord(), access.Context{PrincipalID: grantee.ID})).To(BeTrue())

			reverted, err := svc.Revert(ctx, run.ID, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(reverted.Reverted).To(BeTrue())

			restored, err := entities.Get(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Fields).To(Equal(e.Fields))

			_, err = svc.Revert(ctx, run.ID, actor)
			Expect(err).To(MatchError(revision.ErrConflict))
		})

		It("rolls the whole run back when a target vanishes before revert", func() {
			e1 := newEntity("Gatehouse")
			e2 := newEntity("Undercroft")
			actor := revision.Actor{UserID: owner.ID, WorldOwner: true}

			run, err := svc.Apply(ctx, revision.Payload{
				EntityIDs: []ulid.ULID{e1.ID, e2.ID},
				ReadMode:  revision.ModeSelection("global"),
				WriteMode: revision.SelectUnchanged,
			}, actor)
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, e2.ID.String())
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Revert(ctx, run.ID, actor)
			Expect(err).To(MatchError(revision.ErrConflict))

			// The surviving entity keeps the applied state; nothing was
			// partially reverted.
			kept, err := entities.Get(ctx, e1.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(kept.ReadMode).To(Equal(access.ReadGlobal))

			// The run is still revertible once the conflict cause is gone.
			got, err := svc.GetRun(ctx, run.ID, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Reverted).To(BeFalse())
		})
	})

	Describe("ListReadable", func() {
		It("applies the compiled filter inside the database", func() {
			visible := newEntity("Market Square")
			visible.ReadMode = access.ReadGlobal
			visible.Normalize()
			Expect(entities.Update(ctx, visible)).To(Succeed())

			hidden := newEntity("Sealed Vault")
			hidden.ReadMode = access.ReadHidden
			hidden.Normalize()
			Expect(entities.Update(ctx, hidden)).To(Succeed())

			member := access.Context{PrincipalID: grantee.ID, WorldAccess: true}
			filter := access.Compile(member)
			listed, err := entities.ListReadable(ctx, worldID, filter)
			Expect(err).NotTo(HaveOccurred())

			ids := make([]ulid.ULID, 0, len(listed))
			for _, e := range listed {
				ids = append(ids, e.ID)
			}
			Expect(ids).To(ContainElement(visible.ID))
			Expect(ids).NotTo(ContainElement(hidden.ID))
		})
	})

	Describe("Campaign references", func() {
		It("answers existence and scope questions", func() {
			campaignID := ulid.Make()
			_, err := pool.Exec(ctx,
				`INSERT INTO campaigns (id, world_id, name) VALUES ($1, $2, $3)`,
				campaignID.String(), worldID.String(), "The Long Night")
			Expect(err).NotTo(HaveOccurred())
			_, err = pool.Exec(ctx,
				`INSERT INTO campaign_members (campaign_id, user_id, role) VALUES ($1, $2, 'gm')`,
				campaignID.String(), grantee.ID.String())
			Expect(err).NotTo(HaveOccurred())

			missing, err := refs.MissingCampaigns(ctx, worldID, []ulid.ULID{campaignID, ulid.Make()})
			Expect(err).NotTo(HaveOccurred())
			Expect(missing).To(HaveLen(1))

			scope, err := refs.Scope(ctx, campaignID)
			Expect(err).NotTo(HaveOccurred())
			Expect(scope.UserIDs).To(ContainElement(grantee.ID))
		})
	})
})
