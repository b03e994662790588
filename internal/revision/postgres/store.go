// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package postgres implements the revision store using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/revision"
	"github.com/lorekeep/lorekeep/internal/world"
)

// db is the connection surface the store needs; both pgxpool.Pool and
// pgxmock satisfy it.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements revision.Store using PostgreSQL. Apply and revert each
// run inside one transaction so concurrent readers never observe a
// half-applied run.
type Store struct {
	db db
}

// NewStore creates a Store over the given pool.
func NewStore(db db) *Store {
	return &Store{db: db}
}

const runColumns = `id, world_id, actor_id, campaign_id, description, entity_count, reverted, created_at`

const changeColumns = `id, run_id, entity_id, read_mode, write_mode,
	read_campaign_ids, read_user_ids, read_character_ids, write_campaign_ids, write_user_ids`

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, id ulid.ULID) (*revision.Run, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM bulk_update_runs WHERE id = $1`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RUN_NOT_FOUND").With("run_id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get run").With("run_id", id.String()).Wrap(err)
	}
	return run, nil
}

// ListRuns returns the world's runs, newest first.
func (s *Store) ListRuns(ctx context.Context, worldID ulid.ULID) ([]*revision.Run, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+runColumns+` FROM bulk_update_runs WHERE world_id = $1 ORDER BY created_at DESC`,
		worldID.String())
	if err != nil {
		return nil, oops.With("operation", "list runs").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()

	runs := make([]*revision.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, oops.With("operation", "scan run").Wrap(err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate runs").Wrap(err)
	}
	return runs, nil
}

// ListChanges returns the run's change log in creation order. Change ids
// are ULIDs, so id order is creation order.
func (s *Store) ListChanges(ctx context.Context, runID ulid.ULID) ([]*revision.Change, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+changeColumns+` FROM bulk_update_changes WHERE run_id = $1 ORDER BY id`,
		runID.String())
	if err != nil {
		return nil, oops.With("operation", "list changes").With("run_id", runID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

// ApplyRun creates the run and its change log and applies the entity
// updates, all in one transaction. A target row vanishing mid-transaction
// aborts the whole run as a conflict.
func (s *Store) ApplyRun(ctx context.Context, run *revision.Run, changes []*revision.Change, updates []revision.EntityUpdate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var campaignID *string
	if run.CampaignID != nil {
		str := run.CampaignID.String()
		campaignID = &str
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO bulk_update_runs (id, world_id, actor_id, campaign_id, description, entity_count, reverted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
	`, run.ID.String(), run.WorldID.String(), run.ActorID.String(), campaignID,
		run.Description, run.EntityCount, run.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("RUN_ALREADY_EXISTS").With("run_id", run.ID.String()).Wrap(revision.ErrConflict)
		}
		return oops.With("operation", "insert run").With("run_id", run.ID.String()).Wrap(err)
	}

	for _, c := range changes {
		_, err = tx.Exec(ctx, `
			INSERT INTO bulk_update_changes (id, run_id, entity_id, read_mode, write_mode,
				read_campaign_ids, read_user_ids, read_character_ids, write_campaign_ids, write_user_ids)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, c.ID.String(), c.RunID.String(), c.EntityID.String(),
			string(c.Before.ReadMode), string(c.Before.WriteMode),
			idStrings(c.Before.ReadCampaignIDs), idStrings(c.Before.ReadUserIDs), idStrings(c.Before.ReadCharacterIDs),
			idStrings(c.Before.WriteCampaignIDs), idStrings(c.Before.WriteUserIDs))
		if err != nil {
			return oops.With("operation", "insert change").With("entity_id", c.EntityID.String()).Wrap(err)
		}
	}

	for _, u := range updates {
		if err := updateEntityFields(ctx, tx, u.EntityID, u.Fields); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").With("run_id", run.ID.String()).Wrap(err)
	}
	return nil
}

// RevertRun restores every change's before-snapshot and marks the run
// reverted, all in one transaction. The run row is locked first so a
// concurrent revert of the same run serializes and fails the reverted
// check; each entity row is locked before overwrite and a vanished row
// aborts the whole revert.
func (s *Store) RevertRun(ctx context.Context, runID ulid.ULID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var reverted bool
	err = tx.QueryRow(ctx,
		`SELECT reverted FROM bulk_update_runs WHERE id = $1 FOR UPDATE`, runID.String()).Scan(&reverted)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.Code("RUN_NOT_FOUND").With("run_id", runID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return oops.With("operation", "lock run").With("run_id", runID.String()).Wrap(err)
	}
	if reverted {
		return oops.Code("RUN_ALREADY_REVERTED").With("run_id", runID.String()).Wrap(revision.ErrConflict)
	}

	rows, err := tx.Query(ctx,
		`SELECT `+changeColumns+` FROM bulk_update_changes WHERE run_id = $1 ORDER BY id`,
		runID.String())
	if err != nil {
		return oops.With("operation", "list changes").With("run_id", runID.String()).Wrap(err)
	}
	changes, err := scanChanges(rows)
	rows.Close()
	if err != nil {
		return err
	}

	for _, c := range changes {
		var lockedID string
		err = tx.QueryRow(ctx,
			`SELECT id FROM entities WHERE id = $1 FOR UPDATE`, c.EntityID.String()).Scan(&lockedID)
		if errors.Is(err, pgx.ErrNoRows) {
			return oops.
				Code("REVERT_TARGET_GONE").
				With("run_id", runID.String()).
				With("entity_id", c.EntityID.String()).
				Wrap(revision.ErrConflict)
		}
		if err != nil {
			return oops.With("operation", "lock entity").With("entity_id", c.EntityID.String()).Wrap(err)
		}
		if err := updateEntityFields(ctx, tx, c.EntityID, c.Before); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE bulk_update_runs SET reverted = TRUE WHERE id = $1`, runID.String())
	if err != nil {
		return oops.With("operation", "mark run reverted").With("run_id", runID.String()).Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").With("run_id", runID.String()).Wrap(err)
	}
	return nil
}

func updateEntityFields(ctx context.Context, tx pgx.Tx, entityID ulid.ULID, f access.Fields) error {
	result, err := tx.Exec(ctx, `
		UPDATE entities SET updated_at = now(),
			read_mode = $2, write_mode = $3,
			read_campaign_ids = $4, read_user_ids = $5, read_character_ids = $6,
			write_campaign_ids = $7, write_user_ids = $8
		WHERE id = $1
	`, entityID.String(),
		string(f.ReadMode), string(f.WriteMode),
		idStrings(f.ReadCampaignIDs), idStrings(f.ReadUserIDs), idStrings(f.ReadCharacterIDs),
		idStrings(f.WriteCampaignIDs), idStrings(f.WriteUserIDs))
	if err != nil {
		return oops.With("operation", "update entity access").With("entity_id", entityID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.
			Code("UPDATE_TARGET_GONE").
			With("entity_id", entityID.String()).
			Wrap(revision.ErrConflict)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ revision.Store = (*Store)(nil)
