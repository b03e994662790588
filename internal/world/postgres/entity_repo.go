// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package postgres implements the world repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
)

// db is the query surface the repositories need; both pgxpool.Pool and
// pgxmock satisfy it.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// entityColumns is the shared column list for entity SELECTs.
const entityColumns = `id, world_id, kind, name, description, created_by, created_at, updated_at,
	read_mode, write_mode, read_campaign_ids, read_user_ids, read_character_ids, write_campaign_ids, write_user_ids`

// EntityRepository implements world.EntityRepository using PostgreSQL.
type EntityRepository struct {
	db db
}

// NewEntityRepository creates an EntityRepository over the given pool.
func NewEntityRepository(db db) *EntityRepository {
	return &EntityRepository{db: db}
}

// Get retrieves an entity by ID.
func (r *EntityRepository) Get(ctx context.Context, id ulid.ULID) (*world.Entity, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM entities WHERE id = $1`, entityColumns), id.String())
	e, err := scanEntityRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ENTITY_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get entity").With("id", id.String()).Wrap(err)
	}
	return e, nil
}

// GetMany retrieves entities by ID; missing ids are absent from the result.
func (r *EntityRepository) GetMany(ctx context.Context, ids []ulid.ULID) ([]*world.Entity, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM entities WHERE id = ANY($1) ORDER BY created_at`, entityColumns),
		idStrings(ids))
	if err != nil {
		return nil, oops.With("operation", "get entities").Wrap(err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// Create persists a new entity. Callers must validate and normalize first.
func (r *EntityRepository) Create(ctx context.Context, e *world.Entity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO entities (id, world_id, kind, name, description, created_by, created_at, updated_at,
			read_mode, write_mode, read_campaign_ids, read_user_ids, read_character_ids, write_campaign_ids, write_user_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, e.ID.String(), e.WorldID.String(), string(e.Kind), e.Name, e.Description,
		e.CreatedBy.String(), e.CreatedAt, e.UpdatedAt,
		string(e.ReadMode), string(e.WriteMode),
		idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
		idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs))
	if err != nil {
		return oops.With("operation", "create entity").With("id", e.ID.String()).Wrap(err)
	}
	return nil
}

// Update modifies an existing entity.
func (r *EntityRepository) Update(ctx context.Context, e *world.Entity) error {
	result, err := r.db.Exec(ctx, `
		UPDATE entities SET name = $2, description = $3, updated_at = now(),
			read_mode = $4, write_mode = $5,
			read_campaign_ids = $6, read_user_ids = $7, read_character_ids = $8,
			write_campaign_ids = $9, write_user_ids = $10
		WHERE id = $1
	`, e.ID.String(), e.Name, e.Description,
		string(e.ReadMode), string(e.WriteMode),
		idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
		idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs))
	if err != nil {
		return oops.With("operation", "update entity").With("id", e.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ENTITY_NOT_FOUND").With("id", e.ID.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// ListReadable returns the world's entities matching the compiled filter,
// newest first. The filter renders into the WHERE clause so ineligible rows
// never leave the database.
func (r *EntityRepository) ListReadable(ctx context.Context, worldID ulid.ULID, filter access.Filter) ([]*world.Entity, error) {
	condition, filterArgs := filter.SQL(2)
	query := fmt.Sprintf(`SELECT %s FROM entities WHERE world_id = $1 AND %s ORDER BY created_at DESC`,
		entityColumns, condition)
	args := append([]any{worldID.String()}, filterArgs...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("operation", "list readable entities").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// Compile-time interface check.
var _ world.EntityRepository = (*EntityRepository)(nil)
