// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/world"
)

// ReferenceRepository implements world.ReferenceRepository using PostgreSQL.
type ReferenceRepository struct {
	db db
}

// NewReferenceRepository creates a ReferenceRepository over the given pool.
func NewReferenceRepository(db db) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// MissingCampaigns returns the requested ids that do not exist in the world.
func (r *ReferenceRepository) MissingCampaigns(ctx context.Context, worldID ulid.ULID, ids []ulid.ULID) ([]ulid.ULID, error) {
	return r.missing(ctx, `
		SELECT wanted.id FROM unnest($2::text[]) AS wanted(id)
		WHERE NOT EXISTS (SELECT 1 FROM campaigns c WHERE c.id = wanted.id AND c.world_id = $1)
	`, []any{worldID.String(), idStrings(ids)}, ids, "missing campaigns")
}

// MissingUsers returns the requested ids that do not exist.
func (r *ReferenceRepository) MissingUsers(ctx context.Context, ids []ulid.ULID) ([]ulid.ULID, error) {
	return r.missing(ctx, `
		SELECT wanted.id FROM unnest($1::text[]) AS wanted(id)
		WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.id = wanted.id)
	`, []any{idStrings(ids)}, ids, "missing users")
}

// MissingCharacters returns the requested ids that do not exist in the world.
func (r *ReferenceRepository) MissingCharacters(ctx context.Context, worldID ulid.ULID, ids []ulid.ULID) ([]ulid.ULID, error) {
	return r.missing(ctx, `
		SELECT wanted.id FROM unnest($2::text[]) AS wanted(id)
		WHERE NOT EXISTS (SELECT 1 FROM characters ch WHERE ch.id = wanted.id AND ch.world_id = $1)
	`, []any{worldID.String(), idStrings(ids)}, ids, "missing characters")
}

func (r *ReferenceRepository) missing(ctx context.Context, query string, args []any, ids []ulid.ULID, operation string) ([]ulid.ULID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	defer rows.Close()

	var missing []ulid.ULID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, oops.With("operation", operation).Wrap(err)
		}
		id, err := ulid.Parse(raw)
		if err != nil {
			return nil, oops.With("operation", operation).With("id", raw).Wrap(err)
		}
		missing = append(missing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	return missing, nil
}

// Scope returns the membership snapshot of a campaign: its member users and
// attached characters.
func (r *ReferenceRepository) Scope(ctx context.Context, campaignID ulid.ULID) (world.CampaignScope, error) {
	scope := world.CampaignScope{CampaignID: campaignID}

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1)`, campaignID.String()).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return scope, oops.With("operation", "campaign scope").With("campaign_id", campaignID.String()).Wrap(err)
	}
	if !exists {
		return scope, oops.Code("CAMPAIGN_NOT_FOUND").With("campaign_id", campaignID.String()).Wrap(world.ErrNotFound)
	}

	userRows, err := r.db.Query(ctx,
		`SELECT user_id FROM campaign_members WHERE campaign_id = $1`, campaignID.String())
	if err != nil {
		return scope, oops.With("operation", "campaign scope users").With("campaign_id", campaignID.String()).Wrap(err)
	}
	defer userRows.Close()
	if scope.UserIDs, err = collectIDs(userRows, "campaign scope users"); err != nil {
		return scope, err
	}

	charRows, err := r.db.Query(ctx,
		`SELECT id FROM characters WHERE campaign_id = $1`, campaignID.String())
	if err != nil {
		return scope, oops.With("operation", "campaign scope characters").With("campaign_id", campaignID.String()).Wrap(err)
	}
	defer charRows.Close()
	if scope.CharacterIDs, err = collectIDs(charRows, "campaign scope characters"); err != nil {
		return scope, err
	}

	return scope, nil
}

// collectIDs gathers a single ULID column.
func collectIDs(rows pgx.Rows, operation string) ([]ulid.ULID, error) {
	ids := make([]ulid.ULID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, oops.With("operation", operation).Wrap(err)
		}
		id, err := ulid.Parse(raw)
		if err != nil {
			return nil, oops.With("operation", operation).With("id", raw).Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	return ids, nil
}

// Compile-time interface check.
var _ world.ReferenceRepository = (*ReferenceRepository)(nil)
