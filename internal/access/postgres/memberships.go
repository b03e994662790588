// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package postgres implements the access membership lookups over PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lorekeep/lorekeep/internal/access"
)

// querier is the subset of pgxpool.Pool the membership source needs.
// pgxmock satisfies it in tests.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Memberships implements access.MembershipSource using PostgreSQL.
type Memberships struct {
	db querier
}

// NewMemberships creates a Memberships lookup over the given pool.
func NewMemberships(db querier) *Memberships {
	return &Memberships{db: db}
}

// CampaignsByRole returns campaigns the principal holds an explicit role in.
func (m *Memberships) CampaignsByRole(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := m.db.Query(ctx, `
		SELECT cm.campaign_id
		FROM campaign_members cm
		JOIN campaigns c ON c.id = cm.campaign_id
		WHERE c.world_id = $1 AND cm.user_id = $2
	`, worldID.String(), principalID.String())
	if err != nil {
		return nil, oops.With("operation", "campaigns by role").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanIDs(rows, "campaigns by role")
}

// CampaignsByCharacter returns campaigns reached through characters the
// principal owns in the world.
func (m *Memberships) CampaignsByCharacter(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := m.db.Query(ctx, `
		SELECT DISTINCT ch.campaign_id
		FROM characters ch
		WHERE ch.world_id = $1 AND ch.owner_id = $2 AND ch.campaign_id IS NOT NULL
	`, worldID.String(), principalID.String())
	if err != nil {
		return nil, oops.With("operation", "campaigns by character").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanIDs(rows, "campaigns by character")
}

// OwnedCharacters returns the characters the principal owns in the world.
func (m *Memberships) OwnedCharacters(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := m.db.Query(ctx, `
		SELECT ch.id
		FROM characters ch
		WHERE ch.world_id = $1 AND ch.owner_id = $2
	`, worldID.String(), principalID.String())
	if err != nil {
		return nil, oops.With("operation", "owned characters").With("world_id", worldID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanIDs(rows, "owned characters")
}

// scanIDs collects a single ULID column from rows.
func scanIDs(rows pgx.Rows, operation string) ([]ulid.ULID, error) {
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
var _ access.MembershipSource = (*Memberships)(nil)
