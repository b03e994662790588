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

// WorldRepository implements world.WorldRepository using PostgreSQL.
type WorldRepository struct {
	db db
}

// NewWorldRepository creates a WorldRepository over the given pool.
func NewWorldRepository(db db) *WorldRepository {
	return &WorldRepository{db: db}
}

// Get retrieves a world by ID.
func (r *WorldRepository) Get(ctx context.Context, id ulid.ULID) (*world.World, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at FROM worlds WHERE id = $1`, id.String())

	var w world.World
	var idStr, ownerStr string
	err := row.Scan(&idStr, &w.Name, &ownerStr, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("WORLD_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get world").With("id", id.String()).Wrap(err)
	}
	if w.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse world id").With("id", idStr).Wrap(err)
	}
	if w.OwnerID, err = ulid.Parse(ownerStr); err != nil {
		return nil, oops.With("operation", "parse world owner id").With("id", ownerStr).Wrap(err)
	}
	return &w, nil
}

// Create persists a new world.
func (r *WorldRepository) Create(ctx context.Context, w *world.World) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO worlds (id, name, owner_id) VALUES ($1, $2, $3)`,
		w.ID.String(), w.Name, w.OwnerID.String())
	if err != nil {
		return oops.With("operation", "create world").With("id", w.ID.String()).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ world.WorldRepository = (*WorldRepository)(nil)
