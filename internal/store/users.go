// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrUserNotFound is returned when a username lookup finds nothing.
var ErrUserNotFound = errors.New("user not found")

// User is an account row. IDs are ULIDs stored as text.
type User struct {
	ID          ulid.ULID
	Username    string
	SystemAdmin bool
	CreatedAt   time.Time
}

// UserRepository provides account lookups and idempotent creation.
type UserRepository interface {
	// EnsureUser creates the user if the username is free and returns the
	// stored row either way.
	EnsureUser(ctx context.Context, username string, systemAdmin bool) (*User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]*User, error)
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	pool poolIface
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(pool poolIface) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// EnsureUser inserts the user, or returns the existing row when the
// username is already taken. Seeding runs this repeatedly, so the insert
// must be idempotent.
func (r *PostgresUserRepository) EnsureUser(ctx context.Context, username string, systemAdmin bool) (*User, error) {
	id := ulid.Make()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, system_admin)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING`,
		id.String(), username, systemAdmin)
	if err != nil {
		return nil, oops.With("operation", "ensure user").With("username", username).Wrap(err)
	}
	return r.GetByUsername(ctx, username)
}

// GetByUsername retrieves a user by username.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, system_admin, created_at FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(ErrUserNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user").With("username", username).Wrap(err)
	}
	return u, nil
}

// List returns all users ordered by username.
func (r *PostgresUserRepository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, system_admin, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, oops.With("operation", "scan user row").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var idStr string
	if err := row.Scan(&idStr, &u.Username, &u.SystemAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", idStr).Wrap(err)
	}
	u.ID = id
	return &u, nil
}

// Compile-time interface check.
var _ UserRepository = (*PostgresUserRepository)(nil)
