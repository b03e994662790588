// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package store provides database connectivity, schema migrations, and the
// shared user repository.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// poolIface is the query surface repositories in this package need; both
// pgxpool.Pool and pgxmock satisfy it.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// connectTimeout bounds the whole retry loop, not a single attempt.
const connectTimeout = 30 * time.Second

// Connect opens a pgx pool and pings it until the database answers.
// Startup races with the database coming up (compose, CI containers), so
// transient ping failures are retried with fibonacci backoff until
// connectTimeout elapses.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	backoff := retry.NewFibonacci(250 * time.Millisecond)
	backoff = retry.WithMaxDuration(connectTimeout, backoff)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			logger.DebugContext(ctx, "database not ready, retrying", slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_UNREACHABLE").Wrap(err)
	}
	return pool, nil
}
