// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// EntityUpdate carries one target entity's new access fields into the
// storage transaction.
type EntityUpdate struct {
	EntityID ulid.ULID
	Fields   access.Fields
}

// Store persists runs and their change logs. ApplyRun and RevertRun each
// execute inside a single transaction; no partial state is ever visible to
// concurrent readers.
type Store interface {
	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, id ulid.ULID) (*Run, error)

	// ListRuns returns the world's runs, newest first.
	ListRuns(ctx context.Context, worldID ulid.ULID) ([]*Run, error)

	// ListChanges returns the run's change log in creation order.
	ListChanges(ctx context.Context, runID ulid.ULID) ([]*Change, error)

	// ApplyRun atomically creates the run, writes its change log, and
	// applies the entity updates. The updates pair one-to-one with the
	// changes.
	ApplyRun(ctx context.Context, run *Run, changes []*Change, updates []EntityUpdate) error

	// RevertRun atomically restores every change's before-snapshot and
	// marks the run reverted. It fails with ErrConflict when the run is
	// already reverted or any target row has vanished.
	RevertRun(ctx context.Context, runID ulid.ULID) error
}
