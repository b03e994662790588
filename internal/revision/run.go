// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// Run is one applied bulk revision. Reverted is terminal; a run flips to
// reverted at most once and never back.
type Run struct {
	ID      ulid.ULID
	WorldID ulid.ULID
	ActorID ulid.ULID
	// CampaignID is set when the run was applied by a campaign-level actor
	// rather than the world owner.
	CampaignID  *ulid.ULID
	Description string
	EntityCount int
	Reverted    bool
	CreatedAt   time.Time
}

// Change records one target record's access fields as they were immediately
// before the run mutated them. Revert restores these snapshots verbatim.
type Change struct {
	ID       ulid.ULID
	RunID    ulid.ULID
	EntityID ulid.ULID
	Before   access.Fields
}

// Actor identifies who is applying or reverting a run. A world-owner actor
// bypasses the campaign scope guard; a campaign actor must carry the
// campaign id the guard constrains the payload to.
type Actor struct {
	UserID     ulid.ULID
	WorldOwner bool
	CampaignID *ulid.ULID
}
