// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package world

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// World is the top-level container every campaign, character, and entity
// belongs to.
type World struct {
	ID        ulid.ULID
	Name      string
	OwnerID   ulid.ULID
	CreatedAt time.Time
}

// Campaign groups players and characters inside a world.
type Campaign struct {
	ID        ulid.ULID
	WorldID   ulid.ULID
	Name      string
	CreatedAt time.Time
}

// MemberRole is a user's role within a campaign.
type MemberRole string

// Valid campaign member roles.
const (
	RoleGameMaster MemberRole = "gm"
	RolePlayer     MemberRole = "player"
)

// IsValid returns true for a known role.
func (r MemberRole) IsValid() bool {
	return r == RoleGameMaster || r == RolePlayer
}

// CampaignMember links a user to a campaign with a role.
type CampaignMember struct {
	CampaignID ulid.ULID
	UserID     ulid.ULID
	Role       MemberRole
}

// Character is a player-owned persona in a world, optionally attached to a
// campaign.
type Character struct {
	ID         ulid.ULID
	WorldID    ulid.ULID
	OwnerID    ulid.ULID
	CampaignID *ulid.ULID
	Name       string
	CreatedAt  time.Time
}
