// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// EntityRepository manages entity persistence.
type EntityRepository interface {
	// Get retrieves an entity by ID.
	Get(ctx context.Context, id ulid.ULID) (*Entity, error)

	// GetMany retrieves entities by ID. Missing ids are simply absent from
	// the result; callers decide whether that is an error.
	GetMany(ctx context.Context, ids []ulid.ULID) ([]*Entity, error)

	// Create persists a new entity.
	Create(ctx context.Context, e *Entity) error

	// Update modifies an existing entity.
	Update(ctx context.Context, e *Entity) error

	// ListReadable returns the world's entities matching the compiled read
	// filter, newest first. The filter is applied by the database, not by
	// fetching and re-checking rows.
	ListReadable(ctx context.Context, worldID ulid.ULID, filter access.Filter) ([]*Entity, error)
}

// WorldRepository manages world persistence.
type WorldRepository interface {
	// Get retrieves a world by ID.
	Get(ctx context.Context, id ulid.ULID) (*World, error)

	// Create persists a new world.
	Create(ctx context.Context, w *World) error
}

// CampaignScope is the membership snapshot of one campaign: the users who
// belong to it and the characters attached to it. The scope guard checks
// bulk payloads against it.
type CampaignScope struct {
	CampaignID   ulid.ULID
	UserIDs      []ulid.ULID
	CharacterIDs []ulid.ULID
}

// ContainsUser reports whether the user belongs to the campaign.
func (s CampaignScope) ContainsUser(id ulid.ULID) bool {
	for _, u := range s.UserIDs {
		if u == id {
			return true
		}
	}
	return false
}

// ContainsCharacter reports whether the character belongs to the campaign.
func (s CampaignScope) ContainsCharacter(id ulid.ULID) bool {
	for _, c := range s.CharacterIDs {
		if c == id {
			return true
		}
	}
	return false
}

// ReferenceRepository answers existence and scope questions about the ids a
// bulk payload references.
type ReferenceRepository interface {
	// MissingCampaigns returns the subset of ids that do not exist in the
	// given world.
	MissingCampaigns(ctx context.Context, worldID ulid.ULID, ids []ulid.ULID) ([]ulid.ULID, error)

	// MissingUsers returns the subset of ids that do not exist.
	MissingUsers(ctx context.Context, ids []ulid.ULID) ([]ulid.ULID, error)

	// MissingCharacters returns the subset of ids that do not exist in the
	// given world.
	MissingCharacters(ctx context.Context, worldID ulid.ULID, ids []ulid.ULID) ([]ulid.ULID, error)

	// Scope returns the membership snapshot of a campaign.
	Scope(ctx context.Context, campaignID ulid.ULID) (CampaignScope, error)
}
