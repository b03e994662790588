// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// WorldAccess carries the pre-computed privilege flags the calling layer
// already knows about the principal's relationship to a world.
type WorldAccess struct {
	SystemAdmin bool
	WorldOwner  bool
	HasAccess   bool
}

// MembershipSource answers the membership questions a context needs. The
// postgres subpackage provides the production implementation.
type MembershipSource interface {
	// CampaignsByRole returns campaigns the principal belongs to through an
	// explicit campaign role.
	CampaignsByRole(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error)

	// CampaignsByCharacter returns campaigns reached through characters the
	// principal owns.
	CampaignsByCharacter(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error)

	// OwnedCharacters returns the characters the principal owns in the world.
	OwnedCharacters(ctx context.Context, worldID, principalID ulid.ULID) ([]ulid.ULID, error)
}

// Resolver builds a Context for a principal within a world. Resolution is
// read-only; contexts are never cached between requests.
type Resolver struct {
	memberships MembershipSource
}

// NewResolver creates a Resolver over the given membership source.
func NewResolver(memberships MembershipSource) *Resolver {
	return &Resolver{memberships: memberships}
}

// Resolve computes the access context for principalID within worldID.
//
// System admins and world owners short-circuit: the returned context grants
// everything downstream, so membership queries are skipped entirely. For
// everyone else the resolver gathers campaign memberships (via roles and via
// owned characters) and owned characters, then accepts activeCampaignID only
// if it is one of the computed memberships. A spoofed or out-of-scope active
// campaign id is silently dropped, not an error.
func (r *Resolver) Resolve(ctx context.Context, worldID, principalID ulid.ULID, wa WorldAccess, activeCampaignID *ulid.ULID) (Context, error) {
	if wa.SystemAdmin || wa.WorldOwner {
		c := Context{
			PrincipalID:  principalID,
			SystemAdmin:  wa.SystemAdmin,
			WorldOwner:   wa.WorldOwner,
			WorldAccess:  true,
			CampaignIDs:  []ulid.ULID{},
			CharacterIDs: []ulid.ULID{},
		}
		RecordResolution(c)
		return c, nil
	}

	roleCampaigns, err := r.memberships.CampaignsByRole(ctx, worldID, principalID)
	if err != nil {
		return Context{}, oops.In("access").
			With("world_id", worldID.String()).
			With("principal_id", principalID.String()).
			Wrapf(err, "resolve campaign roles")
	}
	characterCampaigns, err := r.memberships.CampaignsByCharacter(ctx, worldID, principalID)
	if err != nil {
		return Context{}, oops.In("access").
			With("world_id", worldID.String()).
			With("principal_id", principalID.String()).
			Wrapf(err, "resolve character campaigns")
	}
	characters, err := r.memberships.OwnedCharacters(ctx, worldID, principalID)
	if err != nil {
		return Context{}, oops.In("access").
			With("world_id", worldID.String()).
			With("principal_id", principalID.String()).
			Wrapf(err, "resolve owned characters")
	}

	c := Context{
		PrincipalID:       principalID,
		WorldAccess:       wa.HasAccess,
		CampaignIDs:       UnionIDs(roleCampaigns, characterCampaigns),
		CharacterIDs:      characters,
		HasWorldCharacter: len(characters) > 0,
		ActiveCampaignID:  activeCampaignID,
	}
	c.Normalize()
	RecordResolution(c)
	return c, nil
}
