// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package accesstest provides test helpers for the access engine: seeded
// random record/context generators for property tests and a map-backed
// membership source.
package accesstest

import (
	"context"
	"math/rand"

	"github.com/oklog/ulid/v2"

	"github.com/lorekeep/lorekeep/internal/access"
)

// IDPool is a small fixed pool of ids. Generators draw record audiences and
// context memberships from the same pool so random records and contexts
// actually collide.
type IDPool struct {
	Users      []ulid.ULID
	Campaigns  []ulid.ULID
	Characters []ulid.ULID
}

// NewIDPool creates a pool with n ids per dimension.
func NewIDPool(n int) IDPool {
	pool := IDPool{}
	for range n {
		pool.Users = append(pool.Users, ulid.Make())
		pool.Campaigns = append(pool.Campaigns, ulid.Make())
		pool.Characters = append(pool.Characters, ulid.Make())
	}
	return pool
}

func pick(rng *rand.Rand, ids []ulid.ULID) ulid.ULID {
	return ids[rng.Intn(len(ids))]
}

func subset(rng *rand.Rand, ids []ulid.ULID) []ulid.ULID {
	var out []ulid.ULID
	for _, id := range ids {
		if rng.Intn(2) == 0 {
			out = append(out, id)
		}
	}
	return out
}

var readModes = []access.ReadMode{access.ReadGlobal, access.ReadSelective, access.ReadHidden}

var writeModes = []access.WriteMode{access.WriteGlobal, access.WriteSelective, access.WriteHidden, access.WriteOwnerOnly}

// RandomRecord generates a normalized record whose audiences are drawn from
// the pool. Normalization mirrors what the engine enforces on every write.
func RandomRecord(rng *rand.Rand, pool IDPool, worldID ulid.ULID) access.Record {
	rec := access.Record{
		ID:        ulid.Make(),
		WorldID:   worldID,
		CreatedBy: pick(rng, pool.Users),
		Fields: access.Fields{
			ReadMode:         readModes[rng.Intn(len(readModes))],
			WriteMode:        writeModes[rng.Intn(len(writeModes))],
			ReadCampaignIDs:  subset(rng, pool.Campaigns),
			ReadUserIDs:      subset(rng, pool.Users),
			ReadCharacterIDs: subset(rng, pool.Characters),
			WriteCampaignIDs: subset(rng, pool.Campaigns),
			WriteUserIDs:     subset(rng, pool.Users),
		},
	}
	rec.Normalize()
	return rec
}

// RandomContext generates a context drawn from the pool, occasionally
// privileged, anonymous, or impersonated. The membership-derived flags stay
// internally consistent the way Resolver produces them.
func RandomContext(rng *rand.Rand, pool IDPool) access.Context {
	c := access.Context{}
	if rng.Intn(8) != 0 { // mostly authenticated
		c.PrincipalID = pick(rng, pool.Users)
	}
	switch rng.Intn(10) {
	case 0:
		c.SystemAdmin = true
	case 1:
		c.WorldOwner = true
	}
	c.WorldAccess = rng.Intn(2) == 0
	c.CampaignIDs = subset(rng, pool.Campaigns)
	c.CharacterIDs = subset(rng, pool.Characters)
	c.HasWorldCharacter = len(c.CharacterIDs) > 0
	if rng.Intn(2) == 0 {
		// Half the time pick from the full pool, so some active ids are
		// spoofs the context is not a member of.
		id := pick(rng, pool.Campaigns)
		c.ActiveCampaignID = &id
	}
	c.Normalize()
	if rng.Intn(6) == 0 {
		c = c.Impersonated()
	}
	return c
}

// MapMemberships is a MembershipSource backed by in-memory maps, keyed by
// principal id string.
type MapMemberships struct {
	RoleCampaigns      map[string][]ulid.ULID
	CharacterCampaigns map[string][]ulid.ULID
	Characters         map[string][]ulid.ULID
	Err                error
}

// CampaignsByRole implements access.MembershipSource.
func (m *MapMemberships) CampaignsByRole(_ context.Context, _, principalID ulid.ULID) ([]ulid.ULID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.RoleCampaigns[principalID.String()], nil
}

// CampaignsByCharacter implements access.MembershipSource.
func (m *MapMemberships) CampaignsByCharacter(_ context.Context, _, principalID ulid.ULID) ([]ulid.ULID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.CharacterCampaigns[principalID.String()], nil
}

// OwnedCharacters implements access.MembershipSource.
func (m *MapMemberships) OwnedCharacters(_ context.Context, _, principalID ulid.ULID) ([]ulid.ULID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Characters[principalID.String()], nil
}
