// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/access/accesstest"
)

func TestResolver_AdminShortCircuit(t *testing.T) {
	// Membership source that fails loudly: privileged resolution must not
	// query it at all.
	src := &accesstest.MapMemberships{Err: errors.New("must not be called")}
	resolver := access.NewResolver(src)

	principal := ulid.Make()
	c, err := resolver.Resolve(context.Background(), ulid.Make(), principal, access.WorldAccess{SystemAdmin: true}, nil)
	require.NoError(t, err)

	assert.True(t, c.SystemAdmin)
	assert.True(t, c.WorldAccess)
	assert.Equal(t, principal, c.PrincipalID)
	assert.Empty(t, c.CampaignIDs)
	assert.Empty(t, c.CharacterIDs)
}

func TestResolver_OwnerShortCircuit(t *testing.T) {
	src := &accesstest.MapMemberships{Err: errors.New("must not be called")}
	resolver := access.NewResolver(src)

	c, err := resolver.Resolve(context.Background(), ulid.Make(), ulid.Make(), access.WorldAccess{WorldOwner: true}, nil)
	require.NoError(t, err)
	assert.True(t, c.WorldOwner)
	assert.False(t, c.SystemAdmin)
}

func TestResolver_MemberContext(t *testing.T) {
	principal := ulid.Make()
	roleCampaign := ulid.Make()
	charCampaign := ulid.Make()
	character := ulid.Make()

	src := &accesstest.MapMemberships{
		RoleCampaigns:      map[string][]ulid.ULID{principal.String(): {roleCampaign, charCampaign}},
		CharacterCampaigns: map[string][]ulid.ULID{principal.String(): {charCampaign}},
		Characters:         map[string][]ulid.ULID{principal.String(): {character}},
	}
	resolver := access.NewResolver(src)

	c, err := resolver.Resolve(context.Background(), ulid.Make(), principal, access.WorldAccess{HasAccess: true}, &roleCampaign)
	require.NoError(t, err)

	assert.False(t, c.SystemAdmin)
	assert.False(t, c.WorldOwner)
	assert.True(t, c.WorldAccess)
	assert.ElementsMatch(t, []ulid.ULID{roleCampaign, charCampaign}, c.CampaignIDs, "role and character campaigns unioned, deduplicated")
	assert.Equal(t, []ulid.ULID{character}, c.CharacterIDs)
	assert.True(t, c.HasWorldCharacter)

	active, ok := c.ActiveCampaign()
	require.True(t, ok)
	assert.Equal(t, roleCampaign, active)
}

func TestResolver_DropsForeignActiveCampaign(t *testing.T) {
	principal := ulid.Make()
	member := ulid.Make()
	foreign := ulid.Make()

	src := &accesstest.MapMemberships{
		RoleCampaigns: map[string][]ulid.ULID{principal.String(): {member}},
	}
	resolver := access.NewResolver(src)

	c, err := resolver.Resolve(context.Background(), ulid.Make(), principal, access.WorldAccess{HasAccess: true}, &foreign)
	require.NoError(t, err)

	// Spoofed campaign ids are dropped silently, never an error.
	assert.Nil(t, c.ActiveCampaignID)
	_, ok := c.ActiveCampaign()
	assert.False(t, ok)
}

func TestResolver_NoCharactersMeansNoWorldCharacter(t *testing.T) {
	principal := ulid.Make()
	src := &accesstest.MapMemberships{}
	resolver := access.NewResolver(src)

	c, err := resolver.Resolve(context.Background(), ulid.Make(), principal, access.WorldAccess{}, nil)
	require.NoError(t, err)
	assert.False(t, c.HasWorldCharacter)
	assert.False(t, c.WorldAccess)
	assert.Empty(t, c.CharacterIDs)
}

func TestResolver_PropagatesLookupErrors(t *testing.T) {
	src := &accesstest.MapMemberships{Err: errors.New("connection refused")}
	resolver := access.NewResolver(src)

	_, err := resolver.Resolve(context.Background(), ulid.Make(), ulid.Make(), access.WorldAccess{HasAccess: true}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}
