// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access_test

import (
	"math/rand"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/access/accesstest"
)

// TestFilterMatchesCanRead is the equivalence property: for every record and
// context, the compiled filter matches a record exactly when CanRead accepts
// it. Records are normalized the way every write path normalizes them.
func TestFilterMatchesCanRead(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := accesstest.NewIDPool(4)
	world := ulid.Make()

	for i := range 5000 {
		rec := accesstest.RandomRecord(rng, pool, world)
		c := accesstest.RandomContext(rng, pool)
		filter := access.Compile(c)

		want := access.CanRead(rec, c)
		got := filter.Matches(rec)
		if want != got {
			t.Fatalf("iteration %d: CanRead=%v but filter.Matches=%v\nrecord: %+v\ncontext: %+v",
				i, want, got, rec, c)
		}
	}
}

// TestWriteImpliesRead is the containment property: any context that can
// write a record can also read it.
func TestWriteImpliesRead(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pool := accesstest.NewIDPool(4)
	world := ulid.Make()

	for i := range 5000 {
		rec := accesstest.RandomRecord(rng, pool, world)
		c := accesstest.RandomContext(rng, pool)
		if access.CanWrite(rec, c) && !access.CanRead(rec, c) {
			t.Fatalf("iteration %d: CanWrite without CanRead\nrecord: %+v\ncontext: %+v", i, rec, c)
		}
	}
}

func TestCompile_Unrestricted(t *testing.T) {
	filter := access.Compile(access.Context{WorldOwner: true})
	require.True(t, filter.Unrestricted())

	sql, args := filter.SQL(1)
	assert.Equal(t, "TRUE", sql)
	assert.Empty(t, args)

	rec := access.Record{ID: ulid.Make()}
	rec.ReadMode = access.ReadHidden
	rec.WriteMode = access.WriteOwnerOnly
	rec.Normalize()
	assert.True(t, filter.Matches(rec))
}

func TestCompile_EmptyContextSelectsNothing(t *testing.T) {
	// Neither identity nor world access: the empty disjunction must be
	// always-false, not always-true.
	filter := access.Compile(access.Context{})
	require.False(t, filter.Unrestricted())

	sql, args := filter.SQL(1)
	assert.Equal(t, "FALSE", sql)
	assert.Empty(t, args)

	rec := access.Record{ID: ulid.Make()}
	rec.ReadMode = access.ReadGlobal
	rec.WriteMode = access.WriteGlobal
	rec.Normalize()
	assert.False(t, filter.Matches(rec))
}

func TestFilterSQL_ClauseRendering(t *testing.T) {
	principal := ulid.Make()
	campaign := ulid.Make()
	character := ulid.Make()

	c := access.Context{
		PrincipalID:       principal,
		WorldAccess:       true,
		CampaignIDs:       []ulid.ULID{campaign},
		CharacterIDs:      []ulid.ULID{character},
		HasWorldCharacter: true,
		ActiveCampaignID:  &campaign,
	}
	filter := access.Compile(c)
	sql, args := filter.SQL(3)

	assert.Contains(t, sql, "created_by = $3")
	assert.Contains(t, sql, "(read_mode = 'global' OR write_mode = 'global')")
	assert.Contains(t, sql, "(read_mode = 'selective' AND $4 = ANY(read_campaign_ids))")
	assert.Contains(t, sql, "$5 = ANY(write_campaign_ids)")
	assert.Contains(t, sql, "(read_mode = 'selective' AND read_character_ids && $6)")
	assert.Contains(t, sql, "(read_mode = 'selective' AND $7 = ANY(read_user_ids))")
	assert.Contains(t, sql, "$8 = ANY(write_user_ids)")

	require.Len(t, args, 6)
	assert.Equal(t, principal.String(), args[0])
	assert.Equal(t, campaign.String(), args[1])
	assert.Equal(t, campaign.String(), args[2])
	assert.Equal(t, []string{character.String()}, args[3])
	assert.Equal(t, principal.String(), args[4])
	assert.Equal(t, principal.String(), args[5])
}

func TestFilterSQL_PlaceholderNumbering(t *testing.T) {
	principal := ulid.Make()
	filter := access.Compile(access.Context{PrincipalID: principal})

	sql, args := filter.SQL(1)
	assert.Equal(t, "(created_by = $1 OR (read_mode = 'selective' AND $2 = ANY(read_user_ids)) OR $3 = ANY(write_user_ids))", sql)
	assert.Len(t, args, 3)
}

func TestFilterSQL_ImpersonatedDropsCreatorClause(t *testing.T) {
	principal := ulid.Make()
	filter := access.Compile(access.Context{PrincipalID: principal}.Impersonated())

	sql, _ := filter.SQL(1)
	assert.NotContains(t, sql, "created_by")
	assert.Contains(t, sql, "read_user_ids")
}
