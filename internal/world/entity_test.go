// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package world

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/access"
)

func TestEntityKind_IsValid(t *testing.T) {
	assert.True(t, KindEntity.IsValid())
	assert.True(t, KindLocation.IsValid())
	assert.False(t, EntityKind("npc").IsValid())
	assert.False(t, EntityKind("").IsValid())
}

func TestMemberRole_IsValid(t *testing.T) {
	assert.True(t, RoleGameMaster.IsValid())
	assert.True(t, RolePlayer.IsValid())
	assert.False(t, MemberRole("observer").IsValid())
}

func TestNewEntity_Defaults(t *testing.T) {
	worldID := ulid.Make()
	creatorID := ulid.Make()

	e, err := NewEntity(worldID, creatorID, KindLocation, "Market Square")
	require.NoError(t, err)

	assert.False(t, e.ID.IsZero())
	assert.Equal(t, worldID, e.WorldID)
	assert.Equal(t, creatorID, e.CreatedBy)
	assert.Equal(t, KindLocation, e.Kind)
	assert.False(t, e.CreatedAt.IsZero())

	// New records start closed: selective read, owner-only write.
	assert.Equal(t, access.ReadSelective, e.ReadMode)
	assert.Equal(t, access.WriteOwnerOnly, e.WriteMode)
	assert.Empty(t, e.ReadCampaignIDs)
	assert.Empty(t, e.WriteUserIDs)
}

func TestNewEntity_RejectsInvalidInput(t *testing.T) {
	_, err := NewEntity(ulid.Make(), ulid.Make(), KindEntity, "")
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestEntity_Validate(t *testing.T) {
	valid := func() *Entity {
		e, err := NewEntity(ulid.Make(), ulid.Make(), KindEntity, "Sealed Vault")
		require.NoError(t, err)
		return e
	}

	tests := []struct {
		name      string
		mutate    func(e *Entity)
		wantField string
	}{
		{
			name:   "valid entity",
			mutate: func(_ *Entity) {},
		},
		{
			name:      "zero id",
			mutate:    func(e *Entity) { e.ID = ulid.ULID{} },
			wantField: "id",
		},
		{
			name:      "zero world id",
			mutate:    func(e *Entity) { e.WorldID = ulid.ULID{} },
			wantField: "world_id",
		},
		{
			name:      "unknown kind",
			mutate:    func(e *Entity) { e.Kind = "artifact" },
			wantField: "kind",
		},
		{
			name:      "empty name",
			mutate:    func(e *Entity) { e.Name = "" },
			wantField: "name",
		},
		{
			name:      "invalid utf8 name",
			mutate:    func(e *Entity) { e.Name = "vault\xff" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(e *Entity) { e.Name = strings.Repeat("x", MaxEntityNameLength+1) },
			wantField: "name",
		},
		{
			name:      "description too long",
			mutate:    func(e *Entity) { e.Description = strings.Repeat("x", MaxEntityDescriptionLength+1) },
			wantField: "description",
		},
		{
			name:      "unknown read mode",
			mutate:    func(e *Entity) { e.ReadMode = "public" },
			wantField: "read_mode",
		},
		{
			name:      "unknown write mode",
			mutate:    func(e *Entity) { e.WriteMode = "anyone" },
			wantField: "write_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := e.Validate()

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestEntity_AccessRecord(t *testing.T) {
	e, err := NewEntity(ulid.Make(), ulid.Make(), KindEntity, "Sealed Vault")
	require.NoError(t, err)
	campaignID := ulid.Make()
	e.ReadCampaignIDs = []ulid.ULID{campaignID}
	e.Normalize()

	rec := e.AccessRecord()
	assert.Equal(t, e.ID, rec.ID)
	assert.Equal(t, e.WorldID, rec.WorldID)
	assert.Equal(t, e.CreatedBy, rec.CreatedBy)
	assert.Equal(t, e.Fields, rec.Fields)
	assert.Equal(t, []ulid.ULID{campaignID}, rec.ReadCampaignIDs)
}
