// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/access"
	"github.com/lorekeep/lorekeep/internal/world"
)

var entityTestColumns = []string{
	"id", "world_id", "kind", "name", "description", "created_by", "created_at", "updated_at",
	"read_mode", "write_mode", "read_campaign_ids", "read_user_ids", "read_character_ids",
	"write_campaign_ids", "write_user_ids",
}

func entityRows(e *world.Entity) *pgxmock.Rows {
	return pgxmock.NewRows(entityTestColumns).AddRow(
		e.ID.String(), e.WorldID.String(), string(e.Kind), e.Name, e.Description,
		e.CreatedBy.String(), e.CreatedAt, e.UpdatedAt,
		string(e.ReadMode), string(e.WriteMode),
		idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
		idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs))
}

func testEntity(t *testing.T) *world.Entity {
	t.Helper()
	e, err := world.NewEntity(ulid.Make(), ulid.Make(), world.KindLocation, "Market Square")
	require.NoError(t, err)
	e.Description = "Stalls and rumors."
	e.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	e.UpdatedAt = e.CreatedAt
	return e
}

func TestEntityRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, e *world.Entity)
		wantErr   bool
		errIs     error
	}{
		{
			name: "existing entity",
			setupMock: func(mock pgxmock.PgxPoolIface, e *world.Entity) {
				mock.ExpectQuery(`SELECT .+ FROM entities WHERE id =`).
					WithArgs(e.ID.String()).
					WillReturnRows(entityRows(e))
			},
		},
		{
			name: "missing entity",
			setupMock: func(mock pgxmock.PgxPoolIface, e *world.Entity) {
				mock.ExpectQuery(`SELECT .+ FROM entities WHERE id =`).
					WithArgs(e.ID.String()).
					WillReturnRows(pgxmock.NewRows(entityTestColumns))
			},
			wantErr: true,
			errIs:   world.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, e *world.Entity) {
				mock.ExpectQuery(`SELECT .+ FROM entities WHERE id =`).
					WithArgs(e.ID.String()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			e := testEntity(t)
			tt.setupMock(mock, e)

			repo := NewEntityRepository(mock)
			got, err := repo.Get(context.Background(), e.ID)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, e.ID, got.ID)
				assert.Equal(t, e.WorldID, got.WorldID)
				assert.Equal(t, world.KindLocation, got.Kind)
				assert.Equal(t, access.ReadSelective, got.ReadMode)
				assert.Equal(t, access.WriteOwnerOnly, got.WriteMode)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestEntityRepository_GetMany(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	first := testEntity(t)
	second := testEntity(t)
	rows := entityRows(first).AddRow(
		second.ID.String(), second.WorldID.String(), string(second.Kind), second.Name, second.Description,
		second.CreatedBy.String(), second.CreatedAt, second.UpdatedAt,
		string(second.ReadMode), string(second.WriteMode),
		idStrings(nil), idStrings(nil), idStrings(nil), idStrings(nil), idStrings(nil))

	mock.ExpectQuery(`SELECT .+ FROM entities WHERE id = ANY`).
		WithArgs([]string{first.ID.String(), second.ID.String()}).
		WillReturnRows(rows)

	repo := NewEntityRepository(mock)
	got, err := repo.GetMany(context.Background(), []ulid.ULID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestEntityRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	e := testEntity(t)
	mock.ExpectExec(`INSERT INTO entities`).
		WithArgs(e.ID.String(), e.WorldID.String(), string(e.Kind), e.Name, e.Description,
			e.CreatedBy.String(), e.CreatedAt, e.UpdatedAt,
			string(e.ReadMode), string(e.WriteMode),
			idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
			idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewEntityRepository(mock)
	require.NoError(t, repo.Create(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestEntityRepository_Update(t *testing.T) {
	t.Run("existing entity", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		e := testEntity(t)
		mock.ExpectExec(`UPDATE entities SET`).
			WithArgs(e.ID.String(), e.Name, e.Description,
				string(e.ReadMode), string(e.WriteMode),
				idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
				idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewEntityRepository(mock)
		require.NoError(t, repo.Update(context.Background(), e))
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("missing entity", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		e := testEntity(t)
		mock.ExpectExec(`UPDATE entities SET`).
			WithArgs(e.ID.String(), e.Name, e.Description,
				string(e.ReadMode), string(e.WriteMode),
				idStrings(e.ReadCampaignIDs), idStrings(e.ReadUserIDs), idStrings(e.ReadCharacterIDs),
				idStrings(e.WriteCampaignIDs), idStrings(e.WriteUserIDs)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewEntityRepository(mock)
		err = repo.Update(context.Background(), e)
		assert.ErrorIs(t, err, world.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestEntityRepository_ListReadable(t *testing.T) {
	t.Run("unrestricted filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		e := testEntity(t)
		owner := access.Context{PrincipalID: ulid.Make(), WorldOwner: true}
		mock.ExpectQuery(`SELECT .+ FROM entities WHERE world_id = \$1 AND TRUE ORDER BY created_at DESC`).
			WithArgs(e.WorldID.String()).
			WillReturnRows(entityRows(e))

		repo := NewEntityRepository(mock)
		got, err := repo.ListReadable(context.Background(), e.WorldID, access.Compile(owner))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, e.ID, got[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("member filter binds audience args", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		e := testEntity(t)
		principal := ulid.Make()
		member := access.Context{PrincipalID: principal, WorldAccess: true}

		// createdBy, readUser, and writeUser clauses each bind the principal.
		mock.ExpectQuery(`SELECT .+ FROM entities WHERE world_id = \$1 AND \(.+\) ORDER BY created_at DESC`).
			WithArgs(e.WorldID.String(), principal.String(), principal.String(), principal.String()).
			WillReturnRows(pgxmock.NewRows(entityTestColumns))

		repo := NewEntityRepository(mock)
		got, err := repo.ListReadable(context.Background(), e.WorldID, access.Compile(member))
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}
