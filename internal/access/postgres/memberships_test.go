// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idRows(column string, ids ...ulid.ULID) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{column})
	for _, id := range ids {
		rows.AddRow(id.String())
	}
	return rows
}

func TestMemberships_CampaignsByRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	worldID := ulid.Make()
	principalID := ulid.Make()
	campaignID := ulid.Make()

	mock.ExpectQuery(`SELECT cm.campaign_id`).
		WithArgs(worldID.String(), principalID.String()).
		WillReturnRows(idRows("campaign_id", campaignID))

	m := NewMemberships(mock)
	got, err := m.CampaignsByRole(context.Background(), worldID, principalID)
	require.NoError(t, err)
	assert.Equal(t, []ulid.ULID{campaignID}, got)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestMemberships_CampaignsByCharacter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	worldID := ulid.Make()
	principalID := ulid.Make()
	campaignID := ulid.Make()

	mock.ExpectQuery(`SELECT DISTINCT ch.campaign_id`).
		WithArgs(worldID.String(), principalID.String()).
		WillReturnRows(idRows("campaign_id", campaignID))

	m := NewMemberships(mock)
	got, err := m.CampaignsByCharacter(context.Background(), worldID, principalID)
	require.NoError(t, err)
	assert.Equal(t, []ulid.ULID{campaignID}, got)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestMemberships_OwnedCharacters(t *testing.T) {
	t.Run("characters found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		worldID := ulid.Make()
		principalID := ulid.Make()
		first := ulid.Make()
		second := ulid.Make()

		mock.ExpectQuery(`SELECT ch.id`).
			WithArgs(worldID.String(), principalID.String()).
			WillReturnRows(idRows("id", first, second))

		m := NewMemberships(mock)
		got, err := m.OwnedCharacters(context.Background(), worldID, principalID)
		require.NoError(t, err)
		assert.Equal(t, []ulid.ULID{first, second}, got)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		worldID := ulid.Make()
		principalID := ulid.Make()
		mock.ExpectQuery(`SELECT ch.id`).
			WithArgs(worldID.String(), principalID.String()).
			WillReturnError(errors.New("connection refused"))

		m := NewMemberships(mock)
		_, err = m.OwnedCharacters(context.Background(), worldID, principalID)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}
