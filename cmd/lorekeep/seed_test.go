// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIDs_ValidAndDistinct(t *testing.T) {
	raw := []string{seedWorldID, seedCampaignID, seedSquareID, seedVaultID}
	seen := make(map[ulid.ULID]struct{}, len(raw))

	for _, s := range raw {
		id, err := ulid.Parse(s)
		require.NoError(t, err, "seed id %q must be a canonical ULID", s)
		_, dup := seen[id]
		assert.False(t, dup, "seed id %q repeats", s)
		seen[id] = struct{}{}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}
