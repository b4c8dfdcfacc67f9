// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/duckdb/duckdb-go/v2"

	"wisegate/coordinates"
	"wisegate/dremio"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE spatial_objects (
			thematicIdIdentifier VARCHAR,
			thematicIdIdentifierScheme VARCHAR,
			lat DOUBLE,
			lon DOUBLE,
			monitoringSiteIdentifier VARCHAR,
			monitoringSiteName VARCHAR,
			countryCode VARCHAR
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO spatial_objects VALUES
		('FRFR05026000', 'euMonitoringSiteCode', 48.85, 2.35, 'FRFR05026000', 'La Seine à Paris', 'FR'),
		('FRFR05026999', 'euMonitoringSiteCode', 48.80, 2.40, 'FRFR05026999', 'La Seine amont', 'FR'),
		('ES020ESBT000099', 'euMonitoringSiteCode', 41.60, -0.90, 'ES020ESBT000099', 'Embalse', 'ES'),
		('DE_RBD_1000', 'euRBDCode', 50.10, 7.60, 'DE_RBD_1000', 'Rhein', 'DE')`)
	require.NoError(t, err)

	return db
}

func TestStoreRewritesRemoteTableName(t *testing.T) {
	store := NewStore(openTestDB(t))

	result, err := store.Execute(context.Background(),
		"SELECT monitoringSiteName FROM "+coordinates.SpatialTable+" WHERE thematicIdIdentifier = ?",
		"FRFR05026000")

	require.NoError(t, err)
	records := result.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "La Seine à Paris", records[0]["monitoringSiteName"])
}

func TestStoreEmptyResult(t *testing.T) {
	store := NewStore(openTestDB(t))

	result, err := store.Execute(context.Background(),
		"SELECT * FROM spatial_objects WHERE thematicIdIdentifier = ?", "NOPE")

	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestStoreQueryErrorClassified(t *testing.T) {
	store := NewStore(openTestDB(t))

	_, err := store.Execute(context.Background(), "SELECT * FROM no_such_table")

	require.Error(t, err)

	var qerr *dremio.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, dremio.ErrorTypeQuery, qerr.Type)
	assert.False(t, dremio.IsUnavailable(err))
}

// The resolver cascade runs unchanged against a snapshot.
func TestResolverOverSnapshot(t *testing.T) {
	resolver := coordinates.NewResolver(NewStore(openTestDB(t)))

	t.Run("exact match", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), "FRFR05026000", "FR")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1.0, got.MatchConfidence)
		assert.Equal(t, "La Seine à Paris", got.MonitoringSiteName)
	})

	t.Run("prefix match", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), "ES020ESBT000012", "ES")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 0.8, got.MatchConfidence)
		assert.Equal(t, "ES020ESBT000099", got.ThematicIdentifier)
	})

	t.Run("country fallback on alternate scheme", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), "DE0000000X", "DE")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 0.2, got.MatchConfidence)
		assert.Equal(t, "Rhein", got.MonitoringSiteName)
	})

	t.Run("not found", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), "ZZ9999999", "ZZ")

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("deterministic prefix pick", func(t *testing.T) {
		// Two FR sites share the FRFR05 prefix; ORDER BY picks the
		// lexicographically first regardless of insert order.
		got, err := resolver.Resolve(context.Background(), "FRFR05000000", "FR")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "FRFR05026000", got.ThematicIdentifier)
	})
}
