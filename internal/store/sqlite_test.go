package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/district-insights/crimemap/internal/config"
	"github.com/district-insights/crimemap/internal/dataset"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var storeRecords = []dataset.Record{
	{Latitude: 38.90, Longitude: -77.01, Offense: dataset.OffenseHomicide, Method: dataset.MethodGun, StartDate: "2017-01-04 10:00"},
	{Latitude: 38.91, Longitude: -77.02, Offense: dataset.OffenseHomicide, Method: dataset.MethodKnife, StartDate: "2017-02-11 22:15"},
	{Latitude: 38.88, Longitude: -76.99, Offense: dataset.OffenseSexAbuse, Method: dataset.MethodOthers, StartDate: "2017-03-01 03:30"},
}

func TestSQLiteStore_ReplaceAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.ReplaceRecords(ctx, "crime.csv", storeRecords, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "crime.csv", run.Source)
	assert.Equal(t, 3, run.Loaded)
	assert.Equal(t, 2, run.Dropped)

	got, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, storeRecords, got)
}

func TestSQLiteStore_ReplaceSwapsRecordSet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.ReplaceRecords(ctx, "first.csv", storeRecords, 0)
	require.NoError(t, err)
	_, err = s.ReplaceRecords(ctx, "second.csv", storeRecords[:1], 0)
	require.NoError(t, err)

	got, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestSQLiteStore_Stats(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.ReplaceRecords(ctx, "crime.csv", storeRecords, 0)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 2, stats.ByOffense[dataset.OffenseHomicide])
	assert.Equal(t, 1, stats.ByOffense[dataset.OffenseSexAbuse])
	assert.Equal(t, 1, stats.ByMethod[dataset.MethodGun])
	assert.InDelta(t, -77.02, stats.MinLon, 1e-9)
	assert.InDelta(t, 38.91, stats.MaxLat, 1e-9)
}

func TestSQLiteStore_StatsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Records)
	assert.Empty(t, stats.ByOffense)
}

func TestSQLiteStore_ListRecordsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	got, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNew_DefaultsToSQLite(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{
		SQLitePath: filepath.Join(t.TempDir(), "default.db"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
