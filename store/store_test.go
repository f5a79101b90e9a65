package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
)

func sampleRecord(title string) *models.Record {
	return &models.Record{
		NewsTitle:        title,
		NewsSummary:      "Summary",
		FeaturedImageURL: "https://images.test/mars.jpg",
		Facts: models.Facts{
			{Label: "Equatorial Diameter", Value: "6,792 km"},
			{Label: "Mass", Value: "6.39 × 10^23 kg"},
		},
		Hemispheres: []models.Hemisphere{
			{Title: "Cerberus Hemisphere Enhanced", ImageURL: "https://astro.test/cerberus.jpg"},
		},
		ScrapedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

// testStores runs fn against every implementation.
func testStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(":memory:")
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_EmptyIsNotFound(t *testing.T) {
	testStores(t, func(t *testing.T, s Store) {
		_, err := s.Latest(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ReplaceOverwrites(t *testing.T) {
	testStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Replace(ctx, sampleRecord("first")))
		require.NoError(t, s.Replace(ctx, sampleRecord("second")))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleRecord("second"), got)
	})
}

func TestStore_FactOrderSurvives(t *testing.T) {
	testStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rec := sampleRecord("x")
		rec.Facts = models.Facts{{Label: "Mass", Value: "1"}, {Label: "Diameter", Value: "2"}, {Label: "Moons", Value: "2"}}
		require.NoError(t, s.Replace(ctx, rec))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mass", "Diameter", "Moons"}, got.Facts.Labels())
	})
}

func TestMemory_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := sampleRecord("original")
	require.NoError(t, m.Replace(ctx, rec))

	rec.NewsTitle = "mutated"
	rec.Facts[0].Value = "mutated"
	got, err := m.Latest(ctx)
	require.NoError(t, err)
	got.Hemispheres[0].Title = "mutated"

	again, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord("original"), again)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mars.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, sampleRecord("persisted")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.NewsTitle)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM mars_snapshot`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.StoreConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.StoreConfig{Driver: "mongodb"})
	assert.Error(t, err)
}
