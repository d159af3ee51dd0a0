package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedLocation(t *testing.T, db *DB, name string, lat, lng float64) *models.Location {
	t.Helper()
	loc := &models.Location{
		Name:      name,
		Address:   "123 Main St",
		Latitude:  lat,
		Longitude: lng,
		Hours: models.OperatingHours{
			Monday:   models.DayHours{Open: "08:00", Close: "22:00"},
			Sunday:   models.DayHours{Closed: true},
			Timezone: "America/New_York",
		},
	}
	require.NoError(t, db.CreateLocation(context.Background(), loc))
	return loc
}

func TestLocationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Downtown", 40.7128, -74.0060)

	got, err := db.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", got.Name)
	assert.Equal(t, 40.7128, got.Latitude)
	assert.Equal(t, "08:00", got.Hours.Monday.Open)
	assert.True(t, got.Hours.Sunday.Closed)
	assert.Equal(t, "America/New_York", got.Hours.Timezone)
	assert.Nil(t, got.CurrentScore)
	assert.False(t, got.RecentlyRated)
}

func TestGetLocation_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetLocation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLocation_RejectsInvalidCoordinate(t *testing.T) {
	db := newTestDB(t)
	err := db.CreateLocation(context.Background(), &models.Location{Name: "Bad", Latitude: 91})
	assert.Error(t, err)
}

func TestNearby(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	center := seedLocation(t, db, "Center", 40.7128, -74.0060)
	near := seedLocation(t, db, "Near", 40.7200, -74.0060)   // ~800m north
	far := seedLocation(t, db, "Far", 40.8000, -74.0060)     // ~9.7km north
	seedLocation(t, db, "Remote", 51.5074, -0.1278)          // London

	t.Run("WithinRadiusSortedByDistance", func(t *testing.T) {
		got, err := db.Nearby(ctx, 40.7128, -74.0060, 2000)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, center.ID, got[0].ID)
		assert.Equal(t, near.ID, got[1].ID)
		assert.Less(t, got[0].DistanceMeters, got[1].DistanceMeters)
		assert.InDelta(t, 800, got[1].DistanceMeters, 100)
	})

	t.Run("WiderRadius", func(t *testing.T) {
		got, err := db.Nearby(ctx, 40.7128, -74.0060, 15000)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, far.ID, got[2].ID)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		got, err := db.Nearby(ctx, -33.8688, 151.2093, 5000)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRatings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Rated", 40.0, -74.0)

	t.Run("CreateAndList", func(t *testing.T) {
		id1, err := db.CreateRating(ctx, loc.ID, 5, "user-1")
		require.NoError(t, err)
		id2, err := db.CreateRating(ctx, loc.ID, 3, "")
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)

		ratings, err := db.RatingsFor(ctx, loc.ID)
		require.NoError(t, err)
		require.Len(t, ratings, 2)
		for _, r := range ratings {
			assert.Equal(t, loc.ID, r.LocationID)
			assert.False(t, r.CreatedAt.IsZero())
		}
	})

	t.Run("InvalidScore", func(t *testing.T) {
		_, err := db.CreateRating(ctx, loc.ID, 0, "")
		assert.ErrorIs(t, err, ErrInvalidScore)
		_, err = db.CreateRating(ctx, loc.ID, 6, "")
		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("UnknownLocation", func(t *testing.T) {
		_, err := db.CreateRating(ctx, "missing", 4, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		other := seedLocation(t, db, "Fresh", 41.0, -74.0)
		ratings, err := db.RatingsFor(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, ratings)
	})

	t.Run("DeleteRating", func(t *testing.T) {
		id, err := db.CreateRating(ctx, loc.ID, 4, "")
		require.NoError(t, err)
		require.NoError(t, db.DeleteRating(ctx, id))
		assert.ErrorIs(t, db.DeleteRating(ctx, id), ErrNotFound)
	})
}

func TestUpdateDenormalizedScore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := seedLocation(t, db, "Scored", 40.0, -74.0)

	score := 4.2
	now := time.Now().UTC()
	require.NoError(t, db.UpdateDenormalizedScore(ctx, loc.ID, &score, now))

	got, err := db.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentScore)
	assert.Equal(t, 4.2, *got.CurrentScore)
	require.NotNil(t, got.LastRatedAt)
	assert.True(t, got.RecentlyRated)
}

func TestHaversine(t *testing.T) {
	// NYC to London, roughly 5570km.
	d := Haversine(40.7128, -74.0060, 51.5074, -0.1278)
	assert.InDelta(t, 5570000, d, 20000)

	assert.Zero(t, Haversine(40.0, -74.0, 40.0, -74.0))
}
