package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AllLocations(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *mockStore) RatingsFor(ctx context.Context, locationID string) ([]models.Rating, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]models.Rating), args.Error(1)
}

func TestRatingsReport_Write(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)

	score := 4.5
	rated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.On("AllLocations", ctx).Return([]models.Location{
		{ID: "a", Name: "Downtown", Address: "1 Main St", CurrentScore: &score, LastRatedAt: &rated},
		{ID: "b", Name: "Uptown", Address: "2 High St"},
	}, nil).Once()
	store.On("RatingsFor", ctx, "a").Return([]models.Rating{{Score: 5}, {Score: 4}}, nil).Once()
	store.On("RatingsFor", ctx, "b").Return([]models.Rating{}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, NewRatingsReport(store).Write(ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ratings")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Downtown", rows[1][0])
	assert.Equal(t, "2", rows[1][2])
	assert.Equal(t, "4.5", rows[1][3])
	assert.Equal(t, "Uptown", rows[2][0])
	assert.Equal(t, "0", rows[2][2])
}
