package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	t.Run("PublishJSONReachesSubscriber", func(t *testing.T) {
		var got RatingCreated
		bus.Subscribe(TypeRatingCreated, func(e Event) error {
			return json.Unmarshal(e.Payload, &got)
		})

		err := bus.PublishJSON(TypeRatingCreated, RatingCreated{
			RatingID:   "r1",
			LocationID: "loc1",
			Score:      4,
		})
		require.NoError(t, err)
		assert.Equal(t, "loc1", got.LocationID)
		assert.Equal(t, 4, got.Score)
	})

	t.Run("NoSubscribersIsFine", func(t *testing.T) {
		assert.NoError(t, bus.PublishJSON("other.type", struct{}{}))
	})
}
