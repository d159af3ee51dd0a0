package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/cache"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/events"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/metrics"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/scoring"
)

// SubmitRating validates and stores a rating, then synchronously
// invalidates every cached view of the location before acknowledging the
// write. Nearby results are keyed by geography and left to their TTL.
func (s *LocationService) SubmitRating(ctx context.Context, locationID string, score int, userID string) (string, error) {
	if !models.ValidScore(score) {
		return "", fmt.Errorf("%w: got %d", ErrInvalidScore, score)
	}
	if !s.limiterFor(userID).Allow() {
		return "", ErrRateLimited
	}

	ratingID, err := s.ratings.CreateRating(ctx, locationID, score, userID)
	if err != nil {
		return "", err
	}

	s.invalidateLocation(ctx, locationID)

	metrics.IncRatingCreated(strconv.Itoa(score))
	if err := s.bus.PublishJSON(events.TypeRatingCreated, events.RatingCreated{
		RatingID:   ratingID,
		LocationID: locationID,
		Score:      score,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("location_id", locationID).Msg("failed to publish rating event")
	}

	return ratingID, nil
}

// invalidateLocation fires the point deletes for one location's cached
// views. Idempotent; cache failures degrade to recomputation on next read.
func (s *LocationService) invalidateLocation(ctx context.Context, locationID string) {
	s.cache.Invalidate(ctx,
		cache.DetailKey(locationID),
		cache.ScoreKey(locationID),
		cache.SummaryKey(locationID),
		cache.TimeAnalysisKey(locationID),
	)
}

// DenormalizedScoreUpdater writes recomputed scores back to the location
// row. Implemented by the SQLite store.
type DenormalizedScoreUpdater interface {
	UpdateDenormalizedScore(ctx context.Context, locationID string, score *float64, lastRatedAt time.Time) error
}

// RegisterRecompute subscribes the denormalized-score recomputation to
// rating.created events. Invalidation stays synchronous in the write path;
// only the locations-table writeback rides the bus.
func (s *LocationService) RegisterRecompute(bus *events.EventBus, store DenormalizedScoreUpdater) {
	bus.Subscribe(events.TypeRatingCreated, func(e events.Event) error {
		var payload events.RatingCreated
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			s.logger.Error().Err(err).Msg("bad rating event payload")
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		history, err := s.ratings.RatingsFor(ctx, payload.LocationID)
		if err != nil {
			s.logger.Error().Err(err).Str("location_id", payload.LocationID).Msg("recompute fetch failed")
			return err
		}

		score := scoring.Compute(history, time.Now())
		if score != nil {
			rounded := scoring.Round1(*score)
			score = &rounded
		}

		if err := store.UpdateDenormalizedScore(ctx, payload.LocationID, score, payload.CreatedAt); err != nil {
			s.logger.Error().Err(err).Str("location_id", payload.LocationID).Msg("recompute writeback failed")
			return err
		}
		return nil
	})
}
