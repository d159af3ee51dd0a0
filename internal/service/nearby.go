package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/cache"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/metrics"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/scoring"
)

// cachedNearby holds the full pre-truncation candidate list so requests
// with different limits share one entry.
type cachedNearby struct {
	Locations  []models.NearbyLocation `json:"locations"`
	TotalFound int                     `json:"totalFound"`
}

// FindNearby returns locations within radiusMeters of the center with
// current scores attached, sorted nearest first and capped at limit.
// TotalFound reports the uncapped candidate count.
func (s *LocationService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) (*models.NearbyResult, error) {
	if !models.ValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, lat, lng)
	}
	if minR, maxR := s.cfg.RadiusBounds(); radiusMeters < minR || radiusMeters > maxR {
		return nil, fmt.Errorf("%w: %.0fm not within [%.0f, %.0f]", ErrInvalidRadius, radiusMeters, minR, maxR)
	}
	if minL, maxL := s.cfg.LimitBounds(); limit < minL || limit > maxL {
		return nil, fmt.Errorf("%w: %d not within [%d, %d]", ErrInvalidLimit, limit, minL, maxL)
	}

	metrics.IncNearbyQuery()
	key := cache.NearbyKey(lat, lng, radiusMeters)

	var cached cachedNearby
	if s.cache.Get(ctx, key, &cached) {
		metrics.IncCacheHit("nearby")
		return capNearby(cached, limit), nil
	}
	metrics.IncCacheMiss("nearby")

	candidates, err := s.geo.Nearby(ctx, lat, lng, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	for i := range candidates {
		score, err := s.scoreFor(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		candidates[i].CurrentScore = score
	}

	// Proximity is the ordering contract; scores never reorder results.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})

	full := cachedNearby{Locations: candidates, TotalFound: len(candidates)}
	s.cache.Set(ctx, key, full, s.cfg.NearbyTTL())

	return capNearby(full, limit), nil
}

func capNearby(full cachedNearby, limit int) *models.NearbyResult {
	locs := full.Locations
	if len(locs) > limit {
		locs = locs[:limit]
	}
	if locs == nil {
		locs = []models.NearbyLocation{}
	}
	return &models.NearbyResult{Locations: locs, TotalFound: full.TotalFound}
}

type cachedScore struct {
	Score *float64 `json:"score"`
}

// scoreFor computes the current freshness score for one location through
// the short-TTL score cache. Nil means no ratings yet.
func (s *LocationService) scoreFor(ctx context.Context, locationID string) (*float64, error) {
	key := cache.ScoreKey(locationID)

	var cached cachedScore
	if s.cache.Get(ctx, key, &cached) {
		metrics.IncCacheHit("score")
		return cached.Score, nil
	}
	metrics.IncCacheMiss("score")

	history, err := s.ratings.RatingsFor(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("rating history fetch failed: %w", err)
	}

	score := scoring.Compute(history, time.Now())
	if score != nil {
		rounded := scoring.Round1(*score)
		score = &rounded
	}

	s.cache.Set(ctx, key, cachedScore{Score: score}, s.cfg.ScoreTTL())
	return score, nil
}
