package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/cache"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/metrics"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/scoring"
)

// GetDetail assembles the cached read model for one location: base
// attributes, full rating history, plain-mean summary and time-of-day
// recommendations. Returns models.ErrNotFound for an unknown id.
func (s *LocationService) GetDetail(ctx context.Context, locationID string) (*models.LocationDetail, error) {
	metrics.IncDetailQuery()
	key := cache.DetailKey(locationID)

	var cached models.LocationDetail
	if s.cache.Get(ctx, key, &cached) {
		metrics.IncCacheHit("detail")
		return &cached, nil
	}
	metrics.IncCacheMiss("detail")

	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("location fetch failed: %w", err)
	}

	history, err := s.ratings.RatingsFor(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("rating history fetch failed: %w", err)
	}

	score, err := s.scoreFor(ctx, locationID)
	if err != nil {
		return nil, err
	}
	loc.CurrentScore = score

	recs := s.recommendationsFor(ctx, locationID, history, loc.Hours.Timezone)

	detail := models.LocationDetail{
		Location:        *loc,
		Ratings:         history,
		TotalRatings:    len(history),
		AverageScore:    plainMean(history),
		Recommendations: recs,
		HasReliableData: s.agg.HasReliableData(recs),
		BestPeriod:      s.agg.BestPeriod(recs),
	}

	s.cache.Set(ctx, key, detail, s.cfg.DetailTTL())
	return &detail, nil
}

// RatingSummary is the lightweight per-location aggregate, cached under its
// own key.
type RatingSummary struct {
	LocationID   string  `json:"locationId"`
	TotalRatings int     `json:"totalRatings"`
	AverageScore float64 `json:"averageScore"`
}

// GetRatingSummary returns the unweighted count/average for a location.
func (s *LocationService) GetRatingSummary(ctx context.Context, locationID string) (*RatingSummary, error) {
	key := cache.SummaryKey(locationID)

	var cached RatingSummary
	if s.cache.Get(ctx, key, &cached) {
		metrics.IncCacheHit("summary")
		return &cached, nil
	}
	metrics.IncCacheMiss("summary")

	if _, err := s.locations.GetLocation(ctx, locationID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("location fetch failed: %w", err)
	}

	history, err := s.ratings.RatingsFor(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("rating history fetch failed: %w", err)
	}

	summary := RatingSummary{
		LocationID:   locationID,
		TotalRatings: len(history),
		AverageScore: plainMean(history),
	}
	s.cache.Set(ctx, key, summary, s.cfg.SummaryTTL())
	return &summary, nil
}

// recommendationsFor runs the time-of-day aggregation through its own
// long-TTL cache entry. The buckets only move when a rating lands, and
// rating writes delete this key.
func (s *LocationService) recommendationsFor(ctx context.Context, locationID string, history []models.Rating, timezone string) []models.TimeRecommendation {
	key := cache.TimeAnalysisKey(locationID)

	var cached []models.TimeRecommendation
	if s.cache.Get(ctx, key, &cached) {
		metrics.IncCacheHit("times")
		return cached
	}
	metrics.IncCacheMiss("times")

	recs := s.agg.Analyze(history, timezone)
	s.cache.Set(ctx, key, recs, s.cfg.TimeAnalysisTTL())
	return recs
}

// plainMean is the unweighted arithmetic mean, rounded to two decimals.
// Zero for an empty history; deliberately distinct from the recency-
// weighted score used for ranking.
func plainMean(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += float64(r.Score)
	}
	return scoring.Round2(sum / float64(len(ratings)))
}
