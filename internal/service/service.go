// Package service orchestrates nearby search, location detail assembly and
// rating submission over the geo index, the rating store and the cache.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/cache"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/config"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/timeanalysis"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Validation errors. Always a caller fault, rejected before any store or
// cache call.
var (
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrInvalidRadius     = errors.New("radius out of range")
	ErrInvalidLimit      = errors.New("limit out of range")
	ErrInvalidScore      = errors.New("score must be between 1 and 5")
	ErrRateLimited       = errors.New("too many ratings, slow down")
)

// GeoIndex returns candidate locations within a radius of a center, with
// raw distances. Failures propagate to the caller as retryable errors.
type GeoIndex interface {
	Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]models.NearbyLocation, error)
}

// LocationStore looks up base location attributes.
type LocationStore interface {
	GetLocation(ctx context.Context, id string) (*models.Location, error)
}

// RatingStore reads and appends rating history.
type RatingStore interface {
	RatingsFor(ctx context.Context, locationID string) ([]models.Rating, error)
	CreateRating(ctx context.Context, locationID string, score int, userID string) (string, error)
}

// EventPublisher fans out domain events after a successful write.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LocationService answers nearby and detail queries and accepts ratings.
type LocationService struct {
	geo       GeoIndex
	locations LocationStore
	ratings   RatingStore
	cache     cache.Store
	agg       *timeanalysis.Aggregator
	bus       EventPublisher
	cfg       *config.Config
	logger    *zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocationService(
	geo GeoIndex,
	locations LocationStore,
	ratings RatingStore,
	cacheStore cache.Store,
	bus EventPublisher,
	cfg *config.Config,
	logger *zerolog.Logger,
) *LocationService {
	return &LocationService{
		geo:       geo,
		locations: locations,
		ratings:   ratings,
		cache:     cacheStore,
		agg:       timeanalysis.New(timeanalysis.DefaultConfig()),
		bus:       bus,
		cfg:       cfg,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the per-user rating limiter, creating it on first use.
// Anonymous submissions share one bucket.
func (s *LocationService) limiterFor(userID string) *rate.Limiter {
	if userID == "" {
		userID = "anonymous"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[userID]
	if !ok {
		perMin := s.cfg.RatingsPerMinute()
		lim = rate.NewLimiter(rate.Limit(perMin)/60, perMin)
		s.limiters[userID] = lim
	}
	return lim
}
