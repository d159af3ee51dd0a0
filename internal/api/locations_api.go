package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/metrics"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/service"
)

const (
	defaultRadiusMeters = 5000.0
	defaultLimit        = 20
)

// handleNearby returns locations near a point with current scores.
// GET /api/v1/locations/nearby?lat=..&lng=..&radius=..&limit=..
func (s *HTTPServer) handleNearby(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("nearby")
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng is required and must be a number")
		return
	}

	radius := defaultRadiusMeters
	if v := q.Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "radius must be a number")
			return
		}
	}

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
	}

	result, err := s.svc.FindNearby(r.Context(), lat, lng, radius, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDetail returns the full read model for one location.
// GET /api/v1/locations/{id}
func (s *HTTPServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("detail")
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "location id is required")
		return
	}

	detail, err := s.svc.GetDetail(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleSummary returns the unweighted rating count/average.
// GET /api/v1/locations/{id}/summary
func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("summary")
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "location id is required")
		return
	}

	summary, err := s.svc.GetRatingSummary(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps engine errors onto HTTP statuses. Validation is
// the caller's fault; store failures are retryable and surfaced as 503.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCoordinate),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "location not found")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry later")
	}
}
