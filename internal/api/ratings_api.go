package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/metrics"
)

// CreateRatingRequest is the body for POST /api/v1/locations/{id}/ratings.
type CreateRatingRequest struct {
	Score  int    `json:"score"`
	UserID string `json:"user_id,omitempty"`
}

// CreateRatingResponse acknowledges a stored rating.
type CreateRatingResponse struct {
	Success  bool   `json:"success"`
	RatingID string `json:"rating_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleCreateRating stores a rating for a location. The response is only
// sent after the location's cached views have been invalidated.
func (s *HTTPServer) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_rating")
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "location id is required")
		return
	}

	var req CreateRatingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateRatingResponse{Error: "invalid JSON body"})
		return
	}

	ratingID, err := s.svc.SubmitRating(r.Context(), id, req.Score, req.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateRatingResponse{Success: true, RatingID: ratingID})
}

// handleExport streams the ratings report workbook.
// GET /api/v1/ratings/export
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")

	filename := fmt.Sprintf("ratings_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.report.Write(r.Context(), w); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}
