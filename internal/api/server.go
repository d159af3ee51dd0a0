package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/service"

	"github.com/rs/zerolog"
)

// LocationQueries is the engine surface the handlers call into.
type LocationQueries interface {
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) (*models.NearbyResult, error)
	GetDetail(ctx context.Context, locationID string) (*models.LocationDetail, error)
	GetRatingSummary(ctx context.Context, locationID string) (*service.RatingSummary, error)
	SubmitRating(ctx context.Context, locationID string, score int, userID string) (string, error)
}

// ReportWriter produces the ratings export workbook.
type ReportWriter interface {
	Write(ctx context.Context, w io.Writer) error
}

// HTTPServer serves the public API.
type HTTPServer struct {
	server *http.Server
	svc    LocationQueries
	report ReportWriter
	apiKey string
	logger *zerolog.Logger
}

func NewHTTPServer(port int, apiKey string, svc LocationQueries, report ReportWriter, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:    svc,
		report: report,
		apiKey: apiKey,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/locations/nearby", s.handleNearby)
	mux.HandleFunc("GET /api/v1/locations/{id}", s.handleDetail)
	mux.HandleFunc("GET /api/v1/locations/{id}/summary", s.handleSummary)
	mux.HandleFunc("POST /api/v1/locations/{id}/ratings", s.handleCreateRating)
	mux.HandleFunc("GET /api/v1/ratings/export", s.requireAPIKey(s.handleExport))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// requireAPIKey guards operator-only endpoints.
func (s *HTTPServer) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
