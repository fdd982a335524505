// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/echosift/echosift/internal/app"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GetFastRecommendations(ctx context.Context, seedID, userID string, limit int) (*service.Recommendation, error)
	EnrichRecommendation(ctx context.Context, id string) (*service.Recommendation, error)
	GetRecommendation(ctx context.Context, id string) (*service.Recommendation, error)
	Search(ctx context.Context, query string, limit int) ([]model.TrackSummary, error)
	RecordSwipe(ctx context.Context, userID, direction string, track model.TrackSummary) error
	ResetHistory(ctx context.Context, userID string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	recommendationsHandler *RecommendationsHandler
	searchHandler          *SearchHandler
	swipesHandler          *SwipesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		recommendationsHandler: NewRecommendationsHandler(deps),
		searchHandler:          NewSearchHandler(deps),
		swipesHandler:          NewSwipesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/recommendations/fast", MetricsMiddleware(s.recommendationsHandler.HandleFast, "recommendations_fast"))
	mux.HandleFunc("/api/recommendations/enrich/", MetricsMiddleware(s.recommendationsHandler.HandleEnrich, "recommendations_enrich"))
	mux.HandleFunc("/api/recommendations/", MetricsMiddleware(s.recommendationsHandler.HandleGet, "recommendations_get"))
	mux.HandleFunc("/api/search", MetricsMiddleware(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("/api/swipes", MetricsMiddleware(s.swipesHandler.HandleSwipes, "swipes"))
}

// fastRequest mirrors the request schema for POST /api/recommendations/fast.
type fastRequest struct {
	SeedTrackID string `json:"seed_track_id"`
	UserID      string `json:"user_id"`
	Limit       int    `json:"limit"`
}

func (f fastRequest) validate() error {
	if strings.TrimSpace(f.SeedTrackID) == "" {
		return errors.New("missing seed_track_id")
	}
	if f.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// swipeRequest mirrors the request schema for POST /api/swipes.
type swipeRequest struct {
	UserID    string             `json:"user_id"`
	Direction string             `json:"direction"`
	Track     model.TrackSummary `json:"track"`
}

func (s swipeRequest) validate() error {
	switch {
	case strings.TrimSpace(s.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(s.Direction) == "":
		return errors.New("missing direction")
	case strings.TrimSpace(s.Track.ID) == "":
		return errors.New("missing track.id")
	case strings.TrimSpace(s.Track.Name) == "" || strings.TrimSpace(s.Track.Artist) == "":
		return errors.New("missing track.name or track.artist")
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
