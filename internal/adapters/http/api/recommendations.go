// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	service "github.com/echosift/echosift/internal/app"
)

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps Dependencies
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps Dependencies) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps}
}

// HandleFast handles POST /api/recommendations/fast requests.
func (h *RecommendationsHandler) HandleFast(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations_fast"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req fastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.GetFastRecommendations(r.Context(), req.SeedTrackID, req.UserID, req.Limit)
	if err != nil {
		if errors.Is(err, service.ErrSeedNotFound) {
			writeError(w, http.StatusNotFound, "seed_not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleEnrich handles POST /api/recommendations/enrich/{id} requests.
func (h *RecommendationsHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations_enrich"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/recommendations/enrich/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.EnrichRecommendation(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecommendationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleGet handles GET /api/recommendations/{id} requests.
func (h *RecommendationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations_get"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/recommendations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.GetRecommendation(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecommendationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
