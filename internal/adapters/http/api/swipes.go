// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// SwipesHandler handles swipe history requests.
type SwipesHandler struct {
	deps Dependencies
}

// NewSwipesHandler creates a new swipes handler.
func NewSwipesHandler(deps Dependencies) *SwipesHandler {
	return &SwipesHandler{deps: deps}
}

// HandleSwipes dispatches POST (record) and DELETE (reset) on /api/swipes.
func (h *SwipesHandler) HandleSwipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRecord(w, r)
	case http.MethodDelete:
		h.handleReset(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SwipesHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_swipe"
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.RecordSwipe(r.Context(), req.UserID, req.Direction, req.Track); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "recorded"})
}

func (h *SwipesHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_swipes"
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	h.deps.ResetHistory(r.Context(), userID)
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}
