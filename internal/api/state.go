package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/coordinator"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// History endpoint limits.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// setStateRequest is the body for POST /api/v1/state.
type setStateRequest struct {
	State string `json:"state"`
}

// stateResponse is the body for GET and POST /api/v1/state.
type stateResponse struct {
	State string `json:"state"`
}

// handleGetState returns the current installation state.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		State: string(s.coord.Current()),
	})
}

// handleSetState requests an installation state change.
//
// The request counts as visitor activity regardless of whether the state
// actually changes, so repeatedly pressing the active state's button still
// holds off the inactivity watchdog.
func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	target := state.ParseState(req.State)
	if !target.Valid() {
		writeBadRequest(w, "unknown state: "+req.State)
		return
	}

	if s.activity != nil {
		s.activity.Touch()
	}

	err := s.coord.ChangeState(r.Context(), target, coordinator.ChangeOpts{Origin: "api"})
	switch {
	case errors.Is(err, coordinator.ErrFollowerChange):
		writeError(w, http.StatusForbidden, ErrCodeForbidden,
			"this instance is a follower; state changes must go to the controller")
		return
	case errors.Is(err, coordinator.ErrInvalidState):
		writeBadRequest(w, "unknown state: "+req.State)
		return
	case err != nil:
		s.logger.Error("state change failed", "state", target, "error", err)
		writeInternalError(w, "state change failed")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		State: string(s.coord.Current()),
	})
}

// paramsResponse is the body for GET /api/v1/state/params.
type paramsResponse struct {
	State         string             `json:"state"`
	Transitioning bool               `json:"transitioning"`
	Params        state.VisualParams `json:"params"`
	LED           state.RGBW         `json:"led"`
}

// handleGetParams returns the interpolated animation parameters at this
// instant, for external rendering surfaces that poll instead of running
// their own engine.
func (s *Server) handleGetParams(w http.ResponseWriter, _ *http.Request) {
	current := s.visual.State()
	writeJSON(w, http.StatusOK, paramsResponse{
		State:         string(current),
		Transitioning: s.visual.Transitioning(),
		Params:        s.visual.Params(),
		LED:           state.LED(current),
	})
}

// handleStateHistory returns recent state changes, newest first.
//
// Query parameters:
//   - limit: Maximum records to return (default 50, max 500)
func (s *Server) handleStateHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "state history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.history.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("state history query failed", "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	if records == nil {
		records = []coordinator.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": records,
		"count":   len(records),
	})
}
