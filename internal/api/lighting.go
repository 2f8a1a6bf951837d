package api

import (
	"net/http"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/lighting"
)

// handleLightingConnect opens the serial link to the lighting device.
func (s *Server) handleLightingConnect(w http.ResponseWriter, _ *http.Request) {
	if s.lighting == nil {
		writeNotFound(w, "lighting is not enabled")
		return
	}

	if err := s.lighting.Connect(); err != nil {
		s.logger.Error("lighting connect failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeInternal,
			"could not connect to lighting device")
		return
	}

	writeJSON(w, http.StatusOK, s.lighting.Status())
}

// handleLightingDisconnect closes the serial link to the lighting device.
func (s *Server) handleLightingDisconnect(w http.ResponseWriter, _ *http.Request) {
	if s.lighting == nil {
		writeNotFound(w, "lighting is not enabled")
		return
	}

	if err := s.lighting.Disconnect(); err != nil {
		s.logger.Error("lighting disconnect failed", "error", err)
		writeInternalError(w, "could not disconnect lighting device")
		return
	}

	writeJSON(w, http.StatusOK, s.lighting.Status())
}

// handleLightingStatus reports the current link and fade status.
func (s *Server) handleLightingStatus(w http.ResponseWriter, _ *http.Request) {
	if s.lighting == nil {
		writeJSON(w, http.StatusOK, lighting.Status{})
		return
	}
	writeJSON(w, http.StatusOK, s.lighting.Status())
}
