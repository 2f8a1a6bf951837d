package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// Installation state
		r.Route("/state", func(r chi.Router) {
			r.Get("/", s.handleGetState)
			r.Post("/", s.handleSetState)
			r.Get("/params", s.handleGetParams)
			r.Get("/history", s.handleStateHistory)
		})

		// LED strip link
		r.Route("/lighting", func(r chi.Router) {
			r.Post("/connect", s.handleLightingConnect)
			r.Post("/disconnect", s.handleLightingDisconnect)
			r.Get("/status", s.handleLightingStatus)
		})

		// WebSocket for real-time state broadcasts
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"role":    string(s.coord.Role()),
		"state":   string(s.coord.Current()),
	})
}
