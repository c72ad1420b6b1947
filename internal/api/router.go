package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The paths match what the TRMNL plugin registration expects:
// /install as the Installation URL, /installed as the success webhook,
// /manage as the Plugin Management URL, /markup as the Plugin Markup
// URL, /uninstalled as the Uninstallation Webhook URL, and /kb as the
// Knowledge Base URL.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Installation lifecycle
	r.Get("/install", s.handleInstall)
	r.Post("/installed", s.handleInstalled)
	r.Post("/uninstalled", s.handleUninstalled)

	// Operator-facing settings form
	r.Get("/manage", s.handleManage)
	r.Post("/manage", s.handleManage)

	// Render endpoint the hub polls
	r.Post("/markup", s.handleMarkup)

	// Static pages and probes
	r.Get("/kb", s.handleKB)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// handleHealthz returns the server health status, including database
// reachability when a health checker is configured.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "database unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
