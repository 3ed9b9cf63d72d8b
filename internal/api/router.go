package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)
		r.Get("/mp3", s.handleMp3)
		r.Get("/sources", s.handleSources)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)
			r.Get("/{zone}", s.handleGetZone)
		})
	})

	return r
}
