// Package router sets up all HTTP routes and middleware chains for the
// pagecraft API. Write endpoints of the pipeline sit behind an optional
// per-actor rate limiter.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pagecraft/internal/handlers"
	"pagecraft/internal/middleware"
)

// New creates and returns the configured Chi router. limiter may be nil.
func New(api *handlers.API, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)

	// Ops endpoints.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/normalize", api.Normalize)
		r.Get("/sites/{slug}", api.ResolveSite)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", api.ListTemplates)
			r.Post("/", api.CreateTemplate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.GetTemplate)
				r.Delete("/", api.ArchiveTemplate)
				r.Post("/open", api.OpenTemplate)
				r.Get("/snapshots", api.ListSnapshots)
				r.Get("/history", api.History)

				// Writes that create revisions, snapshots, or publishes.
				r.Group(func(r chi.Router) {
					if limiter != nil {
						r.Use(limiter.Middleware)
					}
					r.Post("/commit", api.Commit)
					r.Post("/snapshots", api.EnsureSnapshot)
					r.Post("/publish", api.Publish)
					r.Post("/restore", api.Restore)
					r.Put("/site/domain", api.SetDomain)
				})
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
