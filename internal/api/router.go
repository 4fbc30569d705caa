package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MereWhiplash/semfind/internal/metrics"
)

// NewRouter wires the API routes onto a chi router. A zero timeout disables
// the per-request deadline.
func NewRouter(handlers *Handlers, logger *slog.Logger, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(MaxBodySize)
	r.Use(metrics.Middleware)

	r.Get("/health", handlers.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/files", handlers.IndexFile)
		r.Get("/files", handlers.List)
		r.Post("/search", handlers.Search)
	})

	return r
}
