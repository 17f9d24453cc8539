package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(g.instrument)

	// Public: no auth required.
	r.Get("/health", g.handleHealth())
	if g.metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", g.handleGenerate())
		r.Post("/stream", g.handleStream())
		r.Get("/ws/stream", g.handleWSStream())
		r.Post("/embed", g.handleEmbed())
	})

	// Operator endpoints. Guarded only when auth is configured.
	r.Route("/api", func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.logger))
		}
		r.Get("/usage", g.handleUsage())
		r.Get("/status", g.handleStatus())
	})

	return r
}
