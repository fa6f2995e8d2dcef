package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arbor-dev/arbor/internal/middleware/metrics"
	"github.com/arbor-dev/arbor/internal/setup"
)

// New creates and configures the chi router with all the routes.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chi_middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Anonymous reads see scores but no personal vote state
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth())
			r.Get("/threads", h.GetThreads)
			r.Get("/threads/{thread}/tree", h.GetThreadTree)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.NeedAuth())
			r.Post("/threads", h.CreateThread)
			r.Post("/threads/{thread}/vote", h.VoteThread)
			r.Patch("/threads/{thread}", h.EditThread)
			r.Delete("/threads/{thread}", h.DeleteThread)
		})
	})

	return r
}
