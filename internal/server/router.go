// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stepup-auth-gateway/internal/server/handler"
	"stepup-auth-gateway/internal/server/middleware"
)

// Deps carries the wired handlers and cross-cutting pieces the router mounts.
type Deps struct {
	Auth     *handler.AuthHandler
	Decision *handler.DecisionHandler
	Health   *handler.HealthHandler
	Tokens   middleware.TokenValidator
	Registry *prometheus.Registry
}

// NewRouter mounts all routes. Decision endpoints sit behind token auth;
// health and metrics are open.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", d.Health.Check)
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Tokens))
			r.Get("/auth/me", d.Auth.Me)
			r.Post("/transactions/authorize", d.Decision.Authorize)
			r.Post("/step-up/verify", d.Decision.Verify)
		})
	})

	return r
}
