// Package api provides HTTP router setup.
package api

import (
	"net/http"

	"github.com/factchecker/veridex/internal/config"
	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/translate"
	"github.com/factchecker/veridex/internal/verify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, engine *verify.Engine, lifecycle *verify.Lifecycle, store database.Store, translator translate.Translator) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(engine, lifecycle, store, translator)

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", handler.HealthCheck)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(store))
			r.Use(AuditMiddleware(store))
			r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

			// Claims
			r.Post("/claims", handler.SubmitClaim)
			r.Get("/claims/{id}", handler.GetClaimResult)

			// Verifications
			r.Post("/verifications", handler.CreateVerification)
			r.Get("/verifications", handler.ListVerifications)
			r.Get("/verifications/stats", handler.GetStats)
			r.Get("/verifications/{id}", handler.GetVerification)
			r.Patch("/verifications/{id}", handler.UpdateVerification)
			r.Delete("/verifications/{id}", handler.DeleteVerification)
			r.Post("/verifications/{id}/dispute", handler.DisputeVerification)
			r.Post("/verifications/{id}/review", handler.ReviewDispute)

			// Audit logs
			r.Get("/audit", handler.GetAuditLogs)
		})

		// Admin routes (API key management)
		// In production, these should be protected differently
		r.Route("/admin", func(r chi.Router) {
			r.Post("/keys", handler.CreateAPIKey)
			r.Get("/keys", handler.ListAPIKeys)
			r.Delete("/keys/{id}", handler.DeleteAPIKey)
		})
	})

	return r
}
