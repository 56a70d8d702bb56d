package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/observability"
	"github.com/gridwatch/gridwatch/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if api := s.opts.API; api != nil {
		s.router.Route("/api/v1", func(r chi.Router) {
			r.Get("/openf1/_stats", api.Stats)
			r.Post("/openf1/_purge", api.Purge)
			r.Get("/openf1/{endpoint}", api.Records)

			r.Get("/races/podium", api.Podium)
			r.Get("/races/remaining", api.Remaining)
			r.Get("/races/results", api.Results)

			r.Get("/schedule", api.Schedule)
			r.Get("/schedule/{season}/{round}/calendar", api.Calendar)
		})
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes the signal endpoint behind a bearer token.
func (s *Server) registerAdminEndpoint() {
	logger := observability.Logger()
	if s.opts.AdminToken == "" {
		logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	logger.Info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("rate_limit", "10/min, burst 5"))
	logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
