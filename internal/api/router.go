// Package api provides the HTTP API for AccessRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/api/handler"
	"github.com/accessroute/accessroute/internal/api/middleware"
	"github.com/accessroute/accessroute/internal/provider/resilience"
	"github.com/accessroute/accessroute/internal/trip"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Planner   *trip.Planner
	Registry  *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequireJSON)
	r.Use(middleware.ContentTypeJSON)

	tripHandler := handler.NewTripHandler(cfg.Planner)
	weatherHandler := handler.NewWeatherHandler(cfg.Planner)
	preferencesHandler := handler.NewPreferencesHandler(cfg.Planner)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (no rate limit, probed by orchestration)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Route computation - expensive, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes", tripHandler.ComputeRoute)

		// Trip view and cancellation
		r.Route("/trip", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", tripHandler.GetTrip)
			r.Delete("/", tripHandler.CancelTrip)
		})

		// Weather lookup
		r.With(standardRateLimit).Get("/weather", weatherHandler.GetCurrentWeather)

		// Accessibility preferences
		r.Route("/preferences", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", preferencesHandler.GetPreferences)
			r.Put("/", preferencesHandler.UpdatePreferences)
		})
	})

	return r
}
