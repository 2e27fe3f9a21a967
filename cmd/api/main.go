// Package main provides the entrypoint for the AccessRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/access/overpass"
	"github.com/accessroute/accessroute/internal/api"
	"github.com/accessroute/accessroute/internal/api/middleware"
	"github.com/accessroute/accessroute/internal/database"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/geocode/nominatim"
	"github.com/accessroute/accessroute/internal/place"
	"github.com/accessroute/accessroute/internal/progress"
	"github.com/accessroute/accessroute/internal/provider/resilience"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/routing/openrouteservice"
	"github.com/accessroute/accessroute/internal/telemetry"
	"github.com/accessroute/accessroute/internal/trip"
	"github.com/accessroute/accessroute/internal/weather"
	"github.com/accessroute/accessroute/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "accessroute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AccessRoute API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"
	sampleRatio, _ := strconv.ParseFloat(os.Getenv("OTEL_TRACE_SAMPLE_RATIO"), 64)

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   Version,
		Environment:      env,
		OTLPEndpoint:     otlpEndpoint,
		Enabled:          telemetryEnabled,
		TraceSampleRatio: sampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Known-place aliases live in Postgres. The database is optional; the
	// geocoder works without aliases when no pool is configured.
	var places place.Repository
	if os.Getenv("DB_DISABLED") == "true" {
		places = place.NewInMemoryRepository()
		log.Warn().Msg("database disabled, using in-memory place repository")
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Name).
			Msg("database connected")
		places = place.NewPostgresRepository(pool)
	}

	// Shared registry feeds the ops status endpoint.
	registry := resilience.NewRegistry()

	// Geocoding
	geocodeProvider := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:   os.Getenv("NOMINATIM_BASE_URL"),
		UserAgent: os.Getenv("NOMINATIM_USER_AGENT"),
		Registry:  registry,
		Logger:    log,
	})
	geocodeService := geocode.NewService(geocode.ServiceConfig{
		Provider: geocodeProvider,
		Places:   places,
		Logger:   log,
	})
	log.Info().Str("provider", geocodeProvider.Name()).Msg("geocoding service initialized")

	// Routing
	orsAPIKey := os.Getenv("ORS_API_KEY")
	if orsAPIKey == "" {
		log.Warn().Msg("ORS_API_KEY not set - route computation will fail")
	}
	routingProvider := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:   orsAPIKey,
		BaseURL:  os.Getenv("ORS_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: routingProvider,
		Logger:   log,
	})
	log.Info().Str("provider", routingProvider.Name()).Msg("routing service initialized")

	// Accessibility features
	accessProvider := overpass.NewClient(overpass.ClientConfig{
		BaseURL:  os.Getenv("OVERPASS_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	accessService := access.NewService(access.ServiceConfig{
		Provider: accessProvider,
		Logger:   log,
	})
	log.Info().Str("provider", accessProvider.Name()).Msg("accessibility service initialized")

	// Weather
	owmAPIKey := os.Getenv("OWM_API_KEY")
	if owmAPIKey == "" {
		log.Warn().Msg("OWM_API_KEY not set - weather lookups will fail")
	}
	weatherProvider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:   owmAPIKey,
		BaseURL:  os.Getenv("OWM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
	})
	log.Info().Str("provider", weatherProvider.Name()).Msg("weather service initialized")

	// Trip planner
	planner := trip.NewPlanner(trip.PlannerConfig{
		Geocoder:  geocodeService,
		Routes:    routingService,
		Features:  accessService,
		Weather:   weatherService,
		Simulator: progress.NewSimulator(progress.SimulatorConfig{Logger: log}),
		Logger:    log,
	})
	log.Info().Msg("trip planner initialized")

	// Warm the weather snapshot for the default focus point so the first
	// trip view is not empty.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		focus := geo.Coordinate{Lat: 52.3791, Lon: 4.9003}
		if _, err := planner.RequestCurrentWeather(warmCtx, focus); err != nil {
			log.Warn().Err(err).Msg("startup weather warmup failed")
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   metrics,
		Planner:   planner,
		Registry:  registry,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
