package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache computed routes (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the endpoint quantization in degrees (default:
	// 0.001 ~ 110m). Requests with endpoints in the same cells and equal
	// preferences share a cached route.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving a stale route on provider errors
	// (default: 15 minutes).
	StaleIfErrorTTL time.Duration
}

// Service computes accessible routes with validation and caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedRoute
}

type cachedRoute struct {
	route     *Route
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.001 // ~110m at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedRoute),
	}
}

// ComputeRoute returns an accessible route between two points. An accepted
// route always has a non-empty path, positive duration, and non-negative
// distance; anything degenerate from the provider becomes ErrNoRoute.
func (s *Service) ComputeRoute(ctx context.Context, start, destination geo.Coordinate, prefs Preferences) (*Route, error) {
	if err := start.Validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_START",
			Message:  "invalid start coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := destination.Validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	req := RouteRequest{Start: start, Destination: destination, Preferences: prefs.Clone()}
	key := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().Str("cache_key", key).Msg("cache hit for route")
		return cached.route, nil
	}
	s.mu.RUnlock()

	return s.fetchRoute(ctx, req, key)
}

func (s *Service) fetchRoute(ctx context.Context, req RouteRequest, key string) (*Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after taking the write lock.
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.route, nil
	}

	s.logger.Debug().
		Float64("start_lat", req.Start.Lat).
		Float64("start_lon", req.Start.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Str("provider", s.provider.Name()).
		Msg("computing route")

	route, err := s.provider.ComputeRoute(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("start_lat", req.Start.Lat).
			Float64("start_lon", req.Start.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Msg("route computation failed")

		// Stale-if-error: an expired route beats no route at all.
		if cached, ok := s.cache[key]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", key).
					Msg("serving stale route due to provider error")
				return cached.route, nil
			}
		}
		return nil, err
	}

	// A degenerate result is the same outcome as "no route", never a crash.
	if !route.Valid() {
		s.logger.Warn().
			Int("path_points", len(route.Path)).
			Int("duration_seconds", route.DurationSeconds).
			Msg("provider returned degenerate route")
		return nil, ErrNoRoute
	}

	// The reported distance should roughly match the path geometry; a wide
	// gap points at a broken geometry decode upstream.
	if geomLen := geo.PathLength(route.Path); route.DistanceMeters > 0 && geomLen > 0 {
		if ratio := geomLen / route.DistanceMeters; ratio < 0.5 || ratio > 1.5 {
			s.logger.Warn().
				Float64("distance_meters", route.DistanceMeters).
				Float64("geometry_meters", geomLen).
				Msg("route distance disagrees with path geometry")
		}
	}

	now := time.Now()
	s.cache[key] = &cachedRoute{route: route, fetchedAt: now, expiresAt: now.Add(s.cacheTTL)}

	s.logger.Debug().
		Str("cache_key", key).
		Int("path_points", len(route.Path)).
		Int("duration_seconds", route.DurationSeconds).
		Float64("distance_meters", route.DistanceMeters).
		Msg("route computed")

	return route, nil
}

// cacheKey quantizes both endpoints to grid cells and appends the
// preference fingerprint.
func (s *Service) cacheKey(req RouteRequest) string {
	snap := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%.3f,%.3f:%.3f,%.3f:%s",
		snap(req.Start.Lat), snap(req.Start.Lon),
		snap(req.Destination.Lat), snap(req.Destination.Lon),
		req.Preferences.Fingerprint(),
	)
}

// InvalidateCache clears all cached routes.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoute)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
