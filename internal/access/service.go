package access

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/geo"
)

// ServiceConfig holds configuration for the accessibility service.
type ServiceConfig struct {
	// Provider is the feature data source.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// SearchPadDegrees pads the route's bounding box before querying
	// (default: 0.002 ~ 220m).
	SearchPadDegrees float64

	// CacheTTL is how long to cache feature sets (default: 30 minutes;
	// street furniture changes slowly).
	CacheTTL time.Duration

	// CacheGridSize quantizes box corners for cache keys (default: 0.005).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale features on provider errors
	// (default: 2 hours).
	StaleIfErrorTTL time.Duration
}

// Service fetches accessibility features near a path with caching.
// Lookups are best-effort by contract: callers treat any error as an empty
// feature set and never surface it as a route failure.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	searchPad       float64
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedFeatures
}

type cachedFeatures struct {
	features  []Feature
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new accessibility feature service.
func NewService(cfg ServiceConfig) *Service {
	searchPad := cfg.SearchPadDegrees
	if searchPad == 0 {
		searchPad = 0.002
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.005
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 2 * time.Hour
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		searchPad:       searchPad,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedFeatures),
	}
}

// FeaturesAlong returns accessibility features near the path. An empty path
// yields an empty set without a provider call.
func (s *Service) FeaturesAlong(ctx context.Context, path []geo.Coordinate) ([]Feature, error) {
	box, ok := geo.Bounds(path)
	if !ok {
		return nil, nil
	}
	return s.FeaturesNear(ctx, box.Pad(s.searchPad))
}

// FeaturesNear returns accessibility features inside the box, serving
// cached data when fresh and stale data on provider errors.
func (s *Service) FeaturesNear(ctx context.Context, box geo.BoundingBox) ([]Feature, error) {
	key := s.cacheKey(box)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().Str("cache_key", key).Msg("cache hit for accessibility features")
		return cached.features, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.features, nil
	}

	features, err := s.provider.FeaturesWithin(ctx, box)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider", s.provider.Name()).
			Msg("accessibility feature fetch failed")

		if cached, ok := s.cache[key]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Debug().
					Time("fetched_at", cached.fetchedAt).
					Msg("serving stale accessibility features")
				return cached.features, nil
			}
		}
		return nil, err
	}

	// Providers can return matches just outside the requested area; only
	// features inside the box are kept.
	inBox := make([]Feature, 0, len(features))
	for _, f := range features {
		if box.Contains(f.Location) {
			inBox = append(inBox, f)
		}
	}
	features = inBox

	now := time.Now()
	s.cache[key] = &cachedFeatures{features: features, fetchedAt: now, expiresAt: now.Add(s.cacheTTL)}

	s.logger.Debug().
		Str("cache_key", key).
		Int("feature_count", len(features)).
		Msg("fetched accessibility features")

	return features, nil
}

func (s *Service) cacheKey(box geo.BoundingBox) string {
	snap := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%.3f,%.3f:%.3f,%.3f",
		snap(box.MinLat), snap(box.MinLon), snap(box.MaxLat), snap(box.MaxLon))
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
