package geocode

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/place"
)

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the remote geocoding source.
	Provider Provider

	// Places is an optional known-place repository consulted before the
	// remote provider. Nil disables alias lookup.
	Places place.Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache resolutions (default: 1 hour; place
	// names move slowly).
	CacheTTL time.Duration
}

// Service resolves place names with alias lookup and caching.
type Service struct {
	provider Provider
	places   place.Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedMatch
}

type cachedMatch struct {
	match     *Match
	expiresAt time.Time
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &Service{
		provider: cfg.Provider,
		places:   cfg.Places,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*cachedMatch),
	}
}

// Resolve resolves a place name to a coordinate. Known-place aliases win
// over the remote provider; successful remote resolutions are cached.
func (s *Service) Resolve(ctx context.Context, query string) (*Match, error) {
	key := normalize(query)
	if key == "" {
		return nil, ErrEmptyQuery
	}

	if s.places != nil {
		if p, err := s.places.GetByAlias(ctx, key); err == nil {
			return &Match{
				Query:       query,
				DisplayName: p.Name,
				Location:    placeCoordinate(p),
				Source:      "places",
				ResolvedAt:  time.Now(),
			}, nil
		} else if !errors.Is(err, place.ErrNotFound) {
			// Repository trouble must not block remote resolution.
			s.logger.Warn().Err(err).Str("alias", key).Msg("place lookup failed")
		}
	}

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.match, nil
	}
	s.mu.RUnlock()

	match, err := s.provider.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug().Str("query", query).Msg("place name not found")
		} else {
			s.logger.Error().Err(err).Str("query", query).
				Str("provider", s.provider.Name()).
				Msg("geocoding failed")
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = &cachedMatch{match: match, expiresAt: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()

	return match, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func placeCoordinate(p *place.Place) geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
