package geocode_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/place"
)

type mockProvider struct {
	mu      sync.Mutex
	calls   int
	matches map[string]*geocode.Match
	err     error
}

func newMockProvider() *mockProvider {
	return &mockProvider{matches: make(map[string]*geocode.Match)}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Resolve(_ context.Context, query string) (*geocode.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if match, ok := m.matches[query]; ok {
		return match, nil
	}
	return nil, geocode.ErrNotFound
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestService_Resolve(t *testing.T) {
	provider := newMockProvider()
	provider.matches["Central Station"] = &geocode.Match{
		Query:       "Central Station",
		DisplayName: "Centraal Station, Amsterdam",
		Location:    geo.Coordinate{Lat: 52.3791, Lon: 4.9003},
		Source:      "mock",
		ResolvedAt:  time.Now(),
	}

	service := geocode.NewService(geocode.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	match, err := service.Resolve(context.Background(), "Central Station")
	require.NoError(t, err)
	assert.Equal(t, "Centraal Station, Amsterdam", match.DisplayName)
	assert.InDelta(t, 52.3791, match.Location.Lat, 1e-9)
}

func TestService_Resolve_EmptyQuery(t *testing.T) {
	provider := newMockProvider()
	service := geocode.NewService(geocode.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := service.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, geocode.ErrEmptyQuery)
	assert.Zero(t, provider.callCount())
}

func TestService_Resolve_NotFoundPassesThrough(t *testing.T) {
	provider := newMockProvider()
	service := geocode.NewService(geocode.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := service.Resolve(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, geocode.ErrNotFound)
}

func TestService_Resolve_Caching(t *testing.T) {
	provider := newMockProvider()
	provider.matches["Dam Square"] = &geocode.Match{
		Query:    "Dam Square",
		Location: geo.Coordinate{Lat: 52.373, Lon: 4.8926},
		Source:   "mock",
	}

	service := geocode.NewService(geocode.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Minute,
	})

	_, err := service.Resolve(context.Background(), "Dam Square")
	require.NoError(t, err)

	// Query normalization: different spacing and case hit the same entry.
	_, err = service.Resolve(context.Background(), "  dam   SQUARE ")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount())
}

func TestService_Resolve_KnownPlaceWinsOverProvider(t *testing.T) {
	provider := newMockProvider()
	places := place.NewInMemoryRepository()
	require.NoError(t, places.Upsert(context.Background(), &place.Place{
		Name:  "Home",
		Alias: "home",
		Lat:   52.35,
		Lon:   4.88,
	}))

	service := geocode.NewService(geocode.ServiceConfig{
		Provider: provider,
		Places:   places,
		Logger:   zerolog.Nop(),
	})

	match, err := service.Resolve(context.Background(), "Home")
	require.NoError(t, err)
	assert.Equal(t, "places", match.Source)
	assert.InDelta(t, 52.35, match.Location.Lat, 1e-9)
	assert.Zero(t, provider.callCount())
}
