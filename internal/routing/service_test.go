package routing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/routing"
)

type mockProvider struct {
	mu    sync.Mutex
	calls int
	route *routing.Route
	err   error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) ComputeRoute(_ context.Context, _ routing.RouteRequest) (*routing.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.route, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockProvider) set(route *routing.Route, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route, m.err = route, err
}

func validRoute() *routing.Route {
	return &routing.Route{
		Path: []geo.Coordinate{
			{Lat: 52.3791, Lon: 4.9003},
			{Lat: 52.3731, Lon: 4.8922},
		},
		DurationSeconds: 7200,
		DistanceMeters:  2500,
		Provider:        "mock",
		FetchedAt:       time.Now(),
	}
}

var (
	start = geo.Coordinate{Lat: 52.3791, Lon: 4.9003}
	dest  = geo.Coordinate{Lat: 52.3731, Lon: 4.8922}
)

func TestService_ComputeRoute(t *testing.T) {
	provider := &mockProvider{route: validRoute()}
	service := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	route, err := service.ComputeRoute(context.Background(), start, dest, routing.DefaultPreferences())
	require.NoError(t, err)
	assert.Equal(t, 7200, route.DurationSeconds)
	assert.True(t, route.Valid())
}

func TestService_ComputeRoute_InvalidCoordinates(t *testing.T) {
	provider := &mockProvider{route: validRoute()}
	service := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := service.ComputeRoute(context.Background(),
		geo.Coordinate{Lat: 91, Lon: 0}, dest, routing.Preferences{})
	assert.ErrorIs(t, err, routing.ErrInvalidCoordinates)
	assert.Zero(t, provider.callCount())
}

func TestService_ComputeRoute_DegenerateBecomesNoRoute(t *testing.T) {
	tests := []struct {
		name  string
		route *routing.Route
	}{
		{"empty path", &routing.Route{Path: nil, DurationSeconds: 100, DistanceMeters: 10}},
		{"zero duration", &routing.Route{Path: []geo.Coordinate{start}, DurationSeconds: 0}},
		{"negative distance", &routing.Route{Path: []geo.Coordinate{start}, DurationSeconds: 10, DistanceMeters: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := routing.NewService(routing.ServiceConfig{
				Provider: &mockProvider{route: tt.route},
				Logger:   zerolog.Nop(),
			})

			_, err := service.ComputeRoute(context.Background(), start, dest, routing.Preferences{})
			assert.ErrorIs(t, err, routing.ErrNoRoute)
		})
	}
}

func TestService_ComputeRoute_DistanceGeometryMismatchStillServed(t *testing.T) {
	// Geometry spans ~780m but the provider claims 100km; the route is
	// served anyway, the disagreement is log-only.
	route := validRoute()
	route.DistanceMeters = 100000

	service := routing.NewService(routing.ServiceConfig{
		Provider: &mockProvider{route: route},
		Logger:   zerolog.Nop(),
	})

	got, err := service.ComputeRoute(context.Background(), start, dest, routing.Preferences{})
	require.NoError(t, err)
	assert.InDelta(t, 100000, got.DistanceMeters, 1e-9)
}

func TestService_ComputeRoute_Caching(t *testing.T) {
	provider := &mockProvider{route: validRoute()}
	service := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Minute,
	})

	prefs := routing.DefaultPreferences()
	_, err := service.ComputeRoute(context.Background(), start, dest, prefs)
	require.NoError(t, err)
	_, err = service.ComputeRoute(context.Background(), start, dest, prefs)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())

	// Different preferences miss the cache.
	other := prefs.Clone()
	other.MaxSlopePercent = 3
	_, err = service.ComputeRoute(context.Background(), start, dest, other)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestService_ComputeRoute_StaleIfError(t *testing.T) {
	provider := &mockProvider{route: validRoute()}
	service := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Nanosecond, // expires immediately
	})

	prefs := routing.DefaultPreferences()
	_, err := service.ComputeRoute(context.Background(), start, dest, prefs)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	provider.set(nil, routing.ErrProviderUnavailable)

	route, err := service.ComputeRoute(context.Background(), start, dest, prefs)
	require.NoError(t, err)
	assert.Equal(t, 7200, route.DurationSeconds)
}

func TestPreferences_Fingerprint_SurfaceOrderIrrelevant(t *testing.T) {
	a := routing.Preferences{PreferredSurfaces: []string{"paved", "smooth"}}
	b := routing.Preferences{PreferredSurfaces: []string{"smooth", "paved"}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := routing.Preferences{PreferredSurfaces: []string{"gravel"}}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
