package trip_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/progress"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/trip"
	"github.com/accessroute/accessroute/internal/weather"
)

type mockGeocoder struct {
	mu        sync.Mutex
	matches   map[string]*geocode.Match
	errs      map[string]error
	callCount int
}

func (m *mockGeocoder) Resolve(_ context.Context, query string) (*geocode.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	if match, ok := m.matches[query]; ok {
		return match, nil
	}
	return nil, geocode.ErrNotFound
}

func (m *mockGeocoder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

type mockRouteSource struct {
	mu        sync.Mutex
	route     *routing.Route
	queue     []*routing.Route
	err       error
	gate      chan struct{}
	callCount int
	lastPrefs routing.Preferences
}

func (m *mockRouteSource) ComputeRoute(_ context.Context, _, _ geo.Coordinate, prefs routing.Preferences) (*routing.Route, error) {
	m.mu.Lock()
	m.callCount++
	m.lastPrefs = prefs
	route := m.route
	if len(m.queue) > 0 {
		route = m.queue[0]
		m.queue = m.queue[1:]
	}
	err := m.err
	// The gate blocks only the call that captured it.
	gate := m.gate
	m.gate = nil
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (m *mockRouteSource) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

type mockFeatureSource struct {
	mu        sync.Mutex
	features  []access.Feature
	err       error
	gate      chan struct{}
	callCount int
}

func (m *mockFeatureSource) FeaturesAlong(_ context.Context, _ []geo.Coordinate) ([]access.Feature, error) {
	m.mu.Lock()
	gate := m.gate
	m.callCount++
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.features, nil
}

func (m *mockFeatureSource) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

type mockWeatherSource struct {
	mu       sync.Mutex
	snapshot *weather.Snapshot
	err      error
}

func (m *mockWeatherSource) CurrentWeather(_ context.Context, lat, lon float64) (*weather.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	snap := *m.snapshot
	snap.Lat = lat
	snap.Lon = lon
	return &snap, nil
}

type fixture struct {
	geocoder *mockGeocoder
	routes   *mockRouteSource
	features *mockFeatureSource
	weather  *mockWeatherSource
	planner  *trip.Planner
}

func testRoute() *routing.Route {
	return &routing.Route{
		Path: []geo.Coordinate{
			{Lat: 52.370, Lon: 4.890},
			{Lat: 52.372, Lon: 4.893},
			{Lat: 52.374, Lon: 4.896},
		},
		DurationSeconds: 7200,
		DistanceMeters:  2500,
		Summary:         "via Main Street",
		Provider:        "mock",
		FetchedAt:       time.Now(),
	}
}

func newFixture() *fixture {
	geocoder := &mockGeocoder{
		matches: map[string]*geocode.Match{
			"central station": {
				Query:       "central station",
				DisplayName: "Central Station",
				Location:    geo.Coordinate{Lat: 52.370, Lon: 4.890},
			},
			"city hall": {
				Query:       "city hall",
				DisplayName: "City Hall",
				Location:    geo.Coordinate{Lat: 52.374, Lon: 4.896},
			},
		},
		errs: map[string]error{},
	}
	routes := &mockRouteSource{route: testRoute()}
	features := &mockFeatureSource{
		features: []access.Feature{
			{Type: access.FeatureRamp, Location: geo.Coordinate{Lat: 52.371, Lon: 4.891}, Status: access.StatusActive},
		},
	}
	weatherSource := &mockWeatherSource{
		snapshot: &weather.Snapshot{
			TemperatureCelsius: 11,
			Condition:          weather.ConditionClouds,
			FetchedAt:          time.Now(),
		},
	}

	planner := trip.NewPlanner(trip.PlannerConfig{
		Geocoder: geocoder,
		Routes:   routes,
		Features: features,
		Weather:  weatherSource,
		Simulator: progress.NewSimulator(progress.SimulatorConfig{
			TickInterval: time.Hour,
			Logger:       zerolog.Nop(),
		}),
		Logger: zerolog.Nop(),
	})

	return &fixture{
		geocoder: geocoder,
		routes:   routes,
		features: features,
		weather:  weatherSource,
		planner:  planner,
	}
}

func TestRequestRoute(t *testing.T) {
	f := newFixture()

	err := f.planner.RequestRoute(context.Background(), "central station", "city hall")
	require.NoError(t, err)

	snap := f.planner.Snapshot()
	require.NotNil(t, snap.Route)
	assert.Equal(t, "Central Station", snap.Start.DisplayName)
	assert.Equal(t, "City Hall", snap.Destination.DisplayName)
	assert.InDelta(t, 2500, snap.Route.DistanceMeters, 1e-9)
	assert.False(t, snap.Calculating)
	assert.NoError(t, snap.LastError)

	assert.Equal(t, progress.StateRunning, snap.Progress.State)
	assert.Equal(t, 7200, snap.Progress.RemainingDurationSeconds)

	// Feature and weather enrichment land asynchronously.
	require.Eventually(t, func() bool {
		s := f.planner.Snapshot()
		return len(s.Features) == 1 && s.Weather != nil
	}, time.Second, time.Millisecond)

	snap = f.planner.Snapshot()
	assert.Equal(t, access.FeatureRamp, snap.Features[0].Type)
	assert.Equal(t, weather.ConditionClouds, snap.Weather.Condition)
}

func TestRequestRouteEmptyInput(t *testing.T) {
	f := newFixture()

	err := f.planner.RequestRoute(context.Background(), "   ", "city hall")
	require.Error(t, err)

	var inputErr *trip.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, trip.EndpointStart, inputErr.Field)

	assert.Zero(t, f.geocoder.calls(), "rejected input must not reach the geocoder")
	assert.Zero(t, f.routes.calls())

	snap := f.planner.Snapshot()
	assert.False(t, snap.Calculating)
	assert.Error(t, snap.LastError)
	assert.Nil(t, snap.Route)
}

func TestRequestRouteEmptyDestination(t *testing.T) {
	f := newFixture()

	err := f.planner.RequestRoute(context.Background(), "central station", "")
	var inputErr *trip.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, trip.EndpointDestination, inputErr.Field)
	assert.Zero(t, f.geocoder.calls())
}

func TestRequestRouteGeocodeFailureNamesEndpoint(t *testing.T) {
	f := newFixture()
	f.geocoder.errs["atlantis"] = geocode.ErrNotFound

	err := f.planner.RequestRoute(context.Background(), "atlantis", "city hall")
	require.Error(t, err)

	var geoErr *trip.GeocodeError
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, trip.EndpointStart, geoErr.Endpoint)
	assert.Equal(t, "atlantis", geoErr.Query)
	assert.True(t, geoErr.NotFound())

	assert.Equal(t, 1, f.geocoder.calls(), "destination must not be resolved after start fails")
	assert.Zero(t, f.routes.calls(), "routing must not run after a geocode failure")

	snap := f.planner.Snapshot()
	assert.False(t, snap.Calculating)
	assert.Equal(t, progress.StateIdle, snap.Progress.State)
}

func TestRequestRouteDestinationNotFound(t *testing.T) {
	f := newFixture()
	f.geocoder.errs["nowhere"] = geocode.ErrNotFound

	err := f.planner.RequestRoute(context.Background(), "central station", "nowhere")
	var geoErr *trip.GeocodeError
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, trip.EndpointDestination, geoErr.Endpoint)
	assert.Equal(t, 2, f.geocoder.calls())
	assert.Zero(t, f.routes.calls())
}

func TestRequestRouteGeocoderUnavailable(t *testing.T) {
	f := newFixture()
	f.geocoder.errs["central station"] = geocode.ErrUnavailable

	err := f.planner.RequestRoute(context.Background(), "central station", "city hall")
	var geoErr *trip.GeocodeError
	require.ErrorAs(t, err, &geoErr)
	assert.False(t, geoErr.NotFound())
	assert.True(t, errors.Is(err, geocode.ErrUnavailable))
}

func TestRequestRouteNoRoute(t *testing.T) {
	f := newFixture()

	// Publish a first route so there is prior state to preserve.
	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))
	before := f.planner.Snapshot()
	require.NotNil(t, before.Route)

	f.routes.mu.Lock()
	f.routes.err = routing.ErrNoRoute
	f.routes.mu.Unlock()

	err := f.planner.RequestRoute(context.Background(), "central station", "city hall")
	require.Error(t, err)

	var noRoute *trip.NoRouteError
	require.ErrorAs(t, err, &noRoute)
	assert.Equal(t, "Central Station", noRoute.Start.DisplayName)
	assert.Equal(t, "City Hall", noRoute.Destination.DisplayName)

	after := f.planner.Snapshot()
	assert.Equal(t, before.Route, after.Route, "previous route must survive a failed request")
	assert.Equal(t, progress.StateRunning, after.Progress.State)
	assert.False(t, after.Calculating)
	assert.Error(t, after.LastError)
}

func TestRequestRouteProviderFailure(t *testing.T) {
	f := newFixture()
	f.routes.err = routing.ErrProviderUnavailable

	err := f.planner.RequestRoute(context.Background(), "central station", "city hall")
	require.Error(t, err)

	var pipelineErr *trip.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.True(t, errors.Is(err, routing.ErrProviderUnavailable))
}

func TestRequestRouteEnrichmentFailureIsIsolated(t *testing.T) {
	f := newFixture()
	f.features.err = access.ErrProviderUnavailable
	f.weather.err = weather.ErrProviderUnavailable

	err := f.planner.RequestRoute(context.Background(), "central station", "city hall")
	require.NoError(t, err, "enrichment failures must not fail the route")

	// Give the enrichment goroutines a chance to finish.
	time.Sleep(50 * time.Millisecond)

	snap := f.planner.Snapshot()
	require.NotNil(t, snap.Route)
	assert.Empty(t, snap.Features)
	assert.Nil(t, snap.Weather)
	assert.NoError(t, snap.LastError, "enrichment failures never surface on the trip")
	assert.Equal(t, progress.StateRunning, snap.Progress.State)
}

func TestRequestRouteStaleEnrichmentDiscarded(t *testing.T) {
	f := newFixture()

	gate := make(chan struct{})
	f.features.mu.Lock()
	f.features.gate = gate
	f.features.features = []access.Feature{
		{Type: access.FeatureRamp, Status: access.StatusActive},
	}
	f.features.mu.Unlock()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))

	// A second request supersedes the first before its enrichment lands.
	f.features.mu.Lock()
	f.features.gate = nil
	f.features.features = []access.Feature{
		{Type: access.FeatureElevator, Status: access.StatusActive},
		{Type: access.FeatureCurbCut, Status: access.StatusActive},
	}
	f.features.mu.Unlock()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "city hall", "central station"))

	require.Eventually(t, func() bool {
		return len(f.planner.Snapshot().Features) == 2
	}, time.Second, time.Millisecond)

	// Release the first run's enrichment; its result must be dropped.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	snap := f.planner.Snapshot()
	require.Len(t, snap.Features, 2)
	assert.Equal(t, access.FeatureElevator, snap.Features[0].Type)
	assert.Equal(t, 2, f.features.calls())
}

func TestRequestRouteStaleRoutePublishDiscarded(t *testing.T) {
	f := newFixture()

	slowRoute := testRoute()
	slowRoute.DurationSeconds = 600

	gate := make(chan struct{})
	f.routes.mu.Lock()
	f.routes.gate = gate
	f.routes.queue = []*routing.Route{slowRoute, testRoute()}
	f.routes.mu.Unlock()

	// The first request blocks inside route computation.
	done := make(chan error, 1)
	go func() {
		done <- f.planner.RequestRoute(context.Background(), "central station", "city hall")
	}()
	require.Eventually(t, func() bool {
		return f.routes.calls() == 1
	}, time.Second, time.Millisecond)

	// A second request completes while the first is still in flight.
	require.NoError(t, f.planner.RequestRoute(context.Background(), "city hall", "central station"))
	require.Equal(t, 7200, f.planner.Snapshot().Progress.RemainingDurationSeconds)

	// Releasing the first request must not publish its route or restart
	// the simulation with the superseded duration.
	close(gate)
	require.NoError(t, <-done)

	snap := f.planner.Snapshot()
	require.NotNil(t, snap.Route)
	assert.Equal(t, 7200, snap.Route.DurationSeconds)
	assert.Equal(t, "City Hall", snap.Start.DisplayName)
	assert.Equal(t, progress.StateRunning, snap.Progress.State)
	assert.Equal(t, 7200, snap.Progress.RemainingDurationSeconds)
}

func TestRequestRouteWeatherFetchedAtRouteStart(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))

	require.Eventually(t, func() bool {
		return f.planner.Snapshot().Weather != nil
	}, time.Second, time.Millisecond)

	// The reactive fetch uses the route's first path point, not the
	// destination.
	start := testRoute().Path[0]
	snap := f.planner.Snapshot()
	assert.InDelta(t, start.Lat, snap.Weather.Lat, 1e-9)
	assert.InDelta(t, start.Lon, snap.Weather.Lon, 1e-9)
}

func TestRequestRouteClearsPreviousFeatures(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))
	require.Eventually(t, func() bool {
		return len(f.planner.Snapshot().Features) == 1
	}, time.Second, time.Millisecond)

	// The next route starts with an empty feature set while its own
	// enrichment is in flight.
	gate := make(chan struct{})
	f.features.mu.Lock()
	f.features.gate = gate
	f.features.mu.Unlock()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "city hall", "central station"))
	assert.Empty(t, f.planner.Snapshot().Features)
	close(gate)
}

func TestRequestCurrentWeather(t *testing.T) {
	f := newFixture()

	snap, err := f.planner.RequestCurrentWeather(context.Background(), geo.Coordinate{Lat: 52.37, Lon: 4.89})
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionClouds, snap.Condition)

	state := f.planner.Snapshot()
	require.NotNil(t, state.Weather)
	assert.Nil(t, state.Route, "weather lookup must not touch the route")
	assert.Equal(t, progress.StateIdle, state.Progress.State)
}

func TestRequestCurrentWeatherFailure(t *testing.T) {
	f := newFixture()
	f.weather.err = weather.ErrProviderUnavailable

	_, err := f.planner.RequestCurrentWeather(context.Background(), geo.Coordinate{Lat: 52.37, Lon: 4.89})
	require.Error(t, err)
	assert.Nil(t, f.planner.Snapshot().Weather)
}

func TestPreferencesFlowIntoRouting(t *testing.T) {
	f := newFixture()

	prefs := routing.Preferences{
		MaxSlopePercent:   8,
		AvoidStairs:       true,
		RequireElevators:  true,
		MinPathWidthCm:    32,
		PreferredSurfaces: []string{"paved", "smooth"},
	}
	f.planner.SetPreferences(prefs)

	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))

	f.routes.mu.Lock()
	used := f.routes.lastPrefs
	f.routes.mu.Unlock()

	assert.InDelta(t, 8, used.MaxSlopePercent, 1e-9)
	assert.True(t, used.AvoidStairs)
	assert.True(t, used.RequireElevators)
	assert.InDelta(t, 32, used.MinPathWidthCm, 1e-9)
	assert.Equal(t, []string{"paved", "smooth"}, used.PreferredSurfaces)
}

func TestPreferencesSnapshotSemantics(t *testing.T) {
	f := newFixture()

	prefs := routing.Preferences{MaxSlopePercent: 6, PreferredSurfaces: []string{"paved"}}
	f.planner.SetPreferences(prefs)

	// Mutating the caller's copy must not leak into the planner.
	prefs.PreferredSurfaces[0] = "gravel"
	assert.Equal(t, []string{"paved"}, f.planner.Preferences().PreferredSurfaces)
}

func TestCancelTrip(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.planner.RequestRoute(context.Background(), "central station", "city hall"))
	require.Equal(t, progress.StateRunning, f.planner.Snapshot().Progress.State)

	f.planner.CancelTrip()

	snap := f.planner.Snapshot()
	assert.Equal(t, progress.StateIdle, snap.Progress.State)
	assert.NotNil(t, snap.Route, "cancelling the trip keeps the planned route")
}
