package trip

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/progress"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/weather"
)

// Geocoder resolves free-text location queries.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*geocode.Match, error)
}

// RouteSource computes accessibility-aware routes.
type RouteSource interface {
	ComputeRoute(ctx context.Context, start, destination geo.Coordinate, prefs routing.Preferences) (*routing.Route, error)
}

// FeatureSource returns accessibility features near a path.
type FeatureSource interface {
	FeaturesAlong(ctx context.Context, path []geo.Coordinate) ([]access.Feature, error)
}

// WeatherSource returns current weather for a location.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// PlannerConfig holds the planner's collaborators.
type PlannerConfig struct {
	Geocoder  Geocoder
	Routes    RouteSource
	Features  FeatureSource
	Weather   WeatherSource
	Simulator *progress.Simulator

	// Preferences is the initial accessibility profile (optional,
	// defaults to routing.DefaultPreferences).
	Preferences routing.Preferences

	// Logger for planner operations.
	Logger zerolog.Logger
}

// Planner owns the trip state and runs the planning pipeline. All mutation
// goes through the planner's mutex; readers get copies.
type Planner struct {
	geocoder  Geocoder
	routes    RouteSource
	features  FeatureSource
	weather   WeatherSource
	simulator *progress.Simulator
	logger    zerolog.Logger

	mu          sync.Mutex
	seq         uint64
	prefs       routing.Preferences
	start       *geocode.Match
	destination *geocode.Match
	route       *routing.Route
	featureSet  []access.Feature
	snapshot    *weather.Snapshot
	calculating bool
	lastError   error
	updatedAt   time.Time
}

// NewPlanner creates a planner with no active route.
func NewPlanner(cfg PlannerConfig) *Planner {
	prefs := cfg.Preferences
	if prefs.MaxSlopePercent == 0 && len(prefs.PreferredSurfaces) == 0 &&
		!prefs.AvoidStairs && !prefs.RequireElevators && prefs.MinPathWidthCm == 0 {
		prefs = routing.DefaultPreferences()
	}

	return &Planner{
		geocoder:  cfg.Geocoder,
		routes:    cfg.Routes,
		features:  cfg.Features,
		weather:   cfg.Weather,
		simulator: cfg.Simulator,
		logger:    cfg.Logger,
		prefs:     prefs,
	}
}

// RequestRoute plans a route between two free-text endpoints. On success the
// new route supersedes any previous one, the progress simulation restarts,
// and feature and weather enrichment run in the background. On failure the
// previous route, features, and progress are left untouched.
func (p *Planner) RequestRoute(ctx context.Context, startText, destText string) error {
	startText = strings.TrimSpace(startText)
	destText = strings.TrimSpace(destText)

	if startText == "" {
		return p.reject(&InputError{Field: EndpointStart, Message: "location text is empty"})
	}
	if destText == "" {
		return p.reject(&InputError{Field: EndpointDestination, Message: "location text is empty"})
	}

	seq, prefs := p.begin()
	defer p.endCalculating()

	startMatch, err := p.geocoder.Resolve(ctx, startText)
	if err != nil {
		return p.fail(seq, &GeocodeError{Endpoint: EndpointStart, Query: startText, Err: err})
	}

	destMatch, err := p.geocoder.Resolve(ctx, destText)
	if err != nil {
		return p.fail(seq, &GeocodeError{Endpoint: EndpointDestination, Query: destText, Err: err})
	}

	route, err := p.routes.ComputeRoute(ctx, startMatch.Location, destMatch.Location, prefs)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoute) {
			return p.fail(seq, &NoRouteError{Start: *startMatch, Destination: *destMatch, Err: err})
		}
		return p.fail(seq, &PipelineError{Stage: "routing", Err: err})
	}

	p.publishRoute(seq, startMatch, destMatch, route)

	// Enrichment outlives the request context; cancelling the HTTP request
	// that triggered planning must not abort it.
	bg := context.WithoutCancel(ctx)
	go p.enrichFeatures(bg, seq, route.Path)
	go p.refreshWeather(bg, seq, route.Start())

	return nil
}

// RequestCurrentWeather fetches weather for a location and stores the
// snapshot. It never touches the route, features, or progress.
func (p *Planner) RequestCurrentWeather(ctx context.Context, coord geo.Coordinate) (*weather.Snapshot, error) {
	p.mu.Lock()
	seq := p.seq
	p.mu.Unlock()

	snap, err := p.weather.CurrentWeather(ctx, coord.Lat, coord.Lon)
	if err != nil {
		p.logger.Warn().Err(err).Msg("weather lookup failed")
		return nil, err
	}

	p.mu.Lock()
	if p.seq == seq {
		p.snapshot = snap
		p.updatedAt = time.Now()
	}
	p.mu.Unlock()

	return snap, nil
}

// CancelTrip stops the progress simulation. The planned route stays
// available.
func (p *Planner) CancelTrip() {
	p.simulator.Cancel()
}

// SetPreferences replaces the accessibility profile used for future
// requests. The active route is not recomputed.
func (p *Planner) SetPreferences(prefs routing.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs = prefs.Clone()
	p.updatedAt = time.Now()
}

// Preferences returns a copy of the current accessibility profile.
func (p *Planner) Preferences() routing.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs.Clone()
}

// Snapshot returns a copy of the planner state.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	var features []access.Feature
	if len(p.featureSet) > 0 {
		features = make([]access.Feature, len(p.featureSet))
		copy(features, p.featureSet)
	}

	return Snapshot{
		Start:       p.start,
		Destination: p.destination,
		Route:       p.route,
		Features:    features,
		Weather:     p.snapshot,
		Progress:    p.simulator.Snapshot(),
		Preferences: p.prefs.Clone(),
		Calculating: p.calculating,
		LastError:   p.lastError,
		UpdatedAt:   p.updatedAt,
	}
}

// begin marks a new planning attempt. Bumping the sequence number
// invalidates any in-flight enrichment from earlier requests.
func (p *Planner) begin() (uint64, routing.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.calculating = true
	p.lastError = nil
	p.updatedAt = time.Now()
	return p.seq, p.prefs.Clone()
}

func (p *Planner) endCalculating() {
	p.mu.Lock()
	p.calculating = false
	p.updatedAt = time.Now()
	p.mu.Unlock()
}

// reject records an input failure without consuming a sequence number.
func (p *Planner) reject(err error) error {
	p.mu.Lock()
	p.lastError = err
	p.updatedAt = time.Now()
	p.mu.Unlock()

	p.logger.Debug().Err(err).Msg("route request rejected")
	return err
}

// fail records a pipeline failure. The previous route and progress are left
// as they were.
func (p *Planner) fail(seq uint64, err error) error {
	p.mu.Lock()
	if p.seq == seq {
		p.lastError = err
		p.updatedAt = time.Now()
	}
	p.mu.Unlock()

	p.logger.Warn().Err(err).Msg("route request failed")
	return err
}

// publishRoute installs the new route, clears enrichment state from the
// previous route, and restarts the progress simulation.
func (p *Planner) publishRoute(seq uint64, start, destination *geocode.Match, route *routing.Route) {
	p.mu.Lock()
	if p.seq != seq {
		p.mu.Unlock()
		return
	}
	p.start = start
	p.destination = destination
	p.route = route
	p.featureSet = nil
	p.lastError = nil
	p.updatedAt = time.Now()

	// The simulator restart happens under the same lock as the sequence
	// check, so a superseded request can never restart it after a newer
	// route has gone live.
	p.simulator.Start(float64(route.DurationSeconds), route.DistanceMeters)
	p.mu.Unlock()

	p.logger.Info().
		Str("start", start.DisplayName).
		Str("destination", destination.DisplayName).
		Float64("end_lat", route.End().Lat).
		Float64("end_lon", route.End().Lon).
		Float64("distance_meters", route.DistanceMeters).
		Int("duration_seconds", route.DurationSeconds).
		Msg("route published")
}

// enrichFeatures fetches accessibility features along the path. Failures
// are logged and never surface on the trip; stale completions are dropped.
func (p *Planner) enrichFeatures(ctx context.Context, seq uint64, path []geo.Coordinate) {
	features, err := p.features.FeaturesAlong(ctx, path)
	if err != nil {
		p.logger.Warn().Err(err).Msg("feature enrichment failed")
		return
	}

	p.mu.Lock()
	if p.seq == seq {
		p.featureSet = features
		p.updatedAt = time.Now()
	}
	p.mu.Unlock()
}

// refreshWeather fetches weather at the route start. Same contract as
// enrichFeatures: best-effort, stale completions dropped.
func (p *Planner) refreshWeather(ctx context.Context, seq uint64, at geo.Coordinate) {
	snap, err := p.weather.CurrentWeather(ctx, at.Lat, at.Lon)
	if err != nil {
		p.logger.Warn().Err(err).Msg("weather enrichment failed")
		return
	}

	p.mu.Lock()
	if p.seq == seq {
		p.snapshot = snap
		p.updatedAt = time.Now()
	}
	p.mu.Unlock()
}
