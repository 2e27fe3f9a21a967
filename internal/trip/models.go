// Package trip orchestrates route planning: geocoding both endpoints,
// computing an accessibility-aware route, enriching it with nearby
// accessibility features and a weather snapshot, and driving the progress
// simulation.
package trip

import (
	"errors"
	"fmt"
	"time"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/progress"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/weather"
)

// Endpoint names the two ends of a route request.
type Endpoint string

const (
	EndpointStart       Endpoint = "start"
	EndpointDestination Endpoint = "destination"
)

// InputError reports a rejected request before any provider was called.
type InputError struct {
	Field   Endpoint
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// GeocodeError reports a failure to resolve one endpoint. The wrapped error
// preserves whether the location was unknown or the provider unavailable.
type GeocodeError struct {
	Endpoint Endpoint
	Query    string
	Err      error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocoding %s %q: %v", e.Endpoint, e.Query, e.Err)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the endpoint text matched no known location.
func (e *GeocodeError) NotFound() bool {
	return e.Err != nil && isNotFound(e.Err)
}

func isNotFound(err error) bool {
	return errors.Is(err, geocode.ErrNotFound)
}

// NoRouteError reports that both endpoints resolved but no accessible route
// connects them under the current preferences.
type NoRouteError struct {
	Start       geocode.Match
	Destination geocode.Match
	Err         error
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no accessible route from %q to %q", e.Start.DisplayName, e.Destination.DisplayName)
}

func (e *NoRouteError) Unwrap() error {
	return e.Err
}

// PipelineError wraps an unexpected failure in the planning pipeline.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("route planning failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Snapshot is a read-only view of the planner state for the presentation
// boundary. Slices are never shared with planner internals.
type Snapshot struct {
	Start       *geocode.Match
	Destination *geocode.Match
	Route       *routing.Route
	Features    []access.Feature
	Weather     *weather.Snapshot
	Progress    progress.Snapshot
	Preferences routing.Preferences
	Calculating bool
	LastError   error
	UpdatedAt   time.Time
}
