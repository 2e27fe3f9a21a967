// Package routing provides accessibility-constrained route computation.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/accessroute/accessroute/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrNoRoute indicates no usable accessible route exists between the
	// given points. Covers both "provider returned zero routes" and
	// "provider returned a degenerate path".
	ErrNoRoute = errors.New("no accessible route found between the given points")
	// ErrProviderUnavailable indicates the routing provider is down or the
	// circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates an endpoint outside valid ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// ComputeRoute returns an accessible route honoring the preferences,
	// or ErrNoRoute when none exists.
	ComputeRoute(ctx context.Context, req RouteRequest) (*Route, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Preferences are the accessibility constraints applied to route
// computation. A snapshot is taken per request; it is never mutated during
// computation. Semantic feasibility (an impossible slope, say) is the
// provider's concern, not validated here.
type Preferences struct {
	// MaxSlopePercent is the steepest acceptable incline, in percent.
	MaxSlopePercent float64

	// PreferredSurfaces lists acceptable surface tags; order irrelevant.
	PreferredSurfaces []string

	// AvoidStairs excludes steps from the route.
	AvoidStairs bool

	// RequireElevators demands step-free vertical transitions.
	RequireElevators bool

	// MinPathWidthCm is the narrowest acceptable path, in centimeters.
	MinPathWidthCm float64
}

// DefaultPreferences returns a conservative wheelchair-friendly default.
func DefaultPreferences() Preferences {
	return Preferences{
		MaxSlopePercent:   6,
		PreferredSurfaces: []string{"paved", "smooth"},
		AvoidStairs:       true,
		RequireElevators:  true,
		MinPathWidthCm:    90,
	}
}

// Clone returns a deep copy, so callers can hold a snapshot safely.
func (p Preferences) Clone() Preferences {
	out := p
	out.PreferredSurfaces = append([]string(nil), p.PreferredSurfaces...)
	return out
}

// Fingerprint returns a stable string identifying the preference set,
// used in cache keys. Surface order does not matter.
func (p Preferences) Fingerprint() string {
	surfaces := append([]string(nil), p.PreferredSurfaces...)
	sort.Strings(surfaces)

	return fmt.Sprintf("slope=%.2f;width=%.1f;stairs=%t;elevators=%t;surfaces=%s",
		p.MaxSlopePercent, p.MinPathWidthCm, p.AvoidStairs, p.RequireElevators,
		strings.Join(surfaces, ","))
}

// RouteRequest is the request for computing a route.
type RouteRequest struct {
	Start       geo.Coordinate
	Destination geo.Coordinate
	Preferences Preferences
}

// Route is an ordered path between two coordinates plus its totals.
// Created once per successful computation and never mutated; a newer
// route supersedes it.
type Route struct {
	// Path is the route geometry, at least one point for a valid route.
	Path []geo.Coordinate

	// DurationSeconds is the estimated travel time; always > 0 for an
	// accepted route.
	DurationSeconds int

	// DistanceMeters is the total length; always >= 0.
	DistanceMeters float64

	// Summary is a short human-readable description.
	Summary string

	// Provider names where the route came from.
	Provider string

	FetchedAt time.Time
}

// Start returns the first point of the path.
func (r *Route) Start() geo.Coordinate {
	return r.Path[0]
}

// End returns the last point of the path.
func (r *Route) End() geo.Coordinate {
	return r.Path[len(r.Path)-1]
}

// Valid reports whether the route is usable for presentation and simulation.
func (r *Route) Valid() bool {
	return r != nil && len(r.Path) >= 1 && r.DurationSeconds > 0 && r.DistanceMeters >= 0
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
