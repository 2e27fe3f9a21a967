// Package geocode resolves free-text place names to coordinates.
package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/accessroute/accessroute/internal/geo"
)

// Geocoding outcomes. ErrNotFound is a first-class result the caller
// branches on, not an exceptional failure; ErrUnavailable covers transport
// and provider errors and is kept distinct for logging.
var (
	ErrNotFound    = errors.New("no match for place name")
	ErrUnavailable = errors.New("geocoding provider unavailable")
	ErrEmptyQuery  = errors.New("empty place name")
)

// Match is a resolved place name.
type Match struct {
	// Query is the text that was resolved.
	Query string

	// DisplayName is the provider's canonical name for the match.
	DisplayName string

	// Location is the resolved coordinate.
	Location geo.Coordinate

	// Source names where the match came from (provider or "places").
	Source string

	ResolvedAt time.Time
}

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Resolve returns the best match for the query, ErrNotFound when the
	// source has no match, or ErrUnavailable on transport failure.
	Resolve(ctx context.Context, query string) (*Match, error)

	// Name returns the provider identifier for logging.
	Name() string
}
