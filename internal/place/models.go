// Package place stores known places: named locations ("city hall",
// "central station") resolvable without a remote geocoder round trip.
package place

import (
	"errors"
	"time"
)

// ErrNotFound indicates no known place matches the requested name.
var ErrNotFound = errors.New("place not found")

// Place is a named location with a resolved coordinate.
type Place struct {
	// Name is the canonical display name.
	Name string

	// Alias is the normalized lookup key (lowercase, trimmed).
	Alias string

	Lat float64
	Lon float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
