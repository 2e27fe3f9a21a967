// Package geo provides shared geographic primitives: coordinates, bounding
// boxes, haversine distances, and polyline geometry handling.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange indicates a coordinate outside valid latitude/longitude bounds.
var ErrOutOfRange = errors.New("coordinate out of range")

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate is finite and within valid ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("non-finite coordinate: %w", ErrOutOfRange)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]: %w", c.Lat, ErrOutOfRange)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]: %w", c.Lon, ErrOutOfRange)
	}
	return nil
}

// BoundingBox is a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies within the box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Pad expands the box by the given margin in degrees on every side,
// clamped to valid coordinate ranges.
func (b BoundingBox) Pad(degrees float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Max(b.MinLat-degrees, -90),
		MinLon: math.Max(b.MinLon-degrees, -180),
		MaxLat: math.Min(b.MaxLat+degrees, 90),
		MaxLon: math.Min(b.MaxLon+degrees, 180),
	}
}

// Bounds returns the bounding box of a path. The second return value is
// false for an empty path.
func Bounds(path []Coordinate) (BoundingBox, bool) {
	if len(path) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinLat: path[0].Lat, MaxLat: path[0].Lat,
		MinLon: path[0].Lon, MaxLon: path[0].Lon,
	}
	for _, c := range path[1:] {
		box.MinLat = math.Min(box.MinLat, c.Lat)
		box.MaxLat = math.Max(box.MaxLat, c.Lat)
		box.MinLon = math.Min(box.MinLon, c.Lon)
		box.MaxLon = math.Max(box.MaxLon, c.Lon)
	}
	return box, true
}

const earthRadiusMeters = 6371000

// Distance returns the haversine distance between two points in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PathLength returns the total length of a path in meters.
func PathLength(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// Sample returns points spaced approximately intervalMeters apart along the
// path, always including the first and last points.
func Sample(path []Coordinate, intervalMeters float64) []Coordinate {
	if len(path) == 0 {
		return nil
	}
	if intervalMeters <= 0 {
		return path
	}

	out := []Coordinate{path[0]}
	acc := 0.0
	for i := 1; i < len(path); i++ {
		seg := Distance(path[i-1], path[i])
		for acc+seg >= intervalMeters {
			remaining := intervalMeters - acc
			f := remaining / seg
			out = append(out, Coordinate{
				Lat: path[i-1].Lat + f*(path[i].Lat-path[i-1].Lat),
				Lon: path[i-1].Lon + f*(path[i].Lon-path[i-1].Lon),
			})
			seg -= remaining
			acc = 0
		}
		acc += seg
	}

	last := path[len(path)-1]
	if out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
