// Package worker provides background cache warming for AccessRoute.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to keep warm.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh.
	// Typically city centers and transit hubs where trips start.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the cache refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshWeather enables weather cache refresh.
	// Default: true
	RefreshWeather bool

	// RefreshFeatures enables accessibility feature cache refresh.
	// Default: true
	RefreshFeatures bool

	// FeatureBoxDegrees is the half-size of the box queried around each
	// point when warming the feature cache. Default: 0.01 (~1.1km).
	FeatureBoxDegrees float64
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:           DefaultRefreshTargets(),
		Concurrency:       3,
		Timeout:           30 * time.Second,
		RefreshWeather:    true,
		RefreshFeatures:   true,
		FeatureBoxDegrees: 0.01,
	}
}

// DefaultRefreshTargets returns the default refresh targets: dense urban
// areas where accessibility routing requests cluster.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Amsterdam",
			Priority: 1,
			Points: []Point{
				{Lat: 52.3791, Lon: 4.9003}, // Centraal
				{Lat: 52.3676, Lon: 4.9041}, // Dam square
				{Lat: 52.3386, Lon: 4.8727}, // Zuid
			},
		},
		{
			Name:     "Rotterdam",
			Priority: 1,
			Points: []Point{
				{Lat: 51.9244, Lon: 4.4690}, // Centraal
				{Lat: 51.9179, Lon: 4.4850}, // Blaak
			},
		},
		{
			Name:     "Utrecht",
			Priority: 2,
			Points: []Point{
				{Lat: 52.0894, Lon: 5.1102}, // Centraal
			},
		},
	}
}

// AllPoints returns every point across all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for priority := 1; priority <= maxPriority(c.Targets); priority++ {
		for _, t := range c.Targets {
			if t.Priority == priority {
				points = append(points, t.Points...)
			}
		}
	}
	return points
}

// TotalPoints returns the number of points across all targets.
func (c RefreshConfig) TotalPoints() int {
	n := 0
	for _, t := range c.Targets {
		n += len(t.Points)
	}
	return n
}

func maxPriority(targets []RefreshTarget) int {
	max := 0
	for _, t := range targets {
		if t.Priority > max {
			max = t.Priority
		}
	}
	return max
}
