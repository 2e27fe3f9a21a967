// Package models provides request and response models for the AccessRoute API.
package models

import "time"

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteComputeRequest asks for a route between two free-text endpoints.
type RouteComputeRequest struct {
	Start       string `json:"start"`
	Destination string `json:"destination"`
}

// EndpointResponse describes one resolved endpoint of the trip.
type EndpointResponse struct {
	Query       string `json:"query"`
	DisplayName string `json:"displayName"`
	Point       Point  `json:"point"`
}

// RouteResponse describes the active route. Path is thinned for long
// routes; Geometry carries the full-fidelity encoded polyline.
type RouteResponse struct {
	Start           EndpointResponse `json:"start"`
	Destination     EndpointResponse `json:"destination"`
	Path            []Point          `json:"path"`
	Geometry        string           `json:"geometry"`
	DurationSeconds int              `json:"durationSeconds"`
	DistanceMeters  float64          `json:"distanceMeters"`
	Summary         string           `json:"summary,omitempty"`
	Provider        string           `json:"provider"`
}

// FeatureResponse describes one accessibility feature near the route.
type FeatureResponse struct {
	Type        string   `json:"type"`
	Point       Point    `json:"point"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Rating      *float64 `json:"rating,omitempty"`
}

// WeatherResponse describes the current weather snapshot.
type WeatherResponse struct {
	Lat                float64   `json:"lat"`
	Lon                float64   `json:"lon"`
	TemperatureCelsius float64   `json:"temperatureCelsius"`
	Precipitation      float64   `json:"precipitation"`
	Condition          string    `json:"condition"`
	ElevatedRisk       bool      `json:"elevatedRisk"`
	Description        string    `json:"description,omitempty"`
	Icon               string    `json:"icon,omitempty"`
	ObservedAt         time.Time `json:"observedAt"`
}

// ProgressResponse describes the trip progress simulation.
type ProgressResponse struct {
	State                    string  `json:"state"`
	Fraction                 float64 `json:"fraction"`
	RemainingDurationSeconds int     `json:"remainingDurationSeconds"`
	RemainingDistanceMeters  float64 `json:"remainingDistanceMeters"`
}

// TripResponse is the full trip view.
type TripResponse struct {
	Route       *RouteResponse    `json:"route,omitempty"`
	Features    []FeatureResponse `json:"features"`
	Weather     *WeatherResponse  `json:"weather,omitempty"`
	Progress    ProgressResponse  `json:"progress"`
	Calculating bool              `json:"calculating"`
	Error       *string           `json:"error,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// PreferencesModel carries the accessibility routing profile.
type PreferencesModel struct {
	MaxSlopePercent   float64  `json:"maxSlopePercent"`
	PreferredSurfaces []string `json:"preferredSurfaces"`
	AvoidStairs       bool     `json:"avoidStairs"`
	RequireElevators  bool     `json:"requireElevators"`
	MinPathWidthCm    float64  `json:"minPathWidthCm"`
}
