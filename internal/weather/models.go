package weather

import (
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Snapshot represents weather conditions at a specific point and time.
type Snapshot struct {
	// Location coordinates
	Lat float64
	Lon float64

	// TemperatureCelsius is the air temperature.
	TemperatureCelsius float64

	// Precipitation is the precipitation intensity normalized to 0-1,
	// where 0 is dry and 1 is the heaviest rate the provider reports.
	Precipitation float64

	// Condition and the provider's human-readable description.
	Condition   Condition
	Description string

	// Icon is the provider's icon code, passed through for clients.
	Icon string

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition represents the general weather condition. Provider-specific
// condition vocabularies are folded into this fixed set.
type Condition string

const (
	ConditionClear   Condition = "CLEAR"
	ConditionClouds  Condition = "CLOUDS"
	ConditionRain    Condition = "RAIN"
	ConditionSnow    Condition = "SNOW"
	ConditionExtreme Condition = "EXTREME"
	ConditionOther   Condition = "OTHER"
)

// ElevatedRisk reports whether the condition makes surfaces slick or
// obstructed enough to matter for accessible travel.
func (c Condition) ElevatedRisk() bool {
	switch c {
	case ConditionRain, ConditionSnow, ConditionExtreme:
		return true
	}
	return false
}
