// Package access provides best-effort accessibility feature lookup along
// a route: ramps, elevators, curb cuts, and similar street furniture.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/accessroute/accessroute/internal/geo"
)

// ErrProviderUnavailable indicates the feature source is unreachable.
var ErrProviderUnavailable = errors.New("accessibility provider unavailable")

// FeatureType classifies an accessibility feature.
type FeatureType string

const (
	FeatureRamp              FeatureType = "RAMP"
	FeatureElevator          FeatureType = "ELEVATOR"
	FeatureCurbCut           FeatureType = "CURB_CUT"
	FeatureAccessibleToilet  FeatureType = "ACCESSIBLE_TOILET"
	FeatureTactilePaving     FeatureType = "TACTILE_PAVING"
	FeatureHandrail          FeatureType = "HANDRAIL"
	FeatureAccessibleParking FeatureType = "ACCESSIBLE_PARKING"
	FeatureOther             FeatureType = "OTHER"
)

// Status describes whether a feature is currently usable.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusUnknown  Status = "UNKNOWN"
)

// Feature is one accessibility feature near a route.
type Feature struct {
	Type        FeatureType
	Location    geo.Coordinate
	Description string
	Status      Status

	// LastUpdated is when the feature data was last refreshed.
	LastUpdated time.Time

	// Rating is a 0-5 quality rating, nil when the source has none.
	Rating *float64
}

// Provider defines the interface for accessibility feature sources.
type Provider interface {
	// FeaturesWithin returns accessibility features inside the box.
	FeaturesWithin(ctx context.Context, box geo.BoundingBox) ([]Feature, error)

	// Name returns the provider identifier for logging.
	Name() string
}
