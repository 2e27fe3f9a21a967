package openrouteservice

// orsRequest is the ORS directions API request body for the wheelchair
// profile. Coordinates are [lon, lat] (GeoJSON order).
type orsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Options      *orsOptions `json:"options,omitempty"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
	Units        string      `json:"units"`
	Language     string      `json:"language"`
}

type orsOptions struct {
	AvoidFeatures []string          `json:"avoid_features,omitempty"`
	ProfileParams *orsProfileParams `json:"profile_params,omitempty"`
}

type orsProfileParams struct {
	Restrictions *orsRestrictions `json:"restrictions,omitempty"`
}

// orsRestrictions carries the wheelchair profile restrictions. Width is in
// meters; incline in percent.
type orsRestrictions struct {
	MaximumIncline *float64 `json:"maximum_incline,omitempty"`
	MinimumWidth   *float64 `json:"minimum_width,omitempty"`
	SurfaceType    string   `json:"surface_type,omitempty"`
	SmoothnessType string   `json:"smoothness_type,omitempty"`
}

// orsResponse is the ORS directions API response.
type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

type orsRoute struct {
	Geometry string     `json:"geometry"`
	Summary  orsSummary `json:"summary"`
	Segments []struct {
		Steps []struct {
			Instruction string  `json:"instruction"`
			Distance    float64 `json:"distance"`
		} `json:"steps"`
	} `json:"segments"`
}

type orsSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// orsErrorResponse is the ORS error envelope.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS error code for "route could not be found".
const orsErrorCodeRouteNotFound = 2009
