// Package openrouteservice provides a client for the OpenRouteService
// directions API using the wheelchair profile.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/provider/resilience"
	"github.com/accessroute/accessroute/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// profileWheelchair is the ORS accessibility routing profile.
	profileWheelchair = "wheelchair"
)

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient resilience.Doer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient resilience.Doer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout != 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// ComputeRoute requests a wheelchair route between two points. The
// accessibility preferences are translated to ORS profile restrictions and
// otherwise passed through opaquely.
func (c *Client) ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.Route, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, profileWheelchair)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Float64("start_lat", req.Start.Lat).
		Float64("start_lon", req.Start.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Float64("max_slope", req.Preferences.MaxSlopePercent).
		Bool("avoid_stairs", req.Preferences.AvoidStairs).
		Msg("requesting wheelchair route from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	route, err := c.toRoute(&orsResp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("path_points", len(route.Path)).
		Int("duration_seconds", route.DurationSeconds).
		Msg("received route from ORS")

	return route, nil
}

// buildRequest maps the accessibility preferences onto the ORS wheelchair
// profile restrictions.
func buildRequest(req routing.RouteRequest) orsRequest {
	prefs := req.Preferences

	restrictions := &orsRestrictions{}
	if prefs.MaxSlopePercent > 0 {
		incline := prefs.MaxSlopePercent
		restrictions.MaximumIncline = &incline
	}
	if prefs.MinPathWidthCm > 0 {
		widthMeters := prefs.MinPathWidthCm / 100
		restrictions.MinimumWidth = &widthMeters
	}
	restrictions.SurfaceType = surfaceTypeFor(prefs.PreferredSurfaces)

	options := &orsOptions{
		ProfileParams: &orsProfileParams{Restrictions: restrictions},
	}
	if prefs.AvoidStairs || prefs.RequireElevators {
		options.AvoidFeatures = append(options.AvoidFeatures, "steps")
	}

	return orsRequest{
		Coordinates: [][]float64{
			{req.Start.Lon, req.Start.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Options:      options,
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	}
}

// surfaceTypeFor maps preferred surface tags to the most restrictive ORS
// surface_type the preference set allows.
func surfaceTypeFor(surfaces []string) string {
	for _, s := range surfaces {
		switch strings.ToLower(s) {
		case "paved", "asphalt", "concrete", "smooth":
			return "cobblestone:flattened"
		}
	}
	return ""
}

// toRoute converts the ORS response to the domain model. Zero routes or an
// empty geometry is ErrNoRoute.
func (c *Client) toRoute(resp *orsResponse) (*routing.Route, error) {
	if len(resp.Routes) == 0 {
		return nil, routing.ErrNoRoute
	}

	best := &resp.Routes[0]
	path := geo.DecodePolyline(best.Geometry)
	if len(path) == 0 {
		return nil, routing.ErrNoRoute
	}

	return &routing.Route{
		Path:            path,
		DurationSeconds: int(best.Summary.Duration),
		DistanceMeters:  best.Summary.Distance,
		Summary:         summarize(best),
		Provider:        ProviderName,
		FetchedAt:       time.Now(),
	}, nil
}

// summarize picks the longest instruction as a route summary.
func summarize(r *orsRoute) string {
	var text string
	var longest float64
	for _, seg := range r.Segments {
		for _, step := range seg.Steps {
			if step.Distance > longest && step.Instruction != "" {
				longest = step.Distance
				text = step.Instruction
			}
		}
	}
	return text
}

// mapErrorResponse converts ORS error responses to domain errors.
func (c *Client) mapErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	parseable := json.Unmarshal(body, &orsErr) == nil

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode == http.StatusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRoute,
		}
	case statusCode == http.StatusBadRequest && parseable && orsErr.Error.Code == orsErrorCodeRouteNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrNoRoute,
		}
	case statusCode == http.StatusBadRequest:
		msg := "invalid routing request"
		if parseable {
			msg = orsErr.Error.Message
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  msg,
			Err:      routing.ErrInvalidCoordinates,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}
