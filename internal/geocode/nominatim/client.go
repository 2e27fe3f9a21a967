// Package nominatim provides a client for the OSM Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// defaultUserAgent identifies this service; Nominatim's usage policy
	// requires a meaningful User-Agent.
	defaultUserAgent = "accessroute/1.0"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// UserAgent overrides the default User-Agent header (optional).
	UserAgent string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient resilience.Doer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim search API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient resilience.Doer
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Resolve returns the best match for the query. An empty result set maps to
// geocode.ErrNotFound; transport and server failures map to
// geocode.ErrUnavailable.
func (c *Client) Resolve(ctx context.Context, query string) (*geocode.Match, error) {
	searchURL := fmt.Sprintf("%s/search?format=jsonv2&limit=1&q=%s",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", geocode.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", geocode.ErrUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", geocode.ErrUnavailable, err)
	}

	if len(results) == 0 {
		return nil, geocode.ErrNotFound
	}

	match, err := toMatch(query, &results[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", geocode.ErrUnavailable, err)
	}

	c.logger.Debug().
		Str("query", query).
		Str("display_name", match.DisplayName).
		Float64("lat", match.Location.Lat).
		Float64("lon", match.Location.Lon).
		Msg("resolved place name")

	return match, nil
}

// toMatch converts a Nominatim result to the domain model. Nominatim
// returns coordinates as strings.
func toMatch(query string, r *searchResult) (*geocode.Match, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", r.Lon, err)
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	return &geocode.Match{
		Query:       query,
		DisplayName: r.DisplayName,
		Location:    coord,
		Source:      ProviderName,
		ResolvedAt:  time.Now(),
	}, nil
}

// searchResult is one entry of the Nominatim search response.
type searchResult struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}
