// Package overpass provides a client for the Overpass API, querying
// OpenStreetMap for wheelchair-relevant accessibility features.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this accessibility feature provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the public Overpass API instance.
	DefaultBaseURL = "https://overpass-api.de"

	// queryTimeoutSeconds is the server-side Overpass query timeout.
	queryTimeoutSeconds = 25
)

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient resilience.Doer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL    string
	httpClient resilience.Doer
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		// Overpass queries are slow; allow the server-side timeout plus margin.
		clientCfg.Timeout = (queryTimeoutSeconds + 5) * time.Second
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FeaturesWithin queries OSM nodes and ways tagged as accessibility
// features inside the box.
func (c *Client) FeaturesWithin(ctx context.Context, box geo.BoundingBox) ([]access.Feature, error) {
	query := buildQuery(box)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", access.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", access.ErrProviderUnavailable, resp.StatusCode)
	}

	var overpassResp overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", access.ErrProviderUnavailable, err)
	}

	features := make([]access.Feature, 0, len(overpassResp.Elements))
	now := time.Now()
	for i := range overpassResp.Elements {
		if f, ok := toFeature(&overpassResp.Elements[i], now); ok {
			features = append(features, f)
		}
	}

	c.logger.Debug().
		Int("element_count", len(overpassResp.Elements)).
		Int("feature_count", len(features)).
		Msg("fetched accessibility features from overpass")

	return features, nil
}

// buildQuery assembles the Overpass QL union for accessibility-relevant
// nodes and ways inside the box. The "bb" output modifier makes Overpass
// attach bounds to way elements.
func buildQuery(box geo.BoundingBox) string {
	// Overpass bbox order: south, west, north, east.
	bbox := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)

	selectors := []string{
		`["highway"="elevator"]`,
		`["ramp"="yes"]`,
		`["ramp:wheelchair"="yes"]`,
		`["kerb"="lowered"]`,
		`["kerb"="flush"]`,
		`["tactile_paving"="yes"]`,
		`["handrail"="yes"]`,
		`["amenity"="toilets"]["wheelchair"="yes"]`,
		`["amenity"="parking"]["capacity:disabled"]`,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];(", queryTimeoutSeconds)
	for _, sel := range selectors {
		for _, elType := range []string{"node", "way"} {
			b.WriteString(elType)
			b.WriteString(sel)
			b.WriteString("(")
			b.WriteString(bbox)
			b.WriteString(");")
		}
	}
	b.WriteString(");out body bb;")
	return b.String()
}

// toFeature converts an Overpass element to the domain model. Elements
// without a recognizable accessibility tag are skipped; ways are located
// at the center of their bounds.
func toFeature(el *overpassElement, fetchedAt time.Time) (access.Feature, bool) {
	featureType := classify(el.Tags)
	if featureType == "" {
		return access.Feature{}, false
	}

	location := geo.Coordinate{Lat: el.Lat, Lon: el.Lon}
	if el.Bounds != nil {
		location = geo.BoundingBox{
			MinLat: el.Bounds.MinLat,
			MinLon: el.Bounds.MinLon,
			MaxLat: el.Bounds.MaxLat,
			MaxLon: el.Bounds.MaxLon,
		}.Center()
	} else if el.Type != "node" {
		// A way without bounds has no usable position.
		return access.Feature{}, false
	}

	return access.Feature{
		Type:        featureType,
		Location:    location,
		Description: describe(el.Tags, featureType),
		Status:      statusOf(el.Tags),
		LastUpdated: fetchedAt,
		Rating:      ratingOf(el.Tags),
	}, true
}

func classify(tags map[string]string) access.FeatureType {
	switch {
	case tags["highway"] == "elevator":
		return access.FeatureElevator
	case tags["ramp"] == "yes" || tags["ramp:wheelchair"] == "yes":
		return access.FeatureRamp
	case tags["kerb"] == "lowered" || tags["kerb"] == "flush":
		return access.FeatureCurbCut
	case tags["tactile_paving"] == "yes":
		return access.FeatureTactilePaving
	case tags["handrail"] == "yes":
		return access.FeatureHandrail
	case tags["amenity"] == "toilets":
		return access.FeatureAccessibleToilet
	case tags["amenity"] == "parking":
		return access.FeatureAccessibleParking
	}
	return ""
}

func describe(tags map[string]string, featureType access.FeatureType) string {
	if desc := tags["description"]; desc != "" {
		return desc
	}
	if name := tags["name"]; name != "" {
		return name
	}
	return strings.ReplaceAll(strings.ToLower(string(featureType)), "_", " ")
}

func statusOf(tags map[string]string) access.Status {
	switch {
	case tags["disused"] == "yes" || tags["operational_status"] == "closed" ||
		tags["wheelchair"] == "no":
		return access.StatusInactive
	case tags["wheelchair"] == "yes" || tags["operational_status"] == "operational":
		return access.StatusActive
	}
	return access.StatusUnknown
}

// ratingOf parses an optional "stars" tag; OSM rarely carries ratings, so
// this is usually nil.
func ratingOf(tags map[string]string) *float64 {
	raw, ok := tags["stars"]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// overpassResponse is the Overpass API JSON envelope.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Bounds *overpassBounds   `json:"bounds"`
	Tags   map[string]string `json:"tags"`
}

type overpassBounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}
