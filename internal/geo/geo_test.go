package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessroute/accessroute/internal/geo"
)

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coord   geo.Coordinate
		wantErr bool
	}{
		{"valid", geo.Coordinate{Lat: 52.37, Lon: 4.89}, false},
		{"lat too high", geo.Coordinate{Lat: 90.1, Lon: 0}, true},
		{"lat too low", geo.Coordinate{Lat: -90.1, Lon: 0}, true},
		{"lon too high", geo.Coordinate{Lat: 0, Lon: 180.1}, true},
		{"lon too low", geo.Coordinate{Lat: 0, Lon: -180.1}, true},
		{"boundary", geo.Coordinate{Lat: -90, Lon: 180}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, geo.ErrOutOfRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodePolyline_RoundTrip(t *testing.T) {
	// Reference example from the polyline algorithm documentation.
	path := geo.DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.Len(t, path, 3)
	assert.InDelta(t, 38.5, path[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, path[0].Lon, 1e-5)
	assert.InDelta(t, 43.252, path[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, path[2].Lon, 1e-5)

	encoded := geo.EncodePolyline(path)
	again := geo.DecodePolyline(encoded)
	require.Len(t, again, 3)
	for i := range path {
		assert.InDelta(t, path[i].Lat, again[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, again[i].Lon, 1e-5)
	}
}

func TestDecodePolyline_Empty(t *testing.T) {
	assert.Nil(t, geo.DecodePolyline(""))
	assert.Equal(t, "", geo.EncodePolyline(nil))
}

func TestDistance(t *testing.T) {
	// Amsterdam Centraal to Dam Square, roughly 700m.
	a := geo.Coordinate{Lat: 52.3791, Lon: 4.9003}
	b := geo.Coordinate{Lat: 52.3730, Lon: 4.8926}
	d := geo.Distance(a, b)
	assert.InDelta(t, 850, d, 200)

	assert.Zero(t, geo.Distance(a, a))
}

func TestBounds(t *testing.T) {
	_, ok := geo.Bounds(nil)
	assert.False(t, ok)

	box, ok := geo.Bounds([]geo.Coordinate{
		{Lat: 52.37, Lon: 4.89},
		{Lat: 52.36, Lon: 4.91},
		{Lat: 52.38, Lon: 4.90},
	})
	require.True(t, ok)
	assert.Equal(t, 52.36, box.MinLat)
	assert.Equal(t, 52.38, box.MaxLat)
	assert.Equal(t, 4.89, box.MinLon)
	assert.Equal(t, 4.91, box.MaxLon)

	padded := box.Pad(0.01)
	assert.InDelta(t, 52.35, padded.MinLat, 1e-9)
	assert.InDelta(t, 4.92, padded.MaxLon, 1e-9)
	assert.True(t, padded.Contains(geo.Coordinate{Lat: 52.355, Lon: 4.915}))
}

func TestSample(t *testing.T) {
	path := []geo.Coordinate{
		{Lat: 52.0, Lon: 4.0},
		{Lat: 52.01, Lon: 4.0}, // ~1.1km north
	}

	sampled := geo.Sample(path, 200)
	require.GreaterOrEqual(t, len(sampled), 5)
	assert.Equal(t, path[0], sampled[0])
	assert.Equal(t, path[1], sampled[len(sampled)-1])

	// Non-positive interval returns the path untouched.
	assert.Equal(t, path, geo.Sample(path, 0))
}
