package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/weather"
	"github.com/accessroute/accessroute/internal/worker"
)

type mockWeatherRefresher struct {
	mu        sync.Mutex
	err       error
	callCount int
}

func (m *mockWeatherRefresher) CurrentWeather(_ context.Context, lat, lon float64) (*weather.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return &weather.Snapshot{Lat: lat, Lon: lon, Condition: weather.ConditionClear}, nil
}

func (m *mockWeatherRefresher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

type mockFeatureRefresher struct {
	mu        sync.Mutex
	err       error
	callCount int
	lastBox   geo.BoundingBox
}

func (m *mockFeatureRefresher) FeaturesNear(_ context.Context, box geo.BoundingBox) ([]access.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastBox = box
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func (m *mockFeatureRefresher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func testConfig() worker.RefreshConfig {
	return worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:     "test-city",
				Priority: 1,
				Points: []worker.Point{
					{Lat: 52.37, Lon: 4.89},
					{Lat: 52.38, Lon: 4.90},
				},
			},
		},
		Concurrency:       2,
		Timeout:           5 * time.Second,
		RefreshWeather:    true,
		RefreshFeatures:   true,
		FeatureBoxDegrees: 0.01,
	}
}

func TestRefreshJobRun(t *testing.T) {
	weatherMock := &mockWeatherRefresher{}
	featureMock := &mockFeatureRefresher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         testConfig(),
		Logger:         zerolog.Nop(),
		WeatherService: weatherMock,
		FeatureService: featureMock,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.TotalPoints)
	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, weatherMock.calls())
	assert.Equal(t, 2, featureMock.calls())

	metrics := job.Metrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(2), metrics.WeatherRefresh)
	assert.Equal(t, int64(2), metrics.FeaturesRefresh)
}

func TestRefreshJobFeatureBox(t *testing.T) {
	featureMock := &mockFeatureRefresher{}
	cfg := testConfig()
	cfg.Targets[0].Points = cfg.Targets[0].Points[:1]
	cfg.RefreshWeather = false

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		FeatureService: featureMock,
	})

	result := job.Run(context.Background())
	require.Equal(t, 1, result.Successful)

	assert.InDelta(t, 52.36, featureMock.lastBox.MinLat, 1e-9)
	assert.InDelta(t, 52.38, featureMock.lastBox.MaxLat, 1e-9)
	assert.InDelta(t, 4.88, featureMock.lastBox.MinLon, 1e-9)
	assert.InDelta(t, 4.90, featureMock.lastBox.MaxLon, 1e-9)
}

func TestRefreshJobPartialFailure(t *testing.T) {
	weatherMock := &mockWeatherRefresher{err: weather.ErrProviderUnavailable}
	featureMock := &mockFeatureRefresher{}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         testConfig(),
		Logger:         zerolog.Nop(),
		WeatherService: weatherMock,
		FeatureService: featureMock,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Successful)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "weather", result.Errors[0].Provider)

	// Feature refresh still ran despite weather failures.
	assert.Equal(t, 2, featureMock.calls())
}

func TestRefreshJobNilServices(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: testConfig(),
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())
	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.Failed)
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()
	assert.NotEmpty(t, cfg.Targets)
	assert.Equal(t, cfg.TotalPoints(), len(cfg.AllPoints()))
	assert.True(t, cfg.RefreshWeather)
	assert.True(t, cfg.RefreshFeatures)
}
