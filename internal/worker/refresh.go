package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/weather"
)

// WeatherRefresher warms the weather cache for a point.
type WeatherRefresher interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// FeatureRefresher warms the accessibility feature cache for a box.
type FeatureRefresher interface {
	FeaturesNear(ctx context.Context, box geo.BoundingBox) ([]access.Feature, error)
}

// RefreshJob keeps provider caches warm for the configured focus points so
// that interactive requests hit fresh data.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	weatherService WeatherRefresher
	featureService FeatureRefresher

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	TotalRefreshes  int64
	WeatherRefresh  int64
	FeaturesRefresh int64
	FailedRefreshes int64
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config         RefreshConfig
	Logger         zerolog.Logger
	WeatherService WeatherRefresher
	FeatureService FeatureRefresher
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency == 0 {
		config.Concurrency = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FeatureBoxDegrees == 0 {
		config.FeatureBoxDegrees = 0.01
	}

	return &RefreshJob{
		config:         config,
		logger:         cfg.Logger,
		weatherService: cfg.WeatherService,
		featureService: cfg.FeatureService,
		metrics:        &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Provider string
	Point    Point
	Error    string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache refresh job")

	points := j.config.AllPoints()

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	atomic.AddInt64(&j.metrics.TotalRefreshes, 1)
	atomic.AddInt64(&j.metrics.FailedRefreshes, int64(result.Failed))

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache refresh job completed")

	return result
}

// Metrics returns a copy of the job's counters.
func (j *RefreshJob) Metrics() RefreshMetrics {
	return RefreshMetrics{
		TotalRefreshes:  atomic.LoadInt64(&j.metrics.TotalRefreshes),
		WeatherRefresh:  atomic.LoadInt64(&j.metrics.WeatherRefresh),
		FeaturesRefresh: atomic.LoadInt64(&j.metrics.FeaturesRefresh),
		FailedRefreshes: atomic.LoadInt64(&j.metrics.FailedRefreshes),
	}
}

type pointResult struct {
	point   Point
	success bool
	errors  []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshWeather && j.weatherService != nil {
		if _, err := j.weatherService.CurrentWeather(pointCtx, point.Lat, point.Lon); err != nil {
			result.errors = append(result.errors, RefreshError{
				Provider: "weather",
				Point:    point,
				Error:    err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.WeatherRefresh, 1)
		}
	}

	if j.config.RefreshFeatures && j.featureService != nil {
		box := geo.BoundingBox{
			MinLat: point.Lat - j.config.FeatureBoxDegrees,
			MaxLat: point.Lat + j.config.FeatureBoxDegrees,
			MinLon: point.Lon - j.config.FeatureBoxDegrees,
			MaxLon: point.Lon + j.config.FeatureBoxDegrees,
		}
		if _, err := j.featureService.FeaturesNear(pointCtx, box); err != nil {
			result.errors = append(result.errors, RefreshError{
				Provider: "access",
				Point:    point,
				Error:    err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.FeaturesRefresh, 1)
		}
	}

	return result
}
