// Package progress runs a synthetic route progress simulation. Each active
// route advances a completion fraction on a fixed tick until it reaches the
// destination or the run is cancelled.
package progress

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State describes the simulator lifecycle.
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
)

// Snapshot is a point-in-time view of the simulation.
type Snapshot struct {
	State State

	// Fraction is route completion in [0, 1].
	Fraction float64

	// RemainingDurationSeconds is the time left at the route's pace,
	// rounded to the nearest second.
	RemainingDurationSeconds int

	// RemainingDistanceMeters is the distance left at constant pace.
	RemainingDistanceMeters float64
}

// SimulatorConfig holds configuration for the simulator.
type SimulatorConfig struct {
	// TickInterval is the wall-clock time between steps (default: 1 second).
	TickInterval time.Duration

	// StepPerTick is the completion fraction added per tick (default: 0.005).
	StepPerTick float64

	// Logger for simulator operations.
	Logger zerolog.Logger
}

// Simulator advances a completion fraction on a fixed tick. Starting a new
// run supersedes the previous one; ticks from a superseded run never apply.
type Simulator struct {
	tickInterval time.Duration
	stepPerTick  float64
	logger       zerolog.Logger

	mu              sync.Mutex
	state           State
	fraction        float64
	durationSeconds float64
	distanceMeters  float64
	run             uint64
	stop            chan struct{}
}

// NewSimulator creates an idle simulator.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	tickInterval := cfg.TickInterval
	if tickInterval == 0 {
		tickInterval = time.Second
	}

	stepPerTick := cfg.StepPerTick
	if stepPerTick == 0 {
		stepPerTick = 0.005
	}

	return &Simulator{
		tickInterval: tickInterval,
		stepPerTick:  stepPerTick,
		logger:       cfg.Logger,
		state:        StateIdle,
	}
}

// Start begins a fresh simulation for a route with the given initial
// duration and distance, cancelling any run already in progress.
// Non-positive durations leave the simulator idle.
func (s *Simulator) Start(durationSeconds float64, distanceMeters float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if durationSeconds <= 0 {
		s.state = StateIdle
		s.fraction = 0
		s.durationSeconds = 0
		s.distanceMeters = 0
		return
	}

	s.run++
	s.state = StateRunning
	s.fraction = 0
	s.durationSeconds = durationSeconds
	s.distanceMeters = distanceMeters
	s.stop = make(chan struct{})

	s.logger.Debug().
		Float64("duration_seconds", durationSeconds).
		Float64("distance_meters", distanceMeters).
		Uint64("run", s.run).
		Msg("progress simulation started")

	go s.loop(s.run, s.stop)
}

// Cancel stops the current run and returns the simulator to idle.
// Cancelling an idle simulator is a no-op.
func (s *Simulator) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}

	s.stopLocked()
	s.state = StateIdle
	s.fraction = 0

	s.logger.Debug().Uint64("run", s.run).Msg("progress simulation cancelled")
}

// Snapshot returns the current simulation state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	remainingFraction := 1 - s.fraction
	return Snapshot{
		State:                    s.state,
		Fraction:                 s.fraction,
		RemainingDurationSeconds: int(math.Round(s.durationSeconds * remainingFraction)),
		RemainingDistanceMeters:  s.distanceMeters * remainingFraction,
	}
}

// stopLocked closes the active stop channel. Caller holds s.mu.
func (s *Simulator) stopLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Simulator) loop(run uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.advance(run) {
				return
			}
		}
	}
}

// advance applies one step. It reports whether the run should keep ticking.
func (s *Simulator) advance(run uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer run or a cancel supersedes this tick.
	if run != s.run || s.state != StateRunning {
		return false
	}

	s.fraction += s.stepPerTick
	if s.fraction >= 1 {
		s.fraction = 1
		s.state = StateCompleted
		s.stopLocked()

		s.logger.Debug().Uint64("run", run).Msg("progress simulation completed")
		return false
	}

	return true
}
