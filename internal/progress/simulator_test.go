package progress

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newManualSimulator returns a simulator whose ticker effectively never
// fires, so tests drive steps through advance directly.
func newManualSimulator() *Simulator {
	return NewSimulator(SimulatorConfig{
		TickInterval: time.Hour,
		Logger:       zerolog.Nop(),
	})
}

func (s *Simulator) step(t *testing.T, n int) {
	t.Helper()
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.advance(run)
	}
}

func TestSimulatorInitialState(t *testing.T) {
	sim := newManualSimulator()

	snap := sim.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Fraction)
	assert.Zero(t, snap.RemainingDurationSeconds)
}

func TestSimulatorProgression(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(7200, 2500)

	snap := sim.Snapshot()
	assert.Equal(t, StateRunning, snap.State)
	assert.Zero(t, snap.Fraction)
	assert.Equal(t, 7200, snap.RemainingDurationSeconds)
	assert.InDelta(t, 2500, snap.RemainingDistanceMeters, 1e-9)

	sim.step(t, 10)

	snap = sim.Snapshot()
	assert.Equal(t, StateRunning, snap.State)
	assert.InDelta(t, 0.05, snap.Fraction, 1e-9)
	assert.Equal(t, 6840, snap.RemainingDurationSeconds)
	assert.InDelta(t, 2375, snap.RemainingDistanceMeters, 1e-9)
}

func TestSimulatorCompletes(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(600, 1000)

	// 200 steps of 0.005 reach exactly 1; extra steps must not overshoot.
	sim.step(t, 205)

	snap := sim.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	assert.InDelta(t, 1.0, snap.Fraction, 1e-9)
	assert.Zero(t, snap.RemainingDurationSeconds)
	assert.Zero(t, snap.RemainingDistanceMeters)
}

func TestSimulatorCancel(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(7200, 2500)
	sim.step(t, 5)

	sim.Cancel()

	snap := sim.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Fraction)
}

func TestSimulatorCancelIdleIsNoop(t *testing.T) {
	sim := newManualSimulator()
	sim.Cancel()
	assert.Equal(t, StateIdle, sim.Snapshot().State)
}

func TestSimulatorRestartSupersedesOldRun(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(7200, 2500)

	sim.mu.Lock()
	oldRun := sim.run
	sim.mu.Unlock()

	sim.Start(3600, 1200)

	// Ticks from the superseded run must not move the new one.
	for i := 0; i < 10; i++ {
		assert.False(t, sim.advance(oldRun))
	}

	snap := sim.Snapshot()
	assert.Equal(t, StateRunning, snap.State)
	assert.Zero(t, snap.Fraction)
	assert.Equal(t, 3600, snap.RemainingDurationSeconds)
}

func TestSimulatorStartNonPositiveDuration(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(0, 1000)

	snap := sim.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.RemainingDurationSeconds)
}

func TestSimulatorTicks(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{
		TickInterval: time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	sim.Start(100, 500)

	require.Eventually(t, func() bool {
		return sim.Snapshot().Fraction > 0
	}, time.Second, time.Millisecond, "ticker should advance the fraction")

	sim.Cancel()
}

func TestSimulatorRemainingRounding(t *testing.T) {
	sim := newManualSimulator()
	sim.Start(101, 100)
	sim.step(t, 1)

	// 101 * 0.995 = 100.495 rounds to 100.
	assert.Equal(t, 100, sim.Snapshot().RemainingDurationSeconds)

	sim.step(t, 1)

	// 101 * 0.99 = 99.99 rounds to 100.
	assert.Equal(t, 100, sim.Snapshot().RemainingDurationSeconds)
}
