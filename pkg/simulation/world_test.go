package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adam-goose/fyp/pkg/behavior"
)

func TestFlockActor_AdvanceCountsTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 10
	w := NewFlockActor(cfg, nil)
	require.NoError(t, w.spawn())
	assert.Equal(t, behavior.BoidsModelName, w.flock.Model().Name())

	require.NoError(t, w.advance(3))
	assert.Equal(t, 3, w.tickCount)
	assert.Equal(t, uint64(3), w.flock.Tick())
}

func TestFlockActor_AdvanceSkipsFailedTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 10
	// an infinite time step sends every agent to infinity on the first tick
	cfg.DeltaTime = math.Inf(1)
	w := NewFlockActor(cfg, nil)
	require.NoError(t, w.spawn())

	err := w.advance(3)
	assert.ErrorIs(t, err, behavior.ErrNonFiniteState)
	assert.Equal(t, 0, w.tickCount, "failed ticks must not count toward the tick rate")
	assert.Equal(t, uint64(0), w.flock.Tick())
}
