package behavior

import (
	"github.com/adam-goose/fyp/pkg/geometry"
)

// Agent represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
// We export fields so the renderer and the recorder can read them.
type Agent struct {
	Position  geometry.Vector3D
	Direction geometry.Vector3D // always unit length between ticks
	Speed     float64

	MinSpeed float64
	MaxSpeed float64
}

// NewAgent builds an agent with a normalized heading and a speed clamped to its bounds.
// A zero-length direction is rejected with ErrZeroDirection.
func NewAgent(position, direction geometry.Vector3D, speed, minSpeed, maxSpeed float64) (Agent, error) {
	if direction.Len() < geometry.Epsilon {
		return Agent{}, ErrZeroDirection
	}
	a := Agent{
		Position:  position,
		Direction: direction.Normalize(),
		Speed:     speed,
		MinSpeed:  minSpeed,
		MaxSpeed:  maxSpeed,
	}
	a.ClampSpeed()
	return a, nil
}

// ClampSpeed forces Speed back into [MinSpeed, MaxSpeed].
func (a *Agent) ClampSpeed() {
	a.Speed = geometry.Clamp(a.Speed, a.MinSpeed, a.MaxSpeed)
}
