package behavior

import (
	"math"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// Settings controls the physics constants for the simulation.
// It is passed by value into every force function, so changing rules between
// ticks only requires handing a new Settings to the flock.
type Settings struct {
	PerceptionRadius float64 // upper bound used to size the spatial grid

	CohesionRadius   float64
	CohesionWeight   float64
	AlignmentRadius  float64
	AlignmentWeight  float64
	SeparationRadius float64
	SeparationWeight float64

	// WallRepulsionWeight scales both the wall and the obstacle force.
	WallRepulsionWeight float64
	BoundaryThreshold   float64
	BoundaryMaxForce    float64

	World    geometry.Box
	Obstacle Obstacle

	DirectionAlpha  float64
	MomentumWeight  float64
	Acceleration    float64
	Deceleration    float64
	TurnSensitivity float64 // degrees
	DeltaTime       float64

	MinSpeed float64
	MaxSpeed float64

	// Spawn parameters, only read by Flock.Reset.
	InitSpeedBounds     [2]float64
	InitDirectionBounds [2]float64

	UseSpatialGrid bool
	Workers        int
}

// BlendAlpha is the weight given to the composite heading in the direction blend.
// A non-positive momentum weight disables the momentum scaling.
func (s Settings) BlendAlpha() float64 {
	if s.MomentumWeight <= 0 {
		return s.DirectionAlpha
	}
	return s.DirectionAlpha / s.MomentumWeight
}

// InteractionRadius is the largest radius any neighbor query can use.
func (s Settings) InteractionRadius() float64 {
	r := math.Max(s.PerceptionRadius, s.CohesionRadius)
	r = math.Max(r, s.AlignmentRadius)
	return math.Max(r, s.SeparationRadius)
}
