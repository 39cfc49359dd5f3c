package behavior

import (
	"math/rand/v2"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// headingEpsilon is the composite magnitude below which the agent keeps its heading.
const headingEpsilon = 1e-6

// SteeringForces are the unweighted components of one agent's heading.
type SteeringForces struct {
	Cohesion   geometry.Vector3D
	Alignment  geometry.Vector3D
	Separation geometry.Vector3D
	Wall       geometry.Vector3D
	Obstacle   geometry.Vector3D
}

// ComputeForces evaluates every steering component for a with the field already filled around it.
func ComputeForces(a Agent, f *NeighborField, s Settings, rng *rand.Rand) SteeringForces {
	return SteeringForces{
		Cohesion:   Cohesion(a.Position, f, s.CohesionRadius),
		Alignment:  Alignment(f, s.AlignmentRadius),
		Separation: Separation(f, s.SeparationRadius),
		Wall:       WallRepulsion(a.Position, s.World, s.BoundaryThreshold, s.BoundaryMaxForce),
		Obstacle:   ObstacleRepulsion(a.Position, s.Obstacle, s.BoundaryThreshold, s.BoundaryMaxForce, rng),
	}
}

// Sum is the weighted, unnormalized combination of the components.
// Wall and obstacle share WallRepulsionWeight.
func (sf SteeringForces) Sum(s Settings) geometry.Vector3D {
	return sf.Cohesion.Mul(s.CohesionWeight).
		Add(sf.Alignment.Mul(s.AlignmentWeight)).
		Add(sf.Separation.Mul(s.SeparationWeight)).
		Add(sf.Wall.Mul(s.WallRepulsionWeight)).
		Add(sf.Obstacle.Mul(s.WallRepulsionWeight))
}

// Heading normalizes Sum, falling back to current when the sum nearly cancels out.
func (sf SteeringForces) Heading(current geometry.Vector3D, s Settings) geometry.Vector3D {
	sum := sf.Sum(s)
	l := sum.Len()
	if l <= headingEpsilon {
		return current
	}
	return sum.Mul(1 / l)
}

// ComposeHeading returns the unit heading agent a is steered toward. It does not mutate a.
func ComposeHeading(a Agent, f *NeighborField, s Settings, rng *rand.Rand) geometry.Vector3D {
	return ComputeForces(a, f, s, rng).Heading(a.Direction, s)
}
