package behavior

import (
	"math/rand/v2"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// BoundaryRepulsion returns the 1D force pushing a coordinate back inside [minBound, maxBound].
// The force grows linearly from 0 at the inner edge of the threshold band to maxForce at the
// wall and keeps growing past it. With a zero threshold it degenerates to a step of maxForce
// applied only once the wall is crossed.
func BoundaryRepulsion(position, minBound, maxBound, threshold, maxForce float64) float64 {
	if position < minBound+threshold {
		if threshold <= 0 {
			return maxForce
		}
		return maxForce * (threshold - (position - minBound)) / threshold
	}
	if position > maxBound-threshold {
		if threshold <= 0 {
			return -maxForce
		}
		return -maxForce * (threshold - (maxBound - position)) / threshold
	}
	return 0
}

// WallRepulsion composes BoundaryRepulsion over the three axes of the world box.
func WallRepulsion(p geometry.Vector3D, world geometry.Box, threshold, maxForce float64) geometry.Vector3D {
	return geometry.Vector3D{
		X: BoundaryRepulsion(p.X, world.Min.X, world.Max.X, threshold, maxForce),
		Y: BoundaryRepulsion(p.Y, world.Min.Y, world.Max.Y, threshold, maxForce),
		Z: BoundaryRepulsion(p.Z, world.Min.Z, world.Max.Z, threshold, maxForce),
	}
}

// Obstacle is an axis-aligned box agents steer around.
// Corner order in Box does not matter.
type Obstacle struct {
	Enabled bool
	Box     geometry.Box
}

// Repulsion is a shorthand for ObstacleRepulsion on o.
func (o Obstacle) Repulsion(p geometry.Vector3D, threshold, maxForce float64, rng *rand.Rand) geometry.Vector3D {
	return ObstacleRepulsion(p, o, threshold, maxForce, rng)
}

// ObstacleRepulsion returns the force pushing p away from the obstacle.
//
// Outside the box the force points from the closest surface point to p and falls off
// linearly from maxForce at the surface to zero at threshold. Inside the box it has
// magnitude maxForce and points away from the box center; an agent sitting exactly on
// the center gets a random unit direction drawn from rng.
func ObstacleRepulsion(p geometry.Vector3D, o Obstacle, threshold, maxForce float64, rng *rand.Rand) geometry.Vector3D {
	if !o.Enabled {
		return geometry.Zero
	}
	box := o.Box.Normalized()
	if !box.Expand(threshold).Contains(p) {
		return geometry.Zero
	}

	offset := p.Sub(box.Clamp(p))
	distance := offset.Len()
	if distance == 0 {
		away := p.Sub(box.Center())
		if away.Len() < geometry.Epsilon {
			away = geometry.RandomUnit(rng)
		}
		return away.Normalize().Mul(maxForce)
	}

	// corners of the expanded box lie beyond the spherical shell
	if threshold <= 0 || distance >= threshold {
		return geometry.Zero
	}
	strength := maxForce * (threshold - distance) / threshold
	return offset.Mul(strength / distance)
}
