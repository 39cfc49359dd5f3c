package behavior

import (
	"github.com/adam-goose/fyp/pkg/geometry"
)

// Every force below only considers neighbors with 0 < distance <= radius
// and returns the exact zero vector when none qualifies.

func inRadius(d, radius float64) bool {
	return d > 0 && d <= radius
}

// Cohesion steers toward the mean position of the neighbors within radius.
func Cohesion(self geometry.Vector3D, f *NeighborField, radius float64) geometry.Vector3D {
	var sum geometry.Vector3D
	count := 0
	for i, d := range f.Distances {
		if !inRadius(d, radius) {
			continue
		}
		sum = sum.Add(f.Positions[i])
		count++
	}
	if count == 0 {
		return geometry.Zero
	}
	center := sum.Mul(1 / float64(count))
	return center.Sub(self).Normalize()
}

// Alignment steers toward the mean heading of the neighbors within radius.
func Alignment(f *NeighborField, radius float64) geometry.Vector3D {
	var sum geometry.Vector3D
	count := 0
	for i, d := range f.Distances {
		if !inRadius(d, radius) {
			continue
		}
		sum = sum.Add(f.Directions[i])
		count++
	}
	if count == 0 {
		return geometry.Zero
	}
	return sum.Mul(1 / float64(count)).Normalize()
}

// Separation pushes away from the neighbors within radius with an inverse square weight.
func Separation(f *NeighborField, radius float64) geometry.Vector3D {
	var sum geometry.Vector3D
	for i, d := range f.Distances {
		if !inRadius(d, radius) {
			continue
		}
		sum = sum.Sub(f.Deltas[i].Mul(1 / (d * d)))
	}
	return sum.Normalize()
}
