package geometry

import (
	"fmt"
	"math/rand/v2"
)

// Box is an axis-aligned box given by two opposite corners.
// Corners may be supplied in any order; call Normalized before relying on Min <= Max.
type Box struct {
	Min Vector3D `json:"min"`
	Max Vector3D `json:"max"`
}

// NewBox builds a normalized box from two opposite corners given in any order.
func NewBox(a, b Vector3D) Box {
	return Box{Min: a.Min(b), Max: a.Max(b)}
}

// Normalized returns the same box with Min <= Max on every axis.
func (b Box) Normalized() Box {
	return NewBox(b.Min, b.Max)
}

// Size returns the extent of the box on each axis.
func (b Box) Size() Vector3D {
	return b.Max.Sub(b.Min)
}

// Center returns the middle point of the box.
func (b Box) Center() Vector3D {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Expand grows the box by margin on every side.
func (b Box) Expand(margin float64) Box {
	m := Vector3D{margin, margin, margin}
	return Box{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Contains reports whether p lies inside or on the surface of the box.
func (b Box) Contains(p Vector3D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Clamp returns the point of the box closest to p.
// Points inside the box are returned unchanged.
func (b Box) Clamp(p Vector3D) Vector3D {
	return Vector3D{
		X: Clamp(p.X, b.Min.X, b.Max.X),
		Y: Clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: Clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// RandomPoint returns a point drawn uniformly inside the box.
func (b Box) RandomPoint(rng *rand.Rand) Vector3D {
	return Vector3D{
		X: Uniform(rng, b.Min.X, b.Max.X),
		Y: Uniform(rng, b.Min.Y, b.Max.Y),
		Z: Uniform(rng, b.Min.Z, b.Max.Z),
	}
}

// String implements the fmt.Stringer interface.
func (b Box) String() string {
	return fmt.Sprintf("[%s - %s]", b.Min, b.Max)
}
