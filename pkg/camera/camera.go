// Package camera projects world coordinates of the flock onto a 2D screen.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// Camera is a fixed perspective camera.
type Camera struct {
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3

	FovY      float64 // degrees
	Near, Far float64

	Width, Height int

	viewProj mgl64.Mat4
}

func vec(v geometry.Vector3D) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Framing returns a camera looking at the center of world from above one of its corners,
// far enough for the whole box to fit in a width x height screen.
func Framing(world geometry.Box, width, height int) *Camera {
	world = world.Normalized()
	size := world.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	if extent <= 0 {
		extent = 1
	}
	center := vec(world.Center())
	c := &Camera{
		Eye:    center.Add(mgl64.Vec3{1.2, 0.9, 2.0}.Mul(extent)),
		Target: center,
		Up:     mgl64.Vec3{0, 1, 0},
		FovY:   45,
		Near:   0.01 * extent,
		Far:    10 * extent,
		Width:  width,
		Height: height,
	}
	c.Update()
	return c
}

// Update recomputes the view-projection matrix after a field changed.
func (c *Camera) Update() {
	aspect := 1.0
	if c.Height > 0 {
		aspect = float64(c.Width) / float64(c.Height)
	}
	proj := mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
	view := mgl64.LookAtV(c.Eye, c.Target, c.Up)
	c.viewProj = proj.Mul4(view)
}

// Resize adapts the projection to a new screen size.
func (c *Camera) Resize(width, height int) {
	if width == c.Width && height == c.Height {
		return
	}
	c.Width, c.Height = width, height
	c.Update()
}

// Project returns the screen position of p, origin top left, and whether p lies in front
// of the camera.
func (c *Camera) Project(p geometry.Vector3D) (x, y float64, visible bool) {
	clip := c.viewProj.Mul4x1(vec(p).Vec4(1))
	w := clip.W()
	if w <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	x = (ndc.X() + 1) / 2 * float64(c.Width)
	y = (1 - ndc.Y()) / 2 * float64(c.Height)
	return x, y, true
}

// Depth is the distance from the eye to p, used to size and sort sprites.
func (c *Camera) Depth(p geometry.Vector3D) float64 {
	return vec(p).Sub(c.Eye).Len()
}

// BoxEdges returns the 12 edges of b as pairs of corners.
func BoxEdges(b geometry.Box) [12][2]geometry.Vector3D {
	b = b.Normalized()
	corner := func(i int) geometry.Vector3D {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		return p
	}
	var edges [12][2]geometry.Vector3D
	n := 0
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				edges[n] = [2]geometry.Vector3D{corner(i), corner(i | bit)}
				n++
			}
		}
	}
	return edges
}
