package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// AABB is an axis-aligned box. Min must not exceed Max on any axis.
type AABB struct {
	Min v3.Vec `json:"min"`
	Max v3.Vec `json:"max"`
}

// NewAABB returns the box spanning min..max.
func NewAABB(min, max v3.Vec) AABB {
	return AABB{Min: min, Max: max}
}

func (a AABB) box3() sdf.Box3 {
	return sdf.Box3{Min: a.Min, Max: a.Max}
}

// Center returns the midpoint of the box.
func (a AABB) Center() v3.Vec {
	return a.box3().Center()
}

// Size returns the box extent per axis.
func (a AABB) Size() v3.Vec {
	return a.box3().Size()
}

// Shrink moves every face of the box inwards by d. An axis thinner than 2d
// collapses onto its midpoint.
func (a AABB) Shrink(d float64) AABB {
	c := a.Center()
	lo := func(min, mid float64) float64 { return math.Min(min+d, mid) }
	hi := func(max, mid float64) float64 { return math.Max(max-d, mid) }
	return AABB{
		Min: v3.Vec{X: lo(a.Min.X, c.X), Y: lo(a.Min.Y, c.Y), Z: lo(a.Min.Z, c.Z)},
		Max: v3.Vec{X: hi(a.Max.X, c.X), Y: hi(a.Max.Y, c.Y), Z: hi(a.Max.Z, c.Z)},
	}
}

// Corners returns the eight corners of the box.
func (a AABB) Corners() [8]v3.Vec {
	var cs [8]v3.Vec
	for i := 0; i < 8; i++ {
		c := a.Min
		if i&1 != 0 {
			c.X = a.Max.X
		}
		if i&2 != 0 {
			c.Y = a.Max.Y
		}
		if i&4 != 0 {
			c.Z = a.Max.Z
		}
		cs[i] = c
	}
	return cs
}

// Transform returns the axis-aligned bounds of the box after applying t.
func (a AABB) Transform(t Transform) AABB {
	corners := a.Corners()
	first := t.ApplyP(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := t.ApplyP(c)
		out.Min = v3.Vec{X: math.Min(out.Min.X, p.X), Y: math.Min(out.Min.Y, p.Y), Z: math.Min(out.Min.Z, p.Z)}
		out.Max = v3.Vec{X: math.Max(out.Max.X, p.X), Y: math.Max(out.Max.Y, p.Y), Z: math.Max(out.Max.Z, p.Z)}
	}
	return out
}

// Collision tests two boxes for overlap. When they overlap it returns the
// centre of the intersection volume.
func Collision(a, b AABB) (v3.Vec, bool) {
	ix, ok := overlap(a.Min.X, a.Max.X, b.Min.X, b.Max.X)
	if !ok {
		return v3.Vec{}, false
	}
	iy, ok := overlap(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y)
	if !ok {
		return v3.Vec{}, false
	}
	iz, ok := overlap(a.Min.Z, a.Max.Z, b.Min.Z, b.Max.Z)
	if !ok {
		return v3.Vec{}, false
	}
	return v3.Vec{X: ix, Y: iy, Z: iz}, true
}

// overlap intersects [amin,amax] with [bmin,bmax] and returns the midpoint of the intersection.
func overlap(amin, amax, bmin, bmax float64) (float64, bool) {
	imin := math.Max(amin, bmin)
	imax := math.Min(amax, bmax)
	if imin > imax {
		return 0, false
	}
	return (imin + imax) * 0.5, true
}
