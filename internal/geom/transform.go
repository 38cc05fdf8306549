// Package geom provides the rigid-transform frame algebra used to place
// scaffold things relative to each other: a tree of local coordinate frames,
// a constraint solver that aligns a new frame to an existing one, and
// axis-aligned bounds with an overlap test.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Rotation is a 3x3 rotation matrix in row-major order.
type Rotation [3][3]float64

// IdentityRotation returns the rotation that leaves every vector unchanged.
func IdentityRotation() Rotation {
	return Rotation{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Columns builds a matrix whose columns are c0, c1 and c2.
func Columns(c0, c1, c2 v3.Vec) Rotation {
	return Rotation{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}
}

// AxisAngle returns the rotation of angle radians around axis (Rodrigues).
func AxisAngle(axis v3.Vec, angle float64) Rotation {
	l := axis.Length()
	if l == 0 {
		return IdentityRotation()
	}
	x, y, z := axis.X/l, axis.Y/l, axis.Z/l
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return Rotation{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c},
	}
}

// Apply rotates v.
func (r Rotation) Apply(v v3.Vec) v3.Vec {
	return v3.Vec{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Mul returns r*b, i.e. b applied first.
func (r Rotation) Mul(b Rotation) Rotation {
	var m Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = r[i][0]*b[0][j] + r[i][1]*b[1][j] + r[i][2]*b[2][j]
		}
	}
	return m
}

// Transpose returns the transposed matrix, which for a rotation is its inverse.
func (r Rotation) Transpose() Rotation {
	var m Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = r[j][i]
		}
	}
	return m
}

// Transform is a rigid 4x4 transform stored as rotation + translation.
// Applied to a point p it yields Rot*p + Pos.
type Transform struct {
	Rot Rotation `json:"rot"`
	Pos v3.Vec   `json:"pos"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rot: IdentityRotation()}
}

// Translation returns a pure translation by offset.
func Translation(offset v3.Vec) Transform {
	return Transform{Rot: IdentityRotation(), Pos: offset}
}

// NewTransform combines a rotation and a translation.
func NewTransform(rot Rotation, offset v3.Vec) Transform {
	return Transform{Rot: rot, Pos: offset}
}

// Mul composes two transforms; b is applied first.
func (t Transform) Mul(b Transform) Transform {
	return Transform{
		Rot: t.Rot.Mul(b.Rot),
		Pos: t.Rot.Apply(b.Pos).Add(t.Pos),
	}
}

// ApplyP transforms a point.
func (t Transform) ApplyP(p v3.Vec) v3.Vec {
	return t.Rot.Apply(p).Add(t.Pos)
}

// ApplyD transforms a direction. Translation is ignored.
func (t Transform) ApplyD(d v3.Vec) v3.Vec {
	return t.Rot.Apply(d)
}

// Inverse returns the inverse rigid transform.
func (t Transform) Inverse() Transform {
	rt := t.Rot.Transpose()
	return Transform{
		Rot: rt,
		Pos: rt.Apply(t.Pos).MulScalar(-1),
	}
}

// Matrix returns the row-major 4x4 homogeneous matrix.
func (t Transform) Matrix() [16]float64 {
	r := t.Rot
	return [16]float64{
		r[0][0], r[0][1], r[0][2], t.Pos.X,
		r[1][0], r[1][1], r[1][2], t.Pos.Y,
		r[2][0], r[2][1], r[2][2], t.Pos.Z,
		0, 0, 0, 1,
	}
}

// ApproxEqual reports whether every matrix element of t and b differs by at most eps.
func (t Transform) ApproxEqual(b Transform, eps float64) bool {
	ma, mb := t.Matrix(), b.Matrix()
	for i := range ma {
		if math.Abs(ma[i]-mb[i]) > eps {
			return false
		}
	}
	return true
}

// Distance returns the euclidean distance between two points.
func Distance(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}
