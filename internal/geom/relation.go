package geom

import (
	"errors"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrConstraintCount is returned when a RelationBuilder did not receive exactly two AlignDir calls.
	ErrConstraintCount = errors.New("under- or over-constrained RelationBuilder: needs exactly 2 AlignDir() calls")
	// ErrDegenerateConstraint is returned when the two directions of one side are parallel or zero.
	ErrDegenerateConstraint = errors.New("degenerate RelationBuilder: direction constraints are parallel")
)

const degenerateEps = 1e-9

// RelationBuilder computes the rigid transform M such that M*pointNew = pointRef
// and M rotates each dirNew onto its dirRef.
type RelationBuilder struct {
	ptNew, ptRef v3.Vec
	dirs         [][2]v3.Vec
	afterBuild   func(Transform)
}

// NewRelationBuilder returns a standalone builder. Without AlignPt the origin maps to the origin.
func NewRelationBuilder() *RelationBuilder {
	return &RelationBuilder{}
}

func newRelationBuilder(afterBuild func(Transform)) *RelationBuilder {
	return &RelationBuilder{afterBuild: afterBuild}
}

// AlignPt declares that ptNew must land on ptRef.
func (b *RelationBuilder) AlignPt(ptNew, ptRef v3.Vec) *RelationBuilder {
	b.ptNew, b.ptRef = ptNew, ptRef
	return b
}

// AlignDir declares that dirNew must rotate onto dirRef. Call it exactly twice,
// with different (ideally orthogonal) directions.
func (b *RelationBuilder) AlignDir(dirNew, dirRef v3.Vec) *RelationBuilder {
	b.dirs = append(b.dirs, [2]v3.Vec{dirNew, dirRef})
	return b
}

// Build solves the constraints and hands the result to the frame that created the builder.
func (b *RelationBuilder) Build() error {
	trans, err := b.TransformToRef()
	if err != nil {
		return err
	}
	if b.afterBuild != nil {
		b.afterBuild(trans)
	}
	return nil
}

// TransformToRef returns the transform M with M*new = ref satisfying the constraints.
func (b *RelationBuilder) TransformToRef() (Transform, error) {
	if len(b.dirs) != 2 {
		return Transform{}, ErrConstraintCount
	}

	newBasis, err := orthonormalTriad(b.dirs[0][0], b.dirs[1][0])
	if err != nil {
		return Transform{}, err
	}
	refBasis, err := orthonormalTriad(b.dirs[0][1], b.dirs[1][1])
	if err != nil {
		return Transform{}, err
	}

	// R * mNew = mRef, and mNew is orthonormal so its inverse is its transpose.
	rot := refBasis.Mul(newBasis.Transpose())
	ofs := b.ptRef.Sub(rot.Apply(b.ptNew))
	return NewTransform(rot, ofs), nil
}

// orthonormalTriad turns two directions into a right-handed orthonormal basis
// (d0, d2 x d0, d0 x d1) returned as matrix columns.
func orthonormalTriad(d0, d1 v3.Vec) (Rotation, error) {
	if d0.Length() < degenerateEps {
		return Rotation{}, ErrDegenerateConstraint
	}
	third := d0.Cross(d1)
	if third.Length() < degenerateEps {
		return Rotation{}, ErrDegenerateConstraint
	}
	e0 := d0.Normalize()
	e2 := third.Normalize()
	e1 := e2.Cross(e0).Normalize()
	return Columns(e0, e1, e2), nil
}
