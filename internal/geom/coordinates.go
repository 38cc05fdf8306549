package geom

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Coordinates is a node in a tree of rigid-transform frames.
//
// A frame does not own its parent; the scaffold model owns every frame through
// the things that hold them. A frame without a parent is a root.
type Coordinates struct {
	Name string

	parent   *Coordinates
	toParent Transform
}

// NewCoordinates creates a detached root frame. The name is diagnostic only.
func NewCoordinates(name string) *Coordinates {
	return &Coordinates{Name: name, toParent: Identity()}
}

// Parent returns the parent frame, or nil for a root.
func (c *Coordinates) Parent() *Coordinates {
	return c.parent
}

// ToParent returns the local-to-parent transform.
func (c *Coordinates) ToParent() Transform {
	return c.toParent
}

// UnsafeSetParent links c under parent at a fixed offset with no rotation.
// Used when the relationship is known by construction.
func (c *Coordinates) UnsafeSetParent(parent *Coordinates, offset v3.Vec) {
	c.setLink(parent, Translation(offset))
}

// UnsafeSetParentOriented links c under parent with an explicit offset and orientation.
func (c *Coordinates) UnsafeSetParentOriented(parent *Coordinates, offset v3.Vec, rot Rotation) {
	c.setLink(parent, NewTransform(rot, offset))
}

// UnsafeSetParentTransform links c under parent with a full local-to-parent transform.
func (c *Coordinates) UnsafeSetParentTransform(parent *Coordinates, trans Transform) {
	c.setLink(parent, trans)
}

// SetParentWithRelation returns a builder that, once built, links c under parent
// with the transform solved from constraints expressed between c and ref.
// ref must share an ancestor with parent.
//
//	newCoord.SetParentWithRelation(world, existing).
//		AlignPt(newPt, refPt).
//		AlignDir(newFwd, refFwd).
//		AlignDir(newUp, refUp).
//		Build()
func (c *Coordinates) SetParentWithRelation(parent, ref *Coordinates) *RelationBuilder {
	return newRelationBuilder(func(newToRef Transform) {
		c.setLink(parent, ref.TransformTo(parent).Mul(newToRef))
	})
}

func (c *Coordinates) setLink(parent *Coordinates, trans Transform) {
	for f := parent; f != nil; f = f.parent {
		if f == c {
			panic(fmt.Sprintf("geom: linking %q under %q would create a frame cycle", c.Name, parent.Name))
		}
	}
	c.parent = parent
	c.toParent = trans
}

// TransformTo composes the transform that maps points expressed in c into target.
// The walk goes through the lowest common ancestor of both frames. It panics when
// the two frames share no ancestor: that is a malformed frame graph.
func (c *Coordinates) TransformTo(target *Coordinates) Transform {
	if target == c {
		return Identity()
	}

	up := map[*Coordinates]Transform{c: Identity()}
	acc := Identity()
	for f := c; f.parent != nil; f = f.parent {
		acc = f.toParent.Mul(acc)
		up[f.parent] = acc
	}

	down := Identity() // target -> g
	for g := target; g != nil; g = g.parent {
		if cToG, ok := up[g]; ok {
			return down.Inverse().Mul(cToG)
		}
		down = g.toParent.Mul(down)
	}
	panic(fmt.Sprintf("geom: failed to convert between Coordinates %q and %q", c.Name, target.Name))
}

// ConvertP converts a point from c into target.
func (c *Coordinates) ConvertP(p v3.Vec, target *Coordinates) v3.Vec {
	return c.TransformTo(target).ApplyP(p)
}

// ConvertD converts a direction from c into target, using only the rotation part.
func (c *Coordinates) ConvertD(d v3.Vec, target *Coordinates) v3.Vec {
	return c.TransformTo(target).ApplyD(d)
}

func (c *Coordinates) String() string {
	if c.Name == "" {
		return "<coord>"
	}
	return c.Name
}
