package model

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/piwi3910/overmind/internal/geom"
)

// Port matching tolerances. Open-port detection is looser than rail continuity.
const (
	OpenPortEps   = 1e-2
	RailChainEps  = 1e-3
	collisionNote = "collision"
)

// ScaffoldModel is a set of things sharing one world frame. Several instances
// can coexist, e.g. the current and target arrangement during planning.
// Assumes z=0 is the floor.
type ScaffoldModel struct {
	Coord *geom.Coordinates

	things []*Thing
	// trains maps a train builder to the feeder it rides.
	trains map[ThingID]ThingID
}

// PortRef points at one port of a thing, resolved into the world frame.
type PortRef struct {
	Thing  *Thing
	Index  int
	Pos    v3.Vec
	Normal v3.Vec
}

// Marker is a world-space point attached to a thing, used for UI handles.
type Marker struct {
	Thing *Thing
	Pos   v3.Vec
}

// ModelError is a human readable problem located at a world position.
type ModelError struct {
	Pos v3.Vec
	Msg string
}

// NewScaffoldModel returns an empty model.
func NewScaffoldModel() *ScaffoldModel {
	return &ScaffoldModel{
		Coord:  geom.NewCoordinates("world"),
		trains: make(map[ThingID]ThingID),
	}
}

// Things returns the things in insertion order. The slice must not be modified.
func (m *ScaffoldModel) Things() []*Thing {
	return m.things
}

// AddThing adds t to the model. A detached thing is linked to the world at its origin.
func (m *ScaffoldModel) AddThing(t *Thing) {
	if t.Coord.Parent() == nil {
		t.Coord.UnsafeSetParent(m.Coord, v3.Vec{})
	}
	m.things = append(m.things, t)
}

// RemoveThing removes t by identity and drops any attachment it takes part in.
// It reports whether t was present.
func (m *ScaffoldModel) RemoveThing(t *Thing) bool {
	for i, x := range m.things {
		if x != t {
			continue
		}
		m.things = append(m.things[:i], m.things[i+1:]...)
		delete(m.trains, t.ID)
		for tb, fdw := range m.trains {
			if fdw == t.ID {
				m.detach(tb)
			}
		}
		return true
	}
	return false
}

// detach keeps the train's world pose while unlinking it from its feeder.
func (m *ScaffoldModel) detach(tb ThingID) {
	delete(m.trains, tb)
	if t := m.Get(tb); t != nil {
		t.Coord.UnsafeSetParentTransform(m.Coord, t.Coord.TransformTo(m.Coord))
	}
}

// Get returns the thing with the given ID, or nil.
func (m *ScaffoldModel) Get(id ThingID) *Thing {
	for _, t := range m.things {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindByKind returns the first thing of the given kind, or nil.
func (m *ScaffoldModel) FindByKind(kind Kind) *Thing {
	for _, t := range m.things {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// FindAllByKind returns every thing of the given kind.
func (m *ScaffoldModel) FindAllByKind(kind Kind) []*Thing {
	var out []*Thing
	for _, t := range m.things {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// AttachTrainToRail makes tb ride fdw. The train's frame is re-linked under the
// feeder keeping its world pose.
func (m *ScaffoldModel) AttachTrainToRail(tb, fdw *Thing) error {
	if tb.Kind != KindTB {
		return fmt.Errorf("cannot attach %s: not a train builder", tb)
	}
	if fdw.Kind != KindFDW {
		return fmt.Errorf("cannot attach to %s: not a feeder", fdw)
	}
	for other, f := range m.trains {
		if f == fdw.ID && other != tb.ID {
			return fmt.Errorf("%s already carries train %s", fdw, other)
		}
	}
	tb.Coord.UnsafeSetParentTransform(fdw.Coord, tb.Coord.TransformTo(fdw.Coord))
	m.trains[tb.ID] = fdw.ID
	return nil
}

// AttachedTo returns the feeder tb rides, or nil.
func (m *ScaffoldModel) AttachedTo(tb *Thing) *Thing {
	id, ok := m.trains[tb.ID]
	if !ok {
		return nil
	}
	return m.Get(id)
}

// AttachedBy returns the train riding fdw, or nil.
func (m *ScaffoldModel) AttachedBy(fdw *Thing) *Thing {
	for tb, f := range m.trains {
		if f == fdw.ID {
			return m.Get(tb)
		}
	}
	return nil
}

// AddThingToPort links t so that its port 0 mates with port portIx of ref:
// positions coincide, forward vectors face each other and up vectors agree.
func (m *ScaffoldModel) AddThingToPort(ref *Thing, portIx int, t *Thing) error {
	if portIx < 0 || portIx >= len(ref.Ports) {
		return fmt.Errorf("port %d out of range for %s", portIx, ref)
	}
	if len(t.Ports) == 0 {
		return fmt.Errorf("%s has no port to mate with", t)
	}
	refPort := ref.Ports[portIx]
	newPort := t.Ports[0]
	err := t.Coord.SetParentWithRelation(m.Coord, ref.Coord).
		AlignPt(newPort.Pos, refPort.Pos).
		AlignDir(newPort.Fwd, refPort.Fwd.MulScalar(-1)).
		AlignDir(newPort.Up, refPort.Up).
		Build()
	if err != nil {
		return fmt.Errorf("failed to place %s at %s port %d: %w", t, ref, portIx, err)
	}
	m.things = append(m.things, t)
	return nil
}

func (m *ScaffoldModel) worldPorts() []PortRef {
	var out []PortRef
	for _, t := range m.things {
		for i := range t.Ports {
			pos, up, _ := t.WorldPort(i, m.Coord)
			out = append(out, PortRef{Thing: t, Index: i, Pos: pos, Normal: up})
		}
	}
	return out
}

// OpenPorts returns every port that has no other port within OpenPortEps.
func (m *ScaffoldModel) OpenPorts() []PortRef {
	all := m.worldPorts()
	var open []PortRef
	for i, p := range all {
		free := true
		for j, q := range all {
			if i != j && geom.Distance(p.Pos, q.Pos) <= OpenPortEps {
				free = false
				break
			}
		}
		if free {
			open = append(open, p)
		}
	}
	return open
}

// PortsNear returns the ports within eps of pos, excluding those of skip.
func (m *ScaffoldModel) PortsNear(pos v3.Vec, eps float64, skip *Thing) []PortRef {
	var out []PortRef
	for _, p := range m.worldPorts() {
		if p.Thing != skip && geom.Distance(p.Pos, pos) <= eps {
			out = append(out, p)
		}
	}
	return out
}

// DeletionPoints returns the world-space bound centre of every thing.
func (m *ScaffoldModel) DeletionPoints() []Marker {
	out := make([]Marker, 0, len(m.things))
	for _, t := range m.things {
		out = append(out, Marker{Thing: t, Pos: t.Coord.ConvertP(t.Bound.Center(), m.Coord)})
	}
	return out
}

// EditPoints returns selection handles for the active things (feeders and trains).
func (m *ScaffoldModel) EditPoints() []Marker {
	var out []Marker
	for _, t := range m.things {
		if t.Kind == KindFDW || t.Kind == KindTB {
			out = append(out, Marker{Thing: t, Pos: t.Coord.ConvertP(t.Bound.Center(), m.Coord)})
		}
	}
	return out
}

// CheckErrors tests every pair of things for a positive-volume overlap. Bounds
// are shrunk by RailChainEps first so things mated through a port, which touch
// by construction, pass. A train out on a stack is not tested against the
// straight rails of the column it rides. An empty result means no error.
func (m *ScaffoldModel) CheckErrors() []ModelError {
	bounds := make([]geom.AABB, len(m.things))
	for i, t := range m.things {
		bounds[i] = t.WorldBound(m.Coord).Shrink(RailChainEps)
	}

	var errs []ModelError
	for i := 0; i < len(m.things); i++ {
		for j := i + 1; j < len(m.things); j++ {
			a, b := m.things[i], m.things[j]
			if m.rides(a, b) || m.rides(b, a) {
				continue
			}
			if pt, hit := geom.Collision(bounds[i], bounds[j]); hit {
				errs = append(errs, ModelError{Pos: pt, Msg: collisionNote})
			}
		}
	}
	return errs
}

// rides reports whether tb is a train standing on a stack that rail r belongs to.
func (m *ScaffoldModel) rides(tb, r *Thing) bool {
	if r.Kind != KindRS {
		return false
	}
	fdw := m.AttachedTo(tb)
	if fdw == nil {
		return false
	}
	p := tb.Coord.ConvertP(v3.Vec{}, fdw.Coord)
	if p.Z < RailLength/2 {
		return false
	}
	c := r.Coord.ConvertP(r.Bound.Center(), fdw.Coord)
	return math.Abs(c.X-p.X) <= OpenPortEps
}
