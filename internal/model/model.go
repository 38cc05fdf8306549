// Package model holds the scaffold world model: the physical things of the
// rail kit, their frames, ports and bounds, and the aggregate that relates them.
package model

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/piwi3910/overmind/internal/geom"
)

// ThingID identifies a thing within a model. It is stable across encode/decode.
type ThingID string

// Kind tags the closed set of physical part types.
type Kind string

const (
	KindRS  Kind = "RS"     // straight rail
	KindRH  Kind = "RH"     // helix rail
	KindRR  Kind = "RR"     // rotator
	KindFDW Kind = "FDW-RS" // wide feeder
	KindTB  Kind = "TB"     // train builder
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{KindRS, KindRH, KindRR, KindFDW, KindTB}

func (k Kind) String() string {
	return string(k)
}

// IsRail reports whether k is a passive rail piece that can be attached at a port.
func (k Kind) IsRail() bool {
	switch k {
	case KindRS, KindRH, KindRR:
		return true
	default:
		return false
	}
}

// Port is a mechanical connector in the owning thing's local frame.
type Port struct {
	Pos v3.Vec `json:"pos"`
	Up  v3.Vec `json:"up"`
	Fwd v3.Vec `json:"fwd"`
}

// RailSegment is a linear piece of rail a train can couple to.
type RailSegment struct {
	Pos1 v3.Vec `json:"pos1"`
	Pos2 v3.Vec `json:"pos2"`
	Up   v3.Vec `json:"up"`
}

// Thing is one physical part of the scaffold.
//
// The variant data (ParamX for feeders, Carrying for train builders) is only
// meaningful for the matching Kind.
type Thing struct {
	ID   ThingID
	Kind Kind

	Coord *geom.Coordinates
	// CadCoord locates the CAD mesh relative to Coord. Rendering only.
	CadCoord *geom.Coordinates
	Ports    []Port
	Bound    geom.AABB

	// ParamX is the continuous feeder stage position in metres.
	ParamX float64
	// Carrying is true while a train builder holds a spare rail segment.
	Carrying bool
}

// RailLength is the pitch of one straight rail segment.
const RailLength = 0.06

// Feeder geometry, in the feeder's local frame.
const (
	FeederColumns  = 5
	feederPortBase = 0.135
	feederPortY    = -0.022
	feederPortZ    = 0.067
)

// FeederStops are the stage positions of each column. The first gap is wider
// than the rest on the hardware.
var FeederStops = [FeederColumns]float64{0, 0.060, 0.095, 0.130, 0.165}

// NewThing creates a fresh thing of the given kind.
func NewThing(kind Kind) (*Thing, error) {
	switch kind {
	case KindRS:
		return NewRailStraight(), nil
	case KindRH:
		return NewRailHelix(), nil
	case KindRR:
		return NewRailRotator(), nil
	case KindFDW:
		return NewFeederWide(), nil
	case KindTB:
		return NewTrainBuilder(), nil
	default:
		return nil, fmt.Errorf("unknown thing kind %q", kind)
	}
}

func newThing(kind Kind, ports []Port, bound geom.AABB) *Thing {
	id := ThingID(uuid.New().String()[:8])
	t := &Thing{
		ID:       id,
		Kind:     kind,
		Coord:    geom.NewCoordinates(string(kind) + "-" + string(id)),
		CadCoord: geom.NewCoordinates(""),
		Ports:    ports,
		Bound:    bound,
	}
	return t
}

// NewRailStraight creates a 60mm straight rail running along local y.
func NewRailStraight() *Thing {
	t := newThing(KindRS, []Port{
		{Pos: v3.Vec{Y: -0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{Y: -1}},
		{Pos: v3.Vec{Y: 0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{Y: 1}},
	}, geom.NewAABB(v3.Vec{X: -0.015, Y: -0.03}, v3.Vec{X: 0.015, Y: 0.03, Z: 0.02}))
	t.CadCoord.UnsafeSetParent(t.Coord, v3.Vec{Y: -0.03})
	return t
}

// NewRailHelix creates a helix rail; its up vector turns a quarter turn end to end.
func NewRailHelix() *Thing {
	t := newThing(KindRH, []Port{
		{Pos: v3.Vec{Y: -0.03}, Up: v3.Vec{X: 1}, Fwd: v3.Vec{Y: -1}},
		{Pos: v3.Vec{Y: 0.03}, Up: v3.Vec{Z: -1}, Fwd: v3.Vec{Y: 1}},
	}, geom.NewAABB(v3.Vec{X: -0.02, Y: -0.03, Z: -0.02}, v3.Vec{X: 0.02, Y: 0.03, Z: 0.02}))
	t.CadCoord.UnsafeSetParent(t.Coord, v3.Vec{Y: -0.025})
	return t
}

// NewRailRotator creates a four-way rotator.
func NewRailRotator() *Thing {
	t := newThing(KindRR, []Port{
		{Pos: v3.Vec{Y: -0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{Y: -1}},
		{Pos: v3.Vec{Y: 0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{Y: 1}},
		{Pos: v3.Vec{X: -0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{X: -1}},
		{Pos: v3.Vec{X: 0.03}, Up: v3.Vec{Z: 1}, Fwd: v3.Vec{X: 1}},
	}, geom.NewAABB(v3.Vec{X: -0.03, Y: -0.03, Z: -0.01}, v3.Vec{X: 0.03, Y: 0.03, Z: 0.02}))
	t.CadCoord.UnsafeSetParent(t.Coord, v3.Vec{Y: -0.03})
	return t
}

// NewFeederWide creates a feeder with one upward-facing port per column.
func NewFeederWide() *Thing {
	ports := make([]Port, FeederColumns)
	for i, stop := range FeederStops {
		ports[i] = Port{
			Pos: v3.Vec{X: feederPortBase - stop, Y: feederPortY, Z: feederPortZ},
			Up:  v3.Vec{Y: -1},
			Fwd: v3.Vec{Z: 1},
		}
	}
	t := newThing(KindFDW, ports, geom.NewAABB(v3.Vec{}, v3.Vec{X: 0.22, Y: 0.045, Z: 0.067}))
	t.CadCoord.UnsafeSetParentOriented(t.Coord, v3.Vec{Z: 0.038}, geom.AxisAngle(v3.Vec{X: 1}, math.Pi/2))
	t.ParamX = 0.04
	return t
}

// NewTrainBuilder creates a train builder. It has no ports of its own.
func NewTrainBuilder() *Thing {
	t := newThing(KindTB, nil, geom.NewAABB(v3.Vec{X: -0.02, Y: -0.02}, v3.Vec{X: 0.02, Z: 0.06}))
	t.CadCoord.UnsafeSetParentOriented(t.Coord, v3.Vec{Z: 0.038}, geom.AxisAngle(v3.Vec{X: 1}, math.Pi/2))
	return t
}

// RailSegments returns the rail pieces of t in its local frame.
func (t *Thing) RailSegments() []RailSegment {
	switch t.Kind {
	case KindRS:
		return []RailSegment{{Pos1: v3.Vec{Y: -0.03}, Pos2: v3.Vec{Y: 0.03}, Up: v3.Vec{Z: 1}}}
	case KindRH:
		return []RailSegment{{Pos1: v3.Vec{Y: -0.03}, Pos2: v3.Vec{Y: 0.03}, Up: v3.Vec{X: 1 / math.Sqrt2, Z: -1 / math.Sqrt2}}}
	case KindRR:
		return []RailSegment{
			{Pos1: v3.Vec{Y: -0.03}, Pos2: v3.Vec{Y: 0.03}, Up: v3.Vec{Z: 1}},
			{Pos1: v3.Vec{X: -0.03}, Pos2: v3.Vec{X: 0.03}, Up: v3.Vec{Z: 1}},
		}
	case KindFDW:
		x := t.StageRailX()
		return []RailSegment{{
			Pos1: v3.Vec{X: x, Y: feederPortY, Z: feederPortZ - RailLength},
			Pos2: v3.Vec{X: x, Y: feederPortY, Z: feederPortZ},
			Up:   v3.Vec{Y: -1},
		}}
	default:
		return nil
	}
}

// StagePos returns the stop nearest to the feeder's ParamX.
func (t *Thing) StagePos() int {
	best := 0
	for i, stop := range FeederStops {
		if math.Abs(stop-t.ParamX) < math.Abs(FeederStops[best]-t.ParamX) {
			best = i
		}
	}
	return best
}

// StageRailX returns the local x of the stage rail. At stop k it lines up with port k.
func (t *Thing) StageRailX() float64 {
	return feederPortBase - t.ParamX
}

// WorldPort returns the position, up and forward vectors of port ix in the frame to.
func (t *Thing) WorldPort(ix int, to *geom.Coordinates) (pos, up, fwd v3.Vec) {
	p := t.Ports[ix]
	return t.Coord.ConvertP(p.Pos, to), t.Coord.ConvertD(p.Up, to), t.Coord.ConvertD(p.Fwd, to)
}

// WorldBound returns the axis-aligned bound of t expressed in the frame to.
func (t *Thing) WorldBound(to *geom.Coordinates) geom.AABB {
	return t.Bound.Transform(t.Coord.TransformTo(to))
}

func (t *Thing) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.ID)
}
