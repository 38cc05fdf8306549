package model

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Placement is where a train builder sits on its feeder.
// On the stage the column is the feeder's stop; on a stack Pos counts rail
// lengths out from the feeder port, starting at 0.
type Placement struct {
	OnStage bool
	Column  int
	Pos     int
}

// SetFeederParam moves the feeder stage. A train docked on the stage moves with it.
func (m *ScaffoldModel) SetFeederParam(fdw *Thing, paramx float64) {
	fdw.ParamX = paramx
	tb := m.AttachedBy(fdw)
	if tb == nil {
		return
	}
	if pl, err := m.TrainPlacement(tb); err == nil && pl.OnStage {
		m.placeOnStage(tb, fdw)
	}
}

// MoveStage moves the feeder stage to one of its stops.
func (m *ScaffoldModel) MoveStage(fdw *Thing, stop int) error {
	if stop < 0 || stop >= FeederColumns {
		return fmt.Errorf("feeder stop %d out of range", stop)
	}
	m.SetFeederParam(fdw, FeederStops[stop])
	return nil
}

// PlaceTrain puts an attached train at pl. Placing it on the stage moves the
// stage to pl.Column.
func (m *ScaffoldModel) PlaceTrain(tb *Thing, pl Placement) error {
	fdw := m.AttachedTo(tb)
	if fdw == nil {
		return fmt.Errorf("%s is not attached to a feeder", tb)
	}
	if pl.Column < 0 || pl.Column >= FeederColumns {
		return fmt.Errorf("feeder column %d out of range", pl.Column)
	}
	if pl.OnStage {
		fdw.ParamX = FeederStops[pl.Column]
		m.placeOnStage(tb, fdw)
		return nil
	}
	if pl.Pos < 0 {
		return fmt.Errorf("stack position %d out of range", pl.Pos)
	}
	port := fdw.Ports[pl.Column].Pos
	tb.Coord.UnsafeSetParent(fdw.Coord, v3.Vec{X: port.X, Y: feederPortY, Z: float64(pl.Pos+1) * RailLength})
	return nil
}

func (m *ScaffoldModel) placeOnStage(tb, fdw *Thing) {
	tb.Coord.UnsafeSetParent(fdw.Coord, v3.Vec{X: fdw.StageRailX(), Y: feederPortY})
}

// TrainPlacement reads the placement of an attached train from its frame.
func (m *ScaffoldModel) TrainPlacement(tb *Thing) (Placement, error) {
	fdw := m.AttachedTo(tb)
	if fdw == nil {
		return Placement{}, fmt.Errorf("%s is not attached to a feeder", tb)
	}
	p := tb.Coord.ConvertP(v3.Vec{}, fdw.Coord)
	if p.Z < RailLength/2 {
		return Placement{OnStage: true, Column: fdw.StagePos()}, nil
	}

	column := -1
	for i, port := range fdw.Ports {
		if math.Abs(port.Pos.X-p.X) <= OpenPortEps {
			column = i
			break
		}
	}
	if column < 0 {
		return Placement{}, fmt.Errorf("%s is not aligned with any feeder column (x=%.3f)", tb, p.X)
	}
	return Placement{Column: column, Pos: int(math.Round(p.Z/RailLength)) - 1}, nil
}
