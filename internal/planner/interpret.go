package planner

import (
	"fmt"

	"github.com/piwi3910/overmind/internal/fp1d"
	"github.com/piwi3910/overmind/internal/model"
)

// InterpretWorld reduces a model in the feeder-1D topology to a planning
// world: exactly one FDW-RS, straight rails chained off its ports and one TB
// attached to it. A malformed frame graph is reported as an error too.
func InterpretWorld(m *model.ScaffoldModel) (w fp1d.World, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTopology, r)
		}
	}()

	fdw, err := exactlyOne(m, model.KindFDW)
	if err != nil {
		return fp1d.World{}, err
	}
	tb, err := exactlyOne(m, model.KindTB)
	if err != nil {
		return fp1d.World{}, err
	}
	if m.AttachedTo(tb) != fdw {
		return fp1d.World{}, fmt.Errorf("%w: TB not attached to FDW-RS", ErrTopology)
	}

	for col := 0; col < fp1d.Columns; col++ {
		n, err := chainLength(m, fdw, col)
		if err != nil {
			return fp1d.World{}, err
		}
		w.ConnectedRs[col] = n
	}

	pl, err := m.TrainPlacement(tb)
	if err != nil {
		return fp1d.World{}, fmt.Errorf("%w: %v", ErrTopology, err)
	}
	w.StagePos = fdw.StagePos()
	w.CarryRs = tb.Carrying
	if pl.OnStage {
		w.TbLoc = fp1d.OnStage{StackIx: pl.Column}
	} else {
		w.TbLoc = fp1d.OnStack{StackIx: pl.Column, Pos: pl.Pos}
	}
	if err := w.CheckStatic(); err != nil {
		return fp1d.World{}, fmt.Errorf("%w: %v", ErrTopology, err)
	}
	return w, nil
}

func exactlyOne(m *model.ScaffoldModel, kind model.Kind) (*model.Thing, error) {
	all := m.FindAllByKind(kind)
	switch len(all) {
	case 1:
		return all[0], nil
	case 0:
		return nil, fmt.Errorf("%w: %s x1 expected but not found", ErrTopology, kind)
	default:
		return nil, fmt.Errorf("%w: %s x1 expected but found %d", ErrTopology, kind, len(all))
	}
}

// chainLength walks the straight rails hanging off a feeder port, matching
// ports by position, and returns how many there are.
func chainLength(m *model.ScaffoldModel, fdw *model.Thing, col int) (int, error) {
	pos, _, _ := fdw.WorldPort(col, m.Coord)
	prev := fdw
	seen := map[*model.Thing]bool{fdw: true}
	n := 0
	for {
		near := m.PortsNear(pos, model.RailChainEps, prev)
		switch {
		case len(near) == 0:
			return n, nil
		case len(near) > 1:
			return 0, fmt.Errorf("%w: rail chain at column %d branches", ErrTopology, col)
		}
		next := near[0]
		if next.Thing.Kind != model.KindRS {
			return 0, fmt.Errorf("%w: rail chain at column %d contains %s, only RS is supported", ErrTopology, col, next.Thing.Kind)
		}
		if seen[next.Thing] {
			return 0, fmt.Errorf("%w: rail chain at column %d loops", ErrTopology, col)
		}
		seen[next.Thing] = true
		pos, _, _ = next.Thing.WorldPort(otherSide(next.Index), m.Coord)
		prev = next.Thing
		n++
	}
}

// otherSide returns the far port of a straight rail.
func otherSide(ix int) int {
	return 1 - ix
}
