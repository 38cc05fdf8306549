package model

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FeederScene describes a feeder-1D arrangement: one feeder, straight rails
// stacked on its ports and one train builder riding it.
type FeederScene struct {
	Stacks   [FeederColumns]int
	Train    Placement
	Carrying bool
}

// FeederOrigin is where BuildFeederScene puts the feeder in the world.
var FeederOrigin = v3.Vec{X: 0.1}

// BuildFeederScene creates a model for the given arrangement.
func BuildFeederScene(s FeederScene) (*ScaffoldModel, error) {
	m := NewScaffoldModel()

	fdw := NewFeederWide()
	fdw.Coord.UnsafeSetParent(m.Coord, FeederOrigin)
	m.AddThing(fdw)

	for col, n := range s.Stacks {
		if n < 0 {
			return nil, fmt.Errorf("negative stack height %d at column %d", n, col)
		}
		ref, port := fdw, col
		for i := 0; i < n; i++ {
			rs := NewRailStraight()
			if err := m.AddThingToPort(ref, port, rs); err != nil {
				return nil, err
			}
			ref, port = rs, 1
		}
	}

	tb := NewTrainBuilder()
	tb.Carrying = s.Carrying
	m.AddThing(tb)
	if err := m.AttachTrainToRail(tb, fdw); err != nil {
		return nil, err
	}
	if err := m.PlaceTrain(tb, s.Train); err != nil {
		return nil, err
	}
	return m, nil
}
