// Package fp1d is the discrete planning world of a single wide feeder with one
// train builder: how many rails sit on each feeder column, where the builder
// is, and the high-level actions that change that.
package fp1d

import (
	"fmt"
	"strings"
)

// Columns is the number of rail stacks on the feeder.
const Columns = 5

// TbLoc is where the train builder is. It is either OnStage or OnStack.
type TbLoc interface {
	// Column returns the logical feeder column the builder is aligned with.
	Column() int
	isTbLoc()
}

// OnStage means the builder is docked on the feeder stage at Column.
type OnStage struct {
	StackIx int
}

// OnStack means the builder has moved Pos+1 rail lengths out along the stack at StackIx.
type OnStack struct {
	StackIx int
	Pos     int
}

func (l OnStage) Column() int { return l.StackIx }
func (l OnStack) Column() int { return l.StackIx }

func (OnStage) isTbLoc() {}
func (OnStack) isTbLoc() {}

func (l OnStage) String() string { return fmt.Sprintf("OnStage(%d)", l.StackIx) }
func (l OnStack) String() string { return fmt.Sprintf("OnStack(%d,%d)", l.StackIx, l.Pos) }

// World is the reduced state of the feeder subsystem. It is a value; Apply
// returns a new World.
type World struct {
	StagePos    int
	ConnectedRs [Columns]int
	CarryRs     bool
	TbLoc       TbLoc
}

// CountRs returns the number of rail segments in the world, carried one included.
// It is conserved by every valid plan.
func (w World) CountRs() int {
	n := 0
	for _, c := range w.ConnectedRs {
		n += c
	}
	if w.CarryRs {
		n++
	}
	return n
}

// CheckStatic verifies the invariants of a resting state: a docked builder
// is aligned with the stage and a builder on a stack stands on a rail.
func (w World) CheckStatic() error {
	if w.StagePos < 0 || w.StagePos >= Columns {
		return fmt.Errorf("stage position %d out of range", w.StagePos)
	}
	for i, c := range w.ConnectedRs {
		if c < 0 {
			return fmt.Errorf("negative rail count %d at column %d", c, i)
		}
	}
	switch l := w.TbLoc.(type) {
	case OnStage:
		if l.StackIx != w.StagePos {
			return fmt.Errorf("TB docked at column %d but stage is at %d", l.StackIx, w.StagePos)
		}
	case OnStack:
		if l.StackIx < 0 || l.StackIx >= Columns {
			return fmt.Errorf("TB column %d out of range", l.StackIx)
		}
		if l.Pos < 0 || l.Pos >= w.ConnectedRs[l.StackIx] {
			return fmt.Errorf("TB at stack position %d but column %d has %d rails", l.Pos, l.StackIx, w.ConnectedRs[l.StackIx])
		}
	default:
		return fmt.Errorf("TB location unknown")
	}
	return nil
}

func (w World) String() string {
	cols := make([]string, Columns)
	for i, c := range w.ConnectedRs {
		cols[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("stage=%d rs=[%s] carry=%t tb=%v", w.StagePos, strings.Join(cols, ","), w.CarryRs, w.TbLoc)
}
