package fp1d

import (
	"fmt"
	"sort"
)

// Go returns the actions that bring the builder from its current location to dest.
func Go(w World, dest TbLoc) HlAction {
	switch from := w.TbLoc.(type) {
	case OnStage:
		switch to := dest.(type) {
		case OnStage:
			return moveStage(w.StagePos, to.StackIx)
		case OnStack:
			return NewSeq(moveStage(w.StagePos, to.StackIx), TbMove{N: to.Pos + 1})
		}
	case OnStack:
		switch to := dest.(type) {
		case OnStage:
			return NewSeq(
				NewPar(retract(from.Pos), moveStage(w.StagePos, from.StackIx)),
				TbMove{N: -1},
				moveStage(from.StackIx, to.StackIx),
			)
		case OnStack:
			if to.StackIx == from.StackIx {
				if to.Pos == from.Pos {
					return Noop{}
				}
				return TbMove{N: to.Pos - from.Pos}
			}
			return NewSeq(
				retract(from.Pos),
				moveStage(w.StagePos, from.StackIx),
				TbMove{N: -1},
				moveStage(from.StackIx, to.StackIx),
				TbMove{N: to.Pos + 1},
			)
		}
	}
	panic(fmt.Sprintf("fp1d: cannot navigate from %v to %v", w.TbLoc, dest))
}

func moveStage(from, to int) HlAction {
	if from == to {
		return Noop{}
	}
	return FdwMove{N: to - from}
}

// retract brings a builder at stack position pos back to position 0.
func retract(pos int) HlAction {
	if pos == 0 {
		return Noop{}
	}
	return TbMove{N: -pos}
}

// Approach returns where the builder must be to handle rail index k of column
// col: on the stage for the first rail, otherwise on the rail just before it.
func Approach(col, k int) TbLoc {
	if k == 0 {
		return OnStage{StackIx: col}
	}
	return OnStack{StackIx: col, Pos: k - 1}
}

// MoveRs moves the outermost rail of column get onto the end of column put.
func MoveRs(w World, get, put int) HlAction {
	getAct := NewSeq(Go(w, Approach(get, w.ConnectedRs[get]-1)), TbGet{})
	w = Apply(w, getAct)
	putAct := NewSeq(Go(w, Approach(put, w.ConnectedRs[put])), TbPut{})
	return Seq{Children: []HlAction{getAct, putAct}}
}

// SwapSequence pairs columns with excess rails (negative delta) with columns
// lacking rails (positive delta), one rail per pair. The lowest indexed
// column on each side is used first. delta is not modified.
func SwapSequence(delta []int) [][2]int {
	d := append([]int(nil), delta...)
	var swaps [][2]int
	for {
		src, dst := -1, -1
		for i, v := range d {
			if v < 0 && src < 0 {
				src = i
			}
			if v > 0 && dst < 0 {
				dst = i
			}
		}
		if src < 0 || dst < 0 {
			return swaps
		}
		d[src]++
		d[dst]--
		swaps = append(swaps, [2]int{src, dst})
	}
}

// DurationFunc returns the execution time of a primitive action in seconds,
// given the world it starts from.
type DurationFunc func(w World, a HlAction) float64

// TimedAction is a primitive action with the world it starts from and its
// scheduled window.
type TimedAction struct {
	Action HlAction
	From   World
	T0     float64
	T1     float64
}

// Flatten schedules the primitive actions of a, starting from w at t0. Seq
// children run back to back; Par children start together and the Par ends
// with the last of them. The world is threaded through children in order.
// It returns the actions ordered by start time, the end time and the final world.
func Flatten(w World, a HlAction, t0 float64, dur DurationFunc) ([]TimedAction, float64, World) {
	switch a := a.(type) {
	case Seq:
		var out []TimedAction
		t := t0
		for _, c := range a.Children {
			var sub []TimedAction
			sub, t, w = Flatten(w, c, t, dur)
			out = append(out, sub...)
		}
		return out, t, w
	case Par:
		var out []TimedAction
		end := t0
		for _, c := range a.Children {
			var sub []TimedAction
			var e float64
			sub, e, w = Flatten(w, c, t0, dur)
			out = append(out, sub...)
			if e > end {
				end = e
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].T0 < out[j].T0 })
		return out, end, w
	case Noop:
		return nil, t0, w
	default:
		t1 := t0 + dur(w, a)
		return []TimedAction{{Action: a, From: w, T0: t0, T1: t1}}, t1, Apply(w, a)
	}
}
