package fp1d

import (
	"fmt"
	"strings"
)

// HlAction is a high-level action on the planning world. The set of variants is
// closed: TbMove, TbGet, TbPut, FdwMove, Par, Seq and Noop.
type HlAction interface {
	isHlAction()
}

// TbMove moves the builder N rail positions. Positive is away from the stage.
type TbMove struct{ N int }

// TbGet picks up the outermost rail of the builder's column.
type TbGet struct{}

// TbPut places the carried rail on the end of the builder's column.
type TbPut struct{}

// FdwMove moves the feeder stage N columns. A docked builder moves with it.
type FdwMove struct{ N int }

// Par runs its children starting at the same time.
type Par struct{ Children []HlAction }

// Seq runs its children one after another.
type Seq struct{ Children []HlAction }

// Noop does nothing and takes no time.
type Noop struct{}

func (TbMove) isHlAction()  {}
func (TbGet) isHlAction()   {}
func (TbPut) isHlAction()   {}
func (FdwMove) isHlAction() {}
func (Par) isHlAction()     {}
func (Seq) isHlAction()     {}
func (Noop) isHlAction()    {}

func (a TbMove) String() string  { return fmt.Sprintf("TbMove(%d)", a.N) }
func (TbGet) String() string     { return "TbGet" }
func (TbPut) String() string     { return "TbPut" }
func (a FdwMove) String() string { return fmt.Sprintf("FdwMove(%d)", a.N) }
func (Noop) String() string      { return "Noop" }
func (a Par) String() string     { return "Par(" + joinActions(a.Children) + ")" }
func (a Seq) String() string     { return "Seq(" + joinActions(a.Children) + ")" }

func joinActions(as []HlAction) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ",")
}

// NewSeq builds a Seq, dropping Noops, splicing nested Seqs and collapsing
// trivial cases.
func NewSeq(children ...HlAction) HlAction {
	var cs []HlAction
	for _, c := range children {
		if s, ok := c.(Seq); ok {
			cs = append(cs, s.Children...)
			continue
		}
		cs = append(cs, c)
	}
	return compose(cs, func(cs []HlAction) HlAction { return Seq{Children: cs} })
}

// NewPar builds a Par, dropping Noops, splicing nested Pars and collapsing
// trivial cases.
func NewPar(children ...HlAction) HlAction {
	var cs []HlAction
	for _, c := range children {
		if p, ok := c.(Par); ok {
			cs = append(cs, p.Children...)
			continue
		}
		cs = append(cs, c)
	}
	return compose(cs, func(cs []HlAction) HlAction { return Par{Children: cs} })
}

func compose(children []HlAction, wrap func([]HlAction) HlAction) HlAction {
	var cs []HlAction
	for _, c := range children {
		if _, ok := c.(Noop); ok || c == nil {
			continue
		}
		cs = append(cs, c)
	}
	switch len(cs) {
	case 0:
		return Noop{}
	case 1:
		return cs[0]
	default:
		return wrap(cs)
	}
}

// Apply returns the world after a. It panics when a cannot happen from w:
// such a plan means the action generator is broken, not the input data.
func Apply(w World, a HlAction) World {
	switch a := a.(type) {
	case TbMove:
		w.TbLoc = moveTb(w, a.N)
	case TbGet:
		c := w.TbLoc.Column()
		if w.CarryRs {
			panic(fmt.Sprintf("fp1d: TbGet at column %d while already carrying", c))
		}
		if w.ConnectedRs[c] == 0 {
			panic(fmt.Sprintf("fp1d: TbGet at empty column %d", c))
		}
		w.ConnectedRs[c]--
		w.CarryRs = true
	case TbPut:
		c := w.TbLoc.Column()
		if !w.CarryRs {
			panic(fmt.Sprintf("fp1d: TbPut at column %d without a rail", c))
		}
		w.ConnectedRs[c]++
		w.CarryRs = false
	case FdwMove:
		np := w.StagePos + a.N
		if np < 0 || np >= Columns {
			panic(fmt.Sprintf("fp1d: FdwMove(%d) from stage %d leaves the feeder", a.N, w.StagePos))
		}
		w.StagePos = np
		if _, ok := w.TbLoc.(OnStage); ok {
			w.TbLoc = OnStage{StackIx: np}
		}
	case Par:
		for _, c := range a.Children {
			w = Apply(w, c)
		}
	case Seq:
		for _, c := range a.Children {
			w = Apply(w, c)
		}
	case Noop:
	default:
		panic(fmt.Sprintf("fp1d: unknown action %T", a))
	}
	return w
}

func moveTb(w World, n int) TbLoc {
	switch l := w.TbLoc.(type) {
	case OnStage:
		if n < 0 {
			panic(fmt.Sprintf("fp1d: TbMove(%d) from the stage", n))
		}
		if n == 0 {
			return l
		}
		if l.StackIx != w.StagePos {
			panic(fmt.Sprintf("fp1d: TB docked at column %d but stage is at %d", l.StackIx, w.StagePos))
		}
		return onStackChecked(w, l.StackIx, n-1)
	case OnStack:
		np := l.Pos + n
		if np == -1 {
			if l.StackIx != w.StagePos {
				panic(fmt.Sprintf("fp1d: TB returns to stage at column %d but stage is at %d", l.StackIx, w.StagePos))
			}
			return OnStage{StackIx: l.StackIx}
		}
		return onStackChecked(w, l.StackIx, np)
	default:
		panic(fmt.Sprintf("fp1d: unknown TB location %T", w.TbLoc))
	}
}

func onStackChecked(w World, col, pos int) TbLoc {
	if pos < 0 || pos >= w.ConnectedRs[col] {
		panic(fmt.Sprintf("fp1d: TB cannot stand at position %d of column %d holding %d rails", pos, col, w.ConnectedRs[col]))
	}
	return OnStack{StackIx: col, Pos: pos}
}
