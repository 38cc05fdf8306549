package planner

import (
	"fmt"

	"github.com/piwi3910/overmind/internal/fp1d"
	"github.com/piwi3910/overmind/internal/model"
)

// MacroSource resolves a curated command macro by worker type and memo.
// The command history store is the production implementation.
type MacroSource interface {
	GetByMemo(wtype, memo string) (string, bool)
}

// Macro memo names used by the planner.
const (
	MemoLeaveStage = "C->DrvE"
	MemoEnterStage = "DrvE->C"
	MemoStepOut    = "FindC+"
	MemoStepIn     = "FindC-"
	MemoGrip       = "Grip"
	MemoDetach     = "Detach"
	MemoAttach     = "Attach"
	MemoRelease    = "Release"
	MemoFwd60      = "Fwd60"
	MemoBack60     = "Back60"
	MemoFwd35      = "Fwd35"
	MemoBack35     = "Back35"
)

var (
	workerTB  = string(model.KindTB)
	workerFDW = string(model.KindFDW)
)

// RequiredMacros lists the memos each worker type must provide.
var RequiredMacros = map[string][]string{
	workerTB:  {MemoLeaveStage, MemoEnterStage, MemoStepOut, MemoStepIn, MemoGrip, MemoDetach, MemoAttach, MemoRelease},
	workerFDW: {MemoFwd60, MemoBack60, MemoFwd35, MemoBack35},
}

// MacroTable is an in-memory MacroSource.
type MacroTable map[string]map[string]string

// GetByMemo implements MacroSource.
func (t MacroTable) GetByMemo(wtype, memo string) (string, bool) {
	seq, ok := t[wtype][memo]
	return seq, ok
}

// DefaultMacros returns the bench-calibrated macros for the TB and FDW-RS workers.
func DefaultMacros() MacroTable {
	return MacroTable{
		workerTB: {
			MemoLeaveStage: "500a60,800t50",
			MemoEnterStage: "800t-50,500a20",
			MemoStepOut:    "1500t70T80,100t0",
			MemoStepIn:     "1500t-70T80,100t0",
			MemoGrip:       "300b80,300a40",
			MemoDetach:     "600o60,200o0",
			MemoAttach:     "600o-60,200o0",
			MemoRelease:    "300a20,300b10",
		},
		workerFDW: {
			MemoFwd60:  "1200t80,100t0",
			MemoBack60: "1200t-80,100t0",
			MemoFwd35:  "700t80,100t0",
			MemoBack35: "700t-80,100t0",
		},
	}
}

// macroRef names one macro of one worker.
type macroRef struct {
	worker string
	memo   string
}

// expand maps a primitive high-level action, starting from w, to the macros
// that perform it. Each macro is sent as one ActionSeq.
func expand(w fp1d.World, a fp1d.HlAction) []macroRef {
	tb := func(memos ...string) []macroRef {
		out := make([]macroRef, len(memos))
		for i, m := range memos {
			out[i] = macroRef{worker: workerTB, memo: m}
		}
		return out
	}

	switch a := a.(type) {
	case fp1d.TbMove:
		var out []macroRef
		if a.N > 0 {
			if _, docked := w.TbLoc.(fp1d.OnStage); docked {
				out = append(out, tb(MemoLeaveStage)...)
			}
			for i := 0; i < a.N; i++ {
				out = append(out, tb(MemoStepOut)...)
			}
		} else {
			for i := 0; i < -a.N; i++ {
				out = append(out, tb(MemoStepIn)...)
			}
			if l, ok := w.TbLoc.(fp1d.OnStack); ok && l.Pos+a.N == -1 {
				out = append(out, tb(MemoEnterStage)...)
			}
		}
		return out
	case fp1d.TbGet:
		return tb(MemoGrip, MemoDetach)
	case fp1d.TbPut:
		return tb(MemoAttach, MemoRelease)
	case fp1d.FdwMove:
		var out []macroRef
		pos := w.StagePos
		step := 1
		if a.N < 0 {
			step = -1
		}
		for i := 0; i != a.N; i += step {
			next := pos + step
			out = append(out, macroRef{worker: workerFDW, memo: stageMemo(pos, next)})
			pos = next
		}
		return out
	default:
		panic(fmt.Sprintf("planner: no macro expansion for %T", a))
	}
}

// stageMemo picks the macro for one stop-to-stop stage move. The gap between
// stop 0 and stop 1 is longer than the others.
func stageMemo(from, to int) string {
	wide := (from == 0 && to == 1) || (from == 1 && to == 0)
	switch {
	case to > from && wide:
		return MemoFwd60
	case to > from:
		return MemoFwd35
	case wide:
		return MemoBack60
	default:
		return MemoBack35
	}
}
