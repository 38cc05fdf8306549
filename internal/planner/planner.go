// Package planner turns a pair of scaffold models, the current and the
// target arrangement, into a timed per-worker action plan.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/fp1d"
	"github.com/piwi3910/overmind/internal/model"
)

var (
	// ErrTopology is wrapped by every error about a model the planner cannot interpret.
	ErrTopology = errors.New("unsupported topology")
	// ErrRailCount is returned when current and target hold different numbers of rails.
	ErrRailCount = errors.New("rail segment count mismatch")
	// ErrMacro is returned when the macro source lacks a macro the planner needs.
	ErrMacro = errors.New("missing command macro")
)

// Planner produces a plan that brings a model into another arrangement.
type Planner interface {
	GetPlan() (*action.Plan, error)
	// SetTime drives a preview of the physics; it does not affect plans.
	SetTime(tSec float64)
}

// FeederPlanner1D plans rail transfers for a single wide feeder served by one
// train builder. Rails are only moved between the feeder's columns.
type FeederPlanner1D struct {
	src    *model.ScaffoldModel
	dst    *model.ScaffoldModel
	macros MacroSource
}

// NewFeederPlanner1D creates a planner from src (current) to dst (target).
// The models are read on every GetPlan call and never modified by it.
func NewFeederPlanner1D(src, dst *model.ScaffoldModel, macros MacroSource) *FeederPlanner1D {
	return &FeederPlanner1D{src: src, dst: dst, macros: macros}
}

// SetTime oscillates the current feeder stage for a live preview.
func (p *FeederPlanner1D) SetTime(tSec float64) {
	fdw := p.src.FindByKind(model.KindFDW)
	if fdw == nil {
		return
	}
	p.src.SetFeederParam(fdw, math.Cos(tSec*math.Pi/2)*0.05)
}

// HighLevelPlan interprets both models and returns the current world with
// the high-level action that turns it into the target world.
func (p *FeederPlanner1D) HighLevelPlan() (fp1d.World, fp1d.HlAction, error) {
	src, err := InterpretWorld(p.src)
	if err != nil {
		slog.Warn("cannot interpret current model", "error", err)
		return fp1d.World{}, nil, fmt.Errorf("current model: %w", err)
	}
	dst, err := InterpretWorld(p.dst)
	if err != nil {
		slog.Warn("cannot interpret target model", "error", err)
		return fp1d.World{}, nil, fmt.Errorf("target model: %w", err)
	}
	if src.CountRs() != dst.CountRs() {
		return fp1d.World{}, nil, fmt.Errorf("%w: current has %d, target has %d", ErrRailCount, src.CountRs(), dst.CountRs())
	}
	if src.CarryRs || dst.CarryRs {
		return fp1d.World{}, nil, fmt.Errorf("%w: TB must not carry a rail at rest", ErrTopology)
	}

	delta := make([]int, fp1d.Columns)
	for i := range delta {
		delta[i] = dst.ConnectedRs[i] - src.ConnectedRs[i]
	}

	curr := src
	var steps []fp1d.HlAction
	for _, sw := range fp1d.SwapSequence(delta) {
		mv := fp1d.MoveRs(curr, sw[0], sw[1])
		curr = fp1d.Apply(curr, mv)
		steps = append(steps, mv)
	}
	if back := fp1d.Go(curr, dst.TbLoc); !isNoop(back) {
		curr = fp1d.Apply(curr, back)
		steps = append(steps, back)
	}
	// A builder left out on a stack does not carry the stage along.
	if curr.StagePos != dst.StagePos {
		steps = append(steps, fp1d.FdwMove{N: dst.StagePos - curr.StagePos})
	}
	return src, fp1d.Seq{Children: steps}, nil
}

// GetPlan computes the plan. Errors are user-facing descriptions of why the
// models cannot be planned; the caller must not offer execution then.
func (p *FeederPlanner1D) GetPlan() (*action.Plan, error) {
	src, hl, err := p.HighLevelPlan()
	if err != nil {
		return nil, err
	}
	if err := p.checkMacros(); err != nil {
		return nil, err
	}

	// Durations follow from the macro strings.
	seqsOf := func(w fp1d.World, a fp1d.HlAction) []workerSeq {
		refs := expand(w, a)
		out := make([]workerSeq, len(refs))
		for i, r := range refs {
			raw, _ := p.macros.GetByMemo(r.worker, r.memo)
			out[i] = workerSeq{worker: r.worker, memo: r.memo, actions: action.ParseSeq(raw)}
		}
		return out
	}
	dur := func(w fp1d.World, a fp1d.HlAction) float64 {
		total := 0.0
		for _, s := range seqsOf(w, a) {
			total += action.NewSeq(s.actions, 0, "").DurationSec()
		}
		return total
	}

	timed, end, _ := fp1d.Flatten(src, hl, 0, dur)
	plan := action.NewPlan()
	for _, ta := range timed {
		t := ta.T0
		for _, s := range seqsOf(ta.From, ta.Action) {
			seq := action.NewSeq(s.actions, t, s.memo)
			plan.Add(s.worker, seq)
			t = seq.T1
		}
	}

	slog.Debug("plan computed",
		"primitives", len(timed),
		"seqs", plan.NumSeqs(),
		"total_sec", end,
		"tx_bytes", plan.TotalTxCommandSize())
	return plan, nil
}

func isNoop(a fp1d.HlAction) bool {
	_, ok := a.(fp1d.Noop)
	return ok
}

type workerSeq struct {
	worker  string
	memo    string
	actions []action.Action
}

func (p *FeederPlanner1D) checkMacros() error {
	for _, w := range []string{workerTB, workerFDW} {
		for _, memo := range RequiredMacros[w] {
			if _, ok := p.macros.GetByMemo(w, memo); !ok {
				return fmt.Errorf("%w: %s %q", ErrMacro, w, memo)
			}
		}
	}
	return nil
}
