// Package console holds the view models an operator front end binds to:
// the plan view model over both arrangements and the world view model that
// applies editing clicks to one of them. Nothing here renders.
package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/execution"
	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/planner"
	"github.com/piwi3910/overmind/internal/project"
)

// PlanViewModel knows both the current and the target model. It recomputes
// the plan after every edit and drives its execution.
type PlanViewModel struct {
	curr   *model.ScaffoldModel
	target *model.ScaffoldModel

	macros planner.MacroSource
	bridge execution.Bridge
	opts   execution.Options

	state       ClickOpState
	isCurrent   bool
	showPhysics bool
	world       *WorldViewModel
	history     *History
	pending     *Snapshot

	planner  *planner.FeederPlanner1D
	plan     *action.Plan
	exec     *execution.Executor
	errorMsg string
	infoMsg  string
}

// NewPlanViewModel creates a view model editing curr first and computes the
// initial plan.
func NewPlanViewModel(curr, target *model.ScaffoldModel, macros planner.MacroSource, bridge execution.Bridge, opts execution.Options) *PlanViewModel {
	vm := &PlanViewModel{
		curr:      curr,
		target:    target,
		macros:    macros,
		bridge:    bridge,
		opts:      opts,
		isCurrent: true,
		history:   NewHistory(),
	}
	vm.rebind()
	vm.updatePlan()
	return vm
}

// DemoScenes returns the feeder demo: one spare rail on column 3 that has to
// move to column 1, with the train builder docked at column 0.
func DemoScenes() (curr, target *model.ScaffoldModel, err error) {
	docked := model.Placement{OnStage: true}
	if curr, err = model.BuildFeederScene(model.FeederScene{Stacks: [model.FeederColumns]int{0, 0, 0, 1, 0}, Train: docked}); err != nil {
		return nil, nil, fmt.Errorf("failed to build current demo: %w", err)
	}
	if target, err = model.BuildFeederScene(model.FeederScene{Stacks: [model.FeederColumns]int{0, 1, 0, 0, 0}, Train: docked}); err != nil {
		return nil, nil, fmt.Errorf("failed to build target demo: %w", err)
	}
	return curr, target, nil
}

// LoadFeederDemo replaces both models with the feeder demo.
func (vm *PlanViewModel) LoadFeederDemo() error {
	curr, target, err := DemoScenes()
	if err != nil {
		return err
	}
	vm.replace(curr, target, "Feeder demo")
	return nil
}

// LoadWorkspace replaces both models with a saved workspace.
func (vm *PlanViewModel) LoadWorkspace(path string) error {
	curr, target, err := project.LoadWorkspace(path)
	if err != nil {
		return err
	}
	vm.replace(curr, target, "Open workspace")
	return nil
}

// SaveWorkspace writes both models to path.
func (vm *PlanViewModel) SaveWorkspace(path string) error {
	return project.SaveWorkspace(path, vm.curr, vm.target)
}

func (vm *PlanViewModel) replace(curr, target *model.ScaffoldModel, label string) {
	vm.WillUpdate(label)
	vm.curr, vm.target = curr, target
	vm.rebind()
	vm.ModelUpdated()
}

// SetState switches the editing tool.
func (vm *PlanViewModel) SetState(s ClickOpState) {
	vm.state = s
	vm.rebind()
}

// State returns the editing tool.
func (vm *PlanViewModel) State() ClickOpState {
	return vm.state
}

// SetIsCurrent selects which model the world view model edits.
func (vm *PlanViewModel) SetIsCurrent(isCurrent bool) {
	vm.isCurrent = isCurrent
	vm.rebind()
}

// IsCurrent reports whether the current model is being edited.
func (vm *PlanViewModel) IsCurrent() bool {
	return vm.isCurrent
}

// TogglePhysics flips the physics preview.
func (vm *PlanViewModel) TogglePhysics() {
	vm.showPhysics = !vm.showPhysics
}

// ShowPhysics reports whether the physics preview is on.
func (vm *PlanViewModel) ShowPhysics() bool {
	return vm.showPhysics
}

// World returns the view model of the edited arrangement.
func (vm *PlanViewModel) World() *WorldViewModel {
	return vm.world
}

// Current returns the current model.
func (vm *PlanViewModel) Current() *model.ScaffoldModel {
	return vm.curr
}

// Target returns the target model.
func (vm *PlanViewModel) Target() *model.ScaffoldModel {
	return vm.target
}

// OnClickUiObject forwards a click to the edited world.
func (vm *PlanViewModel) OnClickUiObject(hit UiHit) error {
	return vm.world.OnClickUiObject(hit)
}

// Plan returns the last computed plan, nil when planning failed.
func (vm *PlanViewModel) Plan() *action.Plan {
	return vm.plan
}

// ErrorMsg explains why there is no plan.
func (vm *PlanViewModel) ErrorMsg() string {
	return vm.errorMsg
}

// InfoMsg summarizes the plan as total time and transmitted bytes.
func (vm *PlanViewModel) InfoMsg() string {
	return vm.infoMsg
}

// SetTime scrubs the physics preview.
func (vm *PlanViewModel) SetTime(tSec float64) {
	if vm.planner != nil {
		vm.planner.SetTime(tSec)
	}
}

// WillUpdate implements WorldCallbacks. The snapshot is held until the edit
// is confirmed by ModelUpdated.
func (vm *PlanViewModel) WillUpdate(label string) {
	snap := MakeSnapshot(vm.curr, vm.target, label)
	vm.pending = &snap
}

// UpdateAborted implements WorldCallbacks.
func (vm *PlanViewModel) UpdateAborted() {
	vm.pending = nil
}

// ModelUpdated implements WorldCallbacks.
func (vm *PlanViewModel) ModelUpdated() {
	if vm.pending != nil {
		vm.history.Push(*vm.pending)
		vm.pending = nil
	}
	vm.updatePlan()
}

// CanUndo reports whether an edit can be undone.
func (vm *PlanViewModel) CanUndo() bool {
	return vm.history.CanUndo()
}

// CanRedo reports whether an undone edit can be redone.
func (vm *PlanViewModel) CanRedo() bool {
	return vm.history.CanRedo()
}

// Undo restores both models to before the last edit.
func (vm *PlanViewModel) Undo() (bool, error) {
	snap, ok := vm.history.Undo(MakeSnapshot(vm.curr, vm.target, ""))
	if !ok {
		return false, nil
	}
	return true, vm.restore(snap)
}

// Redo reapplies the last undone edit.
func (vm *PlanViewModel) Redo() (bool, error) {
	snap, ok := vm.history.Redo(MakeSnapshot(vm.curr, vm.target, ""))
	if !ok {
		return false, nil
	}
	return true, vm.restore(snap)
}

func (vm *PlanViewModel) restore(s Snapshot) error {
	curr, err := model.FromDoc(s.Current)
	if err != nil {
		return fmt.Errorf("failed to restore current model: %w", err)
	}
	target, err := model.FromDoc(s.Target)
	if err != nil {
		return fmt.Errorf("failed to restore target model: %w", err)
	}
	vm.curr, vm.target = curr, target
	vm.rebind()
	vm.updatePlan()
	return nil
}

func (vm *PlanViewModel) rebind() {
	m := vm.curr
	if !vm.isCurrent {
		m = vm.target
	}
	vm.world = NewWorldViewModel(m, vm.state, vm)
}

// updatePlan must run after every model change. A running execution is
// stopped first since it belongs to the previous plan.
func (vm *PlanViewModel) updatePlan() {
	if vm.exec != nil {
		if vm.exec.Running() {
			vm.exec.Stop()
		}
		vm.exec = nil
	}

	vm.planner = planner.NewFeederPlanner1D(vm.curr, vm.target, vm.macros)
	plan, err := vm.planner.GetPlan()
	if err != nil {
		vm.plan = nil
		vm.errorMsg = err.Error()
		vm.infoMsg = ""
		slog.Debug("no plan", "error", err)
		return
	}
	vm.plan = plan
	vm.errorMsg = ""
	vm.infoMsg = fmt.Sprintf("%gsec Tx:%dB", plan.TotalTime(), plan.TotalTxCommandSize())
	vm.exec = execution.NewExecutor(plan, vm.bridge, vm.opts)
}

// ExecCurrentPlan starts timed execution of the plan.
func (vm *PlanViewModel) ExecCurrentPlan(ctx context.Context) error {
	if vm.exec == nil {
		return execution.ErrNoPlan
	}
	return vm.exec.Start(ctx)
}

// WaitExec blocks until timed execution ends.
func (vm *PlanViewModel) WaitExec() error {
	if vm.exec == nil {
		return nil
	}
	return vm.exec.Wait()
}

// StepExecCurrentPlan sends the next sequence right away.
func (vm *PlanViewModel) StepExecCurrentPlan() (bool, error) {
	if vm.exec == nil {
		return false, execution.ErrNoPlan
	}
	return vm.exec.Step()
}

// SkipExecStep marks the next sequence as done without sending it.
func (vm *PlanViewModel) SkipExecStep() bool {
	if vm.exec == nil {
		return false
	}
	return vm.exec.Skip()
}

// StopExec aborts every pending dispatch and resets progress.
func (vm *PlanViewModel) StopExec() {
	if vm.exec != nil {
		vm.exec.Stop()
	}
}

// ExecNumComplete returns how many sequences were sent or skipped.
func (vm *PlanViewModel) ExecNumComplete() int {
	if vm.exec == nil {
		return 0
	}
	return vm.exec.NumComplete()
}
