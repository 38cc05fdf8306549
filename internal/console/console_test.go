package console

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/overmind/internal/execution"
	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/planner"
)

type recordingBridge struct {
	mu   sync.Mutex
	cmds []string
}

func (b *recordingBridge) SendCommand(cmd string, _ uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmds = append(b.cmds, cmd)
	return nil
}

func (b *recordingBridge) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cmds)
}

func newDemoViewModel(t *testing.T) (*PlanViewModel, *recordingBridge) {
	t.Helper()
	curr, target, err := DemoScenes()
	require.NoError(t, err)
	bridge := &recordingBridge{}
	opts := execution.Options{Opcode: "e", TickInterval: time.Millisecond, Speed: 1000}
	return NewPlanViewModel(curr, target, planner.DefaultMacros(), bridge, opts), bridge
}

func TestPlanViewModelDemo(t *testing.T) {
	vm, _ := newDemoViewModel(t)

	require.NotNil(t, vm.Plan())
	assert.Empty(t, vm.ErrorMsg())
	assert.Regexp(t, `^[0-9.]+sec Tx:[0-9]+B$`, vm.InfoMsg())
	assert.Positive(t, vm.Plan().NumSeqs())
	assert.True(t, vm.IsCurrent())
	assert.Same(t, vm.Current(), vm.World().Model)
	assert.False(t, vm.CanUndo())
}

func TestRemoveFeederUndoRedo(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	fdwID := vm.Current().FindByKind(model.KindFDW).ID

	vm.SetState(ClickRemove)
	require.NoError(t, vm.OnClickUiObject(HitThing(fdwID)))
	assert.Nil(t, vm.Plan())
	assert.Contains(t, vm.ErrorMsg(), "FDW-RS")
	assert.Empty(t, vm.InfoMsg())
	assert.Nil(t, vm.Current().FindByKind(model.KindFDW))

	ok, err := vm.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, vm.Current().FindByKind(model.KindFDW))
	assert.Equal(t, fdwID, vm.Current().FindByKind(model.KindFDW).ID)
	assert.NotNil(t, vm.Plan())
	assert.Same(t, vm.Current(), vm.World().Model)
	assert.Equal(t, ClickRemove, vm.World().State)

	ok, err = vm.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, vm.Plan())

	ok, err = vm.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddRailOnBothModels(t *testing.T) {
	vm, _ := newDemoViewModel(t)

	vm.SetIsCurrent(false)
	vm.SetState(ClickAddRs)
	assert.Same(t, vm.Target(), vm.World().Model)

	fdw := vm.Target().FindByKind(model.KindFDW)
	require.NoError(t, vm.OnClickUiObject(HitPort(fdw.ID, 4)))
	assert.Len(t, vm.Target().FindAllByKind(model.KindRS), 2)
	assert.Nil(t, vm.Plan())
	assert.Contains(t, vm.ErrorMsg(), planner.ErrRailCount.Error())

	vm.SetIsCurrent(true)
	fdw = vm.Current().FindByKind(model.KindFDW)
	require.NoError(t, vm.OnClickUiObject(HitPort(fdw.ID, 4)))
	assert.NotNil(t, vm.Plan())
	assert.Empty(t, vm.ErrorMsg())
}

func TestAddRailRequiresPort(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	fdw := vm.Current().FindByKind(model.KindFDW)

	vm.SetState(ClickAddRh)
	assert.ErrorIs(t, vm.OnClickUiObject(HitThing(fdw.ID)), ErrNoPort)
	assert.ErrorIs(t, vm.OnClickUiObject(HitPort("missing", 0)), ErrUnknownThing)
	assert.Error(t, vm.OnClickUiObject(HitPort(fdw.ID, 9)))
	assert.False(t, vm.CanUndo())
	assert.NotNil(t, vm.Plan())
}

type recordingCallbacks struct {
	events []string
}

func (c *recordingCallbacks) WillUpdate(label string) { c.events = append(c.events, "will:"+label) }
func (c *recordingCallbacks) UpdateAborted()          { c.events = append(c.events, "aborted") }
func (c *recordingCallbacks) ModelUpdated()           { c.events = append(c.events, "updated") }

func TestRejectedAddAbortsUpdate(t *testing.T) {
	m := model.NewScaffoldModel()
	rs := model.NewRailStraight()
	m.AddThing(rs)
	cb := &recordingCallbacks{}
	w := NewWorldViewModel(m, ClickAddRs, cb)

	require.Error(t, w.OnClickUiObject(HitPort(rs.ID, 5)))
	assert.Equal(t, []string{"will:Add RS", "aborted"}, cb.events)
	assert.Len(t, m.Things(), 1)

	cb.events = nil
	require.NoError(t, w.OnClickUiObject(HitPort(rs.ID, 1)))
	assert.Equal(t, []string{"will:Add RS", "updated"}, cb.events)
}

func TestRejectedAddKeepsRedo(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	fdw := vm.Current().FindByKind(model.KindFDW)

	vm.SetState(ClickAddRs)
	require.NoError(t, vm.OnClickUiObject(HitPort(fdw.ID, 4)))
	ok, err := vm.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, vm.CanRedo())

	fdw = vm.Current().FindByKind(model.KindFDW)
	assert.Error(t, vm.OnClickUiObject(HitPort(fdw.ID, 9)))
	assert.False(t, vm.CanUndo())
	assert.True(t, vm.CanRedo())
}

func TestSelection(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	tb := vm.Current().FindByKind(model.KindTB)
	fdw := vm.Current().FindByKind(model.KindFDW)
	rs := vm.Current().FindByKind(model.KindRS)

	w := vm.World()
	require.NoError(t, w.OnClickUiObject(HitThing(tb.ID)))
	assert.Same(t, tb, w.SelectedTB)
	assert.Nil(t, w.SelectedFDW)

	require.NoError(t, w.OnClickUiObject(HitThing(fdw.ID)))
	assert.Nil(t, w.SelectedTB)
	assert.Same(t, fdw, w.SelectedFDW)

	require.NoError(t, w.OnClickUiObject(HitThing(rs.ID)))
	assert.Same(t, fdw, w.SelectedFDW)
	assert.False(t, vm.CanUndo())
}

func TestClickOpStateString(t *testing.T) {
	assert.Equal(t, "none", ClickNone.String())
	assert.Equal(t, "add-rr", ClickAddRr.String())
	assert.Equal(t, "ClickOpState(9)", ClickOpState(9).String())
}

func TestSetTimeMovesCurrentStage(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	vm.SetTime(0)
	assert.InDelta(t, 0.05, vm.Current().FindByKind(model.KindFDW).ParamX, 1e-9)

	vm.TogglePhysics()
	assert.True(t, vm.ShowPhysics())
}

func TestExecStepSkipStop(t *testing.T) {
	vm, bridge := newDemoViewModel(t)

	ok, err := vm.StepExecCurrentPlan()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, bridge.count())
	assert.True(t, vm.SkipExecStep())
	assert.Equal(t, 2, vm.ExecNumComplete())

	vm.StopExec()
	assert.Zero(t, vm.ExecNumComplete())
}

func TestExecCurrentPlan(t *testing.T) {
	vm, bridge := newDemoViewModel(t)

	require.NoError(t, vm.ExecCurrentPlan(context.Background()))
	require.NoError(t, vm.WaitExec())
	assert.Equal(t, vm.Plan().NumSeqs(), bridge.count())
	assert.Equal(t, vm.Plan().NumSeqs(), vm.ExecNumComplete())
}

func TestExecWithoutPlan(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	vm.SetState(ClickRemove)
	require.NoError(t, vm.OnClickUiObject(HitThing(vm.Current().FindByKind(model.KindTB).ID)))

	assert.ErrorIs(t, vm.ExecCurrentPlan(context.Background()), execution.ErrNoPlan)
	_, err := vm.StepExecCurrentPlan()
	assert.ErrorIs(t, err, execution.ErrNoPlan)
	assert.False(t, vm.SkipExecStep())
	assert.Zero(t, vm.ExecNumComplete())
	assert.NoError(t, vm.WaitExec())
}

func TestWorkspaceRoundTrip(t *testing.T) {
	vm, _ := newDemoViewModel(t)
	path := filepath.Join(t.TempDir(), "demo.ovm")
	require.NoError(t, vm.SaveWorkspace(path))

	vm.SetState(ClickRemove)
	require.NoError(t, vm.OnClickUiObject(HitThing(vm.Current().FindByKind(model.KindFDW).ID)))
	require.Nil(t, vm.Plan())

	require.NoError(t, vm.LoadWorkspace(path))
	assert.NotNil(t, vm.Plan())
	assert.True(t, vm.CanUndo())

	require.NoError(t, vm.LoadFeederDemo())
	assert.NotNil(t, vm.Plan())
}
