package model

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/overmind/internal/geom"
)

func near(t *testing.T, want, got v3.Vec) {
	t.Helper()
	assert.LessOrEqual(t, geom.Distance(want, got), 1e-6, "want %v, got %v", want, got)
}

func onStage(col int) Placement {
	return Placement{OnStage: true, Column: col}
}

func TestNewThingKinds(t *testing.T) {
	for _, k := range Kinds {
		th, err := NewThing(k)
		require.NoError(t, err)
		assert.Equal(t, k, th.Kind)
		assert.Len(t, string(th.ID), 8)
	}
	_, err := NewThing("XX")
	assert.Error(t, err)

	assert.Len(t, NewRailStraight().Ports, 2)
	assert.Len(t, NewRailRotator().Ports, 4)
	assert.Len(t, NewFeederWide().Ports, FeederColumns)
	assert.Empty(t, NewTrainBuilder().Ports)
	assert.Len(t, NewRailRotator().RailSegments(), 2)
	assert.Empty(t, NewTrainBuilder().RailSegments())
}

func TestFeederPortsFollowStops(t *testing.T) {
	fdw := NewFeederWide()
	for i, p := range fdw.Ports {
		assert.InDelta(t, 0.135-FeederStops[i], p.Pos.X, 1e-12)
		fdw.ParamX = FeederStops[i]
		assert.Equal(t, i, fdw.StagePos())
		assert.InDelta(t, p.Pos.X, fdw.StageRailX(), 1e-12)
	}

	// Gaps are 60mm then 35mm.
	assert.InDelta(t, 0.060, FeederStops[1]-FeederStops[0], 1e-12)
	for i := 2; i < FeederColumns; i++ {
		assert.InDelta(t, 0.035, FeederStops[i]-FeederStops[i-1], 1e-12)
	}

	fdw.ParamX = 0.04 // between stop 0 and stop 1, nearer stop 1
	assert.Equal(t, 1, fdw.StagePos())
	fdw.ParamX = -0.5
	assert.Equal(t, 0, fdw.StagePos())
}

func TestAddThingToPortMatesPorts(t *testing.T) {
	m := NewScaffoldModel()
	fdw := NewFeederWide()
	m.AddThing(fdw)

	rs := NewRailStraight()
	require.NoError(t, m.AddThingToPort(fdw, 2, rs))

	fp, fup, ffwd := fdw.WorldPort(2, m.Coord)
	rp, rup, rfwd := rs.WorldPort(0, m.Coord)
	near(t, fp, rp)
	near(t, fup, rup)
	near(t, ffwd.MulScalar(-1), rfwd)

	// The far end continues one rail length along the port's forward direction.
	far, _, _ := rs.WorldPort(1, m.Coord)
	near(t, fp.Add(ffwd.MulScalar(RailLength)), far)

	assert.Error(t, m.AddThingToPort(fdw, 9, NewRailStraight()))
	assert.Error(t, m.AddThingToPort(fdw, 0, NewTrainBuilder()))
}

func TestOpenPorts(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{2, 0, 0, 0, 0}, Train: onStage(0)})
	require.NoError(t, err)

	open := m.OpenPorts()
	assert.Len(t, open, 5)
	for _, p := range open {
		if p.Thing.Kind == KindFDW {
			assert.NotEqual(t, 0, p.Index)
		} else {
			assert.Equal(t, KindRS, p.Thing.Kind)
			assert.Equal(t, 1, p.Index)
		}
	}
}

func TestCheckErrors(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{2, 1, 0, 0, 1}, Train: onStage(2)})
	require.NoError(t, err)
	assert.Empty(t, m.CheckErrors())

	a := NewRailStraight()
	a.Coord.UnsafeSetParent(m.Coord, v3.Vec{X: -1})
	m.AddThing(a)
	b := NewRailStraight()
	b.Coord.UnsafeSetParent(m.Coord, v3.Vec{X: -1, Z: 0.015})
	m.AddThing(b)

	errs := m.CheckErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, "collision", errs[0].Msg)
	near(t, v3.Vec{X: -1, Z: 0.0175}, errs[0].Pos)
}

func TestCheckErrorsRailsOnOnePort(t *testing.T) {
	m := NewScaffoldModel()
	a := NewRailStraight()
	m.AddThing(a)
	b, c := NewRailStraight(), NewRailStraight()
	require.NoError(t, m.AddThingToPort(a, 1, b))
	require.NoError(t, m.AddThingToPort(a, 1, c))
	near(t, v3.Vec{Y: 0.06, Z: 0.01}, b.WorldBound(m.Coord).Center())
	near(t, v3.Vec{Y: 0.06, Z: 0.01}, c.WorldBound(m.Coord).Center())

	errs := m.CheckErrors()
	require.Len(t, errs, 1)
	near(t, v3.Vec{Y: 0.06, Z: 0.01}, errs[0].Pos)
}

func TestCheckErrorsTrainOnStack(t *testing.T) {
	for pos := 0; pos < 3; pos++ {
		m, err := BuildFeederScene(FeederScene{Stacks: [5]int{3, 1, 0, 2, 0}, Train: Placement{Column: 0, Pos: pos}})
		require.NoError(t, err)
		assert.Empty(t, m.CheckErrors(), "train at stack position %d", pos)
	}

	// A rail stuck through the train from outside its column is still caught.
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{2, 0, 0, 0, 0}, Train: Placement{Column: 0, Pos: 0}})
	require.NoError(t, err)
	tb := m.FindByKind(KindTB)
	box := tb.WorldBound(m.Coord)
	stray := NewRailStraight()
	stray.Coord.UnsafeSetParent(m.Coord, v3.Vec{X: box.Center().X + 0.02, Y: box.Center().Y, Z: box.Min.Z})
	m.AddThing(stray)
	assert.NotEmpty(t, m.CheckErrors())
}

func TestDeletionAndEditPoints(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{1, 0, 0, 0, 0}, Train: onStage(0)})
	require.NoError(t, err)

	assert.Len(t, m.DeletionPoints(), 3)
	edit := m.EditPoints()
	require.Len(t, edit, 2)
	for _, e := range edit {
		assert.NotEqual(t, KindRS, e.Thing.Kind)
	}

	rs := m.FindByKind(KindRS)
	for _, d := range m.DeletionPoints() {
		if d.Thing == rs {
			near(t, v3.Vec{X: 0.235, Y: -0.032, Z: 0.097}, d.Pos)
		}
	}
}

func TestFindAndRemove(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{1, 1, 1, 0, 0}, Train: onStage(0)})
	require.NoError(t, err)

	assert.Len(t, m.FindAllByKind(KindRS), 3)
	assert.Nil(t, m.FindByKind(KindRR))

	fdw := m.FindByKind(KindFDW)
	tb := m.FindByKind(KindTB)
	require.NotNil(t, fdw)
	require.NotNil(t, tb)
	assert.Same(t, fdw, m.AttachedTo(tb))
	assert.Same(t, tb, m.AttachedBy(fdw))

	before := tb.Coord.ConvertP(v3.Vec{}, m.Coord)
	assert.True(t, m.RemoveThing(fdw))
	assert.False(t, m.RemoveThing(fdw))
	assert.Nil(t, m.AttachedTo(tb))
	near(t, before, tb.Coord.ConvertP(v3.Vec{}, m.Coord))
	assert.Same(t, m.Coord, tb.Coord.Parent())
}

func TestAttachTrainToRailChecksKinds(t *testing.T) {
	m := NewScaffoldModel()
	fdw, tb, rs := NewFeederWide(), NewTrainBuilder(), NewRailStraight()
	m.AddThing(fdw)
	m.AddThing(tb)
	m.AddThing(rs)

	assert.Error(t, m.AttachTrainToRail(rs, fdw))
	assert.Error(t, m.AttachTrainToRail(tb, rs))
	require.NoError(t, m.AttachTrainToRail(tb, fdw))

	other := NewTrainBuilder()
	m.AddThing(other)
	assert.Error(t, m.AttachTrainToRail(other, fdw))
}

func TestTrainFollowsStage(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Train: onStage(1)})
	require.NoError(t, err)
	fdw := m.FindByKind(KindFDW)
	tb := m.FindByKind(KindTB)

	pl, err := m.TrainPlacement(tb)
	require.NoError(t, err)
	assert.Equal(t, onStage(1), pl)

	require.NoError(t, m.MoveStage(fdw, 3))
	pl, err = m.TrainPlacement(tb)
	require.NoError(t, err)
	assert.Equal(t, onStage(3), pl)
	assert.InDelta(t, fdw.Ports[3].Pos.X, tb.Coord.ConvertP(v3.Vec{}, fdw.Coord).X, 1e-12)

	assert.Error(t, m.MoveStage(fdw, 5))
}

func TestTrainOnStackPlacement(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{
		Stacks: [5]int{0, 0, 3, 0, 0},
		Train:  Placement{Column: 2, Pos: 1},
	})
	require.NoError(t, err)
	fdw := m.FindByKind(KindFDW)
	tb := m.FindByKind(KindTB)

	pl, err := m.TrainPlacement(tb)
	require.NoError(t, err)
	assert.Equal(t, Placement{Column: 2, Pos: 1}, pl)

	// Moving the stage leaves a train on a stack where it is.
	m.SetFeederParam(fdw, FeederStops[4])
	pl, err = m.TrainPlacement(tb)
	require.NoError(t, err)
	assert.Equal(t, Placement{Column: 2, Pos: 1}, pl)

	tb.Coord.UnsafeSetParent(fdw.Coord, v3.Vec{X: 0.02, Z: 0.12})
	_, err = m.TrainPlacement(tb)
	assert.Error(t, err)
}

func TestEncodeDecodeModel(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{1, 0, 2, 0, 0}, Train: onStage(4), Carrying: true})
	require.NoError(t, err)

	data, err := m.Encode()
	require.NoError(t, err)

	got, err := DecodeModel(data)
	require.NoError(t, err)
	require.Len(t, got.Things(), len(m.Things()))

	for _, orig := range m.Things() {
		c := got.Get(orig.ID)
		require.NotNil(t, c, "missing %s", orig)
		assert.Equal(t, orig.Kind, c.Kind)
		assert.True(t, orig.Coord.TransformTo(m.Coord).ApproxEqual(c.Coord.TransformTo(got.Coord), 1e-9))
	}

	tb := got.FindByKind(KindTB)
	assert.True(t, tb.Carrying)
	require.NotNil(t, got.AttachedTo(tb))
	pl, err := got.TrainPlacement(tb)
	require.NoError(t, err)
	assert.Equal(t, onStage(4), pl)
	assert.Len(t, got.OpenPorts(), len(m.OpenPorts()))

	_, err = DecodeModel([]byte("{"))
	assert.Error(t, err)
	_, err = DecodeModel([]byte(`{"things":[{"id":"a","type":"??"}]}`))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	m, err := BuildFeederScene(FeederScene{Stacks: [5]int{1, 0, 0, 0, 0}, Train: onStage(0)})
	require.NoError(t, err)

	c := m.Clone()
	c.RemoveThing(c.FindByKind(KindRS))
	assert.Len(t, m.FindAllByKind(KindRS), 1)
	assert.Empty(t, c.FindAllByKind(KindRS))
}
