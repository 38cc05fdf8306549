package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/piwi3910/overmind/internal/model"
)

// ClickOpState is the current editing tool. Conceptually it belongs to one
// world, but it is kept by the plan view model so that it survives switching
// between the current and the target arrangement.
type ClickOpState int

const (
	ClickNone ClickOpState = iota
	ClickAddRs
	ClickAddRh
	ClickAddRr
	ClickRemove
)

func (s ClickOpState) String() string {
	switch s {
	case ClickNone:
		return "none"
	case ClickAddRs:
		return "add-rs"
	case ClickAddRh:
		return "add-rh"
	case ClickAddRr:
		return "add-rr"
	case ClickRemove:
		return "remove"
	}
	return fmt.Sprintf("ClickOpState(%d)", int(s))
}

// addKind is the rail kind an add tool creates.
func (s ClickOpState) addKind() (model.Kind, bool) {
	switch s {
	case ClickAddRs:
		return model.KindRS, true
	case ClickAddRh:
		return model.KindRH, true
	case ClickAddRr:
		return model.KindRR, true
	}
	return "", false
}

// NoPort marks a UiHit on a thing body rather than on one of its ports.
const NoPort = -1

// UiHit is the tagging data a renderer attaches to a clickable object.
type UiHit struct {
	Thing model.ThingID
	Port  int
}

// HitThing tags a thing body.
func HitThing(id model.ThingID) UiHit {
	return UiHit{Thing: id, Port: NoPort}
}

// HitPort tags an open port marker.
func HitPort(id model.ThingID, port int) UiHit {
	return UiHit{Thing: id, Port: port}
}

var (
	// ErrUnknownThing is returned for a hit on a thing the model does not hold.
	ErrUnknownThing = errors.New("unknown thing")
	// ErrNoPort is returned when an add tool is used on something other than a port.
	ErrNoPort = errors.New("add tools need a port")
)

// WorldCallbacks is notified around every edit of a world.
type WorldCallbacks interface {
	// WillUpdate is called before the model changes.
	WillUpdate(label string)
	// UpdateAborted is called instead of ModelUpdated when the edit was rejected
	// and the model is unchanged.
	UpdateAborted()
	// ModelUpdated is called after the model changed.
	ModelUpdated()
}

// WorldViewModel applies clicks on one model according to the current tool.
type WorldViewModel struct {
	Model *model.ScaffoldModel
	State ClickOpState

	SelectedTB  *model.Thing
	SelectedFDW *model.Thing

	cb WorldCallbacks
}

// NewWorldViewModel binds m with tool state s.
func NewWorldViewModel(m *model.ScaffoldModel, s ClickOpState, cb WorldCallbacks) *WorldViewModel {
	return &WorldViewModel{Model: m, State: s, cb: cb}
}

// OnClickUiObject handles a click on a tagged object.
func (w *WorldViewModel) OnClickUiObject(hit UiHit) error {
	thing := w.Model.Get(hit.Thing)
	if thing == nil {
		return fmt.Errorf("%w: %s", ErrUnknownThing, hit.Thing)
	}

	if kind, ok := w.State.addKind(); ok {
		if hit.Port == NoPort {
			return ErrNoPort
		}
		return w.addRail(thing, hit.Port, kind)
	}

	switch w.State {
	case ClickRemove:
		w.cb.WillUpdate("Remove " + thing.Kind.String())
		w.Model.RemoveThing(thing)
		if thing == w.SelectedTB {
			w.SelectedTB = nil
		}
		if thing == w.SelectedFDW {
			w.SelectedFDW = nil
		}
		w.cb.ModelUpdated()
	case ClickNone:
		switch thing.Kind {
		case model.KindTB:
			w.SelectedTB, w.SelectedFDW = thing, nil
		case model.KindFDW:
			w.SelectedTB, w.SelectedFDW = nil, thing
		}
	}
	return nil
}

func (w *WorldViewModel) addRail(ref *model.Thing, port int, kind model.Kind) error {
	rail, err := model.NewThing(kind)
	if err != nil {
		return err
	}
	w.cb.WillUpdate("Add " + kind.String())
	if err := w.Model.AddThingToPort(ref, port, rail); err != nil {
		slog.Warn("cannot add rail", "kind", kind, "ref", ref.ID, "port", port, "error", err)
		w.cb.UpdateAborted()
		return err
	}
	w.cb.ModelUpdated()
	return nil
}
