package model

import (
	"encoding/json"
	"fmt"

	"github.com/piwi3910/overmind/internal/geom"
)

// SceneDoc is the serialized form of a ScaffoldModel. Poses are world poses.
type SceneDoc struct {
	Things []ThingDoc `json:"things"`
}

// ThingDoc is the serialized form of a Thing.
type ThingDoc struct {
	ID         ThingID        `json:"id"`
	Kind       Kind           `json:"type"`
	Pose       geom.Transform `json:"pose"`
	ParamX     float64        `json:"paramx,omitempty"`
	Carrying   bool           `json:"carrying,omitempty"`
	AttachedTo ThingID        `json:"attached_to,omitempty"`
}

// Doc captures the model as plain data.
func (m *ScaffoldModel) Doc() SceneDoc {
	doc := SceneDoc{Things: make([]ThingDoc, 0, len(m.things))}
	for _, t := range m.things {
		doc.Things = append(doc.Things, ThingDoc{
			ID:         t.ID,
			Kind:       t.Kind,
			Pose:       t.Coord.TransformTo(m.Coord),
			ParamX:     t.ParamX,
			Carrying:   t.Carrying,
			AttachedTo: m.trains[t.ID],
		})
	}
	return doc
}

// FromDoc rebuilds a model from its plain-data form.
func FromDoc(doc SceneDoc) (*ScaffoldModel, error) {
	m := NewScaffoldModel()
	for _, td := range doc.Things {
		t, err := NewThing(td.Kind)
		if err != nil {
			return nil, err
		}
		if td.ID != "" {
			if m.Get(td.ID) != nil {
				return nil, fmt.Errorf("duplicate thing id %q", td.ID)
			}
			t.ID = td.ID
		}
		pose := td.Pose
		if pose.Rot == (geom.Rotation{}) {
			pose.Rot = geom.IdentityRotation()
		}
		t.Coord.UnsafeSetParentTransform(m.Coord, pose)
		if t.Kind == KindFDW {
			t.ParamX = td.ParamX
		}
		t.Carrying = td.Carrying
		m.AddThing(t)
	}
	for _, td := range doc.Things {
		if td.AttachedTo == "" {
			continue
		}
		tb, fdw := m.Get(td.ID), m.Get(td.AttachedTo)
		if fdw == nil {
			return nil, fmt.Errorf("thing %q attached to missing thing %q", td.ID, td.AttachedTo)
		}
		if err := m.AttachTrainToRail(tb, fdw); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Encode serializes the model to JSON.
func (m *ScaffoldModel) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m.Doc(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode scene: %w", err)
	}
	return data, nil
}

// DecodeModel parses a model previously produced by Encode.
func DecodeModel(data []byte) (*ScaffoldModel, error) {
	var doc SceneDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	return FromDoc(doc)
}

// Clone returns a deep copy of the model with the same thing IDs.
func (m *ScaffoldModel) Clone() *ScaffoldModel {
	c, err := FromDoc(m.Doc())
	if err != nil {
		// Doc of a live model always decodes.
		panic(fmt.Sprintf("model: clone failed: %v", err))
	}
	return c
}
