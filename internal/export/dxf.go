package export

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/piwi3910/overmind/internal/model"
)

// DXF layer names besides the per-kind footprint layers.
const (
	LayerPorts  = "PORTS"
	LayerRails  = "RAILS"
	LayerLabels = "LABELS"
)

// Scene drawings are in millimeters.
const (
	mmPerM      = 1000.0
	portRadius  = 3.0
	labelHeight = 4.0
)

var kindColors = map[model.Kind]color.ColorNumber{
	model.KindRS:  color.Green,
	model.KindRH:  color.Cyan,
	model.KindRR:  color.Blue,
	model.KindFDW: color.Magenta,
	model.KindTB:  color.Red,
}

// ExportDXF writes a top-down layout of the model: each thing's footprint on
// a layer named after its kind, rail segments, open ports as circles and
// thing IDs as text.
func ExportDXF(path string, m *model.ScaffoldModel) error {
	if len(m.Things()) == 0 {
		return fmt.Errorf("no things to export")
	}

	d := dxf.NewDrawing()
	for _, k := range model.Kinds {
		if _, err := d.AddLayer(string(k), kindColors[k], dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", k, err)
		}
	}
	for name, cl := range map[string]color.ColorNumber{LayerPorts: color.Yellow, LayerRails: color.White, LayerLabels: color.White} {
		if _, err := d.AddLayer(name, cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", name, err)
		}
	}

	for _, t := range m.Things() {
		if err := d.ChangeLayer(string(t.Kind)); err != nil {
			return err
		}
		b := t.WorldBound(m.Coord)
		if err := rect(d, b.Min, b.Max); err != nil {
			return fmt.Errorf("failed to draw %s: %w", t, err)
		}

		if err := d.ChangeLayer(LayerRails); err != nil {
			return err
		}
		for _, seg := range t.RailSegments() {
			p1 := t.Coord.ConvertP(seg.Pos1, m.Coord)
			p2 := t.Coord.ConvertP(seg.Pos2, m.Coord)
			if _, err := d.Line(p1.X*mmPerM, p1.Y*mmPerM, 0, p2.X*mmPerM, p2.Y*mmPerM, 0); err != nil {
				return fmt.Errorf("failed to draw rail of %s: %w", t, err)
			}
		}

		if err := d.ChangeLayer(LayerLabels); err != nil {
			return err
		}
		c := b.Center()
		if _, err := d.Text(string(t.ID), c.X*mmPerM, c.Y*mmPerM, 0, labelHeight); err != nil {
			return fmt.Errorf("failed to label %s: %w", t, err)
		}
	}

	if err := d.ChangeLayer(LayerPorts); err != nil {
		return err
	}
	for _, p := range m.OpenPorts() {
		if _, err := d.Circle(p.Pos.X*mmPerM, p.Pos.Y*mmPerM, 0, portRadius); err != nil {
			return fmt.Errorf("failed to draw port: %w", err)
		}
	}

	return d.SaveAs(path)
}

// rect draws the x/y footprint of a box as four lines.
func rect(d *dxf.Drawing, min, max v3.Vec) error {
	x0, y0 := min.X*mmPerM, min.Y*mmPerM
	x1, y1 := max.X*mmPerM, max.Y*mmPerM
	corners := [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}
