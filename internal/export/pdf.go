// Package export writes plans and scenes to report and CAD formats.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/model"
)

// seqColor represents an RGB color for one action sequence.
type seqColor struct {
	R, G, B int
}

var seqColors = []seqColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	laneHeight   = 14.0
	laneLabelW   = 25.0
	rowHeight    = 6.0
	drawAreaTop  = marginTop + headerHeight + 10.0
)

// PlanInfo carries what a plan report shows besides the plan itself.
type PlanInfo struct {
	Title  string
	Opcode string
	AddrOf func(wtype string) uint32
}

func (pi PlanInfo) addr(wtype string) uint32 {
	if pi.AddrOf == nil {
		return model.BroadcastAddr
	}
	return pi.AddrOf(wtype)
}

func (pi PlanInfo) title() string {
	if pi.Title == "" {
		return "Rail Transfer Plan"
	}
	return pi.Title
}

// ExportPDF generates a PDF report of a plan: a timeline page with one lane
// per worker, followed by a table of every sequence in time order.
func ExportPDF(path string, plan *action.Plan, info PlanInfo) error {
	if plan == nil || plan.NumSeqs() == 0 {
		return fmt.Errorf("no sequences to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderTimelinePage(pdf, plan, info)
	renderSequenceTable(pdf, plan, info)

	return pdf.OutputFileAndClose(path)
}

// renderTimelinePage draws the per-worker timeline on the current page.
func renderTimelinePage(pdf *fpdf.Fpdf, plan *action.Plan, info PlanInfo) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, info.title(), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Workers: %d | Sequences: %d | Total time: %.2f s | Tx: %d B",
		len(plan.Workers()), plan.NumSeqs(), plan.TotalTime(), plan.TotalTxCommandSize())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	total := plan.TotalTime()
	drawWidth := pageWidth - marginLeft - marginRight - laneLabelW
	scale := drawWidth / math.Max(total, 1e-3)
	x0 := marginLeft + laneLabelW

	drawTimeAxis(pdf, total, scale, x0, drawAreaTop)

	ix := 0
	for lane, w := range plan.Workers() {
		y := drawAreaTop + 8 + float64(lane)*(laneHeight+4)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(marginLeft, y+laneHeight/2-3)
		pdf.CellFormat(laneLabelW-2, 4, w, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetXY(marginLeft, y+laneHeight/2+1)
		pdf.CellFormat(laneLabelW-2, 3, fmt.Sprintf("%08X", info.addr(w)), "", 0, "L", false, 0, "")

		pdf.SetFillColor(245, 245, 245)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.2)
		pdf.Rect(x0, y, drawWidth, laneHeight, "FD")

		for _, s := range plan.Seqs[w] {
			col := seqColors[ix%len(seqColors)]
			ix++
			sx := x0 + s.T0*scale
			sw := math.Max((s.T1-s.T0)*scale, 0.3)

			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.SetLineWidth(0.2)
			pdf.Rect(sx, y+1, sw, laneHeight-2, "FD")

			if s.Label == "" {
				continue
			}
			pdf.SetFont("Helvetica", "", labelFontSize(sw))
			labelW := pdf.GetStringWidth(s.Label)
			if labelW < sw-1 {
				pdf.SetXY(sx+(sw-labelW)/2, y+laneHeight/2-2)
				pdf.CellFormat(labelW, 4, s.Label, "", 0, "C", false, 0, "")
			}
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by overmind", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawTimeAxis draws second ticks above the lanes.
func drawTimeAxis(pdf *fpdf.Fpdf, total, scale, x0, y float64) {
	step := tickStep(total)
	pdf.SetDrawColor(80, 80, 80)
	pdf.SetLineWidth(0.2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	for t := 0.0; t <= total+1e-9; t += step {
		x := x0 + t*scale
		pdf.Line(x, y+4, x, y+6)
		label := fmt.Sprintf("%gs", t)
		lw := pdf.GetStringWidth(label)
		pdf.SetXY(x-lw/2, y)
		pdf.CellFormat(lw, 3.5, label, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// tickStep picks a 1-2-5 step giving at most about 20 ticks.
func tickStep(total float64) float64 {
	if total <= 0 {
		return 1
	}
	raw := total / 20
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}

// renderSequenceTable lists every sequence in time order, adding pages as needed.
func renderSequenceTable(pdf *fpdf.Fpdf, plan *action.Plan, info PlanInfo) {
	colWidths := []float64{12, 25, 25, 20, 20, 30, 135}
	headers := []string{"#", "Worker", "Address", "T0 [s]", "T1 [s]", "Macro", "Command"}

	y := pageHeight
	for i, ws := range plan.SeqTimeOrdered() {
		if y+rowHeight > pageHeight-marginBottom {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetXY(marginLeft, marginTop)
			pdf.CellFormat(100, 7, "Sequences", "", 0, "L", false, 0, "")
			y = marginTop + 9

			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetFillColor(230, 230, 230)
			xPos := marginLeft
			for j, header := range headers {
				pdf.SetXY(xPos, y)
				pdf.CellFormat(colWidths[j], rowHeight, header, "1", 0, "C", true, 0, "")
				xPos += colWidths[j]
			}
			y += rowHeight
			pdf.SetFont("Helvetica", "", 8)
		}

		rowData := []string{
			fmt.Sprintf("%d", i+1),
			ws.Worker,
			fmt.Sprintf("%08X", info.addr(ws.Worker)),
			fmt.Sprintf("%.2f", ws.Seq.T0),
			fmt.Sprintf("%.2f", ws.Seq.T1),
			ws.Seq.Label,
			info.Opcode + ws.Seq.FullDesc(),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos := marginLeft
		for j, cell := range rowData {
			align := "C"
			if j == len(rowData)-1 {
				align = "L"
			}
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, align, true, 0, "")
			xPos += colWidths[j]
		}
		y += rowHeight
	}
}

// labelFontSize returns a font size that fits a sequence bar of width w.
func labelFontSize(w float64) float64 {
	switch {
	case w > 20:
		return 7
	case w > 10:
		return 6
	default:
		return 5
	}
}
