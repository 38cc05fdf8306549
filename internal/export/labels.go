package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/overmind/internal/action"
)

// CardInfo holds the data encoded into each command card's QR code. Scanning
// a card gives everything needed to resend the sequence by hand.
type CardInfo struct {
	Index   int     `json:"ix"`
	Worker  string  `json:"wtype"`
	Addr    uint32  `json:"addr"`
	T0      float64 `json:"t0"`
	T1      float64 `json:"t1"`
	Label   string  `json:"memo,omitempty"`
	Command string  `json:"cmd"`
}

// Card layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectCardInfos lists one card per sequence of plan, in time order.
func CollectCardInfos(plan *action.Plan, info PlanInfo) []CardInfo {
	var cards []CardInfo
	for i, ws := range plan.SeqTimeOrdered() {
		cards = append(cards, CardInfo{
			Index:   i + 1,
			Worker:  ws.Worker,
			Addr:    info.addr(ws.Worker),
			T0:      ws.Seq.T0,
			T1:      ws.Seq.T1,
			Label:   ws.Seq.Label,
			Command: info.Opcode + ws.Seq.FullDesc(),
		})
	}
	return cards
}

// ExportCards generates a PDF of QR-coded command cards, one per sequence,
// laid out on a standard label sheet (3 columns x 10 rows on US Letter).
func ExportCards(path string, plan *action.Plan, info PlanInfo) error {
	if plan == nil || plan.NumSeqs() == 0 {
		return fmt.Errorf("no sequences to generate cards for")
	}
	cards := CollectCardInfos(plan, info)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, card := range cards {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderCard(pdf, x, y, card); err != nil {
			return fmt.Errorf("failed to render card %d: %w", card.Index, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderCard draws a single card at the given position.
func renderCard(pdf *fpdf.Fpdf, x, y float64, card CardInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", card.Index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := fmt.Sprintf("#%d %s", card.Index, card.Worker)
	if card.Label != "" {
		title += " " + card.Label
	}
	pdf.CellFormat(textW, 4.5, truncate(pdf, title, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("t = %.2f .. %.2f s", card.T0, card.T1), "", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, truncate(pdf, card.Command, textW), "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.CellFormat(textW, 3, fmt.Sprintf("@%08X", card.Addr), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits w in the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
