package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/overmind/internal/action"
)

const (
	planSheet    = "Plan"
	workersSheet = "Workers"
)

var planHeaders = []interface{}{"#", "Worker", "Address", "T0 [s]", "T1 [s]", "Duration [s]", "Macro", "Command", "Bytes"}
var workerHeaders = []interface{}{"Worker", "Address", "Sequences", "Busy [s]", "Utilization"}

// ExportXLSX writes the plan timeline to a workbook: one row per sequence
// in time order, plus a per-worker summary sheet.
func ExportXLSX(path string, plan *action.Plan, info PlanInfo) error {
	if plan == nil || plan.NumSeqs() == 0 {
		return fmt.Errorf("no sequences to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), planSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]interface{}{planHeaders}
	for i, ws := range plan.SeqTimeOrdered() {
		cmd := info.Opcode + ws.Seq.FullDesc()
		rows = append(rows, []interface{}{
			i + 1,
			ws.Worker,
			fmt.Sprintf("%08X", info.addr(ws.Worker)),
			ws.Seq.T0,
			ws.Seq.T1,
			ws.Seq.DurationSec(),
			ws.Seq.Label,
			cmd,
			len(cmd),
		})
	}
	if err := writeRows(f, planSheet, rows, bold); err != nil {
		return err
	}
	if err := f.SetPanes(planSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.NewSheet(workersSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	total := plan.TotalTime()
	rows = [][]interface{}{workerHeaders}
	for _, w := range plan.Workers() {
		busy := 0.0
		for _, s := range plan.Seqs[w] {
			busy += s.DurationSec()
		}
		util := 0.0
		if total > 0 {
			util = busy / total
		}
		rows = append(rows, []interface{}{w, fmt.Sprintf("%08X", info.addr(w)), len(plan.Seqs[w]), busy, util})
	}
	rows = append(rows, []interface{}{"Total", "", plan.NumSeqs(), total, ""})
	if err := writeRows(f, workersSheet, rows, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeRows fills sheet from A1 and styles the first row.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
