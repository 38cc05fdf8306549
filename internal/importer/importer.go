// Package importer reads command macro tables from CSV and Excel files so
// bench-calibrated sequences can be merged into the command history.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/project"
)

// MacroSheet is the preferred sheet name in Excel workbooks.
const MacroSheet = "Macros"

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Entries  []project.HistoryEntry
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	WType int
	Seq   int
	Memo  int
	Used  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"wtype": {"wtype", "worker", "worker type", "type", "device"},
	"seq":   {"seq", "sequence", "command", "commands", "cmd"},
	"memo":  {"memo", "name", "macro", "label", "description"},
	"used":  {"used", "count", "uses", "times used"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Consistency first, then column count.
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping wtype, seq, memo, used and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{WType: -1, Seq: -1, Memo: -1, Used: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for canonical, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch canonical {
				case "wtype":
					if mapping.WType == -1 {
						mapping.WType = i
					}
				case "seq":
					if mapping.Seq == -1 {
						mapping.Seq = i
					}
				case "memo":
					if mapping.Memo == -1 {
						mapping.Memo = i
					}
				case "used":
					if mapping.Used == -1 {
						mapping.Used = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{WType: 0, Seq: 1, Memo: 2, Used: 3}, false
	}
	return mapping, true
}

// ValidateSeq reports why a command string is not a well formed sequence.
// An empty string means the sequence is valid.
func ValidateSeq(seq string) string {
	actions := action.ParseSeq(seq)
	if len(actions) == 0 {
		return "empty sequence"
	}
	for _, a := range actions {
		if len(a.Targets()) == 0 {
			return fmt.Sprintf("malformed token '%s'", a.Token())
		}
	}
	return ""
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a history entry from a row using the given column mapping.
// Returns the entry, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (project.HistoryEntry, string, string) {
	wtype := getCell(row, mapping.WType)
	if wtype == "" {
		return project.HistoryEntry{}, fmt.Sprintf("%s: Missing worker type", rowLabel), ""
	}

	seq := strings.ReplaceAll(getCell(row, mapping.Seq), " ", "")
	if seq == "" {
		return project.HistoryEntry{}, fmt.Sprintf("%s: Missing sequence", rowLabel), ""
	}
	if msg := ValidateSeq(seq); msg != "" {
		return project.HistoryEntry{}, fmt.Sprintf("%s: Invalid sequence '%s': %s", rowLabel, seq, msg), ""
	}

	entry := project.HistoryEntry{WType: wtype, Seq: seq, Memo: getCell(row, mapping.Memo)}

	var warning string
	if usedStr := getCell(row, mapping.Used); usedStr != "" {
		used, err := strconv.Atoi(usedStr)
		if err != nil || used < 0 {
			warning = fmt.Sprintf("%s: Invalid use count '%s', defaulting to 0", rowLabel, usedStr)
		} else {
			entry.Used = used
		}
	}

	return entry, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports macros from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Comma separated files must quote their sequences.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports macros from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportExcel imports macros from an Excel workbook. The "Macros" sheet is
// read when present, the first sheet otherwise.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, MacroSheet) {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile dispatches on the file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.WType == -1 {
			missing = append(missing, "WType")
		}
		if mapping.Seq == -1 {
			missing = append(missing, "Seq")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	// Memos must stay unique per worker type; the last row wins.
	memoRow := map[[2]string]int{}
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		entry, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		if entry.Memo != "" {
			key := [2]string{entry.WType, entry.Memo}
			if prev, ok := memoRow[key]; ok {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate memo '%s' for %s, replacing earlier row", rowLabel, entry.Memo, entry.WType))
				result.Entries[prev] = entry
				continue
			}
			memoRow[key] = len(result.Entries)
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}
