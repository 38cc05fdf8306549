package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/overmind/internal/model"
)

// BackupData is the top-level structure for import/export of all console data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	History   HistoryFile     `json:"history"`
}

// ExportAllData exports the config and the command history to a single JSON
// file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, history *CommandHistory) error {
	backup := BackupData{
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		History:   HistoryFile{History: []HistoryEntry{}, Workers: []model.WorkerEntry{}},
	}
	if history != nil {
		backup.History = history.Data()
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it, see RestoreHistory.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.History.History == nil {
		backup.History.History = []HistoryEntry{}
	}
	return backup, nil
}

// RestoreHistory writes the history of a backup to path and loads it.
func RestoreHistory(path string, backup BackupData) (*CommandHistory, error) {
	h := &CommandHistory{path: path, data: backup.History}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.syncLocked(); err != nil {
		return nil, err
	}
	return h, nil
}
