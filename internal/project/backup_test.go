package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/overmind/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.SerialPort = "/dev/ttyUSB3"
	cfg.LogLevel = "warn"

	h, err := LoadHistory(writeHistory(t))
	if err != nil {
		t.Fatal(err)
	}

	if err := ExportAllData(path, cfg, h); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.SerialPort != "/dev/ttyUSB3" {
		t.Errorf("expected SerialPort=/dev/ttyUSB3, got %s", backup.Config.SerialPort)
	}
	if backup.Config.LogLevel != "warn" {
		t.Errorf("expected LogLevel=warn, got %s", backup.Config.LogLevel)
	}
	if len(backup.History.History) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(backup.History.History))
	}

	restored, err := RestoreHistory(filepath.Join(dir, "restored.json"), backup)
	if err != nil {
		t.Fatalf("RestoreHistory failed: %v", err)
	}
	if seq, ok := restored.GetByMemo("FDW-RS", "Fwd35"); !ok || seq != "700t80,100t0" {
		t.Errorf("expected restored Fwd35 macro, got %q %v", seq, ok)
	}
	if _, err := os.Stat(restored.Path()); err != nil {
		t.Errorf("restored history not written: %v", err)
	}
}

func TestExportAllDataWithoutHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.json")
	if err := ExportAllData(path, model.DefaultAppConfig(), nil); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}
	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if len(backup.History.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(backup.History.History))
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noversion.json")
	if err := os.WriteFile(path, []byte(`{"created_at":"2026-01-01T00:00:00Z"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
}
