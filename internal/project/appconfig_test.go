package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/overmind/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := model.DefaultAppConfig()
	cfg.SerialPort = "/dev/ttyACM1"
	cfg.TickInterval = 25 * time.Millisecond
	cfg.LogLevel = "debug"
	cfg.Workers = []model.WorkerEntry{{WType: "TB", Addr: 0x8100000A}}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.SerialPort != "/dev/ttyACM1" {
		t.Errorf("expected SerialPort=/dev/ttyACM1, got %s", loaded.SerialPort)
	}
	if loaded.TickInterval != 25*time.Millisecond {
		t.Errorf("expected TickInterval=25ms, got %v", loaded.TickInterval)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %s", loaded.LogLevel)
	}
	if len(loaded.Workers) != 1 || loaded.AddrOf("TB") != 0x8100000A {
		t.Errorf("unexpected workers %+v", loaded.Workers)
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.yaml")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.BaudRate != defaults.BaudRate {
		t.Errorf("expected default baud rate %d, got %d", defaults.BaudRate, cfg.BaudRate)
	}
	if cfg.Opcode != "e" {
		t.Errorf("expected opcode=e, got %s", cfg.Opcode)
	}
}

func TestLoadAppConfigPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte("serial_port: /dev/ttyS3\ntick_interval: 5ms\nworkers:\n  - wtype: FDW-RS\n    addr: 0x20\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyS3" {
		t.Errorf("expected SerialPort=/dev/ttyS3, got %s", cfg.SerialPort)
	}
	if cfg.TickInterval != 5*time.Millisecond {
		t.Errorf("expected TickInterval=5ms, got %v", cfg.TickInterval)
	}
	if cfg.BaudRate != 115200 {
		t.Errorf("expected default baud rate, got %d", cfg.BaudRate)
	}
	if cfg.AddrOf("FDW-RS") != 0x20 {
		t.Errorf("expected FDW-RS at 0x20, got %X", cfg.AddrOf("FDW-RS"))
	}
	if cfg.AddrOf("TB") != model.BroadcastAddr {
		t.Errorf("expected TB to fall back to broadcast, got %X", cfg.AddrOf("TB"))
	}
}

func TestLoadAppConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("serial_port: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "config.yaml")

	cfg := model.DefaultAppConfig()
	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if filepath.Base(DefaultConfigPath()) != "config.yaml" {
		t.Errorf("unexpected config path %s", DefaultConfigPath())
	}
	if filepath.Base(DefaultConfigDir()) != ".overmind" {
		t.Errorf("unexpected config dir %s", DefaultConfigDir())
	}
}
