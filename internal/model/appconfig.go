package model

import "time"

// BroadcastAddr addresses every worker on the radio network.
const BroadcastAddr uint32 = 0xFFFFFFFF

// WorkerEntry maps a worker type to its network address.
type WorkerEntry struct {
	WType string `json:"wtype" yaml:"wtype"`
	Addr  uint32 `json:"addr" yaml:"addr"`
}

// AppConfig holds console-wide settings.
type AppConfig struct {
	// Bridge settings
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	Opcode     string `yaml:"opcode"` // prepended to every command payload

	HistoryPath  string        `yaml:"history_path"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level"` // "debug", "info", "warn", "error"

	Workers []WorkerEntry `yaml:"workers"`
}

// DefaultAppConfig returns an AppConfig populated with the defaults of the
// single-radio bench setup.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		SerialPort:   "/dev/ttyUSB0",
		BaudRate:     115200,
		Opcode:       "e",
		HistoryPath:  "state/actions.json",
		TickInterval: 10 * time.Millisecond,
		LogLevel:     "info",
		Workers: []WorkerEntry{
			{WType: string(KindTB), Addr: BroadcastAddr},
			{WType: string(KindFDW), Addr: BroadcastAddr},
		},
	}
}

// AddrOf returns the configured address for a worker type, or BroadcastAddr.
func (c AppConfig) AddrOf(wtype string) uint32 {
	for _, w := range c.Workers {
		if w.WType == wtype {
			return w.Addr
		}
	}
	return BroadcastAddr
}
