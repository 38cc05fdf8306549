// Package execution dispatches plans to workers through a bridge.
package execution

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Bridge delivers a raw command string to the worker at addr. Delivery is
// fire-and-forget; a sent command cannot be recalled.
type Bridge interface {
	SendCommand(cmd string, addr uint32) error
}

// LogBridge is a dry-run bridge that only logs what would be sent.
type LogBridge struct {
	Logger *slog.Logger
}

// SendCommand implements Bridge.
func (b LogBridge) SendCommand(cmd string, addr uint32) error {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("send", "addr", fmt.Sprintf("%08X", addr), "cmd", cmd)
	return nil
}

// Radio module header bytes: default child address, serial command.
const (
	frameDst byte = 0x78
	frameCmd byte = 0x01
)

// EncodeFrame renders cmd for addr as an ASCII serial frame for the radio module:
// ':' + hex(0x78 0x01 addr(BE32) cmd) + "X\r\n".
func EncodeFrame(cmd string, addr uint32) string {
	buf := make([]byte, 0, 6+len(cmd))
	buf = append(buf, frameDst, frameCmd)
	buf = binary.BigEndian.AppendUint32(buf, addr)
	buf = append(buf, cmd...)
	return ":" + strings.ToUpper(hex.EncodeToString(buf)) + "X\r\n"
}

// FrameBridge writes encoded frames to w, typically an opened serial device.
type FrameBridge struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameBridge creates a bridge writing to w.
func NewFrameBridge(w io.Writer) *FrameBridge {
	return &FrameBridge{w: w}
}

// SendCommand implements Bridge.
func (b *FrameBridge) SendCommand(cmd string, addr uint32) error {
	frame := EncodeFrame(cmd, addr)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
