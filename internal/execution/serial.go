package execution

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// SerialBridge is a FrameBridge on a serial port opened at a fixed line speed.
type SerialBridge struct {
	*FrameBridge
	port serial.Port
}

// OpenSerialBridge opens device at baud, 8N1.
func OpenSerialBridge(device string, baud int) (*SerialBridge, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", baud)
	}
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	slog.Info("bridge open", "port", device, "baud", baud)
	return &SerialBridge{FrameBridge: NewFrameBridge(port), port: port}, nil
}

// Close releases the port.
func (b *SerialBridge) Close() error {
	return b.port.Close()
}
