package lighting

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// Transport is the byte channel to the strip controller.
//
// Implementations must tolerate Close being called more than once and
// when never opened. The Sender serializes all calls; implementations do
// not need their own locking for correctness, only for Close vs Write
// races during teardown.
type Transport interface {
	// Open acquires the channel. Returns an error (wrapped into
	// ErrConnectionFailed by the Sender) if the underlying resource is
	// unavailable.
	Open() error

	// Write sends one complete protocol line.
	Write(p []byte) (int, error)

	// Close releases the channel. Idempotent.
	Close() error
}

// SerialBaudRate is the fixed line speed of the strip link.
const SerialBaudRate = 115200

// SerialTransport drives a physical serial port via go.bug.st/serial.
type SerialTransport struct {
	// Device is the port name, e.g. /dev/ttyUSB0 or COM3.
	Device string

	mu   sync.Mutex
	port serial.Port
}

// NewSerialTransport creates a transport for the named serial device.
// The port is not opened until Open is called.
func NewSerialTransport(device string) *SerialTransport {
	return &SerialTransport{Device: device}
}

// Open opens the serial port at 115200 8N1.
func (t *SerialTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: SerialBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.Device, mode)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.Device, err)
	}
	t.port = port
	return nil
}

// Write sends bytes to the open port.
func (t *SerialTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Write(p)
}

// Close releases the port. Safe to call repeatedly.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", t.Device, err)
	}
	return nil
}
