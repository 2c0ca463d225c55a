package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// ErrBadMode is returned when serial line settings are out of range.
var ErrBadMode = errors.New("transport: invalid serial mode")

// Serial line defaults, the classic ceilometer setting (2400 baud, 7E1).
const (
	DefaultBaudRate = 2400
	DefaultDataBits = 7
	DefaultParity   = "E"
	DefaultStopBits = 1
)

// Mode describes serial line settings. Zero fields take the defaults above.
type Mode struct {
	BaudRate int
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int    // 1 or 2
}

// withDefaults fills zero fields with the package defaults.
func (m Mode) withDefaults() Mode {
	if m.BaudRate == 0 {
		m.BaudRate = DefaultBaudRate
	}
	if m.DataBits == 0 {
		m.DataBits = DefaultDataBits
	}
	if m.Parity == "" {
		m.Parity = DefaultParity
	}
	if m.StopBits == 0 {
		m.StopBits = DefaultStopBits
	}

	return m
}

// portMode maps Mode to the serial library's settings.
func (m Mode) portMode() (*serial.Mode, error) {
	pm := &serial.Mode{
		BaudRate: m.BaudRate,
		DataBits: m.DataBits,
	}

	switch strings.ToUpper(strings.TrimSpace(m.Parity)) {
	case "N":
		pm.Parity = serial.NoParity
	case "E":
		pm.Parity = serial.EvenParity
	case "O":
		pm.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("%w: parity %q, want N, E or O", ErrBadMode, m.Parity)
	}

	switch m.StopBits {
	case 1:
		pm.StopBits = serial.OneStopBit
	case 2:
		pm.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: stop bits %d, want 1 or 2", ErrBadMode, m.StopBits)
	}

	return pm, nil
}

// serialTransport adapts a serial port to the Transport contract. The port's
// read timeout makes a zero-byte read mean "no data yet".
type serialTransport struct {
	port serial.Port
	buf  [1]byte
}

// OpenSerial opens the serial device with the given line settings. The error
// from a failed open is returned to the caller; the emulator treats it as
// fatal at startup.
func OpenSerial(device string, m Mode) (Transport, error) {
	pm, err := m.withDefaults().portMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(device, pm)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}

	return &serialTransport{port: port}, nil
}

// ReadByte reads one byte within timeout. The serial library reports an
// expired read timeout as a zero-length read, which maps to ErrNoData.
func (t *serialTransport) ReadByte(timeout time.Duration) (byte, error) {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}

	n, err := t.port.Read(t.buf[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoData
	}

	return t.buf[0], nil
}

// Write sends p to the line in full.
func (t *serialTransport) Write(p []byte) (int, error) {
	for written := 0; written < len(p); {
		n, err := t.port.Write(p[written:])
		written += n

		if err != nil {
			return written, err
		}
	}

	return len(p), nil
}

// Close closes the serial port.
func (t *serialTransport) Close() error {
	return t.port.Close()
}
