// Package transport provides the byte links the emulator serves its peer
// over: a physical serial port for deployment and a single-peer TCP socket
// (or an in-process pipe) for bench use.
//
// The engine reads the link one byte at a time with a short poll timeout, so
// every implementation distinguishes "no byte yet" (ErrNoData) from "stream
// ended" (io.EOF) and from hard failures.
package transport

import (
	"errors"
	"time"
)

// ErrNoData reports that no byte arrived within the read timeout window.
// It is expected during normal operation and callers simply poll again.
var ErrNoData = errors.New("transport: no data within read timeout")

// Transport is a half-duplex byte link to the peer.
//
// ReadByte and Write may be called from different goroutines, but neither
// supports multiple concurrent callers; the engine serializes writers itself.
type Transport interface {
	// ReadByte returns the next byte from the peer. It returns ErrNoData
	// when no byte arrives within timeout and io.EOF when the stream ends.
	ReadByte(timeout time.Duration) (byte, error)

	// Write sends p to the peer, blocking until the whole buffer is written
	// or an error occurs.
	Write(p []byte) (int, error)

	// Close releases the link. A blocked ReadByte unblocks with an error.
	Close() error
}
