package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

// connTransport adapts a stream connection to the Transport contract with
// deadline-driven byte reads.
type connTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewConn wraps a stream connection (an accepted TCP peer, or a net.Pipe end
// in tests) as a Transport.
func NewConn(conn net.Conn) Transport {
	return &connTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// ReadByte reads one byte with the given timeout, set as a read deadline on
// the connection. Buffered bytes are returned without touching the wire.
func (t *connTransport) ReadByte(timeout time.Duration) (byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}

	b, err := t.reader.ReadByte()
	if err != nil {
		return 0, normalizeReadError(err)
	}

	return b, nil
}

// Write sends p to the peer in full.
func (t *connTransport) Write(p []byte) (int, error) {
	for written := 0; written < len(p); {
		n, err := t.conn.Write(p[written:])
		written += n

		if err != nil {
			return written, err
		}
	}

	return len(p), nil
}

// Close closes the underlying connection.
func (t *connTransport) Close() error {
	return t.conn.Close()
}

// normalizeReadError maps deadline expiry to ErrNoData and the various
// closed-connection shapes to io.EOF, so the engine only ever sees the three
// outcomes of the read contract.
func normalizeReadError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrNoData
	}

	if isStreamEnd(err) {
		return io.EOF
	}

	return err
}

// isStreamEnd reports whether err means the peer is gone. Reset and broken
// pipe arrive as plain OpError strings, so those are matched textually.
func isStreamEnd(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe")
}
