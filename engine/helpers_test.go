package engine

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wxline/ceilsim/feed"
	"github.com/wxline/ceilsim/frame"
	"github.com/wxline/ceilsim/transport"
)

// newTestConfig creates a Config with short timings suitable for tests.
func newTestConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()

	defaults := []Option{
		WithInterval(150 * time.Millisecond),
		WithPollTimeout(MinPollTimeout), // 10ms
		WithCloseTimeout(time.Second),
	}

	cfg, err := NewConfig(append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newTestEngine wires an engine to the local end of a net.Pipe and returns
// the remote end for peer simulation. lines seed the engine's data source.
func newTestEngine(t *testing.T, cfg *Config, lines ...string) (*Engine, net.Conn) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	e, err := New(context.Background(), cfg, transport.NewConn(local), feed.Lines(lines...))
	require.NoError(t, err)

	t.Cleanup(func() { _ = e.Close() })

	return e, remote
}

// sendLine writes one command line with its CRLF terminator.
func sendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()

	_, err := conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

// readReply reads one CRLF-terminated transmission from the engine,
// failing the test if nothing arrives within timeout.
func readReply(t *testing.T, conn net.Conn, br *bufio.Reader, timeout time.Duration) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))

	reply, err := br.ReadString('\n')
	require.NoError(t, err, "expected a transmission, got %q", reply)

	return []byte(reply)
}

// requireFramed decodes one framed transmission and asserts its payload.
func requireFramed(t *testing.T, cfg *Config, wire []byte, payload string) {
	t.Helper()

	got, err := frame.Decode(wire, cfg.algo)
	require.NoError(t, err, "wire %q", wire)
	require.Equal(t, payload, string(got))
}

// drainStream reads transmissions until the line stays quiet for d.
func drainStream(t *testing.T, conn net.Conn, br *bufio.Reader, d time.Duration) {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))

		_, err := br.ReadString('\n')
		if err != nil {
			var nerr net.Error
			require.ErrorAs(t, err, &nerr)
			require.True(t, nerr.Timeout())

			return
		}
	}
}
