package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/wxline/ceilsim/logger"
)

// acceptPollTimeout bounds each Accept call so ctx cancellation is noticed.
const acceptPollTimeout = 1 * time.Second

// Listen binds a TCP listener on addr, waits for exactly one peer, then
// closes the listener and returns the accepted connection as a Transport.
//
// The emulator models a single physical serial line, so one peer is all a
// run ever serves. Listen blocks until a peer connects or ctx is done.
func Listen(ctx context.Context, addr string, l logger.Logger) (Transport, error) {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", addr, err)
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		_ = listener.Close()

		return nil, fmt.Errorf("transport: unexpected listener type %T", listener)
	}

	l.Info("waiting for peer", "address", listener.Addr().String())

	for {
		select {
		case <-ctx.Done():
			_ = listener.Close()

			return nil, ctx.Err()
		default:
		}

		if err := tcpListener.SetDeadline(time.Now().Add(acceptPollTimeout)); err != nil {
			_ = listener.Close()

			return nil, fmt.Errorf("transport: set accept deadline: %w", err)
		}

		conn, err := tcpListener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			_ = listener.Close()

			return nil, fmt.Errorf("transport: accept: %w", err)
		}

		// One peer per run: stop listening as soon as the line is taken.
		_ = listener.Close()

		l.Info("peer connected", "remoteAddr", conn.RemoteAddr().String())

		return NewConn(conn), nil
	}
}
