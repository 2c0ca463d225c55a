package engine

import (
	"errors"
	"io"

	"github.com/wxline/ceilsim/frame"
	"github.com/wxline/ceilsim/transport"
)

// MaxLineLen is the input accumulation cap. A line growing past it is
// dropped wholesale and the receiver resynchronizes on the next CR/LF.
const MaxLineLen = 255

// lineAccumulator collects input bytes into CR/LF-terminated lines.
//
// The zero value is ready to use. A completed line aliases the internal
// buffer and is only valid until the next call to feed.
type lineAccumulator struct {
	buf        []byte
	overflowed bool
}

// feed consumes one input byte. A non-nil line means a terminator just
// completed a non-empty line. dropped reports that a terminator just
// discarded an over-long line.
func (a *lineAccumulator) feed(b byte) (line []byte, dropped bool) {
	if b == frame.CR || b == frame.LF {
		if a.overflowed {
			a.overflowed = false

			return nil, true
		}
		if len(a.buf) == 0 {
			// Empty completions (and the LF of a CRLF pair) carry nothing.
			return nil, false
		}

		line = a.buf
		a.buf = a.buf[:0]

		return line, false
	}

	if a.overflowed {
		return nil, false
	}

	if len(a.buf) >= MaxLineLen {
		// Too long to be a command; swallow until the next terminator.
		a.overflowed = true
		a.buf = a.buf[:0]

		return nil, false
	}

	a.buf = append(a.buf, b)

	return nil, false
}

// receiverTask performs a single iteration of the receiver loop.
//
// Each read is bounded by the poll timeout so termination stays observable
// on an idle line. Completed lines are dispatched synchronously before the
// next read. It returns false to stop the loop.
func (e *Engine) receiverTask() bool {
	if e.mode.Terminated() {
		return false
	}

	b, err := e.transport.ReadByte(e.cfg.pollTimeout)
	if err != nil {
		switch {
		case errors.Is(err, transport.ErrNoData):
			// Idle line, poll again.
			return true

		case errors.Is(err, io.EOF):
			e.logger.Info("engine: peer closed the line")
			e.mode.Terminate()

			return false

		default:
			e.logger.Error("engine: read failed", "error", err)
			e.mode.Terminate()

			return false
		}
	}

	e.metrics.incByteRecvCount()

	line, dropped := e.acc.feed(b)
	if dropped {
		e.metrics.incLineDropCount()
		e.logger.Warn("engine: input line over length cap, dropped", "cap", MaxLineLen)
	}
	if line == nil {
		return true
	}

	e.metrics.incLineRecvCount()
	e.dispatchLine(line)

	return true
}
