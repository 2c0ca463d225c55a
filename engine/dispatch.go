package engine

import (
	"errors"
	"fmt"

	"github.com/wxline/ceilsim/frame"
)

// Diagnostic payloads. They travel framed like data lines so the peer's
// parser has a single path.
const (
	diagNoData  = "ERR:NODATA"
	diagUnknown = "ERR:UNKNOWN"
	diagQuery   = "ERR:QUERY"
)

// Built-in query selectors, registered by New. RegisterQuery may replace
// them.
const (
	QueryIdentity byte = 'I' // firmware and site identification
	QueryChecksum byte = 'C' // active checksum algorithm name
	QueryInterval byte = 'T' // continuous-mode interval
)

// QueryHandler produces the reply payload for one configuration query. It
// receives the space-separated arguments that followed the selector.
type QueryHandler func(params []string) (string, error)

// RegisterQuery installs or replaces the handler answering queries with
// the given selector letter.
//
// IMPORTANT: handlers run on the receiver task and must not block.
func (e *Engine) RegisterQuery(selector byte, h QueryHandler) error {
	if !isSelector(selector) {
		return fmt.Errorf("engine: query selector %q outside ['A', 'Z']", selector)
	}
	if h == nil {
		return errors.New("engine: query handler must not be nil")
	}

	e.queries.Store(selector, h)

	return nil
}

// UnregisterQuery removes the handler for the given selector letter.
// Queries for it are answered with a diagnostic afterwards.
func (e *Engine) UnregisterQuery(selector byte) {
	e.queries.Delete(selector)
}

func (e *Engine) registerBuiltinQueries() {
	e.queries.Store(QueryIdentity, func(_ []string) (string, error) {
		return fmt.Sprintf("CEILSIM %s SITE %c", Version, e.cfg.siteID), nil
	})
	e.queries.Store(QueryChecksum, func(_ []string) (string, error) {
		return e.cfg.algo.String(), nil
	})
	e.queries.Store(QueryInterval, func(_ []string) (string, error) {
		return e.cfg.interval.String(), nil
	})
}

// dispatchLine parses and executes one completed input line. It runs on
// the receiver task, so command handling is serialized by construction.
func (e *Engine) dispatchLine(line []byte) {
	cmd := ParseCommand(line)

	switch cmd.Kind {
	case CmdStart:
		e.metrics.incCommandCount()
		e.logger.Debug("engine: continuous mode on")
		e.mode.SetContinuous(true)

	case CmdStop:
		e.metrics.incCommandCount()
		e.logger.Debug("engine: continuous mode off")
		e.mode.SetContinuous(false)

	case CmdIdentify:
		e.metrics.incCommandCount()
		e.writeIdentity()

	case CmdPoll:
		e.metrics.incCommandCount()
		e.handlePoll(cmd)

	case CmdQuery:
		e.metrics.incCommandCount()
		e.handleQuery(cmd)

	default:
		e.metrics.incUnknownCmdCount()
		e.logger.Debug("engine: unrecognized input", "line", cmd.Raw)
		e.writeDiag(diagUnknown)
	}
}

// handlePoll answers an on-demand poll with the next data line. Every poll
// letter draws from the same cyclic source; the letter is only logged.
func (e *Engine) handlePoll(cmd Command) {
	line, ok := e.src.NextLine()
	if !ok {
		e.logger.Debug("engine: poll on empty data source", "channel", string(cmd.Letter))
		e.writeDiag(diagNoData)

		return
	}

	e.writeData([]byte(line))
}

// handleQuery answers a configuration query via its registered handler.
func (e *Engine) handleQuery(cmd Command) {
	handler, ok := e.queries.Load(cmd.Letter)
	if !ok {
		e.logger.Debug("engine: no handler for query", "selector", string(cmd.Letter))
		e.writeDiag(diagUnknown)

		return
	}

	reply, err := handler(cmd.Params)
	if err != nil {
		e.logger.Error("engine: query handler failed",
			"selector", string(cmd.Letter),
			"error", err)
		e.writeDiag(diagQuery)

		return
	}

	if e.writeFramed([]byte(reply)) {
		e.metrics.incFrameSendCount()
	}
}

// writeData frames and writes one data line.
func (e *Engine) writeData(payload []byte) {
	if e.writeFramed(payload) {
		e.metrics.incFrameSendCount()
	}
}

// writeDiag frames and writes one diagnostic payload.
func (e *Engine) writeDiag(msg string) {
	if e.writeFramed([]byte(msg)) {
		e.metrics.incDiagSendCount()
	}
}

// writeIdentity answers the identify command: the bare site letter and a
// CRLF, with no framing around it.
func (e *Engine) writeIdentity() {
	e.writeWire([]byte{e.cfg.siteID, frame.CR, frame.LF})
}

// writeFramed wraps payload per the configured framing style and writes
// it, reporting whether the bytes reached the transport. An encoding
// failure is logged and the transmission skipped; the engine stays up.
func (e *Engine) writeFramed(payload []byte) bool {
	var (
		wire []byte
		err  error
	)

	if e.cfg.framing == frame.StylePlain {
		wire, err = frame.EncodePlain(payload)
	} else {
		wire, err = frame.Encode(payload, e.cfg.algo)
	}
	if err != nil {
		e.logger.Error("engine: frame encoding failed, transmission skipped", "error", err)

		return false
	}

	return e.writeWire(wire)
}

// writeWire writes one complete transmission under the write lock, so
// scheduled frames and command replies never interleave on the wire. The
// mode lock is never held here.
func (e *Engine) writeWire(wire []byte) bool {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if _, err := e.transport.Write(wire); err != nil {
		e.metrics.incWriteErrCount()
		e.logger.Error("engine: transport write failed", "error", err)

		return false
	}

	return true
}
