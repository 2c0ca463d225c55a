package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/wxline/ceilsim/feed"
	"github.com/wxline/ceilsim/logger"
	"github.com/wxline/ceilsim/transport"
)

// Version is the firmware revision reported by the identification query.
const Version = "1.2.0"

// Engine emulates one sensor device over a transport.
//
// It runs two tasks: a receiver loop that accumulates peer bytes into
// command lines and dispatches them, and a transmission scheduler that
// paces framed data lines while continuous mode is on. The two share the
// mode flags and the transport; everything else is task-private.
type Engine struct {
	pctx      context.Context
	ctx       context.Context
	ctxCancel context.CancelFunc
	cfg       *Config
	logger    logger.Logger

	transport transport.Transport
	src       feed.Source

	// Mode flags and lifecycle state.
	mode    *ModeState
	opState atomicOpState
	taskMgr *TaskManager

	// writeMu serializes complete transmissions. It is never held together
	// with the mode lock.
	writeMu sync.Mutex

	// acc collects receiver input; touched only by the receiver task.
	acc lineAccumulator

	queries *xsync.MapOf[byte, QueryHandler]

	metrics EngineMetrics
}

// New creates an emulator engine speaking over tr and drawing data lines
// from src.
//
// The engine takes ownership of tr: Close releases it. The built-in
// configuration queries are registered here and can be replaced with
// [Engine.RegisterQuery] before Run.
func New(ctx context.Context, cfg *Config, tr transport.Transport, src feed.Source) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is nil")
	}
	if tr == nil {
		return nil, errors.New("engine: transport is nil")
	}
	if src == nil {
		return nil, errors.New("engine: data source is nil")
	}

	e := &Engine{
		pctx:      ctx,
		cfg:       cfg,
		logger:    cfg.logger,
		transport: tr,
		src:       src,
		mode:      NewModeState(),
		taskMgr:   NewTaskManager(ctx, cfg.logger),
		queries:   xsync.NewMapOf[byte, QueryHandler](),
	}

	e.createContext()
	e.registerBuiltinQueries()

	return e, nil
}

// Run starts the receiver and scheduler tasks and returns immediately.
// The engine then serves until a peer disconnect, Terminate, or Close.
// An engine can only be run once.
func (e *Engine) Run() error {
	if !e.opState.ToRunning() {
		return fmt.Errorf("engine: cannot run from %s state", e.opState.String())
	}

	e.logger.Info("engine: running",
		"site", string(e.cfg.siteID),
		"checksum", e.cfg.algo.String(),
		"framing", e.cfg.framing.String(),
		"interval", e.cfg.interval)

	if err := e.taskMgr.Start("receiver", e.receiverTask); err != nil {
		return err
	}

	return e.taskMgr.Start("scheduler", e.schedulerTask)
}

// Terminate asks a running engine to stop. Both tasks observe the flag and
// exit on their own; resources stay held until Close. Safe to call from
// any goroutine, repeatedly.
func (e *Engine) Terminate() {
	e.mode.Terminate()
}

// Wait blocks until both engine tasks have exited, whether from Terminate,
// Close, a peer disconnect, or a read failure.
func (e *Engine) Wait() {
	e.taskMgr.Wait()
}

// Close terminates the engine and releases the transport.
//
// It waits up to the configured close timeout for the tasks to drain; the
// transport is closed either way. Closing an already closed engine is a
// no-op.
func (e *Engine) Close() error {
	if !e.opState.ToClosing() {
		if e.opState.IsClosed() {
			return nil
		}

		e.logger.Warn("engine: cannot close from current state", "opState", e.opState.String())

		return fmt.Errorf("engine: cannot close from %s state", e.opState.String())
	}

	e.logger.Debug("engine: closing")

	e.mode.Terminate()
	e.ctxCancel()
	e.taskMgr.Stop()

	closeCtx, closeCtxCancel := context.WithTimeout(context.Background(), e.cfg.closeTimeout)
	defer closeCtxCancel()

	// Wait for task termination with timeout.
	go func() {
		e.taskMgr.Wait()
		closeCtxCancel()
	}()

	<-closeCtx.Done()

	var closeErr error
	if !errors.Is(closeCtx.Err(), context.Canceled) {
		e.logger.Error("engine: close timeout", "timeout", e.cfg.closeTimeout)
		closeErr = fmt.Errorf("engine: close timeout: %w", closeCtx.Err())
	}

	if err := e.transport.Close(); err != nil {
		e.logger.Error("engine: transport close failed", "error", err)

		if closeErr == nil {
			closeErr = fmt.Errorf("engine: transport close: %w", err)
		}
	}

	if !e.opState.ToClosed() {
		e.logger.Warn("engine: cannot mark closed", "opState", e.opState.String())
	}

	e.logger.Debug("engine: closed")

	return closeErr
}

// GetLogger returns the logger associated with the engine.
func (e *Engine) GetLogger() logger.Logger {
	return e.logger
}

// GetMetrics returns the metrics associated with the engine.
func (e *Engine) GetMetrics() *EngineMetrics {
	return &e.metrics
}

func (e *Engine) createContext() {
	e.ctx, e.ctxCancel = context.WithCancel(e.pctx)
}
