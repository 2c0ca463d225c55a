package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wxline/ceilsim/logger"
)

// TaskFunc represents one iteration of a task loop managed by the
// TaskManager. It should return true to keep the loop running, or false to
// stop the goroutine.
type TaskFunc func() bool

// TaskManager manages the lifecycle of the engine's goroutines. It provides
// a structured way to start, stop, and wait for task loops, ensuring proper
// cancellation and panic recovery.
//
// The TaskManager uses a context.Context to manage the lifecycle of the
// goroutines: when the context is canceled, all running loops are signaled
// to stop. A sync.WaitGroup lets Wait() block until every loop has
// terminated.
//
// Example Usage:
//
//	taskMgr := NewTaskManager(ctx, logger)
//
//	taskMgr.Start("receiver", func() bool {
//	    // ... one loop iteration ...
//	    return true // true to continue, false to stop
//	})
//
//	taskMgr.Stop()
//	taskMgr.Wait()
type TaskManager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protect ctx and cancel
	taskMu sync.RWMutex // protect task creation during Wait()
}

// NewTaskManager creates a new TaskManager with the given parent context and
// logger.
func NewTaskManager(ctx context.Context, l logger.Logger) *TaskManager {
	mgr := &TaskManager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// getContext safely returns the current context.
func (mgr *TaskManager) getContext() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start starts a new goroutine running taskFunc in a loop.
//
// The taskFunc is invoked repeatedly until it returns false or the manager
// is stopped. It returns once the goroutine has actually started.
func (mgr *TaskManager) Start(name string, taskFunc TaskFunc) error {
	mgr.logger.Debug("start task", "name", name)

	starter, err := mgr.newTaskStarter(name)
	if err != nil {
		return err
	}

	starter.startTask(func() {
		mgr.runTaskLoop(taskFunc)
	})

	return starter.waitForStart()
}

// Stop signals all running goroutines to stop.
func (mgr *TaskManager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all goroutines to terminate, then rearms the manager for a
// potential restart under the same parent context.
func (mgr *TaskManager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// TaskCount returns the number of currently running goroutines.
func (mgr *TaskManager) TaskCount() int {
	return int(mgr.count.Load())
}

// taskStarter encapsulates common startup logic.
type taskStarter struct {
	mgr     *TaskManager
	name    string
	started chan error
}

func (mgr *TaskManager) newTaskStarter(name string) (*taskStarter, error) {
	ctx := mgr.getContext()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("task manager already stopped")
	default:
	}

	return &taskStarter{
		mgr:     mgr,
		name:    name,
		started: make(chan error, 1),
	}, nil
}

// startTask runs the common startup sequence for all tasks.
func (s *taskStarter) startTask(taskBody func()) {
	s.mgr.taskMu.RLock()
	defer s.mgr.taskMu.RUnlock()

	s.mgr.wg.Add(1)

	go func() {
		defer s.mgr.wg.Done()

		// signal startup status
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.started <- fmt.Errorf("panic during startup: %v", r)
				}
			}()

			s.mgr.count.Add(1)
			s.started <- nil
		}()

		defer func() {
			s.mgr.count.Add(-1)
			s.mgr.logger.Debug(fmt.Sprintf("%s task terminated", s.name), "task_count", s.mgr.TaskCount())
		}()

		taskBody()
	}()
}

// waitForStart waits for the task to start with a timeout.
func (s *taskStarter) waitForStart() error {
	ctx := s.mgr.getContext()

	select {
	case err := <-s.started:
		if err != nil {
			s.mgr.wg.Done() // compensate for failed start
			return fmt.Errorf("failed to start %s: %w", s.name, err)
		}

		return nil

	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for %s to start", s.name)

	case <-ctx.Done():
		return fmt.Errorf("context cancelled while starting %s", s.name)
	}
}

// runTaskLoop runs a task function in a loop with context cancellation and
// panic recovery.
func (mgr *TaskManager) runTaskLoop(taskFunc func() bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "panic", r)
		}
	}()

	for {
		ctx := mgr.getContext()
		select {
		case <-ctx.Done():
			return
		default:
			if !taskFunc() {
				return
			}
		}
	}
}
