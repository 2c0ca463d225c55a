package engine

import (
	"context"
	"sync"
	"time"

	"github.com/wxline/ceilsim/internal/pool"
)

// ModeState holds the two flags every engine task consults: whether
// continuous transmission is active and whether the engine is terminating.
//
// Both flags live under one mutex alongside a broadcast channel that is
// closed and replaced on every effective change. A waiter captures the
// channel while holding the mutex and then blocks on it, so a change
// happening after the waiter releases the mutex still wakes it: the wakeup
// cannot be missed, and every wait re-checks its predicate after waking.
type ModeState struct {
	mu         sync.Mutex
	continuous bool
	terminated bool
	change     chan struct{}
}

// NewModeState creates a ModeState with continuous mode off.
func NewModeState() *ModeState {
	return &ModeState{change: make(chan struct{})}
}

// SetContinuous switches continuous mode on or off and wakes waiters.
// Setting the mode it is already in is a no-op: mode commands are
// idempotent and a redundant one wakes nobody.
func (s *ModeState) SetContinuous(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.continuous == on {
		return
	}

	s.continuous = on
	s.broadcastLocked()
}

// Continuous reports whether continuous mode is on.
func (s *ModeState) Continuous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.continuous
}

// Terminate raises the termination flag and wakes all waiters. The flag is
// sticky; calls after the first are no-ops.
func (s *ModeState) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return
	}

	s.terminated = true
	s.broadcastLocked()
}

// Terminated reports whether termination has been requested.
func (s *ModeState) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.terminated
}

// broadcastLocked wakes every pending waiter. Callers must hold mu.
func (s *ModeState) broadcastLocked() {
	close(s.change)
	s.change = make(chan struct{})
}

// WaitActive blocks until continuous mode is on, termination is requested,
// or ctx is done. It returns true when the caller should transmit and false
// when it should exit. No lock is held while blocked.
func (s *ModeState) WaitActive(ctx context.Context) bool {
	for {
		s.mu.Lock()
		if s.terminated {
			s.mu.Unlock()
			return false
		}
		if s.continuous {
			s.mu.Unlock()
			return true
		}
		ch := s.change
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-ch:
		}
	}
}

// WaitInterval blocks for at most d, returning early when continuous mode
// is switched off or when termination/ctx fires. It returns false only when
// the caller should exit; an elapsed interval and an early mode stop both
// return true. The interval is measured from the call, not restarted by
// wakeups that leave the outcome undecided.
func (s *ModeState) WaitInterval(ctx context.Context, d time.Duration) bool {
	timer := pool.GetTimer(d)
	defer pool.PutTimer(timer)

	for {
		s.mu.Lock()
		if s.terminated {
			s.mu.Unlock()
			return false
		}
		if !s.continuous {
			s.mu.Unlock()
			return true
		}
		ch := s.change
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-ch:
		}
	}
}
