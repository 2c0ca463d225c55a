// Package pool provides pooled timers for the engine's bounded waits.
//
// The scheduler arms a timer on every interval pause and the mode state on
// every timed wait, so timers are recycled through a sync.Pool instead of
// being allocated per wait.
package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer armed with duration d. Hand it back with PutTimer
// once the wait is over.
func GetTimer(d time.Duration) *time.Timer {
	if v := timerPool.Get(); v != nil {
		t, _ := v.(*time.Timer) // the pool only ever holds *time.Timer
		if t.Reset(d) {
			// The timer was still armed; drain a pending tick so the caller
			// never observes a stale expiry.
			select {
			case <-t.C:
			default:
			}
		}

		return t
	}

	return time.NewTimer(d)
}

// PutTimer stops t and returns it to the pool. The caller must not touch t
// afterwards.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		// Already fired; drain the tick the caller may not have consumed.
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}
