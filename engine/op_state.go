package engine

import "sync/atomic"

// opState tracks where the engine is in its run lifecycle. Run is
// single-shot: once closed, an engine is never rearmed.
type opState uint32

const (
	stateIdle opState = iota
	stateRunning
	stateClosing
	stateClosed
)

type atomicOpState struct {
	state atomic.Uint32
}

func (st *atomicOpState) String() string {
	switch st.Get() {
	case stateIdle:
		return "Idle"
	case stateRunning:
		return "Running"
	case stateClosing:
		return "Closing"
	case stateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Get returns the current state.
func (st *atomicOpState) Get() opState {
	return opState(st.state.Load())
}

func (st *atomicOpState) IsIdle() bool {
	return st.Get() == stateIdle
}

func (st *atomicOpState) IsRunning() bool {
	return st.Get() == stateRunning
}

func (st *atomicOpState) IsClosing() bool {
	return st.Get() == stateClosing
}

func (st *atomicOpState) IsClosed() bool {
	return st.Get() == stateClosed
}

// ToRunning moves Idle → Running. It reports false when the engine already
// ran, is running, or is shut down.
func (st *atomicOpState) ToRunning() bool {
	return st.state.CompareAndSwap(uint32(stateIdle), uint32(stateRunning))
}

// ToClosing moves Running → Closing, or Idle → Closing for an engine that
// never ran. It reports false when a close is already underway or done.
func (st *atomicOpState) ToClosing() bool {
	if st.state.CompareAndSwap(uint32(stateRunning), uint32(stateClosing)) {
		return true
	}

	return st.state.CompareAndSwap(uint32(stateIdle), uint32(stateClosing))
}

// ToClosed moves Closing → Closed. Reports true when already closed.
func (st *atomicOpState) ToClosed() bool {
	if st.IsClosed() {
		return true
	}

	return st.state.CompareAndSwap(uint32(stateClosing), uint32(stateClosed))
}
