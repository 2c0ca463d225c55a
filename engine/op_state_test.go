package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicOpState_StartsIdle(t *testing.T) {
	st := &atomicOpState{}
	assert.True(t, st.IsIdle())
	assert.Equal(t, "Idle", st.String())
}

func TestAtomicOpState_RunLifecycle(t *testing.T) {
	st := &atomicOpState{}

	assert.True(t, st.ToRunning())
	assert.True(t, st.IsRunning())
	assert.Equal(t, "Running", st.String())

	assert.True(t, st.ToClosing())
	assert.True(t, st.IsClosing())
	assert.Equal(t, "Closing", st.String())

	assert.True(t, st.ToClosed())
	assert.True(t, st.IsClosed())
	assert.Equal(t, "Closed", st.String())
}

func TestAtomicOpState_ToRunning_SingleShot(t *testing.T) {
	st := &atomicOpState{}

	assert.True(t, st.ToRunning())
	assert.False(t, st.ToRunning(), "second run must be rejected")

	// A closed engine can never run again.
	assert.True(t, st.ToClosing())
	assert.True(t, st.ToClosed())
	assert.False(t, st.ToRunning())
}

func TestAtomicOpState_ToClosing(t *testing.T) {
	t.Run("FromRunning", func(t *testing.T) {
		st := &atomicOpState{}
		st.ToRunning()
		assert.True(t, st.ToClosing())
	})

	t.Run("FromIdle", func(t *testing.T) {
		// Closing an engine that never ran still proceeds.
		st := &atomicOpState{}
		assert.True(t, st.ToClosing())
		assert.True(t, st.IsClosing())
	})

	t.Run("SecondCloseRejected", func(t *testing.T) {
		st := &atomicOpState{}
		st.ToRunning()
		assert.True(t, st.ToClosing())
		assert.False(t, st.ToClosing())
	})
}

func TestAtomicOpState_ToClosed(t *testing.T) {
	t.Run("FromClosing", func(t *testing.T) {
		st := &atomicOpState{}
		st.ToRunning()
		st.ToClosing()
		assert.True(t, st.ToClosed())
	})

	t.Run("AlreadyClosed", func(t *testing.T) {
		st := &atomicOpState{}
		st.ToClosing()
		st.ToClosed()
		assert.True(t, st.ToClosed())
	})

	t.Run("FromRunningRejected", func(t *testing.T) {
		st := &atomicOpState{}
		st.ToRunning()
		assert.False(t, st.ToClosed(), "must pass through Closing first")
	})
}

func TestAtomicOpState_String_Unknown(t *testing.T) {
	st := &atomicOpState{}
	st.state.Store(99)
	assert.Equal(t, "Unknown", st.String())
}
