package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wxline/ceilsim/logger"
)

// newTaskMockLogger creates a mock logger permitting the calls the manager
// makes while starting and stopping loops.
func newTaskMockLogger() *logger.MockLogger {
	mockLogger := logger.NewMockLogger()
	mockLogger.On("Debug", mock.Anything, mock.Anything).Return()
	mockLogger.On("Error", mock.Anything, mock.Anything).Return()

	return mockLogger
}

func TestTaskManager_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskMgr := NewTaskManager(ctx, newTaskMockLogger())

	taskFunc := func() bool {
		time.Sleep(time.Millisecond)
		return true
	}

	require.NoError(t, taskMgr.Start("testTask", taskFunc))

	// Allow some time for the goroutine to start
	time.Sleep(100 * time.Millisecond)

	// Verify that the task is running
	assert.Equal(t, 1, taskMgr.TaskCount())

	// Cancel the context to stop the task
	cancel()

	// Allow some time for the goroutine to stop
	time.Sleep(100 * time.Millisecond)

	// Verify that the task has stopped
	assert.Equal(t, 0, taskMgr.TaskCount())
}

func TestTaskManager_StopEndsLoops(t *testing.T) {
	taskMgr := NewTaskManager(context.Background(), newTaskMockLogger())

	require.NoError(t, taskMgr.Start("first", func() bool { return true }))
	require.NoError(t, taskMgr.Start("second", func() bool { return true }))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, taskMgr.TaskCount())

	taskMgr.Stop()
	taskMgr.Wait()

	assert.Equal(t, 0, taskMgr.TaskCount())
}

func TestTaskManager_TaskStopsItself(t *testing.T) {
	taskMgr := NewTaskManager(context.Background(), newTaskMockLogger())

	var iterations atomic.Int32
	taskFunc := func() bool {
		return iterations.Add(1) < 3
	}

	require.NoError(t, taskMgr.Start("counting", taskFunc))
	taskMgr.Wait()

	// A false return ends the loop without any external signal.
	assert.Equal(t, int32(3), iterations.Load())
	assert.Equal(t, 0, taskMgr.TaskCount())
}

func TestTaskManager_PanicRecovered(t *testing.T) {
	mockLogger := newTaskMockLogger()
	taskMgr := NewTaskManager(context.Background(), mockLogger)

	require.NoError(t, taskMgr.Start("panicking", func() bool {
		panic("boom")
	}))
	taskMgr.Wait()

	// The panic ends the loop but never escapes the goroutine.
	assert.Equal(t, 0, taskMgr.TaskCount())
	mockLogger.AssertCalled(t, "Error", "panic in task loop", mock.Anything)
}

func TestTaskManager_StartAfterStop(t *testing.T) {
	taskMgr := NewTaskManager(context.Background(), newTaskMockLogger())

	taskMgr.Stop()

	err := taskMgr.Start("late", func() bool { return true })
	assert.Error(t, err)
}

func TestTaskManager_WaitRearms(t *testing.T) {
	taskMgr := NewTaskManager(context.Background(), newTaskMockLogger())

	require.NoError(t, taskMgr.Start("first", func() bool { return false }))
	taskMgr.Stop()
	taskMgr.Wait()

	// Wait rearms the manager under the parent context, so a fresh loop
	// can start after a full stop cycle.
	require.NoError(t, taskMgr.Start("second", func() bool { return false }))
	taskMgr.Wait()

	assert.Equal(t, 0, taskMgr.TaskCount())
}
