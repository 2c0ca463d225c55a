package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxline/ceilsim/checksum"
	"github.com/wxline/ceilsim/feed"
	"github.com/wxline/ceilsim/logger"
	"github.com/wxline/ceilsim/transport"
)

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)

	os.Exit(m.Run())
}

func TestNew_Validation(t *testing.T) {
	cfg := newTestConfig(t)

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	tr := transport.NewConn(local)
	src := feed.Lines("x")

	_, err := New(context.Background(), nil, tr, src)
	assert.Error(t, err)

	_, err = New(context.Background(), cfg, nil, src)
	assert.Error(t, err)

	_, err = New(context.Background(), cfg, tr, nil)
	assert.Error(t, err)
}

func TestEngine_RunOnce(t *testing.T) {
	cfg := newTestConfig(t)
	e, _ := newTestEngine(t, cfg, "x")

	require.NoError(t, e.Run())
	assert.Error(t, e.Run())

	require.NoError(t, e.Close())
	assert.Error(t, e.Run())
}

func TestEngine_Identify(t *testing.T) {
	cfg := newTestConfig(t, WithSiteID('K'))
	e, remote := newTestEngine(t, cfg, "ignored")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "&")

	// The identity reply is the bare site letter, unframed.
	reply := readReply(t, remote, br, time.Second)
	assert.Equal(t, "K\r\n", string(reply))
}

func TestEngine_PollCyclesThroughSource(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "alpha 100", "beta 200")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	// Any poll letter draws from the same source, wrapping at the end.
	for i, expected := range []string{"alpha 100", "beta 200", "alpha 100"} {
		letter := string(rune('A' + i))
		sendLine(t, remote, letter)
		requireFramed(t, cfg, readReply(t, remote, br, time.Second), expected)
	}

	assert.Equal(t, uint64(3), e.GetMetrics().FrameSendCount.Load())
	assert.Equal(t, uint64(3), e.GetMetrics().CommandCount.Load())
}

func TestEngine_PollEmptySource(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg)
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "A")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "ERR:NODATA")

	assert.Equal(t, uint64(1), e.GetMetrics().DiagSendCount.Load())
	assert.Zero(t, e.GetMetrics().FrameSendCount.Load())
}

func TestEngine_ContinuousMode(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "tick")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "!")

	// Three frames need two full inter-frame pauses.
	start := time.Now()
	for i := 0; i < 3; i++ {
		requireFramed(t, cfg, readReply(t, remote, br, time.Second), "tick")
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*cfg.Interval())

	sendLine(t, remote, "?")
	drainStream(t, remote, br, 2*cfg.Interval())

	assert.False(t, e.mode.Continuous())
	assert.GreaterOrEqual(t, e.GetMetrics().FrameSendCount.Load(), uint64(3))
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "tick")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "!")
	sendLine(t, remote, "!")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "tick")

	sendLine(t, remote, "?")
	sendLine(t, remote, "?")
	drainStream(t, remote, br, 2*cfg.Interval())

	assert.False(t, e.mode.Continuous())
	assert.Equal(t, uint64(4), e.GetMetrics().CommandCount.Load())
}

func TestEngine_BuiltinQueries(t *testing.T) {
	cfg := newTestConfig(t, WithSiteID('B'), WithAlgorithm(checksum.AlgoCRC16))
	e, remote := newTestEngine(t, cfg, "x")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "*C")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "crc16")

	sendLine(t, remote, "*I")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second),
		fmt.Sprintf("CEILSIM %s SITE B", Version))

	sendLine(t, remote, "*T")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), cfg.Interval().String())
}

func TestEngine_CustomQueries(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "x")

	require.NoError(t, e.RegisterQuery('V', func(params []string) (string, error) {
		return "volts " + strings.Join(params, "/"), nil
	}))
	require.NoError(t, e.RegisterQuery('E', func([]string) (string, error) {
		return "", errors.New("probe offline")
	}))

	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	// --- registered handler sees the params ---
	sendLine(t, remote, "*V 1 2")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "volts 1/2")

	// --- handler failure turns into a diagnostic ---
	sendLine(t, remote, "*E")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "ERR:QUERY")

	// --- unregistered selector ---
	e.UnregisterQuery('V')
	sendLine(t, remote, "*V")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "ERR:UNKNOWN")
}

func TestEngine_RegisterQueryValidation(t *testing.T) {
	cfg := newTestConfig(t)
	e, _ := newTestEngine(t, cfg, "x")

	handler := func([]string) (string, error) { return "", nil }

	assert.Error(t, e.RegisterQuery('v', handler))
	assert.Error(t, e.RegisterQuery('#', handler))
	assert.Error(t, e.RegisterQuery('V', nil))
}

func TestEngine_UnknownCommand(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "x")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	sendLine(t, remote, "bogus")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "ERR:UNKNOWN")

	assert.Equal(t, uint64(1), e.GetMetrics().UnknownCmdCount.Load())
}

func TestEngine_OverflowResync(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "clean")
	require.NoError(t, e.Run())

	br := bufio.NewReader(remote)

	// An unterminated burst past the cap, then a terminator and a valid poll.
	_, err := remote.Write(bytes.Repeat([]byte{'j'}, 300))
	require.NoError(t, err)
	sendLine(t, remote, "")

	sendLine(t, remote, "A")
	requireFramed(t, cfg, readReply(t, remote, br, time.Second), "clean")

	assert.Equal(t, uint64(1), e.GetMetrics().LineDropCount.Load())
	assert.Equal(t, uint64(1), e.GetMetrics().LineRecvCount.Load())
}

func TestEngine_PeerCloseTerminates(t *testing.T) {
	cfg := newTestConfig(t)
	e, remote := newTestEngine(t, cfg, "x")
	require.NoError(t, e.Run())

	_ = remote.Close()

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not terminate after peer close")
	}

	assert.True(t, e.mode.Terminated())
}

func TestEngine_Close(t *testing.T) {
	cfg := newTestConfig(t)
	e, _ := newTestEngine(t, cfg, "x")
	require.NoError(t, e.Run())

	start := time.Now()
	require.NoError(t, e.Close())
	assert.Less(t, time.Since(start), cfg.CloseTimeout())

	assert.Zero(t, e.taskMgr.TaskCount())

	// Closing again is a no-op.
	require.NoError(t, e.Close())
}

func TestEngine_TerminateStopsTasks(t *testing.T) {
	cfg := newTestConfig(t)
	e, _ := newTestEngine(t, cfg, "x")
	require.NoError(t, e.Run())

	e.Terminate()
	e.Terminate()
	e.Wait()

	assert.Zero(t, e.taskMgr.TaskCount())
	require.NoError(t, e.Close())
}
