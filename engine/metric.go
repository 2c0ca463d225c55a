package engine

import (
	"sync/atomic"
)

// EngineMetrics contains atomic metrics for an emulator engine.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type EngineMetrics struct {
	// ByteRecvCount indicates the number of bytes received.
	ByteRecvCount atomic.Uint64
	// LineRecvCount indicates the number of completed command lines received.
	LineRecvCount atomic.Uint64
	// LineDropCount indicates the number of over-long lines dropped.
	LineDropCount atomic.Uint64

	// CommandCount indicates the number of recognized commands dispatched.
	CommandCount atomic.Uint64
	// UnknownCmdCount indicates the number of unrecognized lines answered
	// with a diagnostic.
	UnknownCmdCount atomic.Uint64

	// FrameSendCount indicates the number of payload frames written, data
	// lines and query replies alike.
	FrameSendCount atomic.Uint64
	// DiagSendCount indicates the number of diagnostic frames written.
	DiagSendCount atomic.Uint64
	// EmptyFeedCount indicates the number of transmissions skipped because
	// the data source had no lines.
	EmptyFeedCount atomic.Uint64
	// WriteErrCount indicates the number of failed transport writes.
	WriteErrCount atomic.Uint64
}

func (m *EngineMetrics) incByteRecvCount() {
	m.ByteRecvCount.Add(1)
}

func (m *EngineMetrics) incLineRecvCount() {
	m.LineRecvCount.Add(1)
}

func (m *EngineMetrics) incLineDropCount() {
	m.LineDropCount.Add(1)
}

func (m *EngineMetrics) incCommandCount() {
	m.CommandCount.Add(1)
}

func (m *EngineMetrics) incUnknownCmdCount() {
	m.UnknownCmdCount.Add(1)
}

func (m *EngineMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *EngineMetrics) incDiagSendCount() {
	m.DiagSendCount.Add(1)
}

func (m *EngineMetrics) incEmptyFeedCount() {
	m.EmptyFeedCount.Add(1)
}

func (m *EngineMetrics) incWriteErrCount() {
	m.WriteErrCount.Add(1)
}
