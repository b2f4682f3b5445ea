package pump

import (
	"sync/atomic"
)

// Metrics contains atomic counters for one pump device model.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// CommandSendCount indicates the number of command frames sent.
	CommandSendCount atomic.Uint64
	// ReplyRecvCount indicates the number of non-empty replies received.
	ReplyRecvCount atomic.Uint64
	// NoReplyCount indicates the number of reads that returned nothing
	// within the timeout window.
	NoReplyCount atomic.Uint64

	// VerifyMismatchCount indicates the number of readbacks that differed
	// from the requested value.
	VerifyMismatchCount atomic.Uint64
	// TruncationCount indicates the number of values narrowed to fit the
	// wire field, by truncation or clamping.
	TruncationCount atomic.Uint64

	// RangeErrCount indicates the number of values rejected as out of range.
	RangeErrCount atomic.Uint64
	// ProtocolErrCount indicates the number of unrecognized replies.
	ProtocolErrCount atomic.Uint64
}

func (m *Metrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *Metrics) incReplyRecvCount() {
	m.ReplyRecvCount.Add(1)
}

func (m *Metrics) incNoReplyCount() {
	m.NoReplyCount.Add(1)
}

func (m *Metrics) incVerifyMismatchCount() {
	m.VerifyMismatchCount.Add(1)
}

func (m *Metrics) incTruncationCount() {
	m.TruncationCount.Add(1)
}

func (m *Metrics) incRangeErrCount() {
	m.RangeErrCount.Add(1)
}

func (m *Metrics) incProtocolErrCount() {
	m.ProtocolErrCount.Add(1)
}
