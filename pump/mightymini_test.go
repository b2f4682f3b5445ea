package pump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluidlab/go-pumpchain/frame"
)

func TestNewMightyMini(t *testing.T) {
	ch := newScriptChannel(t)
	m, err := NewMightyMini(ch, WithLogger(testLogger()))
	require.NoError(t, err)

	// Unaddressed family: construction sends nothing.
	assert.Zero(t, ch.writes)
	assert.Equal(t, "MightyMini", m.Name())
}

func TestNewMightyMini_BadOption(t *testing.T) {
	ch := newScriptChannel(t)
	_, err := NewMightyMini(ch, WithLogger(nil))
	require.Error(t, err)
	assert.True(t, ch.closed)
}

func TestMightyMini_SetFlowRate(t *testing.T) {
	m, ch := newTestMini(t,
		scriptStep{expect: "FM0970", reply: "OK\n"},
		scriptStep{expect: "CC", reply: "OKCC:0.970\n"},
	)

	require.NoError(t, m.SetFlowRate(970))
	ch.done()
	assert.Equal(t, 2, ch.resets, "input must be drained after every reply")

	rate, ok := m.FlowRate()
	require.True(t, ok)
	assert.Equal(t, 970.0, rate)
}

func TestMightyMini_SetFlowRateClamps(t *testing.T) {
	// The rate register tops out at 9999; larger requests are clamped, not
	// rejected.
	m, ch := newTestMini(t,
		scriptStep{expect: "FM9999", reply: "OK\n"},
		scriptStep{expect: "CC", reply: "OKCC:9.999\n"},
	)

	require.NoError(t, m.SetFlowRate(12000))
	ch.done()

	rate, ok := m.FlowRate()
	require.True(t, ok)
	assert.Equal(t, 9999.0, rate)
	assert.Equal(t, uint64(1), m.Metrics().TruncationCount.Load())
}

func TestMightyMini_SetFlowRateReadbackMismatch(t *testing.T) {
	m, ch := newTestMini(t,
		scriptStep{expect: "FM0970", reply: "OK\n"},
		scriptStep{expect: "CC", reply: "OKCC:0.500\n"},
	)

	// A disagreeing readback is tolerated, not raised.
	require.NoError(t, m.SetFlowRate(970))
	ch.done()

	_, ok := m.FlowRate()
	assert.False(t, ok, "cache must stay unset after a readback mismatch")
	assert.Equal(t, uint64(1), m.Metrics().VerifyMismatchCount.Load())
}

func TestMightyMini_SetFlowRateBadReply(t *testing.T) {
	m, _ := newTestMini(t,
		scriptStep{expect: "FM0100", reply: "NG\n"},
	)

	require.ErrorIs(t, m.SetFlowRate(100), ErrProtocol)

	_, ok := m.FlowRate()
	assert.False(t, ok)
}

func TestMightyMini_SetFlowRateNoResponse(t *testing.T) {
	m, _ := newTestMini(t,
		scriptStep{expect: "FM0100", reply: ""},
	)

	require.ErrorIs(t, m.SetFlowRate(100), frame.ErrNoResponse)
}

func TestMightyMini_QueryFlowRate(t *testing.T) {
	// The pump reports its rate in mL/min; the driver scales to uL/min.
	m, ch := newTestMini(t,
		scriptStep{expect: "CC", reply: "OKCC:0.500\n"},
	)

	rate, err := m.QueryFlowRate()
	require.NoError(t, err)
	ch.done()
	assert.Equal(t, 500.0, rate)

	cached, ok := m.FlowRate()
	require.True(t, ok)
	assert.Equal(t, 500.0, cached)
}

func TestMightyMini_QueryFlowRateGarbled(t *testing.T) {
	m, _ := newTestMini(t,
		scriptStep{expect: "CC", reply: "OKCC:x.xxx\n"},
	)

	_, err := m.QueryFlowRate()
	require.ErrorIs(t, err, ErrProtocol)
}

func TestMightyMini_InfuseAndStop(t *testing.T) {
	m, ch := newTestMini(t,
		scriptStep{expect: "RU", reply: "OK\n"},
		scriptStep{expect: "ST", reply: "OK\n"},
	)

	require.NoError(t, m.Infuse())
	require.NoError(t, m.Stop())
	ch.done()
	assert.Equal(t, 2, ch.resets)
}

func TestMightyMini_UnsupportedOperations(t *testing.T) {
	m, ch := newTestMini(t)

	assert.ErrorIs(t, m.SetDiameter(10), ErrNotSupported)
	assert.ErrorIs(t, m.SetTargetVolume(500), ErrNotSupported)
	assert.ErrorIs(t, m.Withdraw(), ErrNotSupported)
	assert.ErrorIs(t, m.WaitUntilTarget(), ErrNotSupported)
	assert.Zero(t, ch.writes, "unsupported operations must not touch the wire")
}
