package pump

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/logger"
)

// scriptStep pairs one expected command frame with the reply to play back.
type scriptStep struct {
	expect string
	reply  string
}

// scriptChannel plays a scripted pump conversation, failing the test on any
// frame the script does not expect. Script exhaustion doubles as the
// assertion that no further frames were sent.
type scriptChannel struct {
	t     *testing.T
	steps []scriptStep

	pos     int
	pending string
	writes  int
	resets  int
	closed  bool
}

var _ chain.Channel = (*scriptChannel)(nil)

func newScriptChannel(t *testing.T, steps ...scriptStep) *scriptChannel {
	t.Helper()
	return &scriptChannel{t: t, steps: steps}
}

func (c *scriptChannel) Write(p []byte) error {
	c.t.Helper()
	c.writes++
	require.Less(c.t, c.pos, len(c.steps), "unexpected frame %q past end of script", p)
	step := c.steps[c.pos]
	require.Equal(c.t, step.expect, string(p), "frame %d", c.pos)
	c.pending = step.reply
	c.pos++

	return nil
}

func (c *scriptChannel) Read(maxBytes int) ([]byte, error) {
	resp := c.pending
	if len(resp) > maxBytes {
		resp = resp[:maxBytes]
	}
	c.pending = ""

	return []byte(resp), nil
}

func (c *scriptChannel) ResetInput() error {
	c.resets++
	c.pending = ""

	return nil
}

func (c *scriptChannel) Close() error {
	c.closed = true

	return nil
}

// done asserts the whole script was consumed.
func (c *scriptChannel) done() {
	c.t.Helper()
	require.Equal(c.t, len(c.steps), c.pos, "script not fully consumed")
}

// probeStep is the construction version handshake at addr.
func probeStep(addr int) scriptStep {
	return scriptStep{
		expect: fmt.Sprintf("%02dVER\r", addr),
		reply:  fmt.Sprintf("\r\nV2.3\r\n%02d:", addr),
	}
}

func testLogger() logger.Logger {
	return logger.NewSlog(logger.ErrorLevel, false)
}

func newTestPump11(t *testing.T, addr int, steps ...scriptStep) (*Pump11, *scriptChannel) {
	t.Helper()
	ch := newScriptChannel(t, append([]scriptStep{probeStep(addr)}, steps...)...)
	p, err := NewPump11(ch, addr, WithLogger(testLogger()))
	require.NoError(t, err)

	return p, ch
}

func newTestPHD2000(t *testing.T, addr int, steps ...scriptStep) (*PHD2000, *scriptChannel) {
	t.Helper()
	ch := newScriptChannel(t, append([]scriptStep{probeStep(addr)}, steps...)...)
	p, err := NewPHD2000(ch, addr, WithLogger(testLogger()))
	require.NoError(t, err)

	return p, ch
}

func newTestPump33(t *testing.T, addr int, steps ...scriptStep) (*Pump33, *scriptChannel) {
	t.Helper()
	ch := newScriptChannel(t, append([]scriptStep{probeStep(addr)}, steps...)...)
	p, err := NewPump33(ch, addr, WithLogger(testLogger()))
	require.NoError(t, err)

	return p, ch
}

func newTestMini(t *testing.T, steps ...scriptStep) (*MightyMini, *scriptChannel) {
	t.Helper()
	ch := newScriptChannel(t, steps...)
	m, err := NewMightyMini(ch, WithLogger(testLogger()))
	require.NoError(t, err)

	return m, ch
}
