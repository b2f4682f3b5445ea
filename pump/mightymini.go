package pump

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/frame"
)

// MightyMini mnemonics. The SSI MightyMini speaks a reduced unaddressed
// dialect: bare two-letter commands with no terminator, answered with an
// OK-prefixed reply.
const (
	mnemMiniSetRate   = "FM"
	mnemMiniRun       = "RU"
	mnemMiniStop      = "ST"
	mnemMiniQueryRate = "CC"
)

const (
	// MaxMiniFlowRate is the ceiling of the MightyMini rate register in
	// microlitres per minute. Larger requests are clamped, not rejected.
	MaxMiniFlowRate = 9999

	miniAckLen   = 3
	miniQueryLen = 11
)

// MightyMini drives an SSI MightyMini LC pump sharing a chain's serial
// line. The device is unaddressed, so at most one can sit on a chain, and
// it has no syringe, so the diameter and target-volume surface reports
// ErrNotSupported.
type MightyMini struct {
	proto

	flowRate    float64
	flowRateSet bool
}

var _ Device = (*MightyMini)(nil)

// NewMightyMini binds a MightyMini on the given channel. The device is
// unaddressed, so construction neither claims an address nor probes; a bad
// option still closes the channel, keeping the constructor contract uniform
// across families.
func NewMightyMini(ch chain.Channel, opts ...Option) (*MightyMini, error) {
	cfg, err := newConfig("MightyMini", opts...)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	m := &MightyMini{}
	m.init(ch, 0, cfg)

	var kv []any
	if c, ok := ch.(portNamer); ok {
		kv = append(kv, "port", c.Port())
	}
	m.logger.Info("created", kv...)

	return m, nil
}

// SetFlowRate programs the pumping rate in microlitres per minute. The rate
// register is a 4-digit integer; fractional input is floored and anything
// above MaxMiniFlowRate is clamped with a warning rather than rejected. The
// accepted rate is read back from the rate register; a readback that
// disagrees is logged and leaves the cached rate unset.
func (m *MightyMini) SetFlowRate(rate float64) error {
	v := int(rate)
	if v > MaxMiniFlowRate {
		m.metrics.incTruncationCount()
		m.logger.Warn("flow rate clamped to hardware ceiling", "requested", v, "sent", MaxMiniFlowRate)
		v = MaxMiniFlowRate
	}
	cmd := frame.EncodeBare(mnemMiniSetRate, fmt.Sprintf("%04d", v))
	if _, err := m.miniRoundTrip(cmd, miniAckLen, "set flow rate"); err != nil {
		return err
	}

	got, err := m.readRate()
	if err != nil {
		return err
	}
	if int(got) != v {
		m.metrics.incVerifyMismatchCount()
		m.logger.Error("flow rate readback disagrees", "requested", v, "returned", int(got))
		return nil
	}
	m.flowRate, m.flowRateSet = got, true
	m.logger.Info("flow rate set", "ul/min", v)

	return nil
}

// QueryFlowRate reads the pump's rate register. The reply reports
// millilitres per minute; the value is scaled to microlitres per minute and
// cached.
func (m *MightyMini) QueryFlowRate() (float64, error) {
	ulmin, err := m.readRate()
	if err != nil {
		return 0, err
	}
	m.flowRate, m.flowRateSet = ulmin, true

	return ulmin, nil
}

// readRate queries the rate register. The reply carries millilitres per
// minute after a five-byte banner; scaling truncates to the whole
// microlitres per minute the register actually holds.
func (m *MightyMini) readRate() (float64, error) {
	resp, err := m.miniRoundTrip(frame.EncodeBare(mnemMiniQueryRate, ""), miniQueryLen, "query flow rate")
	if err != nil {
		return 0, err
	}
	if len(resp) < 6 {
		m.metrics.incProtocolErrCount()
		return 0, fmt.Errorf("%w: flow rate reply %q too short", ErrProtocol, resp)
	}
	ml, perr := strconv.ParseFloat(string(resp[5:len(resp)-1]), 64)
	if perr != nil {
		m.metrics.incProtocolErrCount()
		return 0, fmt.Errorf("%w: flow rate reply %q: %v", ErrProtocol, resp, perr)
	}

	return float64(int(ml * 1000)), nil
}

// Infuse starts the pump.
func (m *MightyMini) Infuse() error {
	if _, err := m.miniRoundTrip(frame.EncodeBare(mnemMiniRun, ""), miniAckLen, "infuse"); err != nil {
		return err
	}
	m.logger.Info("infusing")

	return nil
}

// Stop halts the pump.
func (m *MightyMini) Stop() error {
	if _, err := m.miniRoundTrip(frame.EncodeBare(mnemMiniStop, ""), miniAckLen, "stop"); err != nil {
		return err
	}
	m.logger.Info("stopped")

	return nil
}

// SetDiameter reports ErrNotSupported; the MightyMini drives an LC pump
// head, not a syringe.
func (m *MightyMini) SetDiameter(float64) error {
	return fmt.Errorf("%w: MightyMini has no syringe diameter", ErrNotSupported)
}

// SetTargetVolume reports ErrNotSupported; the MightyMini has no target
// volume register.
func (m *MightyMini) SetTargetVolume(float64) error {
	return fmt.Errorf("%w: MightyMini has no target volume register", ErrNotSupported)
}

// Withdraw reports ErrNotSupported; the MightyMini runs in one direction
// only.
func (m *MightyMini) Withdraw() error {
	return fmt.Errorf("%w: MightyMini cannot withdraw", ErrNotSupported)
}

// WaitUntilTarget reports ErrNotSupported; without a target volume register
// there is nothing to wait for.
func (m *MightyMini) WaitUntilTarget() error {
	return fmt.Errorf("%w: MightyMini has no target volume register", ErrNotSupported)
}

// FlowRate returns the last flow rate confirmed by the pump in microlitres
// per minute.
func (m *MightyMini) FlowRate() (float64, bool) { return m.flowRate, m.flowRateSet }

// miniRoundTrip writes one bare frame and reads the reply, draining any
// straggling bytes afterwards so they cannot desync the next exchange. A
// reply without the OK prefix is a protocol error.
func (m *MightyMini) miniRoundTrip(cmd []byte, respLen int, op string) ([]byte, error) {
	resp, err := m.roundTrip(cmd, respLen)
	if err != nil {
		return nil, err
	}
	_ = m.ch.ResetInput()
	if len(resp) == 0 {
		return nil, m.noReply(op)
	}
	if !bytes.HasPrefix(resp, []byte(frame.OKPrefix)) {
		m.metrics.incProtocolErrCount()
		return nil, fmt.Errorf("%w: reply %q to %s", ErrProtocol, resp, op)
	}

	return resp, nil
}
