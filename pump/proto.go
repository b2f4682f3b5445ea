package pump

import (
	"bytes"
	"fmt"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/frame"
	"github.com/fluidlab/go-pumpchain/logger"
)

// Command mnemonics shared across the addressed families.
const (
	mnemRun     = "RUN"
	mnemReverse = "REV"
	mnemStop    = "STP"
	mnemVersion = "VER"
)

// Read caps per reply kind. Acks are short; field queries answer with
// CR/LF padding around the value; the rate query can echo a unit banner.
const (
	ackRespLen   = 5
	queryRespLen = 15
	rateRespLen  = 150
	probeRespLen = 17
)

// addressClaimer is satisfied by channels that police per-address ownership,
// notably *chain.Chain. Scripted test channels need not implement it.
type addressClaimer interface {
	Claim(addr int, name string) error
}

// portNamer is satisfied by channels bound to a named serial device.
type portNamer interface {
	Port() string
}

// proto is the command/response engine embedded by every device model. It
// owns the device's slice of the shared channel: one blocking write/read
// round trip at a time, classification of the reply, and the optional
// verify-after-set query.
type proto struct {
	ch      chain.Channel
	addr    int
	name    string
	logger  logger.Logger
	metrics Metrics
}

func (p *proto) init(ch chain.Channel, addr int, cfg *config) {
	p.ch = ch
	p.addr = addr
	p.name = cfg.name
	p.logger = cfg.logger.With("pump", cfg.name)
}

// Name returns the device name used in diagnostics.
func (p *proto) Name() string { return p.name }

// Address returns the device's two-digit chain address.
func (p *proto) Address() int { return p.addr }

// Metrics returns the device's protocol counters.
func (p *proto) Metrics() *Metrics { return &p.metrics }

// bind performs the constructor handshake for an addressed device: validate
// and claim the address, then probe the pump with a version query and check
// the reply's embedded address. Any failure closes the channel before the
// error propagates, so a failed construction never leaks the serial device.
func (p *proto) bind() error {
	if p.addr < 0 || p.addr > chain.MaxAddress {
		_ = p.ch.Close()
		return fmt.Errorf("%w: %d not in [0, %d]", chain.ErrInvalidAddress, p.addr, chain.MaxAddress)
	}
	if c, ok := p.ch.(addressClaimer); ok {
		if err := c.Claim(p.addr, p.name); err != nil {
			_ = p.ch.Close()
			return err
		}
	}
	if err := p.probe(); err != nil {
		_ = p.ch.Close()
		return err
	}

	kv := []any{"address", frame.Address(p.addr)}
	if c, ok := p.ch.(portNamer); ok {
		kv = append(kv, "port", c.Port())
	}
	p.logger.Info("created", kv...)

	return nil
}

// probe sends the version query and requires the trailing embedded address to
// match. This is the liveness check that confirms a pump is connected and
// answering at the expected address.
func (p *proto) probe() error {
	resp, err := p.roundTrip(frame.Encode(p.addr, mnemVersion, ""), probeRespLen)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return p.noReply("version probe")
	}
	got, err := frame.TrailerAddress(resp)
	if err != nil {
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: version probe reply %q", ErrProtocol, resp)
	}
	if got != p.addr {
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: version probe answered from address %02d, want %02d", ErrProtocol, got, p.addr)
	}

	return nil
}

// roundTrip writes one frame and reads back up to respLen bytes.
func (p *proto) roundTrip(cmd []byte, respLen int) ([]byte, error) {
	p.metrics.incCommandSendCount()
	if err := p.ch.Write(cmd); err != nil {
		return nil, err
	}
	resp, err := p.ch.Read(respLen)
	if err != nil {
		return nil, err
	}
	if len(resp) > 0 {
		p.metrics.incReplyRecvCount()
	}

	return resp, nil
}

// command runs one round trip and classifies the reply.
func (p *proto) command(cmd []byte, respLen int) (frame.Status, []byte, error) {
	resp, err := p.roundTrip(cmd, respLen)
	if err != nil {
		return frame.StatusUnknown, nil, err
	}
	if len(resp) == 0 {
		return frame.StatusUnknown, nil, p.noReply(fmt.Sprintf("command %q", cmd))
	}
	st, _ := frame.Classify(resp)

	return st, resp, nil
}

// statusErr maps a rejecting or unrecognized reply status to its error.
// Stopped and both running statuses pass.
func (p *proto) statusErr(st frame.Status, resp []byte) error {
	switch st {
	case frame.StatusOutOfRange:
		p.metrics.incRangeErrCount()
		return fmt.Errorf("%w: reply %q", ErrOutOfRange, resp)
	case frame.StatusUnknown:
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: reply %q", ErrProtocol, resp)
	}

	return nil
}

// verifyField issues a readback query and compares the returned field against
// the requested one, numerically for numeric fields. A mismatch is reported
// through the bool, never as an error; the caller logs it and leaves its
// cache unset.
func (p *proto) verifyField(query []byte, respLen int, requested string) (string, bool, error) {
	resp, err := p.roundTrip(query, respLen)
	if err != nil {
		return "", false, err
	}
	if len(resp) == 0 {
		return "", false, p.noReply(fmt.Sprintf("readback query %q", query))
	}
	returned := frame.FieldValue(resp)
	if !frame.Equal(requested, returned) {
		p.metrics.incVerifyMismatchCount()
		return returned, false, nil
	}

	return returned, true, nil
}

// numericField renders a value for the wire at the family field width,
// warning when truncation changed it.
func (p *proto) numericField(v float64, width int, what string) string {
	s, truncated := frame.Truncate(frame.FormatValue(v), width)
	s = frame.RemoveCrud(s)
	if truncated {
		p.metrics.incTruncationCount()
		p.logger.Warn("value truncated to field width", "field", what, "requested", frame.FormatValue(v), "sent", s)
	}

	return s
}

// runDirection drives the pump into the wanted run state. While the reply
// reports the wrong direction the corrective command is re-issued; any other
// status is a hard failure. Infuse recovers only from a backward-running
// pump; withdraw additionally restarts a stopped one.
func (p *proto) runDirection(want frame.Status) error {
	mnem, verb := mnemRun, "infuse"
	if want == frame.StatusWithdrawing {
		mnem, verb = mnemReverse, "withdraw"
	}
	st, resp, err := p.command(frame.Encode(p.addr, mnem, ""), ackRespLen)
	if err != nil {
		return err
	}
	for st != want {
		var corrective string
		switch {
		case st == frame.StatusWithdrawing && want == frame.StatusInfusing:
			corrective = mnemReverse
		case st == frame.StatusInfusing && want == frame.StatusWithdrawing:
			corrective = mnemReverse
		case st == frame.StatusStopped && want == frame.StatusWithdrawing:
			corrective = mnemRun
		case st == frame.StatusOutOfRange:
			p.metrics.incRangeErrCount()
			return fmt.Errorf("%w: reply %q to %s", ErrOutOfRange, resp, verb)
		default:
			p.metrics.incProtocolErrCount()
			return fmt.Errorf("%w: unexpected reply %q to %s", ErrProtocol, resp, verb)
		}
		p.logger.Debug("correcting run direction", "status", st.String(), "command", corrective)
		st, resp, err = p.command(frame.Encode(p.addr, corrective, ""), ackRespLen)
		if err != nil {
			return err
		}
	}
	p.logger.Info(want.String())

	return nil
}

// stop halts the pump. Each family confirms with its own trailer character.
func (p *proto) stop(okChar byte) error {
	resp, err := p.roundTrip(frame.Encode(p.addr, mnemStop, ""), ackRespLen)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return p.noReply("stop")
	}
	if resp[len(resp)-1] != okChar {
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: unexpected reply %q to stop", ErrProtocol, resp)
	}
	p.logger.Info("stopped")

	return nil
}

// setTarget sends the target-volume field and validates the ack: no OOR
// mark, and this device's address ahead of the status trailer. No readback
// query exists for the target register.
func (p *proto) setTarget(mnemonic, arg string) error {
	resp, err := p.roundTrip(frame.Encode(p.addr, mnemonic, arg), ackRespLen)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return p.noReply("set target volume")
	}
	if st, _ := frame.Classify(resp); st == frame.StatusOutOfRange {
		p.metrics.incRangeErrCount()
		return fmt.Errorf("%w: target volume %s", ErrOutOfRange, arg)
	}
	got, aerr := frame.TrailerAddress(resp)
	if aerr != nil {
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: set target volume reply %q", ErrProtocol, resp)
	}
	if got != p.addr {
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: reply addressed from %02d, want %02d", ErrProtocol, got, p.addr)
	}

	return nil
}

// waitUntilTarget blocks until the volume register converges: two identical
// consecutive polls, or a stopped status after at least one running poll. A
// stopped status on the very first poll means the pump was never started.
// There is no cancellation hook; callers wanting a timeout wrap this
// externally.
func (p *proto) waitUntilTarget(volumeMnemonic string) error {
	p.logger.Info("waiting until target volume reached")
	for i := 0; ; i++ {
		first, err := p.roundTrip(frame.Encode(p.addr, volumeMnemonic, ""), queryRespLen)
		if err != nil {
			return err
		}
		if len(first) == 0 {
			return p.noReply("volume poll")
		}
		if bytes.ContainsRune(first, frame.StoppedChar) {
			if i == 0 {
				return fmt.Errorf("%w: pump not running, infuse or withdraw first", ErrPrecondition)
			}
			p.logger.Info("target volume reached")
			return nil
		}

		second, err := p.roundTrip(frame.Encode(p.addr, volumeMnemonic, ""), queryRespLen)
		if err != nil {
			return err
		}
		if len(second) == 0 {
			return p.noReply("volume poll")
		}
		if bytes.Equal(first, second) {
			p.logger.Info("target volume reached")
			return nil
		}
		p.logger.Debug("volume still moving", "poll", frame.FieldValue(second), "iteration", i)
	}
}

func (p *proto) noReply(op string) error {
	p.metrics.incNoReplyCount()
	return fmt.Errorf("%w: %s", frame.ErrNoResponse, op)
}
