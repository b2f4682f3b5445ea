package pump

import (
	"fmt"
	"strconv"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/frame"
)

// Pump11 mnemonics. Settings are written through one mnemonic and read back
// for verification through another.
const (
	mnem11SetDiameter   = "MMD"
	mnem11QueryDiameter = "DIA"
	mnem11SetRate       = "ULM"
	mnem11QueryRate     = "RAT"
	mnem11SetTarget     = "MLT"
	mnem11QueryVolume   = "VOL"
)

// Syringe bore limits in millimetres for the Pump11 family.
const (
	// MinDiameter is the smallest syringe bore the driver accepts.
	MinDiameter = 0.1
	// Pump11MaxDiameter is the largest bore the Pump11 family accepts.
	Pump11MaxDiameter = 35.0
)

// Pump11 drives a Harvard Pump 11 style syringe pump at one address of a
// chain. PHD2000 embeds it and overrides only the quirks that differ.
//
// Settings caches hold the last value a readback verified; they start unset
// and stay unset after a readback mismatch.
type Pump11 struct {
	proto

	diameter        float64
	diameterSet     bool
	flowRate        float64
	flowRateSet     bool
	targetVolume    float64
	targetVolumeSet bool
}

var _ Device = (*Pump11)(nil)

// NewPump11 binds a Pump11 at addr on the given channel. The address is
// claimed and the pump probed with a version query; on any failure the
// channel is closed before the error returns.
func NewPump11(ch chain.Channel, addr int, opts ...Option) (*Pump11, error) {
	cfg, err := newConfig("11", opts...)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	p := &Pump11{}
	p.init(ch, addr, cfg)
	if err := p.bind(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetDiameter programs the syringe bore diameter in millimetres. The value
// is range-checked before anything is sent and truncated to the field width
// on the wire, then read back. A readback that disagrees is logged and
// leaves the cached diameter unset.
func (p *Pump11) SetDiameter(mm float64) error {
	if mm < MinDiameter || mm > Pump11MaxDiameter {
		p.metrics.incRangeErrCount()
		return fmt.Errorf("%w: diameter %s mm outside [%s, %s]", ErrOutOfRange,
			frame.FormatValue(mm), frame.FormatValue(MinDiameter), frame.FormatValue(Pump11MaxDiameter))
	}

	arg := p.numericField(mm, frame.Pump11FieldWidth, "diameter")
	st, resp, err := p.command(frame.Encode(p.addr, mnem11SetDiameter, arg), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	returned, ok, err := p.verifyField(frame.Encode(p.addr, mnem11QueryDiameter, ""), queryRespLen, arg)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Error("diameter readback disagrees", "requested", arg, "returned", returned)
		return nil
	}
	p.diameter, p.diameterSet = parseCached(returned)
	p.logger.Info("diameter set", "mm", returned)

	return nil
}

// SetFlowRate programs the pumping rate in microlitres per minute. Range
// policing is left to the pump, which answers OOR for a rate the installed
// syringe cannot deliver.
func (p *Pump11) SetFlowRate(rate float64) error {
	arg := p.numericField(rate, frame.Pump11FieldWidth, "flow rate")
	st, resp, err := p.command(frame.Encode(p.addr, mnem11SetRate, arg), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	returned, ok, err := p.verifyField(frame.Encode(p.addr, mnem11QueryRate, ""), rateRespLen, arg)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Error("flow rate readback disagrees", "requested", arg, "returned", returned)
		return nil
	}
	p.flowRate, p.flowRateSet = parseCached(returned)
	p.logger.Info("flow rate set", "ul/min", returned)

	return nil
}

// SetTargetVolume programs the volume in microlitres at which the pump
// stops itself. The target register has no readback query, so the ack's
// embedded address stands in for verification.
func (p *Pump11) SetTargetVolume(volume float64) error {
	if err := p.setTarget(mnem11SetTarget, frame.FormatValue(volume)); err != nil {
		return err
	}
	p.targetVolume, p.targetVolumeSet = volume, true
	p.logger.Info("target volume set", "ul", frame.FormatValue(volume))

	return nil
}

// Infuse starts the pump in the forward direction, reversing it first when
// it reports itself running backward.
func (p *Pump11) Infuse() error {
	return p.runDirection(frame.StatusInfusing)
}

// Withdraw starts the pump in the reverse direction, restarting or
// reversing it as needed.
func (p *Pump11) Withdraw() error {
	return p.runDirection(frame.StatusWithdrawing)
}

// Stop halts the pump.
func (p *Pump11) Stop() error {
	return p.stop(frame.StoppedChar)
}

// WaitUntilTarget blocks until the volume register stops moving or the pump
// reports itself stopped. It returns ErrPrecondition when the pump was not
// running to begin with.
func (p *Pump11) WaitUntilTarget() error {
	return p.waitUntilTarget(mnem11QueryVolume)
}

// Diameter returns the syringe diameter in millimetres. The bool is false
// until a SetDiameter round trip has verified cleanly.
func (p *Pump11) Diameter() (float64, bool) { return p.diameter, p.diameterSet }

// FlowRate returns the verified flow rate in microlitres per minute.
func (p *Pump11) FlowRate() (float64, bool) { return p.flowRate, p.flowRateSet }

// TargetVolume returns the last accepted target volume in microlitres.
func (p *Pump11) TargetVolume() (float64, bool) { return p.targetVolume, p.targetVolumeSet }

// parseCached converts a verified readback field for the settings cache.
func parseCached(field string) (float64, bool) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
