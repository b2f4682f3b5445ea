package pump

import (
	"strconv"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/frame"
)

// PHD2000 drives a Harvard PHD2000 syringe pump. It behaves as a Pump11
// except for two firmware quirks: a stop is acknowledged with '*' and the
// target volume register works in millilitres.
type PHD2000 struct {
	Pump11
}

var _ Device = (*PHD2000)(nil)

// NewPHD2000 binds a PHD2000 at addr on the given channel. The address is
// claimed and the pump probed with a version query; on any failure the
// channel is closed before the error returns.
func NewPHD2000(ch chain.Channel, addr int, opts ...Option) (*PHD2000, error) {
	cfg, err := newConfig("PHD2000", opts...)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	p := &PHD2000{}
	p.init(ch, addr, cfg)
	if err := p.bind(); err != nil {
		return nil, err
	}

	return p, nil
}

// Stop halts the pump. The PHD2000 acknowledges with '*' instead of the
// usual stopped trailer.
func (p *PHD2000) Stop() error {
	return p.stop(frame.PHD2000StoppedChar)
}

// SetTargetVolume programs the volume in microlitres at which the pump
// stops itself. The PHD2000's target register takes millilitres, so the
// value converts down on the wire and the cache converts back up. Its
// firmware also rejects long fields; the argument is cut flat to the field
// width rather than at a digit boundary.
func (p *PHD2000) SetTargetVolume(volume float64) error {
	ml := frame.FormatValue(volume / 1000)
	if len(ml) > frame.Pump11FieldWidth {
		p.metrics.incTruncationCount()
		p.logger.Warn("value truncated to field width",
			"field", "target volume", "requested", ml, "sent", ml[:frame.Pump11FieldWidth])
		ml = ml[:frame.Pump11FieldWidth]
	}
	if err := p.setTarget(mnem11SetTarget, ml); err != nil {
		return err
	}
	sent, _ := strconv.ParseFloat(ml, 64)
	p.targetVolume, p.targetVolumeSet = sent*1000, true
	p.logger.Info("target volume set", "ul", frame.FormatValue(sent*1000))

	return nil
}
