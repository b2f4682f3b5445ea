package pump

import (
	"fmt"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/frame"
)

// Pump33 mnemonics. DIA and RAT take a syringe selector letter and serve
// both set and query; DIR, PAR, and MOD are whole-pump registers.
const (
	mnem33Diameter  = "DIA"
	mnem33Rate      = "RAT"
	mnem33Direction = "DIR"
	mnem33Parallel  = "PAR"
	mnem33Mode      = "MOD"

	// rateUnitSuffix selects microlitres per minute on the rate register.
	rateUnitSuffix = "UM"
)

// Pump33MaxDiameter is the largest syringe bore the Pump33 accepts in
// millimetres.
const Pump33MaxDiameter = 50.0

// Pump33 drives a Harvard Pump 33 dual-syringe pump at one address of a
// chain. Syringe 1 owns the direction register; syringe 2's direction is
// never stored by the hardware, only derived from direction 1 and the
// parallel linkage register. Syringe 2 settings are accepted by the pump
// only in proportional mode, which is queried before any gated frame is
// sent.
type Pump33 struct {
	proto

	diameter    [2]float64
	diameterSet [2]bool
	flowRate    [2]float64
	flowRateSet [2]bool

	dir1       Direction
	dir1Set    bool
	linkage    Linkage
	linkageSet bool
	mode       Mode
	modeSet    bool
}

// NewPump33 binds a Pump33 at addr on the given channel. The address is
// claimed and the pump probed with a version query; on any failure the
// channel is closed before the error returns.
func NewPump33(ch chain.Channel, addr int, opts ...Option) (*Pump33, error) {
	cfg, err := newConfig("33", opts...)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	p := &Pump33{}
	p.init(ch, addr, cfg)
	if err := p.bind(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetDiameter programs one syringe's bore diameter in millimetres. The
// value is range-checked before anything is sent; syringe 2 additionally
// requires proportional mode.
func (p *Pump33) SetDiameter(syr int, mm float64) error {
	letter, err := syringeLetter(syr)
	if err != nil {
		return err
	}
	if mm < MinDiameter || mm > Pump33MaxDiameter {
		p.metrics.incRangeErrCount()
		return fmt.Errorf("%w: diameter %s mm outside [%s, %s]", ErrOutOfRange,
			frame.FormatValue(mm), frame.FormatValue(MinDiameter), frame.FormatValue(Pump33MaxDiameter))
	}
	if err := p.modeGate(syr, "set diameter"); err != nil {
		return err
	}

	arg := p.numericField(mm, frame.Pump33FieldWidth, "diameter")
	st, resp, err := p.command(frame.EncodeSyringe(p.addr, mnem33Diameter, letter, arg), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	returned, ok, err := p.verifyField(frame.EncodeSyringe(p.addr, mnem33Diameter, letter, ""), queryRespLen, arg)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Error("diameter readback disagrees", "syringe", syr, "requested", arg, "returned", returned)
		return nil
	}
	p.diameter[syr-1], p.diameterSet[syr-1] = parseCached(returned)
	p.logger.Info("diameter set", "syringe", syr, "mm", returned)

	return nil
}

// SetFlowRate programs one syringe's pumping rate in microlitres per
// minute. Syringe 2 requires proportional mode; range policing is left to
// the pump, which answers OOR for a rate the installed syringe cannot
// deliver.
func (p *Pump33) SetFlowRate(syr int, rate float64) error {
	letter, err := syringeLetter(syr)
	if err != nil {
		return err
	}
	if err := p.modeGate(syr, "set flow rate"); err != nil {
		return err
	}

	arg := p.numericField(rate, frame.Pump33FieldWidth, "flow rate")
	st, resp, err := p.command(frame.EncodeSyringe(p.addr, mnem33Rate, letter, arg+rateUnitSuffix), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	returned, ok, err := p.verifyField(frame.EncodeSyringe(p.addr, mnem33Rate, letter, ""), rateRespLen, arg)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Error("flow rate readback disagrees", "syringe", syr, "requested", arg, "returned", returned)
		return nil
	}
	p.flowRate[syr-1], p.flowRateSet[syr-1] = parseCached(returned)
	p.logger.Info("flow rate set", "syringe", syr, "ul/min", returned)

	return nil
}

// SetMode programs the operating mode register.
func (p *Pump33) SetMode(m Mode) error {
	switch m {
	case ModeAutoStop, ModeProportional, ModeContinuous:
	default:
		return fmt.Errorf("pump: invalid mode %d", m)
	}

	st, resp, err := p.command(frame.Encode(p.addr, mnem33Mode, " "+m.wire()), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	returned, ok, err := p.verifyField(frame.Encode(p.addr, mnem33Mode, ""), queryRespLen, m.wire())
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Error("mode readback disagrees", "requested", m.wire(), "returned", returned)
		return nil
	}
	p.mode, p.modeSet = m, true
	p.logger.Info("mode set", "mode", m.String())

	return nil
}

// SetDirection steers one syringe. Syringe 1 owns the direction register:
// any change is made with the momentary reverse command, which flips both
// syringes, so a compensating parallel toggle follows to restore syringe
// 2's prior direction. Syringe 2 is steered purely through the parallel
// register and never touches the direction register. DirReverse flips
// whichever direction currently stands.
func (p *Pump33) SetDirection(syr int, d Direction) error {
	if _, err := syringeLetter(syr); err != nil {
		return err
	}
	switch d {
	case DirInfuse, DirRefill, DirReverse:
	default:
		return fmt.Errorf("pump: invalid direction %d", d)
	}
	if err := p.modeGate(syr, "set direction"); err != nil {
		return err
	}
	if syr == 1 {
		return p.setDirection1(d)
	}

	return p.setDirection2(d)
}

func (p *Pump33) setDirection1(d Direction) error {
	cur, err := p.QueryDirection1()
	if err != nil {
		return err
	}
	if d == DirReverse {
		// A bare reverse flips both syringes and needs no compensation.
		if err := p.reverse(); err != nil {
			return err
		}
		return p.confirmDirection(1, DirReverse, cur.Complement())
	}
	if d == cur {
		p.logger.Debug("direction already set", "syringe", 1, "direction", d.String())
		p.dir1, p.dir1Set = cur, true
		return nil
	}

	// Reversing flips syringe 2 as well, so the parallel register is
	// toggled back to leave only syringe 1 changed.
	if err := p.reverse(); err != nil {
		return err
	}
	if err := p.toggleLinkage(); err != nil {
		return err
	}

	return p.confirmDirection(1, d, d)
}

func (p *Pump33) setDirection2(d Direction) error {
	cur, err := p.QueryDirection2()
	if err != nil {
		return err
	}
	want := d
	if d == DirReverse {
		want = cur.Complement()
	}
	if want == cur {
		p.logger.Debug("direction already set", "syringe", 2, "direction", want.String())
		return nil
	}

	// Syringe 2 has no direction register of its own; flipping the
	// parallel register flips its derived direction without disturbing
	// syringe 1.
	if err := p.toggleLinkage(); err != nil {
		return err
	}

	return p.confirmDirection(2, d, want)
}

// confirmDirection reads back the standing direction after a direction
// change. Reverse is momentary, so a reverse request accepts whichever
// standing direction resulted.
func (p *Pump33) confirmDirection(syr int, requested, expected Direction) error {
	var (
		got Direction
		err error
	)
	if syr == 1 {
		got, err = p.QueryDirection1()
	} else {
		got, err = p.QueryDirection2()
	}
	if err != nil {
		return err
	}
	if requested != DirReverse && got != expected {
		p.metrics.incVerifyMismatchCount()
		p.logger.Error("direction readback disagrees",
			"syringe", syr, "requested", expected.String(), "returned", got.String())
		return nil
	}
	if syr == 1 {
		p.dir1, p.dir1Set = got, true
	}
	p.logger.Info("direction set", "syringe", syr, "direction", got.String())

	return nil
}

// reverse issues the momentary direction flip, which inverts the physical
// direction of both syringes at once.
func (p *Pump33) reverse() error {
	st, resp, err := p.command(frame.Encode(p.addr, mnem33Direction, " "+dirReverseWord), ackRespLen)
	if err != nil {
		return err
	}

	return p.statusErr(st, resp)
}

// toggleLinkage reads the parallel register, writes its complement, and
// reads back. A readback that disagrees is logged, not raised.
func (p *Pump33) toggleLinkage() error {
	cur, err := p.QueryLinkage()
	if err != nil {
		return err
	}
	want := cur.complement()
	st, resp, err := p.command(frame.Encode(p.addr, mnem33Parallel, " "+want.wire()), ackRespLen)
	if err != nil {
		return err
	}
	if err := p.statusErr(st, resp); err != nil {
		return err
	}

	got, err := p.QueryLinkage()
	if err != nil {
		return err
	}
	if got != want {
		p.metrics.incVerifyMismatchCount()
		p.logger.Error("parallel register readback disagrees", "requested", want.wire(), "returned", got.wire())
		return nil
	}
	p.linkage, p.linkageSet = want, true
	p.logger.Debug("parallel register toggled", "linkage", want.String())

	return nil
}

// Run starts the pump in whatever direction the registers hold.
func (p *Pump33) Run() error {
	st, resp, err := p.command(frame.Encode(p.addr, mnemRun, ""), ackRespLen)
	if err != nil {
		return err
	}
	if st != frame.StatusInfusing && st != frame.StatusWithdrawing {
		if err := p.statusErr(st, resp); err != nil {
			return err
		}
		p.metrics.incProtocolErrCount()
		return fmt.Errorf("%w: unexpected reply %q to run", ErrProtocol, resp)
	}
	p.logger.Info("running", "status", st.String())

	return nil
}

// Stop halts the pump.
func (p *Pump33) Stop() error {
	return p.stop(frame.StoppedChar)
}

// QueryDirection1 reads syringe 1's standing direction register.
func (p *Pump33) QueryDirection1() (Direction, error) {
	field, err := p.queryRegister(mnem33Direction, "direction query")
	if err != nil {
		return 0, err
	}
	d, err := parseDirection(field)
	if err != nil {
		p.metrics.incProtocolErrCount()
		return 0, err
	}

	return d, nil
}

// QueryDirection2 derives syringe 2's direction from the direction and
// parallel registers.
func (p *Pump33) QueryDirection2() (Direction, error) {
	d1, err := p.QueryDirection1()
	if err != nil {
		return 0, err
	}
	link, err := p.QueryLinkage()
	if err != nil {
		return 0, err
	}

	return DeriveDirection2(d1, link), nil
}

// QueryLinkage reads the parallel register.
func (p *Pump33) QueryLinkage() (Linkage, error) {
	field, err := p.queryRegister(mnem33Parallel, "parallel query")
	if err != nil {
		return 0, err
	}
	l, err := parseLinkage(field)
	if err != nil {
		p.metrics.incProtocolErrCount()
		return 0, err
	}

	return l, nil
}

// QueryMode reads the operating mode register.
func (p *Pump33) QueryMode() (Mode, error) {
	field, err := p.queryRegister(mnem33Mode, "mode query")
	if err != nil {
		return 0, err
	}
	m, err := parseMode(field)
	if err != nil {
		p.metrics.incProtocolErrCount()
		return 0, err
	}

	return m, nil
}

// Diameter returns the verified bore diameter of one syringe in
// millimetres.
func (p *Pump33) Diameter(syr int) (float64, bool) {
	if syr != 1 && syr != 2 {
		return 0, false
	}

	return p.diameter[syr-1], p.diameterSet[syr-1]
}

// FlowRate returns the verified flow rate of one syringe in microlitres per
// minute.
func (p *Pump33) FlowRate(syr int) (float64, bool) {
	if syr != 1 && syr != 2 {
		return 0, false
	}

	return p.flowRate[syr-1], p.flowRateSet[syr-1]
}

// Direction1 returns the cached standing direction of syringe 1.
func (p *Pump33) Direction1() (Direction, bool) { return p.dir1, p.dir1Set }

// Linkage returns the cached parallel register value.
func (p *Pump33) Linkage() (Linkage, bool) { return p.linkage, p.linkageSet }

// Mode returns the cached operating mode.
func (p *Pump33) Mode() (Mode, bool) { return p.mode, p.modeSet }

// modeGate polices the proportional-mode requirement on syringe 2 settings.
// The mode register is queried fresh each time, so a mode changed from the
// front panel is still honored.
func (p *Pump33) modeGate(syr int, op string) error {
	if syr != 2 {
		return nil
	}
	mode, err := p.QueryMode()
	if err != nil {
		return err
	}
	if mode != ModeProportional {
		return fmt.Errorf("%w: %s for syringe 2 requires proportional mode, pump is in %s",
			ErrPrecondition, op, mode)
	}

	return nil
}

// queryRegister reads one whole-pump register and extracts its field.
func (p *Pump33) queryRegister(mnemonic, op string) (string, error) {
	resp, err := p.roundTrip(frame.Encode(p.addr, mnemonic, ""), queryRespLen)
	if err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", p.noReply(op)
	}

	return frame.FieldValue(resp), nil
}

func syringeLetter(syr int) (byte, error) {
	switch syr {
	case 1:
		return 'A', nil
	case 2:
		return 'B', nil
	}

	return 0, fmt.Errorf("pump: invalid syringe %d, must be 1 or 2", syr)
}
