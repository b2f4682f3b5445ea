// Command pumpctl drives a single-syringe pump on a Harvard/SSI serial
// chain.
//
// Single-pump usage names the serial device and the pump directly:
//
//	pumpctl -port /dev/ttyUSB0 -family pump11 -address 0 -d 14 -f 120 -t 500 -infuse -w
//
// Chain-definition usage picks one pump out of a YAML chain file:
//
//	pumpctl -chain lab.yaml -pump donor -stop
//
// The action flags apply in a fixed order regardless of their order on the
// command line: stop, diameter, flow rate, target volume, then infuse or
// withdraw. With -w the command blocks after starting until the pump reports
// the target volume reached.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fluidlab/go-pumpchain/chain"
	"github.com/fluidlab/go-pumpchain/internal/config"
	"github.com/fluidlab/go-pumpchain/logger"
	"github.com/fluidlab/go-pumpchain/pump"
)

type options struct {
	port    string
	family  string
	address int
	name    string
	baud    int

	chainFile string
	pumpName  string

	diameter float64
	flowRate float64
	target   float64

	infuse   bool
	withdraw bool
	stop     bool
	wait     bool
	verbose  bool
}

// binding is the resolved chain/pump selection from either flag mode.
type binding struct {
	port      string
	chainOpts []chain.Option
	family    string
	address   int
	name      string
}

func main() {
	opts := parseFlags()

	log := logger.NewSlog(logger.InfoLevel, false)
	if opts.verbose {
		log.SetLevel(logger.DebugLevel)
	}

	if err := run(opts, log); err != nil {
		log.Error("pumpctl failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.port, "port", "", "serial device of the pump chain")
	flag.StringVar(&opts.family, "family", config.FamilyPump11, "pump family: pump11, phd2000 or mightymini")
	flag.IntVar(&opts.address, "address", 0, "pump address on the chain (0-99)")
	flag.StringVar(&opts.name, "name", "", "pump name used in logs")
	flag.IntVar(&opts.baud, "baud", chain.DefaultBaudRate, "baud rate of the chain")
	flag.StringVar(&opts.chainFile, "chain", "", "chain definition YAML (replaces -port/-family/-address)")
	flag.StringVar(&opts.pumpName, "pump", "", "pump to select from the chain definition")
	flag.Float64Var(&opts.diameter, "d", -1, "set the syringe diameter in mm")
	flag.Float64Var(&opts.flowRate, "f", -1, "set the flow rate in uL/min")
	flag.Float64Var(&opts.target, "t", -1, "set the target volume in uL")
	flag.BoolVar(&opts.infuse, "infuse", false, "start infusing")
	flag.BoolVar(&opts.withdraw, "withdraw", false, "start withdrawing")
	flag.BoolVar(&opts.stop, "stop", false, "stop the pump")
	flag.BoolVar(&opts.wait, "w", false, "wait until the target volume is reached after starting")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging, including raw frames")
	flag.Parse()

	return opts
}

func run(opts *options, log logger.Logger) error {
	if opts.infuse && opts.withdraw {
		return errors.New("choose one of -infuse and -withdraw")
	}

	b, err := resolve(opts, log)
	if err != nil {
		return err
	}

	c, err := chain.Open(b.port, b.chainOpts...)
	if err != nil {
		return err
	}
	defer c.Close()

	dev, err := newDevice(c, b, log)
	if err != nil {
		return err
	}

	return execute(dev, opts)
}

// resolve turns either flag mode into one concrete chain/pump binding.
func resolve(opts *options, log logger.Logger) (*binding, error) {
	if opts.chainFile != "" {
		cfg, err := config.Load(opts.chainFile)
		if err != nil {
			return nil, err
		}
		if opts.pumpName == "" {
			return nil, errors.New("-chain requires -pump to select a pump")
		}
		for _, p := range cfg.Pumps {
			if p.Name != opts.pumpName {
				continue
			}
			return &binding{
				port:      cfg.Port,
				chainOpts: append(cfg.Options(), chain.WithLogger(log)),
				family:    p.Family,
				address:   p.Address,
				name:      p.Name,
			}, nil
		}
		return nil, fmt.Errorf("pump %q not found in %s", opts.pumpName, opts.chainFile)
	}

	if opts.port == "" {
		return nil, errors.New("-port is required without -chain")
	}
	chainOpts := []chain.Option{
		chain.WithBaudRate(opts.baud),
		chain.WithLogger(log),
	}
	if opts.family == config.FamilyMightyMini {
		// MightyMini links run one stop bit instead of the chain default.
		chainOpts = append(chainOpts, chain.WithOneStopBit())
	}

	return &binding{
		port:      opts.port,
		chainOpts: chainOpts,
		family:    opts.family,
		address:   opts.address,
		name:      opts.name,
	}, nil
}

func newDevice(c *chain.Chain, b *binding, log logger.Logger) (pump.Device, error) {
	popts := []pump.Option{pump.WithLogger(log)}
	if b.name != "" {
		popts = append(popts, pump.WithName(b.name))
	}

	switch b.family {
	case config.FamilyPump11:
		return pump.NewPump11(c, b.address, popts...)
	case config.FamilyPHD2000:
		return pump.NewPHD2000(c, b.address, popts...)
	case config.FamilyMightyMini:
		return pump.NewMightyMini(c, popts...)
	case config.FamilyPump33:
		return nil, errors.New("pumpctl drives single-syringe pumps; use the library API for the pump33")
	}

	return nil, fmt.Errorf("unknown pump family %q", b.family)
}

func execute(dev pump.Device, opts *options) error {
	did := false

	if opts.stop {
		did = true
		if err := dev.Stop(); err != nil {
			return err
		}
	}
	if opts.diameter >= 0 {
		did = true
		if err := dev.SetDiameter(opts.diameter); err != nil {
			return err
		}
	}
	if opts.flowRate >= 0 {
		did = true
		if err := dev.SetFlowRate(opts.flowRate); err != nil {
			return err
		}
	}
	if opts.target >= 0 {
		did = true
		if err := dev.SetTargetVolume(opts.target); err != nil {
			return err
		}
	}

	if opts.infuse || opts.withdraw {
		did = true
		var err error
		if opts.infuse {
			err = dev.Infuse()
		} else {
			err = dev.Withdraw()
		}
		if err != nil {
			return err
		}
		if opts.wait {
			return dev.WaitUntilTarget()
		}
	}

	if !did {
		return errors.New("nothing to do: pass -stop, -d, -f, -t, -infuse or -withdraw")
	}

	return nil
}
