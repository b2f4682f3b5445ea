// Package config loads chain definition files for the pumpctl command.
//
// A chain definition is a small YAML document naming the serial device, its
// line parameters, and the pumps expected on the bus:
//
//	port: /dev/ttyUSB0
//	baud_rate: 9600
//	stop_bits: 2
//	read_timeout_ms: 100
//	pumps:
//	  - name: donor
//	    family: pump11
//	    address: 0
//	  - name: acceptor
//	    family: phd2000
//	    address: 1
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fluidlab/go-pumpchain/chain"
)

// Family names accepted in a chain definition.
const (
	FamilyPump11     = "pump11"
	FamilyPHD2000    = "phd2000"
	FamilyMightyMini = "mightymini"
	FamilyPump33     = "pump33"
)

// Chain describes one serial bus and the pumps expected on it.
type Chain struct {
	Port          string `yaml:"port"`
	BaudRate      int    `yaml:"baud_rate"`
	StopBits      int    `yaml:"stop_bits"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
	Pumps         []Pump `yaml:"pumps"`
}

// Pump describes one device on the chain. Address is ignored for the
// unaddressed mightymini family.
type Pump struct {
	Name    string `yaml:"name"`
	Family  string `yaml:"family"`
	Address int    `yaml:"address"`
}

// Load reads, defaults, and validates a chain definition file.
func Load(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Chain
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Options renders the line parameters as chain.Open options.
func (c *Chain) Options() []chain.Option {
	opts := []chain.Option{
		chain.WithBaudRate(c.BaudRate),
		chain.WithReadTimeout(time.Duration(c.ReadTimeoutMS) * time.Millisecond),
	}
	if c.StopBits == 1 {
		opts = append(opts, chain.WithOneStopBit())
	} else {
		opts = append(opts, chain.WithTwoStopBits())
	}

	return opts
}

func (c *Chain) validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.BaudRate == 0 {
		c.BaudRate = chain.DefaultBaudRate
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("config: baud_rate %d must be positive", c.BaudRate)
	}
	if c.StopBits == 0 {
		c.StopBits = 2
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("config: stop_bits %d must be 1 or 2", c.StopBits)
	}
	if c.ReadTimeoutMS == 0 {
		c.ReadTimeoutMS = int(chain.DefaultReadTimeout / time.Millisecond)
	}
	timeout := time.Duration(c.ReadTimeoutMS) * time.Millisecond
	if timeout < chain.MinReadTimeout || timeout > chain.MaxReadTimeout {
		return fmt.Errorf("config: read_timeout_ms %d out of range [%v, %v]",
			c.ReadTimeoutMS, chain.MinReadTimeout, chain.MaxReadTimeout)
	}
	if len(c.Pumps) == 0 {
		return errors.New("config: at least one pump is required")
	}

	names := make(map[string]bool, len(c.Pumps))
	addrs := make(map[int]string, len(c.Pumps))
	minis := 0
	for i, p := range c.Pumps {
		if p.Name == "" {
			return fmt.Errorf("config: pumps[%d]: name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("config: duplicate pump name %q", p.Name)
		}
		names[p.Name] = true

		switch p.Family {
		case FamilyPump11, FamilyPHD2000, FamilyPump33:
			if p.Address < 0 || p.Address > chain.MaxAddress {
				return fmt.Errorf("config: pump %q: address %d not in [0, %d]",
					p.Name, p.Address, chain.MaxAddress)
			}
			if owner, dup := addrs[p.Address]; dup {
				return fmt.Errorf("config: pump %q: address %d already used by %q",
					p.Name, p.Address, owner)
			}
			addrs[p.Address] = p.Name
		case FamilyMightyMini:
			// Unaddressed: the whole line belongs to it.
			minis++
			if minis > 1 {
				return fmt.Errorf("config: pump %q: only one mightymini fits on a chain", p.Name)
			}
		default:
			return fmt.Errorf("config: pump %q: unknown family %q", p.Name, p.Family)
		}
	}

	return nil
}
