package chain

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/fluidlab/go-pumpchain/logger"
)

// Default serial parameters for Harvard/SSI pump chains.
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 100 * time.Millisecond
)

// Read timeout range limits. The protocol paces itself on short silent
// windows; anything much longer stalls every polling loop.
const (
	MinReadTimeout = 10 * time.Millisecond
	MaxReadTimeout = 5 * time.Second
)

// MaxAddress is the highest pump address expressible in the 2-digit wire field.
const MaxAddress = 99

// Config holds all configuration for a pump chain.
type Config struct {
	port string

	baudRate int

	// stopBits is two for the addressed families; MightyMini links use one.
	stopBits serial.StopBits

	// readTimeout bounds each read round trip; replies arriving after the
	// window are treated as absent.
	readTimeout time.Duration

	logger logger.Logger
}

// NewConfig creates a new chain configuration.
//
// port is the serial device path. opts are functional options applied in
// order; see With* functions.
func NewConfig(port string, opts ...Option) (*Config, error) {
	cfg := &Config{
		baudRate:    DefaultBaudRate,
		stopBits:    serial.TwoStopBits,
		readTimeout: DefaultReadTimeout,
		logger:      logger.GetLogger(),
	}

	if port == "" {
		return nil, errors.New("chain: serial port must not be empty")
	}
	cfg.port = port

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Port returns the configured serial device path.
func (cfg *Config) Port() string { return cfg.port }

// BaudRate returns the configured baud rate.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// StopBits returns the configured stop-bit count.
func (cfg *Config) StopBits() serial.StopBits { return cfg.stopBits }

// ReadTimeout returns the per-read timeout window.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a chain.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the baud rate. Pump chains typically run at 1200-19200.
func WithBaudRate(rate int) Option {
	return optFunc(func(cfg *Config) error {
		if rate <= 0 {
			return fmt.Errorf("chain: baud rate %d must be positive", rate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithTwoStopBits configures two stop bits, the addressed families'
// convention. This is the default.
func WithTwoStopBits() Option {
	return optFunc(func(cfg *Config) error {
		cfg.stopBits = serial.TwoStopBits

		return nil
	})
}

// WithOneStopBit configures a single stop bit, used by MightyMini links.
func WithOneStopBit() Option {
	return optFunc(func(cfg *Config) error {
		cfg.stopBits = serial.OneStopBit

		return nil
	})
}

// WithReadTimeout sets the per-read timeout window.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinReadTimeout || d > MaxReadTimeout {
			return fmt.Errorf("chain: read timeout %v out of range [%v, %v]", d, MinReadTimeout, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the chain.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("chain: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
