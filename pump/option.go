package pump

import (
	"errors"

	"github.com/fluidlab/go-pumpchain/logger"
)

type config struct {
	name   string
	logger logger.Logger
}

func newConfig(defaultName string, opts ...Option) (*config, error) {
	cfg := &config{
		name:   defaultName,
		logger: logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option is a functional option for configuring a device model.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithName sets the device name used in diagnostics. Each family carries a
// sensible default.
func WithName(name string) Option {
	return optFunc(func(cfg *config) error {
		if name == "" {
			return errors.New("pump: name must not be empty")
		}
		cfg.name = name

		return nil
	})
}

// WithLogger sets the logger for the device model.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("pump: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
