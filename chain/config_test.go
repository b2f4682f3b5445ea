package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/fluidlab/go-pumpchain/logger"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig("/dev/ttyUSB0")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port())
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate())
	assert.Equal(t, serial.TwoStopBits, cfg.StopBits())
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConfig_EmptyPort(t *testing.T) {
	_, err := NewConfig("")
	require.Error(t, err)
}

func TestNewConfig_Options(t *testing.T) {
	l := logger.NewMockLogger()
	cfg, err := NewConfig("/dev/ttyUSB1",
		WithBaudRate(19200),
		WithOneStopBit(),
		WithReadTimeout(250*time.Millisecond),
		WithLogger(l),
	)
	require.NoError(t, err)

	assert.Equal(t, 19200, cfg.BaudRate())
	assert.Equal(t, serial.OneStopBit, cfg.StopBits())
	assert.Equal(t, 250*time.Millisecond, cfg.ReadTimeout())
	assert.Same(t, l, cfg.GetLogger())
}

func TestNewConfig_StopBitToggles(t *testing.T) {
	cfg, err := NewConfig("/dev/ttyUSB0", WithOneStopBit(), WithTwoStopBits())
	require.NoError(t, err)
	assert.Equal(t, serial.TwoStopBits, cfg.StopBits(), "last option wins")
}

func TestNewConfig_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero baud rate", WithBaudRate(0)},
		{"negative baud rate", WithBaudRate(-9600)},
		{"read timeout below minimum", WithReadTimeout(time.Millisecond)},
		{"read timeout above maximum", WithReadTimeout(time.Minute)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig("/dev/ttyUSB0", tt.opt)
			require.Error(t, err)
		})
	}
}
