// Package chain drives the shared serial bus onto which addressable syringe
// pumps are daisy-chained.
//
// A Chain wraps one serial device and exposes the byte-channel contract the
// device models consume: write a frame, read up to N bytes within a fixed
// timeout window, reset the input buffer, close. The bus is half-duplex and
// address-multiplexed, so operations must not be interleaved; callers issue
// one command/response round trip at a time. The chain additionally keeps an
// address-claim registry so two device models cannot be bound to the same
// address by mistake.
package chain

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.bug.st/serial"

	"github.com/fluidlab/go-pumpchain/logger"
)

var (
	// ErrClosed indicates an operation on a closed chain.
	ErrClosed = errors.New("chain: chain closed")

	// ErrAddressClaimed indicates the bus address is already bound to
	// another device model.
	ErrAddressClaimed = errors.New("chain: address already claimed")

	// ErrInvalidAddress indicates an address outside the 2-digit wire range.
	ErrInvalidAddress = errors.New("chain: address out of range")
)

// Channel is the byte-channel contract consumed by the device models.
//
// Read returns whatever bytes arrived within the chain's timeout window; a
// short or empty result is not an error at this layer. Close must be safe to
// call more than once.
type Channel interface {
	Write(data []byte) error
	Read(maxBytes int) ([]byte, error)
	ResetInput() error
	Close() error
}

// Chain is a serial pump chain.
type Chain struct {
	cfg    *Config
	port   serial.Port
	logger logger.Logger
	claims *xsync.MapOf[int, string]
	closed atomic.Bool
}

var _ Channel = (*Chain)(nil)

// Open opens the serial device and configures it for the pump chain:
// 8 data bits, no parity, two stop bits unless overridden, and the fixed
// per-read timeout. The input and output buffers are cleared so the first
// command starts from a quiet line.
func Open(port string, opts ...Option) (*Chain, error) {
	cfg, err := NewConfig(port, opts...)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: cfg.stopBits,
	}
	p, err := serial.Open(cfg.port, mode)
	if err != nil {
		return nil, fmt.Errorf("chain: open %s: %w", cfg.port, err)
	}
	if err := p.SetReadTimeout(cfg.readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("chain: set read timeout: %w", err)
	}
	_ = p.ResetInputBuffer()
	_ = p.ResetOutputBuffer()

	c := &Chain{
		cfg:    cfg,
		port:   p,
		logger: cfg.logger,
		claims: xsync.NewMapOf[int, string](),
	}
	c.logger.Debug("chain: opened", "port", cfg.port, "baud", cfg.baudRate, "timeout", cfg.readTimeout)

	return c, nil
}

// Port returns the serial device path this chain is bound to.
func (c *Chain) Port() string { return c.cfg.port }

// Write sends a complete frame down the chain.
func (c *Chain) Write(data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if _, err := c.port.Write(data); err != nil {
		return fmt.Errorf("chain: write: %w", err)
	}
	c.logger.Debug("chain: tx", "frame", string(data))

	return nil
}

// Read reads up to maxBytes from the chain, returning whatever arrived within
// the configured timeout window. The result may be shorter than requested or
// empty; interpreting an empty reply is the caller's concern.
func (c *Chain) Read(maxBytes int) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	buf := make([]byte, maxBytes)
	have := 0
	deadline := time.Now().Add(c.cfg.readTimeout)
	for have < maxBytes {
		n, err := c.port.Read(buf[have:])
		if err != nil {
			return nil, fmt.Errorf("chain: read: %w", err)
		}
		have += n
		// A zero-byte read means a full timeout window of silence.
		if n == 0 || !time.Now().Before(deadline) {
			break
		}
	}
	c.logger.Debug("chain: rx", "reply", string(buf[:have]))

	return buf[:have], nil
}

// ResetInput discards any unread bytes buffered on the chain.
func (c *Chain) ResetInput() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("chain: reset input: %w", err)
	}

	return nil
}

// Close closes the serial device. It is idempotent; callers may defer it
// even when a device constructor already closed the chain on failure.
func (c *Chain) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debug("chain: closed", "port", c.cfg.port)
	if err := c.port.Close(); err != nil {
		return fmt.Errorf("chain: close: %w", err)
	}

	return nil
}

// Claim reserves a bus address for a named device model. It fails when the
// address is outside [0, MaxAddress] or already held.
func (c *Chain) Claim(addr int, name string) error {
	if addr < 0 || addr > MaxAddress {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidAddress, addr, MaxAddress)
	}
	if owner, loaded := c.claims.LoadOrStore(addr, name); loaded {
		return fmt.Errorf("%w: address %02d held by %s", ErrAddressClaimed, addr, owner)
	}

	return nil
}

// Release frees a claimed bus address.
func (c *Chain) Release(addr int) {
	c.claims.Delete(addr)
}
