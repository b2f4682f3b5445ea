package chain

import (
	"testing"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluidlab/go-pumpchain/logger"
)

// newClaimOnlyChain builds a chain with no serial device behind it, enough to
// exercise the claim registry and the closed-state guards.
func newClaimOnlyChain(t *testing.T) *Chain {
	t.Helper()
	cfg, err := NewConfig("/dev/null")
	require.NoError(t, err)

	return &Chain{
		cfg:    cfg,
		logger: logger.GetLogger(),
		claims: xsync.NewMapOf[int, string](),
	}
}

// --- Claim registry tests ---

func TestChain_Claim(t *testing.T) {
	c := newClaimOnlyChain(t)

	require.NoError(t, c.Claim(11, "pump11"))
	require.NoError(t, c.Claim(12, "phd2000"))

	err := c.Claim(11, "another")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAddressClaimed)
	assert.Contains(t, err.Error(), "pump11", "error should name the holder")
}

func TestChain_Claim_InvalidAddress(t *testing.T) {
	c := newClaimOnlyChain(t)

	for _, addr := range []int{-1, 100, 1000} {
		err := c.Claim(addr, "pump")
		require.Error(t, err, "address %d", addr)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	}
}

func TestChain_Release(t *testing.T) {
	c := newClaimOnlyChain(t)

	require.NoError(t, c.Claim(7, "first"))
	c.Release(7)
	assert.NoError(t, c.Claim(7, "second"), "released address must be claimable again")
}

// --- Closed-state tests ---

func TestChain_ClosedGuards(t *testing.T) {
	c := newClaimOnlyChain(t)
	c.closed.Store(true)

	err := c.Write([]byte("01RUN\r"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = c.Read(5)
	assert.ErrorIs(t, err, ErrClosed)

	err = c.ResetInput()
	assert.ErrorIs(t, err, ErrClosed)

	// Closing an already-closed chain is a no-op.
	assert.NoError(t, c.Close())
}
