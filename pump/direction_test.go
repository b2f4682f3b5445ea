package pump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDirection2(t *testing.T) {
	tests := []struct {
		name string
		dir1 Direction
		link Linkage
		want Direction
	}{
		{name: "parallel copies infuse", dir1: DirInfuse, link: LinkParallel, want: DirInfuse},
		{name: "parallel copies refill", dir1: DirRefill, link: LinkParallel, want: DirRefill},
		{name: "reciprocal complements infuse", dir1: DirInfuse, link: LinkReciprocal, want: DirRefill},
		{name: "reciprocal complements refill", dir1: DirRefill, link: LinkReciprocal, want: DirInfuse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveDirection2(tt.dir1, tt.link)
			assert.Equal(t, tt.want, got)

			// direction2 equals direction1 exactly when the linkage is
			// parallel.
			assert.Equal(t, tt.link == LinkParallel, got == tt.dir1)
		})
	}
}

func TestDirection_Complement(t *testing.T) {
	assert.Equal(t, DirRefill, DirInfuse.Complement())
	assert.Equal(t, DirInfuse, DirRefill.Complement())
	// Reverse is momentary; it has no opposite standing state.
	assert.Equal(t, DirReverse, DirReverse.Complement())
}

func TestParseDirection(t *testing.T) {
	d, err := parseDirection("INFUSE")
	require.NoError(t, err)
	assert.Equal(t, DirInfuse, d)

	d, err = parseDirection("REFILL")
	require.NoError(t, err)
	assert.Equal(t, DirRefill, d)

	_, err = parseDirection("SIDEWAYS")
	require.ErrorIs(t, err, ErrProtocol)
}

func TestParseLinkage(t *testing.T) {
	l, err := parseLinkage("ON")
	require.NoError(t, err)
	assert.Equal(t, LinkParallel, l)

	l, err = parseLinkage("OFF")
	require.NoError(t, err)
	assert.Equal(t, LinkReciprocal, l)

	_, err = parseLinkage("MAYBE")
	require.ErrorIs(t, err, ErrProtocol)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		field string
		want  Mode
	}{
		{field: "AUT", want: ModeAutoStop},
		{field: "PRO", want: ModeProportional},
		{field: "CON", want: ModeContinuous},
	}
	for _, tt := range tests {
		m, err := parseMode(tt.field)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m)
		assert.Equal(t, tt.field, m.wire(), "wire word must round-trip")
	}

	_, err := parseMode("OFF")
	require.ErrorIs(t, err, ErrProtocol)
}

func TestLinkage_Complement(t *testing.T) {
	assert.Equal(t, LinkReciprocal, LinkParallel.complement())
	assert.Equal(t, LinkParallel, LinkReciprocal.complement())
}

func TestDirectionStrings(t *testing.T) {
	assert.Equal(t, "infuse", DirInfuse.String())
	assert.Equal(t, "refill", DirRefill.String())
	assert.Equal(t, "reverse", DirReverse.String())
	assert.Equal(t, "parallel", LinkParallel.String())
	assert.Equal(t, "reciprocal", LinkReciprocal.String())
	assert.Equal(t, "auto stop", ModeAutoStop.String())
	assert.Equal(t, "proportional", ModeProportional.String())
	assert.Equal(t, "continuous", ModeContinuous.String())
}
