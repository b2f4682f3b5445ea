package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		want Status
	}{
		{"stopped trailer", []byte("\r\n01:"), StatusStopped},
		{"infusing trailer", []byte("\r\n01>"), StatusInfusing},
		{"withdrawing trailer", []byte("\r\n01<"), StatusWithdrawing},
		{"OOR anywhere wins", []byte("\r\nOOR\r\n01:"), StatusOutOfRange},
		{"bare OOR", []byte("OOR"), StatusOutOfRange},
		{"unknown trailer", []byte("\r\n01?"), StatusUnknown},
		{"single status char", []byte(">"), StatusInfusing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.resp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EmptyReply(t *testing.T) {
	// The zero-length check precedes all classification.
	_, err := Classify(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoResponse)

	_, err = Classify([]byte{})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusStopped, "stopped"},
		{StatusInfusing, "infusing"},
		{StatusWithdrawing, "withdrawing"},
		{StatusOutOfRange, "out-of-range"},
		{StatusUnknown, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
