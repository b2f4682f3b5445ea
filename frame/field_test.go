package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Crud removal tests ---

func TestRemoveCrud(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"surrounding zeros and space", "0030.2000 ", "30.2"},
		{"trailing lone point", "5.", "5"},
		{"leading zero before fraction", "0.10", ".1"},
		{"leading zeros with fraction", "003.200", "3.2"},
		{"leading spaces", "  22.5", "22.5"},
		{"integer untouched", "100", "100"},
		{"interior zeros kept", "10.05", "10.05"},
		{"already clean", "3.14", "3.14"},
		{"all crud", "000", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveCrud(tt.in))
		})
	}
}

func TestRemoveCrud_Idempotent(t *testing.T) {
	inputs := []string{"0030.2000 ", "5.", "0.10", "003.200", "100", "", "000", " 0.500 ", "9999"}
	for _, in := range inputs {
		once := RemoveCrud(in)
		assert.Equal(t, once, RemoveCrud(once), "removing crud twice must equal removing it once for %q", in)
	}
}

// --- Truncation tests ---

func TestTruncate_Pump11Width(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		truncated bool
	}{
		{"fits", "30.22", "30.22", false},
		{"short", "5", "5", false},
		{"point at index 1", "3.14159", "3.14", true},
		{"point at index 2", "30.2222", "30.22", true},
		{"no point", "123456789", "12345", true},
		{"point past pivot", "12345.6", "12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := Truncate(tt.in, Pump11FieldWidth)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

func TestTruncate_Pump33Width(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		truncated bool
	}{
		{"fits", "22.567", "22.567", false},
		{"point at index 2", "22.56789", "22.56", true},
		{"point at index 3", "123.4567", "123.45", true},
		{"point at index 1", "5.123456", "5.1234", true},
		{"no point", "12345678", "123456", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := Truncate(tt.in, Pump33FieldWidth)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

func TestTruncate_Idempotent(t *testing.T) {
	// Re-truncating an already-truncated field must be a no-op.
	for _, width := range []int{Pump11FieldWidth, Pump33FieldWidth} {
		for _, in := range []string{"3.14159", "30.2222", "22.56789", "123.4567", "987654321"} {
			once, _ := Truncate(in, width)
			twice, again := Truncate(once, width)
			assert.Equal(t, once, twice, "width %d input %q", width, in)
			assert.False(t, again, "second truncation must report no cut for %q", in)
		}
	}
}

// --- Formatting tests ---

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{3.14, "3.14"},
		{0.5, "0.5"},
		{9999, "9999"},
		{22.56, "22.56"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

// --- Reply field extraction tests ---

func TestFieldValue(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		want string
	}{
		{"addressed diameter reply", []byte("\r\n22.500\r\n01:"), "22.5"},
		{"addressed rate reply with units", []byte("\r\n 5.0000 ul/min\r\n33>"), "5"},
		{"bare status trailer", []byte("6.2:"), "6.2"},
		{"register word reply", []byte("\r\nINFUSE\r\n03:"), "INFUSE"},
		{"no trailer", []byte("0.500"), ".5"},
		{"volume while running", []byte("\r\n1.2500\r\n07>"), "1.25"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldValue(tt.resp))
		})
	}
}

// --- Field equality tests ---

func TestEqual(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		returned  string
		want      bool
	}{
		{"identical", "22.5", "22.5", true},
		{"formatting-only difference", ".1", "0.1", true},
		{"trailing fraction difference", "5", "5.0", true},
		{"numeric mismatch", "22.5", "22.56", false},
		{"non-numeric exact", "INFUSE", "INFUSE", true},
		{"non-numeric mismatch", "INFUSE", "REFILL", false},
		{"unparsable vs number", "", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.requested, tt.returned))
		})
	}
}
