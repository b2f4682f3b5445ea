package frame

import (
	"strconv"
	"strings"
)

// Field widths per pump family. The literal widths and their truncation
// pivots mirror firmware behavior and are authoritative; no unified formula
// beyond them is assumed.
const (
	// Pump11FieldWidth bounds numeric fields on the Pump11 family (and the
	// PHD2000, which shares its framing).
	Pump11FieldWidth = 5
	// Pump33FieldWidth bounds numeric fields on the dual-syringe Pump33.
	Pump33FieldWidth = 6
)

// FormatValue renders a numeric field value as a canonical decimal string:
// shortest representation, no exponent.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Truncate cuts s to the family field width. The cut is character-wise, not a
// numeric rounding, so it changes the value; the returned flag tells the
// caller to warn. For width 5 a decimal point at index 1 shortens the cut to
// 4 characters; for width 6 a decimal point at index 2 shortens it to 5.
// Re-truncating an already-truncated field is a no-op.
func Truncate(s string, width int) (string, bool) {
	if len(s) <= width {
		return s, false
	}
	cut := width
	switch width {
	case Pump11FieldWidth:
		if s[1] == '.' {
			cut = width - 1
		}
	case Pump33FieldWidth:
		if s[2] == '.' {
			cut = width - 1
		}
	}
	return s[:cut], true
}

// RemoveCrud strips formatting noise from a numeric wire field: surrounding
// spaces, trailing fractional zeros, a trailing lone decimal point, and
// leading zeros. Interior characters are never touched, and the function is
// idempotent. An all-crud input (for example "0") strips to the empty string.
func RemoveCrud(s string) string {
	s = strings.Trim(s, " ")
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimLeft(s, "0")
	return s
}

// FieldValue extracts the numeric field carried by a query reply. It drops
// the trailing address+status trailer when present, trims CR/LF padding,
// keeps the first token, and strips crud from it.
func FieldValue(resp []byte) string {
	s := string(resp)
	if n := len(s); n >= 3 && isTrailerChar(s[n-1]) && isDigit(s[n-2]) && isDigit(s[n-3]) {
		s = s[:n-3]
	} else if n >= 1 && isTrailerChar(s[n-1]) {
		s = s[:n-1]
	}
	s = strings.Trim(s, "\r\n ")
	if i := strings.IndexAny(s, " \r\n"); i >= 0 {
		s = s[:i]
	}
	return RemoveCrud(s)
}

// Equal reports whether a requested field and a readback field agree. Fields
// that parse as numbers are compared numerically, so formatting-only
// differences (leading zeros, trailing fraction) do not count as mismatches;
// anything else falls back to exact string comparison.
func Equal(requested, returned string) bool {
	a, errA := strconv.ParseFloat(requested, 64)
	b, errB := strconv.ParseFloat(returned, 64)
	if errA == nil && errB == nil {
		return a == b
	}
	return requested == returned
}

func isTrailerChar(c byte) bool {
	return c == StoppedChar || c == InfusingChar || c == WithdrawingChar || c == PHD2000StoppedChar
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
