package frame

import "bytes"

// Reply trailer characters common to the addressed pump families.
const (
	// StoppedChar trails replies from a stopped pump.
	StoppedChar = ':'
	// InfusingChar trails replies from a pump running forward.
	InfusingChar = '>'
	// WithdrawingChar trails replies from a pump running backward.
	WithdrawingChar = '<'
	// PHD2000StoppedChar trails the PHD2000's reply to a stop command.
	PHD2000StoppedChar = '*'
)

// OutOfRangeMark is the substring embedded in replies rejecting a value.
const OutOfRangeMark = "OOR"

// OKPrefix is the literal success prefix of MightyMini replies.
const OKPrefix = "OK"

// Status is the run state derived from a pump reply.
type Status byte

const (
	// StatusUnknown means the reply carried no recognizable trailer.
	StatusUnknown Status = iota
	// StatusStopped means the pump reports itself idle.
	StatusStopped
	// StatusInfusing means the pump is running forward.
	StatusInfusing
	// StatusWithdrawing means the pump is running backward.
	StatusWithdrawing
	// StatusOutOfRange means the pump rejected the value it was sent.
	StatusOutOfRange
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusInfusing:
		return "infusing"
	case StatusWithdrawing:
		return "withdrawing"
	case StatusOutOfRange:
		return "out-of-range"
	default:
		return "unknown"
	}
}

// Classify derives the run status from a raw reply. An OOR mark anywhere in
// the payload wins over the trailer character. A zero-length reply returns
// ErrNoResponse; that check precedes all classification.
func Classify(resp []byte) (Status, error) {
	if len(resp) == 0 {
		return StatusUnknown, ErrNoResponse
	}
	if bytes.Contains(resp, []byte(OutOfRangeMark)) {
		return StatusOutOfRange, nil
	}
	switch resp[len(resp)-1] {
	case StoppedChar:
		return StatusStopped, nil
	case InfusingChar:
		return StatusInfusing, nil
	case WithdrawingChar:
		return StatusWithdrawing, nil
	}
	return StatusUnknown, nil
}
