package pump

import "errors"

var (
	// ErrOutOfRange indicates the pump rejected a value with an OOR reply,
	// or a pre-send range check rejected it first.
	ErrOutOfRange = errors.New("pump: value out of range")

	// ErrProtocol indicates an unrecognized reply: a status trailer outside
	// the family's conventions, a garbled payload, or an embedded address
	// that does not match the device. Usually a sign of bus desync or of the
	// wrong pump family being assumed.
	ErrProtocol = errors.New("pump: unrecognized response")

	// ErrPrecondition indicates an operation attempted in a state that
	// forbids it: a mode-gated command outside the required mode, or a
	// target-volume wait before any run was started. Checked before the
	// frame is sent where feasible.
	ErrPrecondition = errors.New("pump: operation precondition not met")

	// ErrNotSupported indicates the operation does not exist on this pump
	// family.
	ErrNotSupported = errors.New("pump: operation not supported by this pump")
)
