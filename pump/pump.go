package pump

// Device is the operation set shared by the single-syringe pump families.
// Every method blocks for its full command/response round trip on the
// chain; a Device is not safe for concurrent use.
//
// Families that lack an operation report ErrNotSupported from it.
type Device interface {
	// Name returns the device name used in diagnostics.
	Name() string

	// SetDiameter programs the syringe bore diameter in millimetres.
	SetDiameter(mm float64) error

	// SetFlowRate programs the pumping rate in microlitres per minute.
	SetFlowRate(rate float64) error

	// SetTargetVolume programs the volume in microlitres at which the pump
	// stops itself.
	SetTargetVolume(volume float64) error

	// Infuse starts the pump in the forward direction.
	Infuse() error

	// Withdraw starts the pump in the reverse direction.
	Withdraw() error

	// Stop halts the pump.
	Stop() error

	// WaitUntilTarget blocks until the pump reports that the programmed
	// target volume has been reached.
	WaitUntilTarget() error
}
