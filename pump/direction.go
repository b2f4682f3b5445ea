package pump

import "fmt"

// Register words used by the Pump33 direction, linkage, and mode registers.
const (
	dirInfuseWord  = "INFUSE"
	dirRefillWord  = "REFILL"
	dirReverseWord = "REV"

	linkParallelWord   = "ON"
	linkReciprocalWord = "OFF"

	modeAutoStopWord     = "AUT"
	modeProportionalWord = "PRO"
	modeContinuousWord   = "CON"
)

// Direction is the run direction of a Pump33 syringe.
type Direction byte

const (
	// DirInfuse runs the syringe forward.
	DirInfuse Direction = iota
	// DirRefill runs the syringe backward.
	DirRefill
	// DirReverse is the momentary flip command. It is never a standing
	// state: the hardware reports only infuse or refill.
	DirReverse
)

func (d Direction) String() string {
	switch d {
	case DirInfuse:
		return "infuse"
	case DirRefill:
		return "refill"
	case DirReverse:
		return "reverse"
	default:
		return fmt.Sprintf("direction(%d)", byte(d))
	}
}

// Complement returns the opposite standing direction. Reverse complements to
// itself, being momentary rather than a state.
func (d Direction) Complement() Direction {
	switch d {
	case DirInfuse:
		return DirRefill
	case DirRefill:
		return DirInfuse
	default:
		return d
	}
}

// DeriveDirection2 computes syringe 2's direction from syringe 1's and the
// linkage register. Parallel linkage copies direction 1; reciprocal linkage
// complements it. The Pump33 keeps no separate register for syringe 2's
// direction, so this derivation is the only definition it has.
func DeriveDirection2(dir1 Direction, link Linkage) Direction {
	if link == LinkParallel {
		return dir1
	}

	return dir1.Complement()
}

func parseDirection(field string) (Direction, error) {
	switch field {
	case dirInfuseWord:
		return DirInfuse, nil
	case dirRefillWord:
		return DirRefill, nil
	}

	return 0, fmt.Errorf("%w: direction register %q", ErrProtocol, field)
}

// Linkage is the Pump33 register coupling syringe 2's motion to syringe 1's.
type Linkage byte

const (
	// LinkParallel moves syringe 2 in the same direction as syringe 1.
	LinkParallel Linkage = iota
	// LinkReciprocal moves syringe 2 opposite to syringe 1.
	LinkReciprocal
)

func (l Linkage) String() string {
	if l == LinkParallel {
		return "parallel"
	}

	return "reciprocal"
}

func (l Linkage) wire() string {
	if l == LinkParallel {
		return linkParallelWord
	}

	return linkReciprocalWord
}

func (l Linkage) complement() Linkage {
	if l == LinkParallel {
		return LinkReciprocal
	}

	return LinkParallel
}

func parseLinkage(field string) (Linkage, error) {
	switch field {
	case linkParallelWord:
		return LinkParallel, nil
	case linkReciprocalWord:
		return LinkReciprocal, nil
	}

	return 0, fmt.Errorf("%w: parallel register %q", ErrProtocol, field)
}

// Mode is the Pump33 operating mode register.
type Mode byte

const (
	// ModeAutoStop runs both syringes from the syringe 1 settings.
	ModeAutoStop Mode = iota
	// ModeProportional drives the syringes independently. Per-syringe
	// settings for syringe 2 are only accepted in this mode.
	ModeProportional
	// ModeContinuous runs the syringes alternately for pulseless delivery.
	ModeContinuous
)

func (m Mode) String() string {
	switch m {
	case ModeAutoStop:
		return "auto stop"
	case ModeProportional:
		return "proportional"
	case ModeContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("mode(%d)", byte(m))
	}
}

func (m Mode) wire() string {
	switch m {
	case ModeProportional:
		return modeProportionalWord
	case ModeContinuous:
		return modeContinuousWord
	default:
		return modeAutoStopWord
	}
}

func parseMode(field string) (Mode, error) {
	switch field {
	case modeAutoStopWord:
		return ModeAutoStop, nil
	case modeProportionalWord:
		return ModeProportional, nil
	case modeContinuousWord:
		return ModeContinuous, nil
	}

	return 0, fmt.Errorf("%w: mode register %q", ErrProtocol, field)
}
