// Package frame implements the wire framing shared by the Harvard/SSI pump
// families: command encoding, reply status classification, and the numeric
// field rules (canonical formatting, family-width truncation, crud removal).
//
// Frames are plain ASCII. Addressed families send
// `<2-digit addr><mnemonic><field>\r`; the dual-syringe family inserts a space
// and a syringe selector letter between mnemonic and field; MightyMini sends a
// bare `<mnemonic><field>` with no address and no terminator. Replies carry a
// run-state trailer character and, on addressed families, the responding
// pump's 2-digit address just before it.
package frame

import (
	"errors"
	"fmt"
	"strconv"
)

// Terminator ends every addressed command frame.
const Terminator = '\r'

var (
	// ErrNoResponse indicates a zero-length reply. The pump either did not
	// hear the command or is not present at the address.
	ErrNoResponse = errors.New("frame: no response from pump")

	// ErrMalformed indicates a reply too short or too garbled to carry the
	// expected trailer.
	ErrMalformed = errors.New("frame: malformed reply")
)

// Address renders a bus address as its zero-padded 2-digit wire field.
// Addresses are validated at device construction; callers pass 0-99.
func Address(addr int) string {
	return fmt.Sprintf("%02d", addr)
}

// Encode builds an addressed command frame from the zero-padded address, the
// command mnemonic, an optional argument, and the terminator.
func Encode(addr int, mnemonic, arg string) []byte {
	return []byte(Address(addr) + mnemonic + arg + string(Terminator))
}

// EncodeSyringe builds a dual-syringe command frame. The mnemonic is followed
// by a space, the syringe selector letter (A or B), and the field.
func EncodeSyringe(addr int, mnemonic string, syringe byte, arg string) []byte {
	return []byte(Address(addr) + mnemonic + " " + string(syringe) + arg + string(Terminator))
}

// EncodeBare builds an unaddressed, unterminated frame (MightyMini).
func EncodeBare(mnemonic, arg string) []byte {
	return []byte(mnemonic + arg)
}

// TrailerAddress parses the 2-digit pump address embedded immediately before
// the status character of an addressed reply.
func TrailerAddress(resp []byte) (int, error) {
	if len(resp) < 3 {
		return 0, fmt.Errorf("%w: reply %q too short for address trailer", ErrMalformed, resp)
	}
	field := string(resp[len(resp)-3 : len(resp)-1])
	addr, err := strconv.Atoi(field)
	if err != nil || addr < 0 {
		return 0, fmt.Errorf("%w: bad address trailer %q", ErrMalformed, field)
	}
	return addr, nil
}
