// Package pump provides drivers for Harvard Apparatus and SSI syringe pumps
// sharing one RS-232 daisy chain.
//
// Four families are supported, differing in frame format, numeric field
// width, and status conventions:
//
//   - Pump11: the classic addressed 3-letter-mnemonic protocol with 5-char
//     numeric fields and `:`/`>`/`<` status trailers
//   - PHD2000: a Pump11 that acknowledges stop with `*` and takes its target
//     volume in millilitres
//   - MightyMini: an unaddressed 2-letter dialect with OK-prefixed replies
//   - Pump33: a dual-syringe pump with 6-char fields, per-syringe selector
//     letters, and a direction/parallel register pair
//
// # Protocol Model
//
// Every operation is one or more blocking write/read round trips on a
// [chain.Channel]. Settings commands are verified by reading the register
// back and comparing numerically; a readback that disagrees is logged and
// leaves the driver's cached value unset rather than failing the call.
// Values wider than the family's field are truncated to fit, with a warning.
//
// The bus is half-duplex and address-multiplexed, so drivers never
// interleave commands: a Device is single-threaded by contract, and each
// addressed device claims its address on the chain at construction.
//
// # Errors
//
// Failures classify into [frame.ErrNoResponse] (dead air), [ErrOutOfRange]
// (pump rejected a value), [ErrProtocol] (reply that fits no known shape),
// [ErrPrecondition] (operation invalid in the pump's current state), and
// [ErrNotSupported] (operation absent from the family). All are checked
// with errors.Is.
package pump
