// Package domain defines the core business entities and types for the
// prediction market engine: predictions, judges, bets, cash-outs, sessions
// and users, plus the pure payout arithmetic that ties them together.
package domain

// RowId identifies a Prediction. Signed 64-bit, assigned by the Store on
// add_prediction.
type RowId int64

// Sats is an amount of Bitcoin in its smallest denomination. Unsigned 32-bit,
// matching the funding source's invoice precision.
type Sats uint32

// Ppm is a parts-per-million fraction, bounded 0..=1_000_000.
type Ppm uint32

// MaxPpm is the upper bound of a valid Ppm value (the entire pool).
const MaxPpm Ppm = 1_000_000

// PubKey identifies a user. In production this is a hex-encoded compressed
// secp256k1 public key; the engine treats it as an opaque comparable string.
type PubKey string
