// Package verifier replays a channel from its announcement and
// checks every cross-message invariant a completed transaction must
// satisfy before trusting any witness statement or compensation it
// finds.
package verifier

import "github.com/rs/zerolog"

// Role distinguishes the two capacities a channel public key can be
// authorized in: having signed as a witness, or as a transactant.
type Role int

const (
	RoleWitness Role = iota + 1
	RoleTransactant
)

func (r Role) String() string {
	if r == RoleWitness {
		return "witness"
	}
	return "transactant"
}

// Option configures a Verifier constructed by New.
type Option func(*Verifier)

// WithLogger sets the structured logger a Verifier uses. Unset, a
// Verifier logs nothing (zerolog.Nop()).
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Verifier) { v.logger = logger }
}
