package verifier

import "errors"

// ErrInvariantViolated is returned, alongside ok=false, whenever a
// replayed channel fails one of its cross-message checks: a statement
// or compensation from an unauthorized channel key, a witness set
// that does not match its nested signatures, or a top-level contract
// that diverges from what was actually signed.
var ErrInvariantViolated = errors.New("verifier: invariant violated")
