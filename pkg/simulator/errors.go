package simulator

import "errors"

// ErrConfigInvalid is returned when a Config fails validation (a
// reliability slice whose length does not match NumParticipants, a
// non-positive AverageProximity, or fewer than two participants).
var ErrConfigInvalid = errors.New("simulator: invalid config")

// ErrInsufficientWitnesses is returned when a run's witness-selection
// step cannot gather a set at least as large as WitnessFloor. It is
// fatal to that run, not to the rest of the simulation; Simulate
// reports it per-run rather than aborting outright.
var ErrInsufficientWitnesses = errors.New("simulator: insufficient witnesses")

// ErrVerificationFailed is returned when the verifier rejects a run
// the orchestrator otherwise completed without a transport error.
var ErrVerificationFailed = errors.New("simulator: verification failed")
