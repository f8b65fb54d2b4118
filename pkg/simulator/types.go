package simulator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/identity"
)

// Participant pairs an identity with the channel subscriber most
// recently bound to it, following the prototype's ParticipantIdentity
// shape (channel_client, did_key, reliability held together) rather
// than parallel slices. Simulate does not set Channel: each run's
// orchestrator mints fresh channel keys and subscribers for every
// participant, so only the Identity is carried from run to run.
type Participant struct {
	Identity identity.Identity
	Channel  channel.Subscriber
}

// Config is a simulation's tunable population and per-run behavior,
// covering every field the original's simulation driver reads off its
// own configuration object.
type Config struct {
	NumParticipants  int
	AverageProximity float64
	WitnessFloor     int
	Runs             int
	Reliability      []float64
	LazySchedule     bool
	MaxWitnesses     int
}

// Validate checks the invariants Simulate requires before it will
// carve a population: Reliability must have exactly NumParticipants
// entries, NumParticipants must allow at least an initiator and one
// other transactant, and AverageProximity must be strictly positive
// (a proximity of zero would make the transactant search in
// carvePartner never terminate, hence rejected here rather than
// bounded with a retry cap).
func (c Config) Validate() error {
	if c.NumParticipants < 2 {
		return fmt.Errorf("%w: num_participants must be at least 2, got %d", ErrConfigInvalid, c.NumParticipants)
	}
	if len(c.Reliability) != c.NumParticipants {
		return fmt.Errorf("%w: reliability has %d entries, want %d", ErrConfigInvalid, len(c.Reliability), c.NumParticipants)
	}
	if c.AverageProximity <= 0 {
		return fmt.Errorf("%w: average_proximity must be > 0, got %v", ErrConfigInvalid, c.AverageProximity)
	}
	if c.WitnessFloor < 0 {
		return fmt.Errorf("%w: witness_floor must be >= 0, got %d", ErrConfigInvalid, c.WitnessFloor)
	}
	if c.Runs < 0 {
		return fmt.Errorf("%w: runs must be >= 0, got %d", ErrConfigInvalid, c.Runs)
	}
	return nil
}

// Row is one line of the table Simulate emits for external analysis:
// a single extracted payload together with the channel it came from
// and the DID/reliability of whoever sent it. RunID is a process-wide
// unique identifier for the run, independent of RunIndex, so rows
// from concurrent or re-ordered analysis pipelines can still be
// grouped correctly back to their run.
type Row struct {
	RunID             uuid.UUID
	RunIndex          int
	MessageIndex      int
	AnnouncementAddr  string
	SenderDID         string
	SenderReliability float64
}

// RunResult is one run's outcome: either it completed and verified
// (Rows populated, Err nil), or it aborted (Err set to
// ErrInsufficientWitnesses, ErrVerificationFailed, or a wrapped
// transport/orchestrator error, with Rows nil).
type RunResult struct {
	RunID    uuid.UUID
	RunIndex int
	Rows     []Row
	Err      error
}

// Report aggregates every run's outcome. Rows is the flattened table
// across every successful run; Runs preserves the per-run detail,
// including aborted runs, for callers that need to distinguish
// "this run failed" from "this run never happened."
type Report struct {
	Runs []RunResult
	Rows []Row
}

// Option configures a Simulator constructed by New.
type Option func(*Simulator)

// WithLogger sets the structured logger a Simulator uses. Unset, a
// Simulator logs nothing (zerolog.Nop()).
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}
