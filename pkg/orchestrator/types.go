// Package orchestrator drives a single witnessed transaction from
// channel announcement through to every participant unsubscribing,
// per the S0..S7/Sfinal state machine.
package orchestrator

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/identity"
)

// DefaultTimeout is the signature timeout field used when a Config
// does not override it.
const DefaultTimeout uint32 = 120

// Config tunes a single Run. MaxWitnesses, when non-zero, caps the
// number of witnesses the orchestrator will admit, truncating to the
// first MaxWitnesses in proximity order if the supplied witness list
// is longer. Generalizes a per-run payment/setup-message cap into a
// plain witness-count ceiling, since this module does not model
// payments.
type Config struct {
	Timeout      uint32
	MaxWitnesses int
}

// DefaultConfig returns a Config with the default signature timeout
// and no witness cap.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Participant is a peer's DID identity as seen by the orchestrator. A
// fresh per-channel signing key is minted internally for each Run, so
// the same Participant can be reused, unmodified, across transactions.
type Participant struct {
	Identity identity.Identity
}

// LazyKind selects how a lazy (dishonest) witness fabricates an
// outcome vector.
type LazyKind int

const (
	// LazyConstant always reports the same boolean.
	LazyConstant LazyKind = iota
	// LazyRandom flips an unbiased coin per transactant.
	LazyRandom
)

// LazyMethod is the fabrication strategy a dishonest witness falls
// back to when reporting an outcome it did not honestly observe.
type LazyMethod struct {
	Kind     LazyKind
	Constant bool
}

// ConstantLazyMethod always reports b regardless of the true outcome.
func ConstantLazyMethod(b bool) LazyMethod {
	return LazyMethod{Kind: LazyConstant, Constant: b}
}

// RandomLazyMethod reports an unbiased coin flip per transactant.
func RandomLazyMethod() LazyMethod {
	return LazyMethod{Kind: LazyRandom}
}

// HonestyModel is the injected randomness hook: every Bernoulli draw
// the orchestrator needs, whether a party behaves honestly and what
// a lazy witness fabricates, goes through this interface instead of
// a package-level RNG, so runs are reproducible end to end under a
// caller-supplied seed.
type HonestyModel interface {
	// Honest reports whether a party with the given reliability
	// behaves honestly on this draw.
	Honest(reliability float64) bool
	// Lazy reports the fabricated outcome a dishonest witness reports
	// for one transactant, per method.
	Lazy(method LazyMethod) bool
}

// DefaultHonestyModel is a math/rand-backed HonestyModel. No
// domain-specific Bernoulli/coin-flip abstraction fits this better,
// so it stays on the standard library (see DESIGN.md); the source of
// randomness is an explicit, injectable argument rather than a hidden
// global, satisfied here via the caller-supplied seed.
type DefaultHonestyModel struct {
	rng *rand.Rand
}

// NewDefaultHonestyModel seeds a reproducible HonestyModel.
func NewDefaultHonestyModel(seed int64) *DefaultHonestyModel {
	return &DefaultHonestyModel{rng: rand.New(rand.NewSource(seed))}
}

func (m *DefaultHonestyModel) Honest(reliability float64) bool {
	return reliability > m.rng.Float64()
}

func (m *DefaultHonestyModel) Lazy(method LazyMethod) bool {
	switch method.Kind {
	case LazyConstant:
		return method.Constant
	default:
		return m.rng.Intn(2) == 1
	}
}

// Option configures a Runner constructed by New.
type Option func(*Runner)

// WithLogger sets the structured logger a Runner uses. Unset, a
// Runner logs nothing (zerolog.Nop()).
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}
