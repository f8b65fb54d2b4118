// Package simulator drives repeated witnessed transactions over a
// population of participants, carving transactants and witnesses out
// of the pool by proximity on each run and handing the result to the
// Orchestrator and Verifier in turn.
package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/metrics"
	"github.com/kianfay/witnessrep/pkg/orchestrator"
	"github.com/kianfay/witnessrep/pkg/verifier"
)

// contractDefinition, contractTime are the hard-coded contract fields
// every run's generated contract carries. A future caller wiring this
// to a real population would replace these with a per-run payload.
const (
	contractDefinition = "roadside courtesy"
	contractTime       = 1700000000
)

// Simulator runs the population/proximity/witness-selection procedure
// against a single substrate dialer, pushing run and verification
// counters to a metrics.Registry as it goes.
type Simulator struct {
	orch    *orchestrator.Runner
	verif   *verifier.Verifier
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// New constructs a Simulator bound to dialer. A nil mr falls back to
// metrics.Default.
func New(dialer channel.Dialer, mr *metrics.Registry, opts ...Option) *Simulator {
	if mr == nil {
		mr = metrics.Default
	}
	s := &Simulator{
		orch:    orchestrator.New(dialer),
		verif:   verifier.New(dialer),
		metrics: mr,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate creates cfg.NumParticipants fresh identities (reliability
// assigned from cfg.Reliability in order) and runs cfg.Runs
// transactions against them, returning the aggregated Report. A run
// that cannot gather witness_floor witnesses, fails orchestration, or
// fails verification is recorded in Report.Runs with its error but
// does not stop the remaining runs.
func (s *Simulator) Simulate(ctx context.Context, cfg Config, publisher identity.Publisher, honesty orchestrator.HonestyModel) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	ids, err := identity.CreateMany(ctx, cfg.NumParticipants, publisher)
	if err != nil {
		return Report{}, fmt.Errorf("simulator: create identities: %w", err)
	}
	for i := range ids {
		ids[i].Reliability = cfg.Reliability[i]
	}
	pool := make([]Participant, len(ids))
	reliabilityByDID := make(map[string]float64, len(ids))
	for i, id := range ids {
		pool[i] = Participant{Identity: id}
		mb, err := identity.Multibase(id.DIDPublicKey)
		if err != nil {
			return Report{}, fmt.Errorf("simulator: encode participant %d DID pubkey: %w", i, err)
		}
		reliabilityByDID[mb] = id.Reliability
	}

	var report Report
	for run := 0; run < cfg.Runs; run++ {
		s.metrics.RunsStarted.Inc()
		res := s.runOnce(ctx, cfg, pool, reliabilityByDID, honesty, run)
		report.Runs = append(report.Runs, res)
		if res.Err != nil {
			s.metrics.RunsAborted.WithLabelValues(abortReason(res.Err)).Inc()
			s.logger.Info().Int("run", run).Err(res.Err).Msg("run aborted")
			continue
		}
		s.metrics.RunsCompleted.Inc()
		report.Rows = append(report.Rows, res.Rows...)
	}
	return report, nil
}

func (s *Simulator) runOnce(
	ctx context.Context,
	cfg Config,
	pool []Participant,
	reliabilityByDID map[string]float64,
	honesty orchestrator.HonestyModel,
	runIdx int,
) RunResult {
	runID := uuid.New()
	partnerIdx := carvePartner(honesty, cfg.AverageProximity, len(pool))
	remaining := make([]int, 0, len(pool)-2)
	for i := 1; i < len(pool); i++ {
		if i != partnerIdx {
			remaining = append(remaining, i)
		}
	}

	transactants := []orchestrator.Participant{
		{Identity: pool[0].Identity},
		{Identity: pool[partnerIdx].Identity},
	}
	witnessIdxs := selectWitnesses(honesty, len(transactants), remaining, cfg.AverageProximity)
	if len(witnessIdxs) < cfg.WitnessFloor {
		return RunResult{RunID: runID, RunIndex: runIdx, Err: fmt.Errorf("%w: drew %d, floor %d", ErrInsufficientWitnesses, len(witnessIdxs), cfg.WitnessFloor)}
	}
	s.metrics.WitnessesPerRun.Observe(float64(len(witnessIdxs)))

	witnesses := make([]orchestrator.Participant, len(witnessIdxs))
	for i, idx := range witnessIdxs {
		witnesses[i] = orchestrator.Participant{Identity: pool[idx].Identity}
	}

	contract, err := buildContract(transactants)
	if err != nil {
		return RunResult{RunID: runID, RunIndex: runIdx, Err: fmt.Errorf("simulator: build contract: %w", err)}
	}

	lazyMethod := orchestrator.RandomLazyMethod()
	if cfg.LazySchedule && runIdx >= cfg.Runs/2 {
		lazyMethod = orchestrator.ConstantLazyMethod(true)
	}

	orchCfg := orchestrator.Config{Timeout: orchestrator.DefaultTimeout, MaxWitnesses: cfg.MaxWitnesses}
	addr, err := s.orch.Run(ctx, orchCfg, contract, transactants, witnesses, honesty, lazyMethod)
	if err != nil {
		return RunResult{RunID: runID, RunIndex: runIdx, Err: err}
	}

	ok, payloads, senderDIDs, err := s.verif.Verify(ctx, addr)
	if err != nil && !errors.Is(err, verifier.ErrInvariantViolated) && !errors.Is(err, message.ErrMalformedMessage) {
		return RunResult{RunID: runID, RunIndex: runIdx, Err: err}
	}
	if !ok {
		s.metrics.VerificationsFail.WithLabelValues("rejected").Inc()
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		} else {
			err = ErrVerificationFailed
		}
		return RunResult{RunID: runID, RunIndex: runIdx, Err: err}
	}
	s.metrics.VerificationsOK.Inc()

	rows := make([]Row, len(payloads))
	for i := range payloads {
		rows[i] = Row{
			RunID:             runID,
			RunIndex:          runIdx,
			MessageIndex:      i,
			AnnouncementAddr:  addr,
			SenderDID:         senderDIDs[i],
			SenderReliability: reliabilityByDID[senderDIDs[i]],
		}
	}
	return RunResult{RunID: runID, RunIndex: runIdx, Rows: rows}
}

// carvePartner walks the pool by index, starting just after the
// initiator (index 0), drawing a Bernoulli(avgProximity) trial at
// each candidate until one is accepted. Indices wrap modulo poolSize-1
// so the walk revisits candidates indefinitely rather than giving up
// after one pass; Config.Validate rejects avgProximity <= 0, which is
// what would make this loop able to spin forever.
func carvePartner(honesty orchestrator.HonestyModel, avgProximity float64, poolSize int) int {
	step := 0
	for {
		idx := 1 + step%(poolSize-1)
		if honesty.Honest(avgProximity) {
			return idx
		}
		step++
	}
}

// selectWitnesses draws, for each remaining pool index in order, one
// Bernoulli(avgProximity) trial per transactant until one accepts
// (modeling "each transactant independently considers this candidate")
// and includes the candidate at most once. Iterating remaining in
// ascending pool order makes the resulting union deterministic given
// a deterministic honesty model.
func selectWitnesses(honesty orchestrator.HonestyModel, transactantCount int, remaining []int, avgProximity float64) []int {
	var witnesses []int
	for _, idx := range remaining {
		for t := 0; t < transactantCount; t++ {
			if honesty.Honest(avgProximity) {
				witnesses = append(witnesses, idx)
				break
			}
		}
	}
	return witnesses
}

func buildContract(transactants []orchestrator.Participant) (message.Contract, error) {
	pks := make([]string, len(transactants))
	for i, p := range transactants {
		mb, err := identity.Multibase(p.Identity.DIDPublicKey)
		if err != nil {
			return message.Contract{}, err
		}
		pks[i] = mb
	}
	return message.Contract{
		Definition:   contractDefinition,
		Participants: pks,
		Time:         contractTime,
	}, nil
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientWitnesses):
		return "insufficient_witnesses"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, verifier.ErrInvariantViolated):
		return "invariant_violated"
	case errors.Is(err, channel.ErrTransport):
		return "transport_error"
	default:
		return "other"
	}
}
