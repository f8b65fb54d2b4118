package simulator_test

import (
	"context"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/channel/memchannel"
	"github.com/kianfay/witnessrep/pkg/identity/memregistry"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/metrics"
	"github.com/kianfay/witnessrep/pkg/orchestrator"
	"github.com/kianfay/witnessrep/pkg/simulator"
	"github.com/kianfay/witnessrep/pkg/verifier"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func newSimulator(t *testing.T) (*simulator.Simulator, channel.Dialer, *metrics.Registry) {
	t.Helper()
	dialer := memchannel.NewDialer()
	mr := metrics.NewRegistry(prometheus.NewRegistry())
	return simulator.New(dialer, mr), dialer, mr
}

// witnessOutcomes replays addr through a fresh Verifier bound to
// dialer and returns every witness statement's outcome vector, in
// channel order.
func witnessOutcomes(t *testing.T, ctx context.Context, dialer channel.Dialer, addr string) [][]bool {
	t.Helper()
	_, payloads, _, err := verifier.New(dialer).Verify(ctx, addr)
	require.NoError(t, err)
	var outcomes [][]bool
	for _, env := range payloads {
		if env.Kind == message.KindWitnessStatement {
			outcomes = append(outcomes, env.Statement.Outcome)
		}
	}
	return outcomes
}

// Scenario A: two transactants, two witnesses, everyone honest.
func TestScenarioAEveryoneHonest(t *testing.T) {
	ctx := context.Background()
	sim, _, _ := newSimulator(t)
	cfg := simulator.Config{
		NumParticipants:  4,
		AverageProximity: 1.0,
		WitnessFloor:     2,
		Runs:             1,
		Reliability:      []float64{1, 1, 1, 1},
	}
	report, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	require.NoError(t, report.Runs[0].Err)
	require.NotEmpty(t, report.Rows)
}

// Scenario B: one dishonest transactant. The initiator (index 0) is
// always drawn honest by the orchestrator; reliability[1] = 0 makes
// the carved partner dishonest whenever it lands on index 1, and
// reliability 1 on the remaining pool members makes every witness
// drawn honest. Every witness statement's outcome vector must then
// read [true, false]: true for the honest initiator, false for the
// dishonest partner.
func TestScenarioBDishonestTransactant(t *testing.T) {
	ctx := context.Background()
	sim, dialer, _ := newSimulator(t)
	cfg := simulator.Config{
		NumParticipants:  4,
		AverageProximity: 1.0,
		WitnessFloor:     2,
		Runs:             1,
		Reliability:      []float64{1, 0, 1, 1},
	}
	report, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.NoError(t, err)
	require.NoError(t, report.Runs[0].Err)
	require.NotEmpty(t, report.Rows)

	outcomes := witnessOutcomes(t, ctx, dialer, report.Runs[0].Rows[0].AnnouncementAddr)
	require.NotEmpty(t, outcomes)
	for _, outcome := range outcomes {
		require.Equal(t, []bool{true, false}, outcome)
	}
}

// Scenario C: a lazy witness with LazyMethod::Constant(true). The
// second half of a lazy_schedule run forces every witness's
// fabrication to always-true regardless of actual honesty, so even
// the dishonest witness (reliability 0 on pool index 3) reports
// [true, true] alongside the honest one once runIdx >= Runs/2.
func TestScenarioCLazyConstantSchedule(t *testing.T) {
	ctx := context.Background()
	sim, dialer, _ := newSimulator(t)
	cfg := simulator.Config{
		NumParticipants:  4,
		AverageProximity: 1.0,
		WitnessFloor:     2,
		Runs:             2,
		Reliability:      []float64{1, 1, 1, 0},
		LazySchedule:     true,
	}
	report, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.NoError(t, err)
	require.Len(t, report.Runs, 2)
	for _, r := range report.Runs {
		require.NoError(t, r.Err)
	}

	lastRun := report.Runs[len(report.Runs)-1]
	require.NotEmpty(t, lastRun.Rows)
	outcomes := witnessOutcomes(t, ctx, dialer, lastRun.Rows[0].AnnouncementAddr)
	require.NotEmpty(t, outcomes)
	for _, outcome := range outcomes {
		require.Equal(t, []bool{true, true}, outcome)
	}
}

// Scenario D: insufficient witnesses: three participants can supply
// at most one witness candidate (one initiator, one partner, one
// remaining), which can never satisfy a floor of three.
func TestScenarioDInsufficientWitnesses(t *testing.T) {
	ctx := context.Background()
	sim, _, _ := newSimulator(t)
	cfg := simulator.Config{
		NumParticipants:  3,
		AverageProximity: 1.0,
		WitnessFloor:     3,
		Runs:             1,
		Reliability:      []float64{1, 1, 1},
	}
	report, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	require.ErrorIs(t, report.Runs[0].Err, simulator.ErrInsufficientWitnesses)
	require.Empty(t, report.Rows)
}

func TestConfigValidateRejectsReliabilityLengthMismatch(t *testing.T) {
	cfg := simulator.Config{NumParticipants: 3, AverageProximity: 0.5, Reliability: []float64{1, 1}}
	require.ErrorIs(t, cfg.Validate(), simulator.ErrConfigInvalid)
}

func TestConfigValidateRejectsZeroProximity(t *testing.T) {
	cfg := simulator.Config{NumParticipants: 2, AverageProximity: 0, Reliability: []float64{1, 1}}
	require.ErrorIs(t, cfg.Validate(), simulator.ErrConfigInvalid)
}

func TestSimulateRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	sim, _, _ := newSimulator(t)
	cfg := simulator.Config{NumParticipants: 2, AverageProximity: 0, Reliability: []float64{1, 1}}
	_, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.ErrorIs(t, err, simulator.ErrConfigInvalid)
}

func TestSimulatePushesRunMetrics(t *testing.T) {
	ctx := context.Background()
	sim, _, mr := newSimulator(t)
	cfg := simulator.Config{
		NumParticipants:  4,
		AverageProximity: 1.0,
		WitnessFloor:     2,
		Runs:             3,
		Reliability:      []float64{1, 1, 1, 1},
	}
	_, err := sim.Simulate(ctx, cfg, memregistry.New(), orchestrator.NewDefaultHonestyModel(1))
	require.NoError(t, err)

	require.Equal(t, float64(3), counterValue(t, mr.RunsStarted))
	require.Equal(t, float64(3), counterValue(t, mr.RunsCompleted))
}
