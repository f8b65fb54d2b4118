package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/channel/memchannel"
	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/identity/memregistry"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/orchestrator"
)

func makeParticipants(t *testing.T, reliabilities ...float64) []orchestrator.Participant {
	t.Helper()
	reg := memregistry.New()
	out := make([]orchestrator.Participant, len(reliabilities))
	for i, rel := range reliabilities {
		id, err := identity.Create(context.Background(), reg)
		require.NoError(t, err)
		id.Reliability = rel
		out[i] = orchestrator.Participant{Identity: id}
	}
	return out
}

func testContract(participants []orchestrator.Participant) message.Contract {
	pks := make([]string, len(participants))
	for i, p := range participants {
		mb, _ := identity.Multibase(p.Identity.DIDPublicKey)
		pks[i] = mb
	}
	return message.Contract{
		Definition:   "roadside courtesy",
		Participants: pks,
		Time:         1700000000,
	}
}

// Scenario A: two transactants, two witnesses, everyone honest.
func TestScenarioAEveryoneHonest(t *testing.T) {
	ctx := context.Background()
	transactants := makeParticipants(t, 1.0, 1.0)
	witnesses := makeParticipants(t, 1.0, 1.0)
	contract := testContract(append(append([]orchestrator.Participant{}, transactants...), witnesses...))

	dialer := memchannel.NewDialer()
	runner := orchestrator.New(dialer)
	honesty := orchestrator.NewDefaultHonestyModel(1)

	addr, err := runner.Run(ctx, orchestrator.DefaultConfig(), contract, transactants, witnesses, honesty, orchestrator.RandomLazyMethod())
	require.NoError(t, err)
	require.NotEmpty(t, addr)
}

// Witness-count cap: three witnesses offered with MaxWitnesses = 1
// leave one declared witness and one witness statement on the
// channel. The orchestrator truncates instead of aborting; the InsufficientWitnesses floor check belongs to the
// simulator, which calls the orchestrator only once it has already
// satisfied witness_floor.
func TestMaxWitnessesCapTruncates(t *testing.T) {
	ctx := context.Background()
	transactants := makeParticipants(t, 1.0)
	witnesses := makeParticipants(t, 1.0, 1.0, 1.0)
	contract := testContract(append(append([]orchestrator.Participant{}, transactants...), witnesses...))

	dialer := memchannel.NewDialer()
	runner := orchestrator.New(dialer)
	honesty := orchestrator.NewDefaultHonestyModel(1)

	cfg := orchestrator.DefaultConfig()
	cfg.MaxWitnesses = 1
	addr, err := runner.Run(ctx, cfg, contract, transactants, witnesses, honesty, orchestrator.RandomLazyMethod())
	require.NoError(t, err)
	require.NotEmpty(t, addr)

	ann, err := channel.ParseAddress(addr)
	require.NoError(t, err)
	reader, err := dialer.Open(ctx, ann, "zREADER")
	require.NoError(t, err)
	msgs, err := reader.FetchAllNext(ctx)
	require.NoError(t, err)
	statements := 0
	for _, m := range msgs {
		if m.Kind != channel.KindSignedPacket {
			continue
		}
		env, err := message.Decode(m.PublicPayload)
		require.NoError(t, err)
		switch env.Kind {
		case message.KindTransaction:
			require.Len(t, env.Transaction.Witnesses, 1)
		case message.KindWitnessStatement:
			statements++
		}
	}
	require.Equal(t, 1, statements)
}

func TestRunRequiresAtLeastOneTransactant(t *testing.T) {
	ctx := context.Background()
	witnesses := makeParticipants(t, 1.0)
	contract := testContract(witnesses)

	dialer := memchannel.NewDialer()
	runner := orchestrator.New(dialer)
	honesty := orchestrator.NewDefaultHonestyModel(1)

	_, err := runner.Run(ctx, orchestrator.DefaultConfig(), contract, nil, witnesses, honesty, orchestrator.RandomLazyMethod())
	require.Error(t, err)
}

func TestDefaultHonestyModelReproducibleUnderSameSeed(t *testing.T) {
	a := orchestrator.NewDefaultHonestyModel(42)
	b := orchestrator.NewDefaultHonestyModel(42)
	for i := 0; i < 20; i++ {
		require.Equal(t, a.Honest(0.5), b.Honest(0.5))
	}
}

func TestLazyMethodConstant(t *testing.T) {
	m := orchestrator.NewDefaultHonestyModel(7)
	for i := 0; i < 10; i++ {
		require.True(t, m.Lazy(orchestrator.ConstantLazyMethod(true)))
		require.False(t, m.Lazy(orchestrator.ConstantLazyMethod(false)))
	}
}
