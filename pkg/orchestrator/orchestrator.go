package orchestrator

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/signature"
)

// seedAlphabet is the channel-seed alphabet: uppercase letters
// followed by the digit 9.
const seedAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ9"

const seedLength = 81

// Runner drives witnessed transactions against a channel.Dialer.
type Runner struct {
	dialer channel.Dialer
	logger zerolog.Logger
}

// New constructs a Runner bound to the given substrate dialer.
func New(dialer channel.Dialer, opts ...Option) *Runner {
	r := &Runner{dialer: dialer, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// participantState is the orchestrator's internal bookkeeping for one
// transactant or witness across a single Run.
type participantState struct {
	participant   Participant
	channelKeys   identity.ChannelKeyPair
	channelPubkey string
	subscriber    channel.Subscriber
}

func newParticipantState(p Participant) (*participantState, error) {
	keys, err := identity.NewChannelKeyPair()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: mint channel keys: %w", err)
	}
	pubkeyMB, err := identity.Multibase(keys.Public)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: encode channel pubkey: %w", err)
	}
	return &participantState{participant: p, channelKeys: keys, channelPubkey: pubkeyMB}, nil
}

// Run executes the S0..S7/Sfinal state machine for one transaction
// and returns the announcement address string, the sole handle needed
// to verify it later. lazyMethod is the fabrication strategy applied
// to every witness drawn dishonest by honesty; callers that want
// every dishonest witness to report a fixed value (rather than a coin
// flip) pass ConstantLazyMethod. Witnesses drawn honest always report
// the transactants' real honesty.
func (r *Runner) Run(
	ctx context.Context,
	cfg Config,
	contract message.Contract,
	transactants []Participant,
	witnesses []Participant,
	honesty HonestyModel,
	lazyMethod LazyMethod,
) (string, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(transactants) == 0 {
		return "", fmt.Errorf("orchestrator: run: at least one transactant is required")
	}
	if cfg.MaxWitnesses > 0 && len(witnesses) > cfg.MaxWitnesses {
		r.logger.Debug().Int("offered", len(witnesses)).Int("cap", cfg.MaxWitnesses).Msg("truncating witness set to MaxWitnesses")
		witnesses = witnesses[:cfg.MaxWitnesses]
	}

	// S0 Announce.
	seed, err := randomSeed()
	if err != nil {
		return "", fmt.Errorf("orchestrator: S0 announce: %w", err)
	}
	author, err := r.dialer.NewAuthor(ctx, seed)
	if err != nil {
		return "", fmt.Errorf("%w: orchestrator: S0 announce: %v", channel.ErrTransport, err)
	}
	ann, err := author.Announce(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: orchestrator: S0 announce: %v", channel.ErrTransport, err)
	}
	r.logger.Info().Str("announcement", ann.String()).Msg("S0 announce")

	txStates := make([]*participantState, len(transactants))
	for i, p := range transactants {
		st, err := newParticipantState(p)
		if err != nil {
			return "", fmt.Errorf("orchestrator: S1 subscribed: %w", err)
		}
		txStates[i] = st
	}
	witStates := make([]*participantState, len(witnesses))
	for i, p := range witnesses {
		st, err := newParticipantState(p)
		if err != nil {
			return "", fmt.Errorf("orchestrator: S1 subscribed: %w", err)
		}
		witStates[i] = st
	}
	all := append(append([]*participantState{}, txStates...), witStates...)

	// S1 Subscribed.
	for _, st := range all {
		sub, err := author.NewSubscriber(ctx, st.channelPubkey)
		if err != nil {
			return "", fmt.Errorf("%w: orchestrator: S1 subscribed: %v", channel.ErrTransport, err)
		}
		if err := sub.ReceiveAnnouncement(ctx, ann); err != nil {
			return "", fmt.Errorf("%w: orchestrator: S1 subscribed: %v", channel.ErrTransport, err)
		}
		subAddr, err := sub.SendSubscribe(ctx, ann)
		if err != nil {
			return "", fmt.Errorf("%w: orchestrator: S1 subscribed: %v", channel.ErrTransport, err)
		}
		if err := author.ReceiveSubscribe(ctx, subAddr); err != nil {
			return "", fmt.Errorf("%w: orchestrator: S1 subscribed: %v", channel.ErrTransport, err)
		}
		st.subscriber = sub
	}
	r.logger.Info().Int("transactants", len(txStates)).Int("witnesses", len(witStates)).Msg("S1 subscribed")

	// S2 KeyloadEmitted.
	keyloadAddr, err := author.SendKeyloadForEveryone(ctx, ann)
	if err != nil {
		return "", fmt.Errorf("%w: orchestrator: S2 keyload emitted: %v", channel.ErrTransport, err)
	}
	r.logger.Info().Str("keyload", keyloadAddr.String()).Msg("S2 keyload emitted")

	// S3 WitnessSigsCollected.
	witSigs := make([]message.WitnessSig, len(witStates))
	witnessDIDPubkeys := make([]string, len(witStates))
	for i, st := range witStates {
		sig, err := signature.SignWitness(contract, st.channelPubkey, cfg.Timeout, st.participant.Identity.DIDPrivateKey)
		if err != nil {
			return "", fmt.Errorf("orchestrator: S3 witness sigs collected: %w", err)
		}
		witSigs[i] = sig
		witnessDIDPubkeys[i] = sig.SignerDIDPubkey
	}
	r.logger.Info().Int("count", len(witSigs)).Msg("S3 witness sigs collected")

	// S4 TxSigsCollected.
	txSigs := make([]message.TransactingSig, len(txStates))
	for i, st := range txStates {
		sig, err := signature.SignTransacting(contract, st.channelPubkey, witnessDIDPubkeys, witSigs, cfg.Timeout, st.participant.Identity.DIDPrivateKey)
		if err != nil {
			return "", fmt.Errorf("orchestrator: S4 tx sigs collected: %w", err)
		}
		txSigs[i] = sig
	}
	r.logger.Info().Int("count", len(txSigs)).Msg("S4 tx sigs collected")

	if err := syncAll(ctx, all); err != nil {
		return "", err
	}

	// S5 TxMessageSent.
	txPayload := message.TransactionPayload{
		Contract:     contract,
		Witnesses:    witnessDIDPubkeys,
		WitNodeSigs:  witSigs,
		TxClientSigs: txSigs,
	}
	txBytes, err := message.Encode(message.NewTransactionEnvelope(txPayload))
	if err != nil {
		return "", fmt.Errorf("orchestrator: S5 tx message sent: %w", err)
	}
	prevLink, err := txStates[0].subscriber.SendSignedPacket(ctx, keyloadAddr, txBytes, nil)
	if err != nil {
		return "", fmt.Errorf("%w: orchestrator: S5 tx message sent: %v", channel.ErrTransport, err)
	}
	r.logger.Info().Str("link", prevLink.String()).Msg("S5 tx message sent")

	// S6 StatementsSent.
	honestTransactant := make([]bool, len(txStates))
	honestTransactant[0] = true
	for i := 1; i < len(txStates); i++ {
		honestTransactant[i] = honesty.Honest(txStates[i].participant.Identity.Reliability)
	}
	for _, st := range witStates {
		if err := syncAll(ctx, all); err != nil {
			return "", err
		}
		honestWitness := honesty.Honest(st.participant.Identity.Reliability)
		outcome := make([]bool, len(txStates))
		for i := range txStates {
			if honestWitness {
				outcome[i] = honestTransactant[i]
			} else {
				outcome[i] = honesty.Lazy(lazyMethod)
			}
		}
		payload := message.WitnessStatementPayload{Outcome: outcome}
		payloadBytes, err := message.Encode(message.NewWitnessStatementEnvelope(payload))
		if err != nil {
			return "", fmt.Errorf("orchestrator: S6 statements sent: %w", err)
		}
		prevLink, err = st.subscriber.SendSignedPacket(ctx, prevLink, payloadBytes, nil)
		if err != nil {
			return "", fmt.Errorf("%w: orchestrator: S6 statements sent: %v", channel.ErrTransport, err)
		}
	}
	r.logger.Info().Int("count", len(witStates)).Msg("S6 statements sent")

	// S7 CompensationsSent.
	for _, st := range txStates {
		if err := syncAll(ctx, all); err != nil {
			return "", err
		}
		payload := message.CompensationPayload{Payments: []string{fmt.Sprintf("settlement:%s", st.participant.Identity.DIDPublicKey)}}
		payloadBytes, err := message.Encode(message.NewCompensationEnvelope(payload))
		if err != nil {
			return "", fmt.Errorf("orchestrator: S7 compensations sent: %w", err)
		}
		prevLink, err = st.subscriber.SendSignedPacket(ctx, prevLink, payloadBytes, nil)
		if err != nil {
			return "", fmt.Errorf("%w: orchestrator: S7 compensations sent: %v", channel.ErrTransport, err)
		}
	}
	r.logger.Info().Int("count", len(txStates)).Msg("S7 compensations sent")

	// Sfinal Unsubscribed.
	for _, st := range all {
		if err := st.subscriber.Unregister(ctx); err != nil {
			return "", fmt.Errorf("%w: orchestrator: Sfinal unsubscribed: %v", channel.ErrTransport, err)
		}
	}
	r.logger.Info().Str("announcement", ann.String()).Msg("Sfinal unsubscribed")

	return ann.ToMsgIndex(), nil
}

func syncAll(ctx context.Context, states []*participantState) error {
	for _, st := range states {
		if err := st.subscriber.Sync(ctx); err != nil {
			return fmt.Errorf("%w: orchestrator: sync: %v", channel.ErrTransport, err)
		}
	}
	return nil
}

func randomSeed() (string, error) {
	buf := make([]byte, seedLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	out := make([]byte, seedLength)
	for i, b := range buf {
		out[i] = seedAlphabet[int(b)%len(seedAlphabet)]
	}
	return string(out), nil
}
