package verifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel"
	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/signature"
)

// Verifier replays channels obtained from a single substrate Dialer.
type Verifier struct {
	dialer channel.Dialer
	logger zerolog.Logger
}

// New constructs a Verifier bound to the given substrate dialer.
func New(dialer channel.Dialer, opts ...Option) *Verifier {
	v := &Verifier{dialer: dialer, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type authKey struct {
	channelPubkey string
	role          Role
}

// Verify replays the channel announced at announcementAddr end to
// end and checks every structural and semantic invariant a completed
// transaction must satisfy. It returns whether the channel is valid,
// the ordered business payloads it carried, and the DID public key of
// each payload's sender (for downstream trust scoring). Every failure
// yields ok=false, no payloads and a non-nil err: a semantic invariant
// failure wraps ErrInvariantViolated, an undecodable payload wraps
// message.ErrMalformedMessage, and any other error means the channel
// itself could not be opened or read.
func (v *Verifier) Verify(ctx context.Context, announcementAddr string) (bool, []message.Envelope, []string, error) {
	ann, err := channel.ParseAddress(announcementAddr)
	if err != nil {
		return false, nil, nil, fmt.Errorf("verifier: parse announcement: %w", err)
	}

	readerKeys, err := identity.NewChannelKeyPair()
	if err != nil {
		return false, nil, nil, fmt.Errorf("verifier: mint reader channel keys: %w", err)
	}
	readerPubkeyMB, err := identity.Multibase(readerKeys.Public)
	if err != nil {
		return false, nil, nil, fmt.Errorf("verifier: encode reader channel pubkey: %w", err)
	}

	reader, err := v.dialer.Open(ctx, ann, readerPubkeyMB)
	if err != nil {
		return false, nil, nil, fmt.Errorf("%w: verifier: open channel: %v", channel.ErrTransport, err)
	}
	if err := reader.ReceiveAnnouncement(ctx, ann); err != nil {
		return false, nil, nil, fmt.Errorf("%w: verifier: receive announcement: %v", channel.ErrTransport, err)
	}
	msgs, err := reader.FetchAllNext(ctx)
	if err != nil {
		return false, nil, nil, fmt.Errorf("%w: verifier: fetch messages: %v", channel.ErrTransport, err)
	}

	valid := make(map[authKey]string) // (channel pubkey, role) -> DID pubkey
	sawTransactionMessage := false

	var payloads []message.Envelope
	var senderDIDs []string

	for _, m := range msgs {
		if m.Kind != channel.KindSignedPacket {
			continue
		}
		env, err := message.Decode(m.PublicPayload)
		if err != nil {
			return false, nil, nil, fmt.Errorf("verifier: decode payload: %w", err)
		}

		switch env.Kind {
		case message.KindTransaction:
			tp := env.Transaction
			if len(tp.Witnesses) != len(tp.WitNodeSigs) {
				v.logger.Debug().Msg("witnesses length does not match wit_node_sigs length")
				return false, nil, nil, fmt.Errorf("%w: witnesses/wit_node_sigs length mismatch", ErrInvariantViolated)
			}
			for i, sig := range tp.WitNodeSigs {
				if sig.SignerDIDPubkey != tp.Witnesses[i] {
					return false, nil, nil, fmt.Errorf("%w: witness order does not match wit_node_sigs", ErrInvariantViolated)
				}
				if !sig.Contract.Equal(tp.Contract) {
					return false, nil, nil, fmt.Errorf("%w: witness pre-signature contract diverges from top-level contract", ErrInvariantViolated)
				}
				chPk, err := signature.VerifyWitnessSig(sig)
				if err != nil {
					return false, nil, nil, fmt.Errorf("%w: witness signature: %v", ErrInvariantViolated, err)
				}
				valid[authKey{chPk, RoleWitness}] = sig.SignerDIDPubkey
			}
			if len(tp.TxClientSigs) != len(tp.Contract.Participants) {
				v.logger.Debug().Msg("tx_client_sigs length does not match contract participants length")
				return false, nil, nil, fmt.Errorf("%w: tx_client_sigs/participants length mismatch", ErrInvariantViolated)
			}
			for i, sig := range tp.TxClientSigs {
				if sig.SignerDIDPubkey != tp.Contract.Participants[i] {
					return false, nil, nil, fmt.Errorf("%w: tx_client_sigs order does not match contract participants", ErrInvariantViolated)
				}
				if !sig.Contract.Equal(tp.Contract) {
					return false, nil, nil, fmt.Errorf("%w: transacting pre-signature contract diverges from top-level contract", ErrInvariantViolated)
				}
				chPk, err := signature.VerifyTransactingSig(sig)
				if err != nil {
					return false, nil, nil, fmt.Errorf("%w: transacting signature: %v", ErrInvariantViolated, err)
				}
				valid[authKey{chPk, RoleTransactant}] = sig.SignerDIDPubkey
			}
			sawTransactionMessage = true

			did, ok := valid[authKey{m.AuthorChannelPubkey, RoleTransactant}]
			if !ok {
				return false, nil, nil, fmt.Errorf("%w: transaction message author is not among its own signers", ErrInvariantViolated)
			}
			payloads = append(payloads, env)
			senderDIDs = append(senderDIDs, did)

		case message.KindWitnessStatement:
			if !sawTransactionMessage {
				return false, nil, nil, fmt.Errorf("%w: witness statement precedes any transaction message", ErrInvariantViolated)
			}
			did, ok := valid[authKey{m.AuthorChannelPubkey, RoleWitness}]
			if !ok {
				return false, nil, nil, fmt.Errorf("%w: witness statement from unauthorized channel key", ErrInvariantViolated)
			}
			payloads = append(payloads, env)
			senderDIDs = append(senderDIDs, did)

		case message.KindCompensation:
			if !sawTransactionMessage {
				return false, nil, nil, fmt.Errorf("%w: compensation precedes any transaction message", ErrInvariantViolated)
			}
			did, ok := valid[authKey{m.AuthorChannelPubkey, RoleTransactant}]
			if !ok {
				return false, nil, nil, fmt.Errorf("%w: compensation from unauthorized channel key", ErrInvariantViolated)
			}
			payloads = append(payloads, env)
			senderDIDs = append(senderDIDs, did)

		default:
			return false, nil, nil, fmt.Errorf("%w: unknown envelope kind %d", message.ErrMalformedMessage, env.Kind)
		}
	}

	v.logger.Info().Bool("ok", true).Int("payloads", len(payloads)).Msg("verification complete")
	return true, payloads, senderDIDs, nil
}
