package signature_test

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/message"
	"github.com/kianfay/witnessrep/pkg/signature"
)

func testContract() message.Contract {
	return message.Contract{
		Definition:   "roadside courtesy",
		Participants: []string{"zTNA", "zTNB"},
		Time:         1700000000,
	}
}

func mustDIDKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func mustMultibase(t *testing.T, pub ed25519.PublicKey) string {
	t.Helper()
	s, err := identity.Multibase(pub)
	require.NoError(t, err)
	return s
}

func TestWitnessSignThenVerifyRoundTrip(t *testing.T) {
	contract := testContract()
	channelPub, _ := ed25519.GenerateKey(nil)
	channelPubMB := mustMultibase(t, channelPub)
	didPriv := mustDIDKey(t)

	sig, err := signature.SignWitness(contract, channelPubMB, 120, didPriv)
	require.NoError(t, err)

	gotPk, err := signature.VerifyWitnessSig(sig)
	require.NoError(t, err)
	require.Equal(t, channelPubMB, gotPk)
}

func TestTransactingSignThenVerifyRoundTrip(t *testing.T) {
	contract := testContract()
	channelPub, _ := ed25519.GenerateKey(nil)
	channelPubMB := mustMultibase(t, channelPub)
	witnessDIDPriv := mustDIDKey(t)
	txDIDPriv := mustDIDKey(t)

	witChannelPub, _ := ed25519.GenerateKey(nil)
	witChannelPubMB := mustMultibase(t, witChannelPub)
	witSig, err := signature.SignWitness(contract, witChannelPubMB, 120, witnessDIDPriv)
	require.NoError(t, err)

	sig, err := signature.SignTransacting(contract, channelPubMB, []string{witSig.SignerDIDPubkey}, []message.WitnessSig{witSig}, 120, txDIDPriv)
	require.NoError(t, err)

	gotPk, err := signature.VerifyTransactingSig(sig)
	require.NoError(t, err)
	require.Equal(t, channelPubMB, gotPk)
}

func TestWitnessSigTamperSensitivity(t *testing.T) {
	contract := testContract()
	channelPub, _ := ed25519.GenerateKey(nil)
	channelPubMB := mustMultibase(t, channelPub)
	didPriv := mustDIDKey(t)

	sig, err := signature.SignWitness(contract, channelPubMB, 120, didPriv)
	require.NoError(t, err)

	t.Run("tampered contract", func(t *testing.T) {
		tampered := sig
		tampered.Contract = tampered.Contract.Clone()
		tampered.Contract.Definition = "different agreement"
		_, err := signature.VerifyWitnessSig(tampered)
		require.True(t, errors.Is(err, signature.ErrSignatureInvalid))
	})

	t.Run("tampered channel pubkey", func(t *testing.T) {
		tampered := sig
		tampered.SignerChannelPubkey = mustMultibase(t, mustFreshKey(t))
		_, err := signature.VerifyWitnessSig(tampered)
		require.True(t, errors.Is(err, signature.ErrSignatureInvalid))
	})

	t.Run("tampered timeout", func(t *testing.T) {
		tampered := sig
		tampered.Timeout = sig.Timeout + 1
		_, err := signature.VerifyWitnessSig(tampered)
		require.True(t, errors.Is(err, signature.ErrSignatureInvalid))
	})

	t.Run("tampered signature bytes", func(t *testing.T) {
		tampered := sig
		tampered.Signature = append([]byte(nil), sig.Signature...)
		tampered.Signature[0] ^= 0xFF
		_, err := signature.VerifyWitnessSig(tampered)
		require.True(t, errors.Is(err, signature.ErrSignatureInvalid))
	})
}

func TestTransactingSigWitnessSetBinding(t *testing.T) {
	contract := testContract()
	channelPub, _ := ed25519.GenerateKey(nil)
	channelPubMB := mustMultibase(t, channelPub)
	txDIDPriv := mustDIDKey(t)

	witChannelPubA, _ := ed25519.GenerateKey(nil)
	witSigA, err := signature.SignWitness(contract, mustMultibase(t, witChannelPubA), 120, mustDIDKey(t))
	require.NoError(t, err)

	witChannelPubB, _ := ed25519.GenerateKey(nil)
	witSigB, err := signature.SignWitness(contract, mustMultibase(t, witChannelPubB), 120, mustDIDKey(t))
	require.NoError(t, err)

	sig, err := signature.SignTransacting(contract, channelPubMB, []string{witSigA.SignerDIDPubkey}, []message.WitnessSig{witSigA}, 120, txDIDPriv)
	require.NoError(t, err)

	// Substitute the nested witness signature with a different, independently
	// valid one: the outer signature must now fail to verify.
	tampered := sig
	tampered.WitNodeSigs = []message.WitnessSig{witSigB}
	_, err = signature.VerifyTransactingSig(tampered)
	require.True(t, errors.Is(err, signature.ErrSignatureInvalid))
}

func mustFreshKey(t *testing.T) ed25519.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}
