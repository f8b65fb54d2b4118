// Package signature builds and verifies the dual-layer signatures that
// bind a contract to the witnesses who attested to it and the
// transactants who consented to that witness set.
package signature

import (
	"crypto/ed25519"
	"fmt"

	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/message"
)

// SignWitness builds a WitnessPreSig over (contract, channel pubkey,
// timeout), canonicalizes it, signs it with the witness's DID private
// key, and packages the result into a WitnessSig.
func SignWitness(contract message.Contract, channelPubkeyMultibase string, timeout uint32, didPriv ed25519.PrivateKey) (message.WitnessSig, error) {
	if len(didPriv) != ed25519.PrivateKeySize {
		return message.WitnessSig{}, fmt.Errorf("%w: private key must be %d bytes, got %d", identity.ErrKeyEncoding, ed25519.PrivateKeySize, len(didPriv))
	}
	didPub, ok := didPriv.Public().(ed25519.PublicKey)
	if !ok {
		return message.WitnessSig{}, fmt.Errorf("%w: private key did not yield an ed25519 public key", identity.ErrKeyEncoding)
	}
	didPubMultibase, err := identity.Multibase(didPub)
	if err != nil {
		return message.WitnessSig{}, fmt.Errorf("signature: sign witness: %w", err)
	}

	preSig := message.WitnessPreSig{
		Contract:            contract.Clone(),
		SignerChannelPubkey: channelPubkeyMultibase,
		Timeout:             timeout,
	}
	preSigBytes, err := message.Canonical(preSig)
	if err != nil {
		return message.WitnessSig{}, fmt.Errorf("signature: sign witness: %w", err)
	}

	return message.WitnessSig{
		Contract:            preSig.Contract,
		SignerChannelPubkey: preSig.SignerChannelPubkey,
		Timeout:             preSig.Timeout,
		SignerDIDPubkey:     didPubMultibase,
		Signature:           ed25519.Sign(didPriv, preSigBytes),
	}, nil
}

// SignTransacting builds a TransactingPreSig over (contract, channel
// pubkey, witness DID pubkeys, full witness signatures, timeout),
// canonicalizes it, signs it with the transactant's DID private key, and
// packages the result into a TransactingSig. Nesting wit_node_sigs
// verbatim inside the signed bytes is what binds the witness set to this
// consent: verifiers must re-derive these exact bytes.
func SignTransacting(contract message.Contract, channelPubkeyMultibase string, witnesses []string, witSigs []message.WitnessSig, timeout uint32, didPriv ed25519.PrivateKey) (message.TransactingSig, error) {
	if len(didPriv) != ed25519.PrivateKeySize {
		return message.TransactingSig{}, fmt.Errorf("%w: private key must be %d bytes, got %d", identity.ErrKeyEncoding, ed25519.PrivateKeySize, len(didPriv))
	}
	didPub, ok := didPriv.Public().(ed25519.PublicKey)
	if !ok {
		return message.TransactingSig{}, fmt.Errorf("%w: private key did not yield an ed25519 public key", identity.ErrKeyEncoding)
	}
	didPubMultibase, err := identity.Multibase(didPub)
	if err != nil {
		return message.TransactingSig{}, fmt.Errorf("signature: sign transacting: %w", err)
	}

	preSig := message.TransactingPreSig{
		Contract:            contract.Clone(),
		SignerChannelPubkey: channelPubkeyMultibase,
		Witnesses:           append([]string(nil), witnesses...),
		WitNodeSigs:         append([]message.WitnessSig(nil), witSigs...),
		Timeout:             timeout,
	}
	preSigBytes, err := message.Canonical(preSig)
	if err != nil {
		return message.TransactingSig{}, fmt.Errorf("signature: sign transacting: %w", err)
	}

	return message.TransactingSig{
		Contract:            preSig.Contract,
		SignerChannelPubkey: preSig.SignerChannelPubkey,
		Witnesses:           preSig.Witnesses,
		WitNodeSigs:         preSig.WitNodeSigs,
		Timeout:             preSig.Timeout,
		SignerDIDPubkey:     didPubMultibase,
		Signature:           ed25519.Sign(didPriv, preSigBytes),
	}, nil
}

// VerifyWitnessSig reconstructs the WitnessPreSig embedded in sig,
// canonicalizes it, and verifies the signature against the embedded DID
// public key. On success it returns the signer's channel public key.
func VerifyWitnessSig(sig message.WitnessSig) (signerChannelPubkey string, err error) {
	didPub, err := identity.DecodeMultibase(sig.SignerDIDPubkey)
	if err != nil {
		return "", fmt.Errorf("signature: verify witness sig: %w", err)
	}
	preSigBytes, err := message.Canonical(sig.PreSig())
	if err != nil {
		return "", fmt.Errorf("signature: verify witness sig: %w", err)
	}
	if !ed25519.Verify(didPub, preSigBytes, sig.Signature) {
		return "", ErrSignatureInvalid
	}
	return sig.SignerChannelPubkey, nil
}

// VerifyTransactingSig reconstructs the TransactingPreSig embedded in
// sig, including its nested wit_node_sigs verbatim, canonicalizes it,
// and verifies the signature against the embedded DID public key. Any
// substitution of a nested witness signature changes the canonicalized
// bytes and so fails verification.
func VerifyTransactingSig(sig message.TransactingSig) (signerChannelPubkey string, err error) {
	didPub, err := identity.DecodeMultibase(sig.SignerDIDPubkey)
	if err != nil {
		return "", fmt.Errorf("signature: verify transacting sig: %w", err)
	}
	preSigBytes, err := message.Canonical(sig.PreSig())
	if err != nil {
		return "", fmt.Errorf("signature: verify transacting sig: %w", err)
	}
	if !ed25519.Verify(didPub, preSigBytes, sig.Signature) {
		return "", ErrSignatureInvalid
	}
	return sig.SignerChannelPubkey, nil
}
