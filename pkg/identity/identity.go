// Package identity creates and publishes the DID key pairs that anchor
// every signature to a peer's long-lived identity, and mints the
// per-channel signing keys that are bound into it but rotate with the
// channel session.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Identity is a peer's long-lived DID key pair plus the reliability the
// simulator assigns it. Reliability is meaningless outside the
// simulator and is zero for identities created by anything else.
type Identity struct {
	DIDPublicKey  ed25519.PublicKey
	DIDPrivateKey ed25519.PrivateKey
	Reliability   float64
}

// ChannelKeyPair is a per-session Ed25519 key pair bound to a
// participant's subscriber state on the messaging substrate. It is
// independent of the DID key pair and is discarded when the peer
// unsubscribes.
type ChannelKeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// DIDDocument is the minimal DID document published for an identity: its
// id and the Ed25519 public key backing its default signing method.
type DIDDocument struct {
	ID        string
	PublicKey ed25519.PublicKey
}

// Publisher publishes a minimal DID document referencing an Ed25519
// public key to the DID service. The DID service itself is an
// external collaborator; Publisher is the only interface this
// package needs from it.
type Publisher interface {
	Publish(ctx context.Context, pub ed25519.PublicKey) (DIDDocument, error)
}

// Create generates a fresh Ed25519 key pair and publishes a DID document
// referencing it. It fails with ErrDidPublishFailed (wrapping the
// publisher's error) if publication fails.
func Create(ctx context.Context, pub Publisher) (Identity, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: generate key pair: %w", err)
	}
	if _, err := pub.Publish(ctx, public); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrDidPublishFailed, err)
	}
	return Identity{DIDPublicKey: public, DIDPrivateKey: private}, nil
}

// CreateMany generates and publishes n identities sequentially, stopping
// and returning an error on the first publication failure.
func CreateMany(ctx context.Context, n int, pub Publisher) ([]Identity, error) {
	out := make([]Identity, 0, n)
	for i := 0; i < n; i++ {
		id, err := Create(ctx, pub)
		if err != nil {
			return nil, fmt.Errorf("identity: create identity %d/%d: %w", i+1, n, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// NewChannelKeyPair generates a fresh per-session Ed25519 key pair for a
// participant to use on the messaging substrate.
func NewChannelKeyPair() (ChannelKeyPair, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return ChannelKeyPair{}, fmt.Errorf("identity: generate channel key pair: %w", err)
	}
	return ChannelKeyPair{Public: public, Private: private}, nil
}
