package identity_test

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kianfay/witnessrep/pkg/identity"
	"github.com/kianfay/witnessrep/pkg/identity/memregistry"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, ed25519.PublicKey) (identity.DIDDocument, error) {
	return identity.DIDDocument{}, errors.New("network unreachable")
}

func TestCreatePublishesAndReturnsIdentity(t *testing.T) {
	reg := memregistry.New()
	id, err := identity.Create(context.Background(), reg)
	require.NoError(t, err)
	require.Len(t, id.DIDPublicKey, ed25519.PublicKeySize)
	require.Len(t, id.DIDPrivateKey, ed25519.PrivateKeySize)

	mb, err := identity.Multibase(id.DIDPublicKey)
	require.NoError(t, err)
	doc, ok := reg.Resolve(mb)
	require.True(t, ok)
	require.Equal(t, id.DIDPublicKey, doc.PublicKey)
}

func TestCreateFailsWithDidPublishFailed(t *testing.T) {
	_, err := identity.Create(context.Background(), failingPublisher{})
	require.Error(t, err)
	require.True(t, errors.Is(err, identity.ErrDidPublishFailed))
}

func TestCreateManySequential(t *testing.T) {
	reg := memregistry.New()
	ids, err := identity.CreateMany(context.Background(), 5, reg)
	require.NoError(t, err)
	require.Len(t, ids, 5)
	seen := map[string]bool{}
	for _, id := range ids {
		mb, err := identity.Multibase(id.DIDPublicKey)
		require.NoError(t, err)
		require.False(t, seen[mb], "identities must be distinct")
		seen[mb] = true
	}
}

func TestMultibaseRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	s, err := identity.Multibase(pub)
	require.NoError(t, err)
	got, err := identity.DecodeMultibase(s)
	require.NoError(t, err)
	require.Equal(t, pub, got)
}

func TestDecodeMultibaseRejectsGarbage(t *testing.T) {
	_, err := identity.DecodeMultibase("not-multibase-at-all")
	require.Error(t, err)
	require.True(t, errors.Is(err, identity.ErrKeyEncoding))
}

func TestNewChannelKeyPair(t *testing.T) {
	kp, err := identity.NewChannelKeyPair()
	require.NoError(t, err)
	require.Len(t, kp.Public, ed25519.PublicKeySize)
	require.Len(t, kp.Private, ed25519.PrivateKeySize)
}
