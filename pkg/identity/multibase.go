package identity

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multibase"
)

// didEncoding is the multibase base used for every public key this
// package encodes. Base58BTC ('z' prefix) matches the convention used
// by did:key identifiers.
const didEncoding = multibase.Base58BTC

// Multibase is the bijective encoding used wherever a public key is
// stored by value in a published payload: simpler than embedding raw
// bytes, and collision-free because multibase prefixes the encoding
// base onto the string.
func Multibase(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key must be %d bytes, got %d", ErrKeyEncoding, ed25519.PublicKeySize, len(pub))
	}
	s, err := multibase.Encode(didEncoding, pub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyEncoding, err)
	}
	return s, nil
}

// DecodeMultibase is the inverse of Multibase.
func DecodeMultibase(s string) (ed25519.PublicKey, error) {
	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyEncoding, err)
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: decoded key must be %d bytes, got %d", ErrKeyEncoding, ed25519.PublicKeySize, len(data))
	}
	return ed25519.PublicKey(data), nil
}
