// Package memregistry is an in-memory reference implementation of the
// DID publication and resolution service that pkg/identity consumes.
// The real DID service is an external collaborator; this registry
// exists so the orchestrator, verifier and simulator can be exercised
// without one.
package memregistry

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/kianfay/witnessrep/pkg/identity"
)

// Registry publishes and resolves DID documents in memory.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]identity.DIDDocument
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{docs: make(map[string]identity.DIDDocument)}
}

// Publish records a DID document for pub, keyed by its multibase
// encoding, satisfying identity.Publisher. It fails only when pub is
// not a 32-byte Ed25519 public key.
func (r *Registry) Publish(_ context.Context, pub ed25519.PublicKey) (identity.DIDDocument, error) {
	id, err := identity.Multibase(pub)
	if err != nil {
		return identity.DIDDocument{}, fmt.Errorf("memregistry: publish: %w", err)
	}
	doc := identity.DIDDocument{ID: id, PublicKey: append(ed25519.PublicKey(nil), pub...)}

	r.mu.Lock()
	r.docs[id] = doc
	r.mu.Unlock()
	return doc, nil
}

// Resolve returns the DID document published under id, or false if none
// was ever published.
func (r *Registry) Resolve(id string) (identity.DIDDocument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	return doc, ok
}
