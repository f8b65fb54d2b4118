// Package memchannel is an in-process reference implementation of the
// channel.Author/channel.Subscriber substrate. It models the same
// announce/subscribe/keyload/signed-packet/fetch-all-next protocol the
// production substrate exposes, backed by a shared in-memory log
// instead of a distributed ledger, so the rest of the module can be
// exercised without any external dependency.
package memchannel

import (
	"fmt"
	"sync"

	"github.com/kianfay/witnessrep/pkg/channel"
)

// entry is one published message on the shared log.
type entry struct {
	addr   channel.Address
	msg    channel.UnwrappedMessage
	sender string // channel pubkey of the publisher, "" for the author
}

// Hub is the shared append-only log every Author and Subscriber on the
// same channel reads from and writes to. It is safe for concurrent use.
type Hub struct {
	mu sync.Mutex

	log      []entry
	nextSeq  uint64
	announce channel.Address
	admitted map[string]bool // channel pubkey -> admitted

	// cursor tracks, per channel pubkey, the index into log this
	// subscriber has already fetched up through.
	cursor map[string]int
}

// NewHub creates an empty shared log for a single channel.
func NewHub() *Hub {
	return &Hub{
		admitted: make(map[string]bool),
		cursor:   make(map[string]int),
	}
}

func (h *Hub) append(kind channel.Kind, sender string, public, masked []byte) (channel.Address, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload := append(append([]byte(nil), public...), masked...)
	addr, err := channel.NewAddress(payload, h.nextSeq)
	if err != nil {
		return channel.Address{}, fmt.Errorf("memchannel: %w", err)
	}
	h.nextSeq++

	h.log = append(h.log, entry{
		addr: addr,
		msg: channel.UnwrappedMessage{
			AuthorChannelPubkey: sender,
			PublicPayload:       public,
			MaskedPayload:       masked,
			Kind:                kind,
			Link:                addr,
		},
		sender: sender,
	})
	return addr, nil
}

func (h *Hub) admit(pubkey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.admitted[pubkey] = true
}

func (h *Hub) isAdmitted(pubkey string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.admitted[pubkey]
}

// fetchSince returns every entry published at index >= from, and the
// new cursor position.
func (h *Hub) fetchSince(from int) ([]entry, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if from >= len(h.log) {
		return nil, len(h.log)
	}
	out := append([]entry(nil), h.log[from:]...)
	return out, len(h.log)
}

func (h *Hub) cursorFor(pubkey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor[pubkey]
}

func (h *Hub) setCursor(pubkey string, pos int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor[pubkey] = pos
}
