package memchannel

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel"
)

// Author is the organization's side of a channel: it owns the shared
// Hub and decides which subscribers are admitted when it emits a
// keyload.
type Author struct {
	hub    *Hub
	logger zerolog.Logger

	pending  []string // channel pubkeys that have subscribed but not yet been keyloaded
	pendingM map[string]bool
}

// Option configures an Author constructed by NewAuthor.
type Option func(*Author)

// WithLogger sets the structured logger an Author uses for transport
// events. Unset, an Author logs nothing (zerolog.Nop()).
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Author) { a.logger = logger }
}

// NewAuthor creates the channel's Hub and the Author that owns it.
// Subscribers attach to the returned Hub via NewSubscriber.
func NewAuthor(opts ...Option) *Author {
	a := &Author{
		hub:      NewHub(),
		pendingM: make(map[string]bool),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hub exposes the shared log so subscribers can be constructed against
// the same channel.
func (a *Author) Hub() *Hub {
	return a.hub
}

func (a *Author) Announce(ctx context.Context) (channel.Address, error) {
	// A random nonce as payload gives every channel's announcement its
	// own content digest, so announcement addresses never collide.
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return channel.Address{}, fmt.Errorf("%w: memchannel: announce nonce: %v", channel.ErrTransport, err)
	}
	addr, err := a.hub.append(channel.KindAnnounce, "", nonce, nil)
	if err != nil {
		return channel.Address{}, err
	}
	a.hub.mu.Lock()
	a.hub.announce = addr
	a.hub.mu.Unlock()
	a.logger.Debug().Str("address", addr.String()).Msg("channel announced")
	return addr, nil
}

func (a *Author) ReceiveSubscribe(ctx context.Context, sub channel.Address) error {
	h := a.hub
	h.mu.Lock()
	var pubkey string
	found := false
	for _, e := range h.log {
		if e.addr.Seq == sub.Seq && bytes.Equal(e.addr.Digest, sub.Digest) && e.msg.Kind == channel.KindSubscribe {
			pubkey = e.sender
			found = true
			break
		}
	}
	h.mu.Unlock()
	if !found {
		return fmt.Errorf("%w: no subscribe message at %s", channel.ErrUnknownLink, sub)
	}
	if !a.pendingM[pubkey] {
		a.pendingM[pubkey] = true
		a.pending = append(a.pending, pubkey)
	}
	return nil
}

func (a *Author) SendKeyloadForEveryone(ctx context.Context, ann channel.Address) (channel.Address, error) {
	for _, pubkey := range a.pending {
		a.hub.admit(pubkey)
	}
	addr, err := a.hub.append(channel.KindKeyload, "", nil, nil)
	if err != nil {
		return channel.Address{}, err
	}
	a.logger.Debug().Int("admitted", len(a.pending)).Str("address", addr.String()).Msg("keyload emitted for everyone")
	a.pending = nil
	a.pendingM = make(map[string]bool)
	return addr, nil
}

func (a *Author) NewSubscriber(ctx context.Context, channelPubkey string) (channel.Subscriber, error) {
	return NewSubscriber(a.hub, channelPubkey), nil
}
