package memchannel

import (
	"context"
	"fmt"
	"sync"

	"github.com/kianfay/witnessrep/pkg/channel"
)

// Dialer is the in-process stand-in for a handle to the messaging
// substrate normally obtained from a node URL. It tracks every channel
// it has created or opened so that Open can resolve an announcement
// address back to the Hub that owns it.
type Dialer struct {
	mu   sync.Mutex
	hubs map[string]*Hub
}

// NewDialer creates an empty substrate handle. All channels created or
// opened through the same Dialer instance can see each other; separate
// Dialer instances are fully isolated, modelling distinct nodes.
func NewDialer() *Dialer {
	return &Dialer{hubs: make(map[string]*Hub)}
}

func (d *Dialer) register(ann channel.Address, hub *Hub) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hubs[ann.ToMsgIndex()] = hub
}

func (d *Dialer) lookup(ann channel.Address) (*Hub, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hub, ok := d.hubs[ann.ToMsgIndex()]
	return hub, ok
}

// NewAuthor creates a fresh channel and returns its Author. seed is
// accepted for interface fidelity with the real substrate's author
// seed but otherwise unused: an in-process Hub needs no external
// randomness to be unique.
func (d *Dialer) NewAuthor(ctx context.Context, seed string) (channel.Author, error) {
	return &registeringAuthor{Author: NewAuthor(), dialer: d}, nil
}

// Open attaches a Subscriber to the channel previously announced at
// ann.
func (d *Dialer) Open(ctx context.Context, ann channel.Address, channelPubkey string) (channel.Subscriber, error) {
	hub, ok := d.lookup(ann)
	if !ok {
		return nil, fmt.Errorf("%w: no channel announced at %s", channel.ErrUnknownLink, ann)
	}
	return NewSubscriber(hub, channelPubkey), nil
}

// registeringAuthor wraps Author to register its Hub with the owning
// Dialer the moment Announce succeeds, so Open can later resolve it.
type registeringAuthor struct {
	*Author
	dialer *Dialer
}

func (a *registeringAuthor) Announce(ctx context.Context) (channel.Address, error) {
	addr, err := a.Author.Announce(ctx)
	if err != nil {
		return channel.Address{}, err
	}
	a.dialer.register(addr, a.Author.Hub())
	return addr, nil
}
