// Package channel is the typed facade over the external append-only,
// authenticated messaging substrate. It is the only place in the core
// that touches the substrate; every other component speaks only in
// terms of these operations.
package channel

import "context"

// Kind tags the substrate event an UnwrappedMessage carries.
type Kind int

const (
	KindAnnounce Kind = iota + 1
	KindSubscribe
	KindKeyload
	KindSignedPacket
)

// UnwrappedMessage is a message fetched back off the substrate:
// author's channel public key, optional public/masked payload bytes,
// and which kind of substrate event it was.
type UnwrappedMessage struct {
	AuthorChannelPubkey string
	PublicPayload       []byte
	MaskedPayload       []byte
	Kind                Kind
	Link                Address
}

// Author is the channel's creator and sole mutator of the admitted-
// subscribers set. Only the organization holds one.
type Author interface {
	// Announce publishes the channel's first message and returns its
	// address, the external identifier for the whole transaction.
	Announce(ctx context.Context) (Address, error)
	// ReceiveSubscribe accepts a subscriber's subscribe message,
	// admitting it to the set send_keyload_for_everyone will enroll.
	ReceiveSubscribe(ctx context.Context, sub Address) error
	// SendKeyloadForEveryone enrolls every currently accepted
	// subscriber and returns the keyload's address, which becomes the
	// prev_link for the first business message.
	SendKeyloadForEveryone(ctx context.Context, ann Address) (Address, error)
	// NewSubscriber mints a Subscriber attached to this Author's
	// channel, identified by the given channel public key.
	NewSubscriber(ctx context.Context, channelPubkey string) (Subscriber, error)
}

// Dialer obtains a handle to the messaging substrate and creates
// fresh channels on it, standing in for a node URL as the Simulator's
// and Verifier's entry point.
type Dialer interface {
	// NewAuthor creates a fresh channel from the given seed (81
	// characters over A..Z9) and returns its Author.
	NewAuthor(ctx context.Context, seed string) (Author, error)
	// Open attaches a read-only/participant Subscriber to the channel
	// named by ann, without going through an Author; used by the
	// Verifier and by participants joining an existing channel.
	Open(ctx context.Context, ann Address, channelPubkey string) (Subscriber, error)
}

// Subscriber is a single participant's view of the channel.
type Subscriber interface {
	// ChannelPubkey returns this subscriber's per-session channel
	// public key, multibase-encoded.
	ChannelPubkey() string
	// ReceiveAnnouncement processes the channel's announcement.
	ReceiveAnnouncement(ctx context.Context, ann Address) error
	// SendSubscribe sends a subscribe message and returns its address.
	SendSubscribe(ctx context.Context, ann Address) (Address, error)
	// Sync absorbs any messages published by others since the last
	// sync. Calling Sync twice with no intervening publish is
	// observationally equivalent to calling it once.
	Sync(ctx context.Context) error
	// SendSignedPacket publishes a signed packet linked to prevLink and
	// returns the new message's address. Implicitly syncs this
	// subscriber's own view first, so a caller publishing a chain of
	// messages can never forget to; orchestrating callers remain
	// responsible for syncing every other known subscriber before each
	// send.
	SendSignedPacket(ctx context.Context, prevLink Address, publicPayload, maskedPayload []byte) (Address, error)
	// FetchAllNext returns every message published since this
	// subscriber's last fetch, in causal order.
	FetchAllNext(ctx context.Context) ([]UnwrappedMessage, error)
	// Unregister discards this subscriber's per-channel state so the
	// underlying identity can be reused on a future channel.
	Unregister(ctx context.Context) error
	// Export serializes this subscriber's session state, password
	// protected, so it can be restored later without re-subscribing.
	Export(password string) ([]byte, error)
}

// Importer restores a Subscriber previously serialized with Export.
type Importer interface {
	Import(ctx context.Context, data []byte, password string) (Subscriber, error)
}
