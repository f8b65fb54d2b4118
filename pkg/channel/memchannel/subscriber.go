package memchannel

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/kianfay/witnessrep/pkg/channel"
)

// Subscriber is one participant's attachment to a Hub.
type Subscriber struct {
	hub         *Hub
	pubkey      string
	subscribeAt channel.Address
	subscribed  bool
}

// NewSubscriber attaches a new participant, identified by its
// channel public key, to hub.
func NewSubscriber(hub *Hub, channelPubkey string) *Subscriber {
	return &Subscriber{hub: hub, pubkey: channelPubkey}
}

func (s *Subscriber) ChannelPubkey() string { return s.pubkey }

func (s *Subscriber) ReceiveAnnouncement(ctx context.Context, ann channel.Address) error {
	s.hub.mu.Lock()
	known := s.hub.announce
	s.hub.mu.Unlock()
	if ann.ToMsgIndex() != known.ToMsgIndex() {
		return fmt.Errorf("%w: announcement %s not known to this hub", channel.ErrUnknownLink, ann)
	}
	return nil
}

func (s *Subscriber) SendSubscribe(ctx context.Context, ann channel.Address) (channel.Address, error) {
	addr, err := s.hub.append(channel.KindSubscribe, s.pubkey, nil, nil)
	if err != nil {
		return channel.Address{}, err
	}
	s.subscribeAt = addr
	s.subscribed = true
	return addr, nil
}

func (s *Subscriber) Sync(ctx context.Context) error {
	_, err := s.FetchAllNext(ctx)
	return err
}

func (s *Subscriber) SendSignedPacket(ctx context.Context, prevLink channel.Address, publicPayload, maskedPayload []byte) (channel.Address, error) {
	if !s.hub.isAdmitted(s.pubkey) {
		return channel.Address{}, fmt.Errorf("%w: %s", channel.ErrNotSubscribed, s.pubkey)
	}
	if err := s.Sync(ctx); err != nil {
		return channel.Address{}, err
	}
	return s.hub.append(channel.KindSignedPacket, s.pubkey, publicPayload, maskedPayload)
}

func (s *Subscriber) FetchAllNext(ctx context.Context) ([]channel.UnwrappedMessage, error) {
	from := s.hub.cursorFor(s.pubkey)
	entries, next := s.hub.fetchSince(from)
	s.hub.setCursor(s.pubkey, next)

	out := make([]channel.UnwrappedMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.msg)
	}
	return out, nil
}

func (s *Subscriber) Unregister(ctx context.Context) error {
	s.hub.setCursor(s.pubkey, 0)
	s.subscribed = false
	return nil
}

// exportedState is the serialized form persisted by Export.
type exportedState struct {
	Pubkey      string          `json:"pubkey"`
	SubscribeAt channel.Address `json:"subscribe_at"`
	Subscribed  bool            `json:"subscribed"`
}

// Export serializes this subscriber's session state and encrypts it
// under a key derived from password via AES-GCM. There is no
// password-based encryption pattern exercised elsewhere in the
// dependency stack to ground this on, so it is built directly on the
// standard library's crypto/aes and crypto/cipher (see DESIGN.md).
func (s *Subscriber) Export(password string) ([]byte, error) {
	plaintext, err := json.Marshal(exportedState{
		Pubkey:      s.pubkey,
		SubscribeAt: s.subscribeAt,
		Subscribed:  s.subscribed,
	})
	if err != nil {
		return nil, fmt.Errorf("memchannel: export: %w", err)
	}

	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("memchannel: export: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("memchannel: export: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("memchannel: export: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Import restores a Subscriber previously serialized with Export onto
// the given hub.
func Import(hub *Hub, data []byte, password string) (*Subscriber, error) {
	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("memchannel: import: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("memchannel: import: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", channel.ErrTransport)
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("memchannel: import: wrong password or corrupt data: %w", err)
	}

	var st exportedState
	if err := json.Unmarshal(plaintext, &st); err != nil {
		return nil, fmt.Errorf("memchannel: import: %w", err)
	}
	return &Subscriber{
		hub:         hub,
		pubkey:      st.Pubkey,
		subscribeAt: st.SubscribeAt,
		subscribed:  st.Subscribed,
	}, nil
}
