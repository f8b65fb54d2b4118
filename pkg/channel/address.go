package channel

import (
	"encoding/hex"
	"fmt"

	"github.com/multiformats/go-multihash"
)

// Address names a single message on the substrate: a content-derived
// digest of the message it points to, plus a monotonic sequence number
// that breaks ties between messages published in the same instant.
// The zero Address is never valid and is used as the sentinel
// "no link yet" value for an announcement's own prev_link.
type Address struct {
	Digest multihash.Multihash
	Seq    uint64
}

// NewAddress derives an Address from the bytes of the message it will
// name and the next free sequence number in the channel.
func NewAddress(messageBytes []byte, seq uint64) (Address, error) {
	digest, err := multihash.Sum(messageBytes, multihash.SHA2_256, -1)
	if err != nil {
		return Address{}, fmt.Errorf("channel: derive address: %w", err)
	}
	return Address{Digest: digest, Seq: seq}, nil
}

// ToMsgIndex renders the address as the hex-encoded multihash string
// used to index messages in the substrate.
func (a Address) ToMsgIndex() string {
	return hex.EncodeToString(a.Digest)
}

// ParseAddress reconstructs an Address from a ToMsgIndex string, as
// produced by a completed run returning its announcement address for
// later verification. The sequence number is not recoverable from the
// index alone; callers that need it use the Address returned directly
// by Announce instead of round-tripping through this function.
func ParseAddress(msgIndex string) (Address, error) {
	digest, err := hex.DecodeString(msgIndex)
	if err != nil {
		return Address{}, fmt.Errorf("channel: parse address: %w", err)
	}
	return Address{Digest: multihash.Multihash(digest)}, nil
}

// IsZero reports whether a is the unset sentinel address.
func (a Address) IsZero() bool {
	return len(a.Digest) == 0
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d", a.ToMsgIndex(), a.Seq)
}
