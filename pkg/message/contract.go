// Package message defines the canonical, deterministically-serializable
// payload shapes published on the channel: the contract, the tagged
// business-message variant, and their encode/decode helpers.
package message

// Contract is the invariant subject of every signature in a transaction.
// It is constructed once by the initiating transactant and is immutable
// thereafter; the same bytes must appear, byte for byte, inside every
// nested pre-signature and inside the final TransactionPayload.
type Contract struct {
	Definition   string   `json:"definition"`
	Participants []string `json:"participants"` // multibase DID pubkeys, order preserved
	Time         int64    `json:"time"`          // unix seconds
	Location     Location `json:"location"`
}

// Location is a pair of degree/minute/second ordinates (north, west).
type Location struct {
	North Ordinate `json:"north"`
	West  Ordinate `json:"west"`
}

// Ordinate is one degree/minute/second coordinate component.
type Ordinate struct {
	Degrees uint16  `json:"degrees"`
	Minutes uint16  `json:"minutes"`
	Seconds float32 `json:"seconds"`
}

// Clone returns a deep copy of the contract so callers can embed it in
// multiple pre-signatures without aliasing the participants slice.
func (c Contract) Clone() Contract {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	return out
}

// Equal reports whether two contracts carry identical field values,
// used by the verifier to enforce that the top-level contract in a
// TransactionPayload matches the contract embedded in every nested
// pre-signature.
func (c Contract) Equal(other Contract) bool {
	if c.Definition != other.Definition || c.Time != other.Time || c.Location != other.Location {
		return false
	}
	if len(c.Participants) != len(other.Participants) {
		return false
	}
	for i, p := range c.Participants {
		if other.Participants[i] != p {
			return false
		}
	}
	return true
}
