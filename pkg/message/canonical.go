package message

import (
	"encoding/json"
	"fmt"
)

// Canonical produces the deterministic byte encoding hashed inside every
// signature and published on the channel. Go marshals struct fields in
// declaration order (not sorted, unlike map keys), so any value built
// purely from the structs in this package serializes identically for
// identical inputs across platforms and Go versions: no insignificant
// whitespace, no field reordering. Callers must never hand Canonical a
// map[string]any or anything else whose marshaling order Go does not
// pin, since that would reintroduce the non-determinism this function
// exists to avoid.
func Canonical(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("message: canonicalize: %w", err)
	}
	return b, nil
}

// Encode serializes an Envelope to its wire form: the canonical JSON
// encoding published as a SignedPacket's public payload.
func Encode(e Envelope) ([]byte, error) {
	b, err := Canonical(e)
	if err != nil {
		return nil, fmt.Errorf("message: encode envelope: %w", err)
	}
	return b, nil
}

// Decode deserializes a published payload back into an Envelope. An
// unknown or malformed Kind, or a payload whose Kind does not match the
// variant actually populated, fails with ErrMalformedMessage.
func Decode(payload []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	switch e.Kind {
	case KindTransaction:
		if e.Transaction == nil {
			return Envelope{}, fmt.Errorf("%w: transaction kind missing transaction payload", ErrMalformedMessage)
		}
	case KindWitnessStatement:
		if e.Statement == nil {
			return Envelope{}, fmt.Errorf("%w: witness_statement kind missing statement payload", ErrMalformedMessage)
		}
	case KindCompensation:
		if e.Compensation == nil {
			return Envelope{}, fmt.Errorf("%w: compensation kind missing compensation payload", ErrMalformedMessage)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: unknown kind %d", ErrMalformedMessage, e.Kind)
	}
	return e, nil
}
