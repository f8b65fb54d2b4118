package message

// WitnessPreSig is the structured value a witness signs: the contract it
// attests to, the channel key it signs from, and how long it is willing
// to be exposed before the transaction must conclude. It is never
// published on its own; it is reconstructed from a WitnessSig's fields
// at verification time and must canonicalize identically to what was
// signed.
type WitnessPreSig struct {
	Contract          Contract `json:"contract"`
	SignerChannelPubkey string `json:"signer_channel_pubkey"`
	Timeout           uint32   `json:"timeout"`
}

// WitnessSig is a WitnessPreSig plus the signer's long-lived DID public
// key and the Ed25519 signature over the canonicalized pre-signature.
type WitnessSig struct {
	Contract            Contract `json:"contract"`
	SignerChannelPubkey string   `json:"signer_channel_pubkey"`
	Timeout             uint32   `json:"timeout"`
	SignerDIDPubkey     string   `json:"signer_did_pubkey"`
	Signature           []byte   `json:"signature"`
}

// PreSig reconstructs the WitnessPreSig embedded inside this signature,
// used both when signing and when re-deriving the signed bytes to verify.
func (s WitnessSig) PreSig() WitnessPreSig {
	return WitnessPreSig{
		Contract:            s.Contract.Clone(),
		SignerChannelPubkey: s.SignerChannelPubkey,
		Timeout:             s.Timeout,
	}
}

// TransactingPreSig is the structured value a transactant signs: the
// contract, their own channel key, the declared witness set (DID
// pubkeys) and the full witness signatures nested verbatim. Nesting
// the witness signatures inside the signed bytes is what binds the
// witness set to the transactant's consent: substituting any witness
// signature invalidates the transacting signature.
type TransactingPreSig struct {
	Contract            Contract     `json:"contract"`
	SignerChannelPubkey string       `json:"signer_channel_pubkey"`
	Witnesses           []string     `json:"witnesses"`
	WitNodeSigs         []WitnessSig `json:"wit_node_sigs"`
	Timeout             uint32       `json:"timeout"`
}

// TransactingSig is a TransactingPreSig plus the signer's DID public key
// and the Ed25519 signature over the canonicalized pre-signature.
type TransactingSig struct {
	Contract            Contract     `json:"contract"`
	SignerChannelPubkey string       `json:"signer_channel_pubkey"`
	Witnesses           []string     `json:"witnesses"`
	WitNodeSigs         []WitnessSig `json:"wit_node_sigs"`
	Timeout             uint32       `json:"timeout"`
	SignerDIDPubkey     string       `json:"signer_did_pubkey"`
	Signature           []byte       `json:"signature"`
}

// PreSig reconstructs the TransactingPreSig embedded inside this
// signature.
func (s TransactingSig) PreSig() TransactingPreSig {
	return TransactingPreSig{
		Contract:            s.Contract.Clone(),
		SignerChannelPubkey: s.SignerChannelPubkey,
		Witnesses:           append([]string(nil), s.Witnesses...),
		WitNodeSigs:         append([]WitnessSig(nil), s.WitNodeSigs...),
		Timeout:             s.Timeout,
	}
}
