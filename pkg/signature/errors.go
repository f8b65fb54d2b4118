package signature

import "errors"

// ErrSignatureInvalid is returned when an embedded signature does not
// verify against its embedded DID public key.
var ErrSignatureInvalid = errors.New("signature: invalid")
