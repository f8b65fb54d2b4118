package identity

import "errors"

// ErrDidPublishFailed is returned when publishing a DID document to the
// DID service fails.
var ErrDidPublishFailed = errors.New("identity: did publish failed")

// ErrKeyEncoding is returned when a public key cannot be encoded to or
// decoded from its multibase string form. Every caller, including the
// signature engine, threads this through as an ordinary error rather
// than panicking on a malformed key.
var ErrKeyEncoding = errors.New("identity: key encoding failed")
