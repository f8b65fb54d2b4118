package message

import "errors"

// ErrMalformedMessage is returned when a published payload deserializes
// to an unknown variant or an internally inconsistent shape.
var ErrMalformedMessage = errors.New("message: malformed message")
