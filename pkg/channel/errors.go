package channel

import "errors"

// ErrTransport wraps any failure to publish or fetch against the
// underlying substrate (network partition, unknown link, closed
// channel). Callers distinguish it from application-level rejections
// such as a missing subscription.
var ErrTransport = errors.New("channel: transport failure")

// ErrNotSubscribed is returned when an operation that requires prior
// admission (SendSignedPacket) is attempted before the author has
// admitted this subscriber with a keyload. FetchAllNext needs no
// admission, so a read-only replay reader can fetch without one.
var ErrNotSubscribed = errors.New("channel: subscriber not admitted")

// ErrUnknownLink is returned when an operation references an Address
// that does not name any message on the channel.
var ErrUnknownLink = errors.New("channel: unknown link")
