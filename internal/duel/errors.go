package duel

import "errors"

// ErrTransportUnavailable is reported when an outbound action is attempted
// while the socket channel is absent or already closed. The action is a
// no-op; nothing is retried.
var ErrTransportUnavailable = errors.New("transport unavailable")

// ErrSessionAbandoned is reported when the transport drops mid-session. The
// session returns to Idle and no outcome is produced.
var ErrSessionAbandoned = errors.New("session abandoned")

// ErrSessionClosed is returned by session commands after the event loop has
// exited.
var ErrSessionClosed = errors.New("session closed")
