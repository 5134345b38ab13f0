package relay

import "errors"

var (
	// ErrUnknownSender means routing was attempted for a session the
	// registry does not know. The event is dropped and logged.
	ErrUnknownSender = errors.New("relay: sender session not registered")

	// ErrNotJoined means a connection sent events before completing the
	// join handshake. Dropped and logged, never fatal.
	ErrNotJoined = errors.New("relay: session has not joined")

	// ErrInvalidRecipient covers self-addressed or empty personal
	// targets. Surfaced to the sender as a user-visible error.
	ErrInvalidRecipient = errors.New("relay: invalid recipient")
)
