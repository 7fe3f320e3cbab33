package natsclient

// Status represents the lifecycle state of a client connection.
type Status int32

const (
	// StatusDisconnected is the state before a connection attempt is made.
	StatusDisconnected Status = iota

	// StatusConnecting is the state while the handshake is in progress.
	StatusConnecting

	// StatusConnected is the state of an established connection.
	StatusConnected

	// StatusReconnecting is reserved for a future reconnect implementation.
	// No transition enters this state; the client does not reconnect.
	StatusReconnecting

	// StatusDrainingSubs is the first shutdown phase, while live
	// subscriptions are being unsubscribed.
	StatusDrainingSubs

	// StatusDrainingPubs is the second shutdown phase, while buffered
	// writes are flushed and the transport is torn down.
	StatusDrainingPubs

	// StatusClosed is the terminal state. A closed client cannot be reused.
	StatusClosed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusReconnecting:
		return "RECONNECTING"
	case StatusDrainingSubs:
		return "DRAINING_SUBS"
	case StatusDrainingPubs:
		return "DRAINING_PUBS"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
