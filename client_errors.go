package natsclient

import (
	"errors"
	"strings"
)

// Event handler function type.
type EventHandler func(client *Client, event error)

// Sentinel events for client lifecycle - check with errors.Is().
var (
	// ErrConnected is emitted when the client successfully connects.
	ErrConnected = errors.New("connected")

	// ErrDisconnected is emitted when the client disconnects gracefully.
	ErrDisconnected = errors.New("disconnected")

	// ErrConnectionLost is emitted when the connection is lost unexpectedly.
	ErrConnectionLost = errors.New("connection lost")
)

// Sentinel errors for authentication - check with errors.Is().
var (
	// ErrAuthorization is returned when the server rejects the client's
	// credentials during the handshake.
	ErrAuthorization = errors.New("authorization violation")
)

// Sentinel errors for protocol issues - check with errors.Is().
var (
	// ErrProtocolError is returned when the server sends a line the client
	// cannot parse, an unexpected handshake response, or a -ERR.
	ErrProtocolError = errors.New("protocol error")

	// ErrBadPayloadSize is returned when a message body does not end at its
	// declared byte count.
	ErrBadPayloadSize = errors.New("payload size mismatch")
)

// Sentinel errors for operations - check with errors.Is().
var (
	// ErrConnectionClosed is returned when an operation is attempted on a
	// closed client.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout is returned when a request, flush, or handshake round-trip
	// does not complete within its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrBadSubject is returned when a publish or request names an empty
	// subject.
	ErrBadSubject = errors.New("invalid subject")

	// ErrBadQueueName is returned when a queue subscription names an empty
	// or malformed queue group.
	ErrBadQueueName = errors.New("invalid queue name")

	// ErrMaxPayload is returned when a payload exceeds the limit the server
	// announced in its INFO.
	ErrMaxPayload = errors.New("maximum payload size exceeded")

	// ErrInvalidMsg is returned when publishing a nil message.
	ErrInvalidMsg = errors.New("invalid message")

	// ErrNoReplySubject is returned when replying to a message that carries
	// no reply subject.
	ErrNoReplySubject = errors.New("message has no reply subject")

	// ErrBadSubscription is returned for operations on an unsubscribed or
	// otherwise invalid subscription.
	ErrBadSubscription = errors.New("invalid subscription")
)

// authViolationPhrases classifies -ERR messages that indicate rejected
// credentials rather than a wire-level fault. The server sends these in
// free text, so matching is case-insensitive substring.
var authViolationPhrases = []string{
	"authorization violation",
	"authentication",
}

func isAuthViolation(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range authViolationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ServerError contains a -ERR message received from the server.
// Extract with errors.As().
type ServerError struct {
	err error

	// Message is the server's error text, without the surrounding quotes.
	Message string
}

func (e *ServerError) Error() string { return "server error: " + e.Message }
func (e *ServerError) Unwrap() error { return e.err }

// NewServerError creates a ServerError from a -ERR message. Messages that
// match an authorization-violation pattern unwrap to ErrAuthorization,
// everything else to ErrProtocolError.
func NewServerError(message string) *ServerError {
	baseErr := ErrProtocolError
	if isAuthViolation(message) {
		baseErr = ErrAuthorization
	}
	return &ServerError{
		err:     baseErr,
		Message: message,
	}
}

// ConnectedEvent contains details about a successful connection.
// Extract with errors.As().
type ConnectedEvent struct {
	err error

	// Info is the server's handshake announcement.
	Info *ServerInfo
}

func (e *ConnectedEvent) Error() string { return e.err.Error() }
func (e *ConnectedEvent) Unwrap() error { return e.err }

// NewConnectedEvent creates a new ConnectedEvent.
func NewConnectedEvent(info *ServerInfo) *ConnectedEvent {
	return &ConnectedEvent{
		err:  ErrConnected,
		Info: info,
	}
}

// ConnectionLostError contains details about an unexpected disconnection.
// Extract with errors.As().
type ConnectionLostError struct {
	err   error
	Cause error
}

func (e *ConnectionLostError) Error() string {
	if e.Cause != nil {
		return "connection lost: " + e.Cause.Error()
	}
	return "connection lost"
}

func (e *ConnectionLostError) Unwrap() error { return e.err }

// NewConnectionLostError creates a new ConnectionLostError.
func NewConnectionLostError(cause error) *ConnectionLostError {
	return &ConnectionLostError{
		err:   ErrConnectionLost,
		Cause: cause,
	}
}
