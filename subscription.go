package natsclient

import "sync"

// MsgHandler processes messages delivered to a subscription.
// Handlers run on the connection's reader goroutine, so a slow handler
// delays every other subscription on the same connection.
type MsgHandler func(msg *Msg)

// Msg is a message received from the server or assembled for publishing.
type Msg struct {
	// Subject the message was published to.
	Subject string

	// Reply is the subject a responder should publish to, empty when the
	// publisher did not ask for a response.
	Reply string

	// Data is the raw payload.
	Data []byte

	// Sub is the subscription the message arrived on. It is nil on
	// messages assembled by the caller.
	Sub *Subscription
}

// Respond publishes data to the message's reply subject.
func (m *Msg) Respond(data []byte) error {
	if m.Reply == "" {
		return ErrNoReplySubject
	}
	if m.Sub == nil || m.Sub.client == nil {
		return ErrBadSubscription
	}
	return m.Sub.client.Publish(m.Reply, data)
}

// Subscription represents registered interest in a subject. It is created
// by Client.Subscribe or Client.QueueSubscribe and stays valid until
// Unsubscribe is called or the connection closes.
type Subscription struct {
	// Subject is the subject the subscription listens on.
	Subject string

	// Queue is the queue group name, empty for plain subscriptions.
	Queue string

	sid     uint64
	handler MsgHandler
	client  *Client

	mu     sync.Mutex
	closed bool
}

// IsValid reports whether the subscription is still registered with its
// connection.
func (s *Subscription) IsValid() bool {
	if s == nil || s.client == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Unsubscribe removes the subscription. Messages already in flight for its
// sid are dropped by the reader when they arrive.
func (s *Subscription) Unsubscribe() error {
	if s == nil || s.client == nil {
		return ErrBadSubscription
	}
	return s.client.unsubscribe(s, 0)
}

// AutoUnsubscribe asks the server to stop delivering after max messages.
// The limit is enforced by the server only; the subscription stays
// registered until Unsubscribe is called or the connection closes.
func (s *Subscription) AutoUnsubscribe(max int) error {
	if s == nil || s.client == nil {
		return ErrBadSubscription
	}
	if max <= 0 {
		return ErrBadSubscription
	}
	return s.client.unsubscribe(s, max)
}

// markClosed flags the subscription as no longer registered.
func (s *Subscription) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
