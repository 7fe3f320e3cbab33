package natsclient

import (
	"context"
	"errors"
	"time"
)

// RequestHandler receives the outcome of an asynchronous request: the
// first response, or a nil message together with the error.
type RequestHandler func(msg *Msg, err error)

// Request publishes data on subject with a fresh reply inbox and waits
// for the first response. The inbox subscription lives exactly as long as
// the request. Without a deadline on ctx the configured request timeout
// applies.
func (c *Client) Request(ctx context.Context, subject string, data []byte) (*Msg, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	inbox := c.newRequestInbox()

	// Single-shot correlation: the first response wins, later ones fall
	// into the dropped-delivery path once the inbox is unsubscribed.
	respCh := make(chan *Msg, 1)
	sub, err := c.subscribe(inbox, "", func(msg *Msg) {
		select {
		case respCh <- msg:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	if err := c.publish(subject, inbox, data, true); err != nil {
		return nil, err
	}

	select {
	case msg := <-respCh:
		c.stats.RequestCompleted(time.Since(start))
		return msg, nil
	case <-c.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// RequestTimeout is Request with an explicit timeout.
func (c *Client) RequestTimeout(subject string, data []byte, timeout time.Duration) (*Msg, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Request(ctx, subject, data)
}

// RequestAsync runs the request in its own goroutine and delivers the
// outcome to handler exactly once.
func (c *Client) RequestAsync(subject string, data []byte, handler RequestHandler) error {
	if handler == nil {
		return ErrBadSubscription
	}
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if !validSubject(subject) {
		return ErrBadSubject
	}

	go func() {
		msg, err := c.Request(context.Background(), subject, data)
		handler(msg, err)
	}()
	return nil
}

// newRequestInbox derives a per-request reply subject under the
// connection's inbox prefix.
func (c *Client) newRequestInbox() string {
	return c.inboxPrefix + "." + randomToken(replySuffixLen)
}
