package natsclient

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultURL is the address used when Connect is given an empty URL.
const DefaultURL = "nats://127.0.0.1:4222"

// Client is a connection to a server. It is safe for concurrent use.
//
// A Client does not reconnect. When the connection is lost or a protocol
// violation occurs, the client closes and every subsequent operation
// returns ErrConnectionClosed.
type Client struct {
	options *clientOptions
	url     *url.URL

	// conn, br and bw are replaced together during the in-place TLS
	// upgrade. All writes to bw happen under writeMu.
	conn    net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	writeMu sync.Mutex

	status atomic.Int32
	closed atomic.Bool

	// Most recent server announcement, updated by mid-stream INFO.
	info   *ServerInfo
	infoMu sync.RWMutex

	// Subscription registry. Sids are monotonic and never reused.
	subs    map[uint64]*Subscription
	subsMu  sync.RWMutex
	nextSID atomic.Uint64

	// FIFO of waiters for outstanding PINGs. The server answers pings in
	// order, so the oldest waiter owns the next PONG.
	pongs   []chan struct{}
	pongsMu sync.Mutex

	// Reply-subject prefix for requests, fixed for the connection lifetime.
	inboxPrefix string

	done      chan struct{}
	readDone  chan struct{}
	flushDone chan struct{}

	logger Logger
	stats  *clientMetrics
}

// Connect connects to the server at rawurl and performs the handshake.
// Supported schemes are nats, tls, ws and wss; an empty rawurl connects
// to DefaultURL.
func Connect(rawurl string, opts ...Option) (*Client, error) {
	return ConnectContext(context.Background(), rawurl, opts...)
}

// ConnectContext is Connect with a context bounding the dial and
// handshake. The context does not govern the connection's lifetime.
func ConnectContext(ctx context.Context, rawurl string, opts ...Option) (*Client, error) {
	options := applyOptions(opts...)
	if options.name == "" {
		options.name = generateName()
	}

	u, err := parseServerURL(rawurl)
	if err != nil {
		return nil, err
	}

	c := &Client{
		options:     options,
		url:         u,
		subs:        make(map[uint64]*Subscription),
		inboxPrefix: NewInbox(),
		done:        make(chan struct{}),
		readDone:    make(chan struct{}),
		flushDone:   make(chan struct{}),
		logger:      options.logger,
		stats:       newClientMetrics(options.metrics),
	}

	connectCtx, cancel := context.WithTimeout(ctx, options.connectTimeout)
	defer cancel()

	if err := c.connect(connectCtx); err != nil {
		return nil, err
	}
	return c, nil
}

// parseServerURL normalizes a server address. A bare host or host:port is
// treated as the nats scheme, and missing ports get the scheme's default.
func parseServerURL(rawurl string) (*url.URL, error) {
	if rawurl == "" {
		rawurl = DefaultURL
	}
	if !strings.Contains(rawurl, "://") {
		rawurl = "nats://" + rawurl
	}

	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", rawurl, err)
	}

	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q in server URL", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host in server URL %q", rawurl)
	}
	if u.Port() == "" {
		switch u.Scheme {
		case "nats", "tls":
			u.Host = net.JoinHostPort(u.Hostname(), "4222")
		case "ws":
			u.Host = net.JoinHostPort(u.Hostname(), "80")
		case "wss":
			u.Host = net.JoinHostPort(u.Hostname(), "443")
		}
	}
	return u, nil
}

// generateName returns a unique default connection name.
func generateName() string {
	return "natsclient-" + uuid.NewString()
}

// connect dials the server and runs the handshake: read INFO, upgrade to
// TLS when required, send CONNECT, then prove the link with a PING round
// trip. On failure nothing is left running and the status stays at
// CONNECTING.
func (c *Client) connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url.Host, err)
	}
	c.conn = conn
	c.br = bufio.NewReaderSize(conn, defaultBufSize)
	c.bw = bufio.NewWriterSize(conn, defaultBufSize)

	// One deadline covers the whole handshake, TLS included.
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
	}

	info, err := c.readServerInfo()
	if err != nil {
		c.conn.Close()
		return err
	}
	c.setInfo(info)

	if err := c.maybeUpgradeTLS(ctx, info); err != nil {
		c.conn.Close()
		return err
	}

	if err := c.sendConnect(info); err != nil {
		c.conn.Close()
		return err
	}

	if err := c.awaitHandshakePong(); err != nil {
		c.conn.Close()
		return err
	}

	c.conn.SetDeadline(time.Time{})
	c.setStatus(StatusConnected)

	go c.readLoop()
	go c.flushLoop()

	c.logger.Info("connected", LogFields{
		LogFieldURL:        c.url.String(),
		LogFieldRemoteAddr: c.conn.RemoteAddr().String(),
	})
	c.emit(NewConnectedEvent(c.ServerInfo()))
	return nil
}

// dial opens the transport for the configured URL. The tls scheme still
// dials plaintext; the upgrade happens after the server announcement.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if c.options.dialer != nil {
		return c.options.dialer.Dial(ctx, c.url.Host)
	}

	switch c.url.Scheme {
	case "nats", "tls":
		proxyDialer, err := c.resolveProxy()
		if err != nil {
			return nil, err
		}
		if proxyDialer != nil {
			return proxyDialer.DialContext(ctx, "tcp", c.url.Host)
		}
		dialer := &TCPDialer{Timeout: c.options.connectTimeout}
		return dialer.Dial(ctx, c.url.Host)
	case "ws", "wss":
		wsDialer := NewWSDialer()
		wsDialer.Dialer.TLSClientConfig = c.options.tlsConfig
		if c.options.proxyConfig != nil {
			cfg := c.options.proxyConfig
			proxyDialer, err := NewProxyDialer(cfg.URL, cfg.Username, cfg.Password)
			if err != nil {
				return nil, err
			}
			wsDialer.Dialer.NetDialContext = proxyDialer.DialContext
		} else if c.options.proxyFromEnv {
			// The WebSocket handshake speaks HTTP, so the stock proxy
			// machinery applies directly.
			wsDialer.SetProxyFromEnvironment()
		}
		return wsDialer.Dial(ctx, c.url.String())
	default:
		return nil, fmt.Errorf("unsupported scheme %q", c.url.Scheme)
	}
}

// resolveProxy returns the proxy dialer to use, if any. An explicit proxy
// option wins over environment discovery.
func (c *Client) resolveProxy() (*ProxyDialer, error) {
	if c.options.proxyConfig != nil {
		cfg := c.options.proxyConfig
		return NewProxyDialer(cfg.URL, cfg.Username, cfg.Password)
	}
	if c.options.proxyFromEnv {
		proxyURL, err := ProxyFromEnvironment(c.url.String())
		if err != nil {
			return nil, err
		}
		if proxyURL != nil {
			return NewProxyDialer(proxyURL.String(), "", "")
		}
	}
	return nil, nil
}

// readServerInfo reads the INFO line that must open every connection.
func (c *Client) readServerInfo() (*ServerInfo, error) {
	line, err := readControlLine(c.br)
	if err != nil {
		return nil, fmt.Errorf("failed to read INFO: %w", err)
	}
	op, err := parseOp(line)
	if err != nil {
		return nil, err
	}
	if op.Type != opInfo {
		return nil, fmt.Errorf("expected INFO, received %q: %w", line, ErrProtocolError)
	}
	return decodeServerInfo(op.Arg)
}

// maybeUpgradeTLS switches the transport to TLS in place when the server
// demands it or the caller asked for it. WebSocket transports handle TLS
// at their own layer and are never re-wrapped.
func (c *Client) maybeUpgradeTLS(ctx context.Context, info *ServerInfo) error {
	if c.url.Scheme == "ws" || c.url.Scheme == "wss" {
		return nil
	}
	if !c.tlsRequested() && !info.TLSRequired {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	tlsConn, err := upgradeTLS(ctx, c.conn, c.options.tlsConfig, c.url.Hostname())
	if err != nil {
		return fmt.Errorf("TLS upgrade failed: %w", err)
	}
	c.conn = tlsConn
	c.br.Reset(tlsConn)
	c.bw.Reset(tlsConn)
	return nil
}

// tlsRequested reports whether the connect target or options ask for TLS.
func (c *Client) tlsRequested() bool {
	return c.url.Scheme == "tls" || c.options.tlsConfig != nil
}

// sendConnect writes the CONNECT frame followed by the initial PING in a
// single flush.
func (c *Client) sendConnect(info *ServerInfo) error {
	tlsActive := c.url.Scheme == "wss"
	if _, ok := c.conn.(*tls.Conn); ok {
		tlsActive = true
	}

	request, err := buildConnectRequest(c.options, info, tlsActive)
	if err != nil {
		return err
	}
	payload, err := request.encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := writeConnectFrame(c.bw, payload); err != nil {
		return fmt.Errorf("failed to send CONNECT: %w", err)
	}
	if err := writePingFrame(c.bw); err != nil {
		return fmt.Errorf("failed to send PING: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return fmt.Errorf("failed to send CONNECT: %w", err)
	}
	return nil
}

// awaitHandshakePong reads responses until the server answers the initial
// PING. Servers in verbose mode acknowledge CONNECT with +OK first.
func (c *Client) awaitHandshakePong() error {
	for {
		line, err := readControlLine(c.br)
		if err != nil {
			return fmt.Errorf("failed to read handshake response: %w", err)
		}
		op, err := parseOp(line)
		if err != nil {
			return err
		}

		switch op.Type {
		case opPong:
			return nil
		case opOK:
			continue
		case opErr:
			return NewServerError(op.Arg)
		default:
			return fmt.Errorf("unexpected handshake response %q: %w", line, ErrProtocolError)
		}
	}
}

// Status returns the connection lifecycle state.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

func (c *Client) setStatus(s Status) {
	c.status.Store(int32(s))
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// IsClosed reports whether the client has been closed.
func (c *Client) IsClosed() bool {
	return c.Status() == StatusClosed
}

// ServerInfo returns a copy of the most recent server announcement, or
// nil before the handshake completes.
func (c *Client) ServerInfo() *ServerInfo {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

func (c *Client) setInfo(info *ServerInfo) {
	c.infoMu.Lock()
	c.info = info
	c.infoMu.Unlock()
}

// maxPayload returns the server's payload limit, 0 when unknown.
func (c *Client) maxPayload() int64 {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	if c.info == nil {
		return 0
	}
	return c.info.MaxPayload
}

// ConnectedURL returns the URL of the connected server, or the empty
// string once the client is closed.
func (c *Client) ConnectedURL() string {
	if c.closed.Load() {
		return ""
	}
	return c.url.String()
}

// Name returns the connection name sent in the handshake.
func (c *Client) Name() string {
	return c.options.name
}

// emit delivers an event to the configured handler.
func (c *Client) emit(event error) {
	if c.options.onEvent != nil {
		c.options.onEvent(c, event)
	}
}

// write runs fn against the output buffer under the writer gate. With
// immediate set the buffer is flushed before the gate is released.
func (c *Client) write(immediate bool, fn func(w *bufio.Writer) error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.options.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.options.writeTimeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	err := fn(c.bw)
	if err == nil && immediate {
		err = c.bw.Flush()
	}
	if err != nil && c.closed.Load() {
		return ErrConnectionClosed
	}
	return err
}

// Publish sends data to a subject. The write is buffered; the flush loop
// or the next immediate-mode write puts it on the wire.
func (c *Client) Publish(subject string, data []byte) error {
	return c.publish(subject, "", data, false)
}

// PublishMsg sends a message, honoring its reply subject.
func (c *Client) PublishMsg(msg *Msg) error {
	if msg == nil {
		return ErrInvalidMsg
	}
	return c.publish(msg.Subject, msg.Reply, msg.Data, false)
}

// PublishRequest sends data to a subject carrying a reply subject for the
// responder.
func (c *Client) PublishRequest(subject, reply string, data []byte) error {
	if reply == "" {
		return ErrNoReplySubject
	}
	return c.publish(subject, reply, data, false)
}

// publish validates and writes one PUB frame. Validation happens before
// any bytes are written, so a rejected publish leaves the stream intact.
func (c *Client) publish(subject, reply string, data []byte, immediate bool) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if !validSubject(subject) {
		return ErrBadSubject
	}
	if reply != "" && !validSubject(reply) {
		return ErrBadSubject
	}
	if limit := c.maxPayload(); limit > 0 && int64(len(data)) > limit {
		return ErrMaxPayload
	}

	err := c.write(immediate, func(w *bufio.Writer) error {
		return writePubFrame(w, subject, reply, data)
	})
	if err != nil {
		return err
	}

	c.stats.MessageSent(len(data))
	return nil
}

// Subscribe registers a handler for a subject. The handler runs on the
// reader goroutine; see MsgHandler.
func (c *Client) Subscribe(subject string, handler MsgHandler) (*Subscription, error) {
	return c.subscribe(subject, "", handler)
}

// QueueSubscribe registers a handler as a member of a queue group. The
// server delivers each message on the subject to one member of the group.
func (c *Client) QueueSubscribe(subject, queue string, handler MsgHandler) (*Subscription, error) {
	if !validSubject(queue) {
		return nil, ErrBadQueueName
	}
	return c.subscribe(subject, queue, handler)
}

// subscribe records the subscription under a fresh sid and sends SUB. The
// record exists before the frame is flushed so the reader can route an
// immediate delivery.
func (c *Client) subscribe(subject, queue string, handler MsgHandler) (*Subscription, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	if !validSubject(subject) {
		return nil, ErrBadSubject
	}
	if handler == nil {
		return nil, ErrBadSubscription
	}

	sub := &Subscription{
		Subject: subject,
		Queue:   queue,
		sid:     c.nextSID.Add(1),
		handler: handler,
		client:  c,
	}

	c.subsMu.Lock()
	c.subs[sub.sid] = sub
	c.subsMu.Unlock()

	err := c.write(true, func(w *bufio.Writer) error {
		return writeSubFrame(w, subject, queue, sub.sid)
	})
	if err != nil {
		c.subsMu.Lock()
		delete(c.subs, sub.sid)
		c.subsMu.Unlock()
		sub.markClosed()
		return nil, err
	}

	c.stats.SubscriptionAdded()
	c.logger.Debug("subscribed", LogFields{
		LogFieldSubject: subject,
		LogFieldQueue:   queue,
		LogFieldSID:     sub.sid,
	})
	return sub, nil
}

// unsubscribe sends UNSUB for the subscription. With max == 0 the
// registration is removed immediately; a positive max is passed through
// for the server to enforce and the registration stays.
func (c *Client) unsubscribe(sub *Subscription, max int) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.subsMu.Lock()
	_, ok := c.subs[sub.sid]
	if ok && max == 0 {
		delete(c.subs, sub.sid)
	}
	c.subsMu.Unlock()

	if !ok {
		return ErrBadSubscription
	}

	if max == 0 {
		sub.markClosed()
		c.stats.SubscriptionRemoved()
	}

	err := c.write(true, func(w *bufio.Writer) error {
		return writeUnsubFrame(w, sub.sid, max)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("unsubscribed", LogFields{
		LogFieldSubject: sub.Subject,
		LogFieldSID:     sub.sid,
	})
	return nil
}

// NumSubscriptions returns the number of live subscriptions.
func (c *Client) NumSubscriptions() int {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return len(c.subs)
}

// Flush sends a PING and waits for the matching PONG, proving that every
// write buffered before the call reached the server. It doubles as the
// liveness probe. Without a deadline on ctx the configured request
// timeout applies.
func (c *Client) Flush(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.requestTimeout)
		defer cancel()
	}

	// The waiter joins the FIFO before PING goes out so a fast PONG
	// cannot arrive unclaimed.
	ch := make(chan struct{})
	c.pongsMu.Lock()
	c.pongs = append(c.pongs, ch)
	c.pongsMu.Unlock()

	if err := c.write(true, writePingFrame); err != nil {
		c.removePongWaiter(ch)
		return err
	}
	c.stats.PingSent()

	select {
	case <-ch:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// FlushTimeout is Flush with an explicit timeout.
func (c *Client) FlushTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Flush(ctx)
}

// completePong releases the oldest liveness waiter. The server answers
// pings in order, so ownership is positional. A waiter that timed out is
// completed into the void.
func (c *Client) completePong() {
	c.pongsMu.Lock()
	var ch chan struct{}
	if len(c.pongs) > 0 {
		ch = c.pongs[0]
		c.pongs[0] = nil
		c.pongs = c.pongs[1:]
	}
	c.pongsMu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// removePongWaiter drops a waiter whose PING never went out.
func (c *Client) removePongWaiter(ch chan struct{}) {
	c.pongsMu.Lock()
	defer c.pongsMu.Unlock()
	for i, waiter := range c.pongs {
		if waiter == ch {
			c.pongs = append(c.pongs[:i], c.pongs[i+1:]...)
			return
		}
	}
}

// flushLoop periodically pushes buffered writes onto the wire, amortizing
// syscalls across bursts of publishes. Write failures surface on the read
// path.
func (c *Client) flushLoop() {
	defer close(c.flushDone)

	ticker := time.NewTicker(c.options.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			if c.bw.Buffered() > 0 {
				c.bw.Flush()
			}
			c.writeMu.Unlock()
		}
	}
}

// readLoop is the sole reader of the transport. It dispatches inbound
// operations until the connection ends.
func (c *Client) readLoop() {
	defer close(c.readDone)

	for {
		line, err := readControlLine(c.br)
		if err != nil {
			c.handleReadError(err)
			return
		}

		op, err := parseOp(line)
		if err != nil {
			c.handleProtocolError(err)
			return
		}

		switch op.Type {
		case opMsg:
			payload, err := readPayload(c.br, op.Size)
			if err != nil {
				c.handlePayloadError(err)
				return
			}
			c.deliverMsg(op, payload)
		case opHMsg:
			// Recognized for stream integrity, contents not decoded.
			if err := skipPayload(c.br, op.Size); err != nil {
				c.handlePayloadError(err)
				return
			}
			c.stats.MessageDropped()
			c.logger.Debug("skipped header-bearing message", LogFields{
				LogFieldSubject: op.Subject,
				LogFieldSID:     op.SID,
			})
		case opInfo:
			info, err := decodeServerInfo(op.Arg)
			if err != nil {
				c.handleProtocolError(err)
				return
			}
			c.setInfo(info)
			c.logger.Debug("server info updated", LogFields{
				LogFieldURL: c.url.String(),
			})
		case opPing:
			// The reply bypasses the flush interval; the server reads
			// silence as a dead client.
			c.writeMu.Lock()
			if err := writePongFrame(c.bw); err == nil {
				c.bw.Flush()
			}
			c.writeMu.Unlock()
		case opPong:
			c.completePong()
		case opOK:
			// Verbose-mode acknowledgement, nothing to do.
		case opErr:
			c.handleServerError(op.Arg)
			return
		}
	}
}

// deliverMsg routes one inbound message to its subscription. The handler
// runs inline, so deliveries keep wire order across every subscription on
// the connection.
func (c *Client) deliverMsg(op serverOp, payload []byte) {
	c.subsMu.RLock()
	sub, ok := c.subs[op.SID]
	c.subsMu.RUnlock()

	if !ok {
		// Interest was dropped while the message was in flight.
		c.stats.MessageDropped()
		c.logger.Debug("dropped message for unknown sid", LogFields{
			LogFieldSID:     op.SID,
			LogFieldSubject: op.Subject,
		})
		return
	}

	c.stats.MessageReceived(len(payload))
	sub.handler(&Msg{
		Subject: op.Subject,
		Reply:   op.Reply,
		Data:    payload,
		Sub:     sub,
	})
}

// handleReadError resolves an I/O failure on the read path. End-of-stream
// and errors racing a concurrent Close end the loop quietly; anything
// else is surfaced before tearing the connection down.
func (c *Client) handleReadError(err error) {
	if c.closed.Load() {
		return
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		c.logger.Info("server closed the connection", LogFields{
			LogFieldURL: c.url.String(),
		})
		c.emit(NewConnectionLostError(err))
		c.close(false)
		return
	}

	c.logger.Error("read failed", LogFields{
		LogFieldError: err.Error(),
	})
	c.emit(NewConnectionLostError(err))
	c.close(false)
}

// handlePayloadError splits payload failures into framing violations and
// transport loss.
func (c *Client) handlePayloadError(err error) {
	if errors.Is(err, ErrBadPayloadSize) {
		c.handleProtocolError(err)
		return
	}
	c.handleReadError(err)
}

// handleProtocolError reports a fatal wire violation and closes the
// connection.
func (c *Client) handleProtocolError(err error) {
	if c.closed.Load() {
		return
	}
	c.logger.Error("protocol violation", LogFields{
		LogFieldError: err.Error(),
	})
	c.emit(err)
	c.close(false)
}

// handleServerError reacts to a -ERR line. The server closes the
// connection after sending one, so the client tears down immediately.
func (c *Client) handleServerError(message string) {
	if c.closed.Load() {
		return
	}
	err := NewServerError(message)
	c.logger.Error("server error", LogFields{
		LogFieldError: err.Error(),
	})
	c.emit(err)
	c.close(false)
}

// Close drains and closes the connection: best-effort UNSUB for every
// live subscription, a final flush of buffered writes, then transport
// teardown. Close is idempotent and never fails on an already-closed
// client.
func (c *Client) Close() error {
	return c.close(true)
}

// close runs the drain sequence. waitReader is false when called from the
// reader goroutine, which cannot wait on itself.
func (c *Client) close(waitReader bool) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.setStatus(StatusDrainingSubs)
	c.drainSubscriptions()

	c.setStatus(StatusDrainingPubs)
	c.writeMu.Lock()
	if c.bw != nil {
		c.bw.Flush()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.writeMu.Unlock()

	close(c.done)

	if waitReader {
		select {
		case <-c.readDone:
		case <-time.After(time.Second):
		}
	}
	select {
	case <-c.flushDone:
	case <-time.After(time.Second):
	}

	// Pending Flush callers exit through the done channel; the FIFO is
	// dead weight now.
	c.pongsMu.Lock()
	c.pongs = nil
	c.pongsMu.Unlock()

	c.setStatus(StatusClosed)
	c.logger.Info("connection closed", LogFields{
		LogFieldURL: c.url.String(),
	})
	c.emit(ErrDisconnected)
	return nil
}

// drainSubscriptions empties the registry and queues an UNSUB for each
// entry. The writes are buffered; the pub-drain phase flushes them. Write
// failures are ignored, the transport may already be gone.
func (c *Client) drainSubscriptions() {
	c.subsMu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subs = make(map[uint64]*Subscription)
	c.subsMu.Unlock()

	for _, sub := range subs {
		sub.markClosed()
		sid := sub.sid
		_ = c.write(false, func(w *bufio.Writer) error {
			return writeUnsubFrame(w, sid, 0)
		})
		c.stats.SubscriptionRemoved()
	}
}
