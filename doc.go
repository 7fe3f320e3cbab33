// Package natsclient provides a client for NATS-style publish/subscribe
// servers speaking the text protocol: https://docs.nats.io/reference/reference-protocols/nats-protocol
//
// # Features
//
//   - Core protocol operations: CONNECT, PUB, SUB, UNSUB, PING/PONG
//   - Subject-based publish/subscribe with queue groups
//   - Request/reply over per-connection inbox subjects
//   - Transport: TCP, TLS (in-place upgrade), WebSocket, WSS
//   - Authentication: user/password, token, JWT with nonce signing
//   - HTTP CONNECT and SOCKS5 proxy support
//
// The client intentionally does not reconnect. When the connection is
// lost, the client closes and operations return ErrConnectionClosed; the
// caller decides whether and how to build a new connection.
//
// # Connecting
//
// Use Connect for the common case:
//
//	client, err := natsclient.Connect("nats://localhost:4222",
//	    natsclient.WithName("orders-worker"),
//	    natsclient.WithUserInfo("app", "s3cret"),
//	)
//	defer client.Close()
//
// TLS connections upgrade in place after the server announcement, either
// because the server requires it or because the caller asked:
//
//	client, err := natsclient.Connect("tls://localhost:4222",
//	    natsclient.WithTLS(&tls.Config{}),
//	)
//
// WebSocket connections:
//
//	client, err := natsclient.Connect("wss://localhost:443")
//
// # Publish and Subscribe
//
// Publishes are buffered and flushed on an interval; Flush forces the
// buffer out and waits for the server to confirm it:
//
//	sub, err := client.Subscribe("orders.created", func(msg *natsclient.Msg) {
//	    fmt.Printf("%s: %s\n", msg.Subject, msg.Data)
//	})
//	defer sub.Unsubscribe()
//
//	client.Publish("orders.created", []byte("order 42"))
//	client.Flush(ctx)
//
// Message handlers run on the connection's reader goroutine. Deliveries
// keep wire order across all subscriptions, and a handler that blocks
// delays every subscription on the connection. Hand off to a worker
// inside the handler when processing is slow.
//
// Queue groups load-balance a subject across group members:
//
//	sub, err := client.QueueSubscribe("orders.created", "workers", handler)
//
// # Request/Reply
//
// Request publishes with a unique reply inbox and waits for the first
// response:
//
//	msg, err := client.Request(ctx, "orders.lookup", []byte("42"))
//
// Responders reply through the message:
//
//	client.Subscribe("orders.lookup", func(msg *natsclient.Msg) {
//	    msg.Respond([]byte("found"))
//	})
//
// # Events
//
// Lifecycle events are delivered to an optional handler. Events are
// errors; classify them with errors.Is and extract details with
// errors.As:
//
//	client, err := natsclient.Connect(url,
//	    natsclient.OnEvent(func(c *natsclient.Client, event error) {
//	        switch {
//	        case errors.Is(event, natsclient.ErrConnected):
//	            // handshake done
//	        case errors.Is(event, natsclient.ErrConnectionLost):
//	            // transport failed, client is closing
//	        }
//	    }),
//	)
//
// # Metrics
//
// Use the in-memory collector for tests and local inspection, or
// implement the Metrics interface to bridge into another system:
//
//	metrics := natsclient.NewMemoryMetrics()
//	client, err := natsclient.Connect(url, natsclient.WithMetrics(metrics))
//
// # Logging
//
// Implement the Logger interface for structured logging:
//
//	logger := natsclient.NewStdLogger(os.Stdout, natsclient.LogLevelInfo)
//	client, err := natsclient.Connect(url, natsclient.WithLogger(logger))
package natsclient
