//go:build e2e

package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Public NATS servers for e2e testing.
// Run with: go test -tags=e2e -v -run TestE2E
//
// These tests exercise the client against a real server over the network
// and are excluded from the normal test run.

// serverConfig holds the configuration for a public test server.
type serverConfig struct {
	name string
	url  string
	skip string
}

// shouldSkip checks if the server should be skipped and calls t.Skip if so.
func (s *serverConfig) shouldSkip(t *testing.T) {
	t.Helper()
	if s.skip != "" {
		t.Skip(s.skip)
	}
}

// connect creates a new client connected to the server.
func (s *serverConfig) connect(t *testing.T, prefix string, extraOpts ...Option) *Client {
	t.Helper()

	opts := []Option{
		WithName(fmt.Sprintf("natsclient-e2e-%s-%d", prefix, time.Now().UnixNano())),
		WithConnectTimeout(10 * time.Second),
		WithRequestTimeout(10 * time.Second),
	}
	opts = append(opts, extraOpts...)

	client, err := Connect(s.url, opts...)
	require.NoError(t, err, "failed to connect to %s", s.url)
	return client
}

var e2eServers = []serverConfig{
	{
		name: "demo-nats-io",
		url:  "nats://demo.nats.io:4222",
	},
	{
		name: "demo-nats-io-ws",
		url:  "ws://demo.nats.io:8080",
		skip: "demo WebSocket listener is intermittently unavailable",
	},
}

func TestE2EConnect(t *testing.T) {
	for _, server := range e2eServers {
		t.Run(server.name, func(t *testing.T) {
			server.shouldSkip(t)

			client := server.connect(t, "connect")
			defer client.Close()

			assert.True(t, client.IsConnected())
			info := client.ServerInfo()
			require.NotNil(t, info)
			assert.NotEmpty(t, info.ServerID)
			assert.Positive(t, info.MaxPayload)
		})
	}
}

func TestE2EPublishSubscribe(t *testing.T) {
	for _, server := range e2eServers {
		t.Run(server.name, func(t *testing.T) {
			server.shouldSkip(t)

			client := server.connect(t, "pubsub")
			defer client.Close()

			subject := fmt.Sprintf("natsclient.e2e.%d", time.Now().UnixNano())
			received := make(chan *Msg, 1)

			sub, err := client.Subscribe(subject, func(msg *Msg) {
				received <- msg
			})
			require.NoError(t, err)
			defer sub.Unsubscribe()

			// Make sure the SUB reached the server before publishing.
			require.NoError(t, client.Flush(context.Background()))
			require.NoError(t, client.Publish(subject, []byte("e2e payload")))

			select {
			case msg := <-received:
				assert.Equal(t, subject, msg.Subject)
				assert.Equal(t, []byte("e2e payload"), msg.Data)
			case <-time.After(10 * time.Second):
				t.Fatal("timed out waiting for delivery")
			}
		})
	}
}

func TestE2ERequestReply(t *testing.T) {
	for _, server := range e2eServers {
		t.Run(server.name, func(t *testing.T) {
			server.shouldSkip(t)

			client := server.connect(t, "reqrep")
			defer client.Close()

			subject := fmt.Sprintf("natsclient.e2e.echo.%d", time.Now().UnixNano())
			responder, err := client.Subscribe(subject, func(msg *Msg) {
				msg.Respond(append([]byte("re: "), msg.Data...))
			})
			require.NoError(t, err)
			defer responder.Unsubscribe()
			require.NoError(t, client.Flush(context.Background()))

			msg, err := client.Request(context.Background(), subject, []byte("hello"))
			require.NoError(t, err)
			assert.Equal(t, []byte("re: hello"), msg.Data)
		})
	}
}

func TestE2ERequestTimeout(t *testing.T) {
	server := e2eServers[0]
	server.shouldSkip(t)

	client := server.connect(t, "timeout")
	defer client.Close()

	subject := fmt.Sprintf("natsclient.e2e.void.%d", time.Now().UnixNano())
	_, err := client.RequestTimeout(subject, []byte("anyone?"), 2*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, client.NumSubscriptions())
}

func TestE2ELiveness(t *testing.T) {
	server := e2eServers[0]
	server.shouldSkip(t)

	client := server.connect(t, "liveness")
	defer client.Close()

	for i := 0; i < 3; i++ {
		assert.NoError(t, client.FlushTimeout(5*time.Second))
	}
}
