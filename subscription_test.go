package natsclient

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionNilSafety(t *testing.T) {
	var sub *Subscription
	assert.False(t, sub.IsValid())
	assert.ErrorIs(t, sub.Unsubscribe(), ErrBadSubscription)
	assert.ErrorIs(t, sub.AutoUnsubscribe(1), ErrBadSubscription)

	detached := &Subscription{Subject: "subject"}
	assert.False(t, detached.IsValid())
	assert.ErrorIs(t, detached.Unsubscribe(), ErrBadSubscription)
}

func TestMsgRespond(t *testing.T) {
	frames := make(chan string, 8)
	addr, cleanup := mockServer(t, func(conn net.Conn) {
		b := newFakeBroker(t, conn)
		b.handshake()

		line := b.readLine()
		sid := strings.Fields(line)[2]

		// Deliver a message that asks for a response.
		b.send("MSG questions " + sid + " answers 5")
		b.send("what?")

		for {
			line := b.readLine()
			if line == "" {
				return
			}
			if strings.HasPrefix(line, "PUB ") {
				fields := strings.Fields(line)
				size, err := strconv.Atoi(fields[len(fields)-1])
				require.NoError(t, err)
				payload := b.readPayload(size)
				frames <- line + " " + string(payload)
			}
		}
	})
	defer cleanup()

	client, err := Connect(addr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Subscribe("questions", func(msg *Msg) {
		assert.Equal(t, "answers", msg.Reply)
		assert.NoError(t, msg.Respond([]byte("42")))
	})
	require.NoError(t, err)

	select {
	case frame := <-frames:
		assert.Equal(t, "PUB answers 2 42", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the response publish")
	}
}

func TestMsgRespondWithoutReplySubject(t *testing.T) {
	msg := &Msg{Subject: "subject", Data: []byte("data")}
	assert.ErrorIs(t, msg.Respond(nil), ErrNoReplySubject)

	// Reply present but no owning subscription.
	msg = &Msg{Subject: "subject", Reply: "answers"}
	assert.ErrorIs(t, msg.Respond(nil), ErrBadSubscription)
}
