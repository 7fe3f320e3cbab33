// Package main implements natsfake — a small, deterministic NATS-protocol
// TCP responder for integration and load testing of client implementations.
// It speaks the text protocol (INFO/CONNECT, PUB/SUB/UNSUB, MSG, PING/PONG,
// +OK/-ERR) and models the core server behaviors: subject fan-out with
// wildcard matching, queue-group balancing, auto-unsubscribe limits,
// verbose acknowledgements, and user/password or token authentication.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

var (
	flagAddr       = flag.String("addr", "127.0.0.1:4222", "listen address")
	flagServerID   = flag.String("server-id", "NATSFAKE", "server id announced in INFO")
	flagVersion    = flag.String("version", "2.10.0", "server version announced in INFO")
	flagMaxPayload = flag.Int("max-payload", 1048576, "maximum accepted payload size")
	flagUser       = flag.String("user", "", "require this username (with -pass)")
	flagPass       = flag.String("pass", "", "password for -user")
	flagToken      = flag.String("token", "", "require this auth token")
	flagLogConn    = flag.Bool("log-conn", true, "log connect/disconnect events")
	flagLogFrames  = flag.Bool("log-frames", false, "log every inbound frame")
)

func main() {
	flag.Parse()

	broker := newBroker()

	listener, err := net.Listen("tcp", *flagAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", *flagAddr, err)
	}
	log.Printf("natsfake listening on %s", listener.Addr())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			break
		}
		go broker.serve(conn)
	}

	log.Printf("natsfake shut down: %d connections served, %d messages routed",
		broker.connCount.Load(), broker.msgCount.Load())
}

// broker routes publishes between connected clients.
type broker struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	nextCID   atomic.Uint64
	connCount atomic.Uint64
	msgCount  atomic.Uint64
}

func newBroker() *broker {
	return &broker{clients: make(map[*client]struct{})}
}

// client is one connected peer and its subscriptions.
type client struct {
	cid  uint64
	conn net.Conn
	br   *bufio.Reader

	wmu sync.Mutex

	// subscriptions by sid. remaining < 0 means unlimited.
	subs map[string]*subscription

	verbose bool
	echo    bool
}

type subscription struct {
	subject   string
	queue     string
	sid       string
	remaining int
}

// connectPayload is the subset of CONNECT fields the responder acts on.
type connectPayload struct {
	Verbose   bool   `json:"verbose"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	AuthToken string `json:"auth_token"`
	Echo      *bool  `json:"echo"`
	Name      string `json:"name"`
}

func (b *broker) serve(conn net.Conn) {
	c := &client{
		cid:  b.nextCID.Add(1),
		conn: conn,
		br:   bufio.NewReader(conn),
		subs: make(map[string]*subscription),
		echo: true,
	}
	b.connCount.Add(1)

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	if *flagLogConn {
		log.Printf("cid %d connected from %s", c.cid, conn.RemoteAddr())
	}

	defer func() {
		b.mu.Lock()
		delete(b.clients, c)
		b.mu.Unlock()
		conn.Close()
		if *flagLogConn {
			log.Printf("cid %d disconnected", c.cid)
		}
	}()

	authRequired := *flagUser != "" || *flagToken != ""
	c.sendf("INFO {\"server_id\":%q,\"version\":%q,\"host\":\"127.0.0.1\",\"max_payload\":%d,\"proto\":1,\"auth_required\":%v}\r\n",
		*flagServerID, *flagVersion, *flagMaxPayload, authRequired)

	authed := !authRequired

	for {
		line, err := c.readLine()
		if err != nil {
			return
		}
		if *flagLogFrames {
			log.Printf("cid %d <- %s", c.cid, line)
		}

		verb := line
		args := ""
		if idx := strings.IndexByte(line, ' '); idx >= 0 {
			verb, args = line[:idx], strings.TrimSpace(line[idx+1:])
		}

		switch strings.ToUpper(verb) {
		case "CONNECT":
			payload := connectPayload{}
			if err := json.Unmarshal([]byte(args), &payload); err != nil {
				c.sendErr("Unknown Protocol Operation")
				return
			}
			if authRequired && !validCredentials(&payload) {
				c.sendErr("Authorization Violation")
				return
			}
			authed = true
			c.verbose = payload.Verbose
			if payload.Echo != nil {
				c.echo = *payload.Echo
			}
			c.ok()

		case "PING":
			c.sendf("PONG\r\n")

		case "PONG":
			// Clients do not ping this responder, but tolerate it.

		case "SUB":
			if !authed {
				c.sendErr("Authorization Violation")
				return
			}
			if !c.handleSub(args) {
				return
			}

		case "UNSUB":
			if !authed {
				c.sendErr("Authorization Violation")
				return
			}
			if !c.handleUnsub(args) {
				return
			}

		case "PUB":
			if !authed {
				c.sendErr("Authorization Violation")
				return
			}
			if !b.handlePub(c, args) {
				return
			}

		default:
			c.sendErr("Unknown Protocol Operation")
			return
		}
	}
}

func validCredentials(payload *connectPayload) bool {
	if *flagToken != "" {
		return payload.AuthToken == *flagToken
	}
	return payload.User == *flagUser && payload.Pass == *flagPass
}

func (c *client) handleSub(args string) bool {
	fields := strings.Fields(args)
	if len(fields) != 2 && len(fields) != 3 {
		c.sendErr("Unknown Protocol Operation")
		return false
	}

	sub := &subscription{
		subject:   fields[0],
		sid:       fields[len(fields)-1],
		remaining: -1,
	}
	if len(fields) == 3 {
		sub.queue = fields[1]
	}

	c.wmu.Lock()
	c.subs[sub.sid] = sub
	c.wmu.Unlock()
	c.ok()
	return true
}

func (c *client) handleUnsub(args string) bool {
	fields := strings.Fields(args)
	if len(fields) != 1 && len(fields) != 2 {
		c.sendErr("Unknown Protocol Operation")
		return false
	}

	c.wmu.Lock()
	if len(fields) == 2 {
		if max, err := strconv.Atoi(fields[1]); err == nil {
			if sub, ok := c.subs[fields[0]]; ok {
				sub.remaining = max
			}
		}
	} else {
		delete(c.subs, fields[0])
	}
	c.wmu.Unlock()
	c.ok()
	return true
}

func (b *broker) handlePub(from *client, args string) bool {
	fields := strings.Fields(args)
	if len(fields) != 2 && len(fields) != 3 {
		from.sendErr("Unknown Protocol Operation")
		return false
	}

	subject := fields[0]
	reply := ""
	if len(fields) == 3 {
		reply = fields[1]
	}
	size, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || size < 0 {
		from.sendErr("Unknown Protocol Operation")
		return false
	}
	if size > *flagMaxPayload {
		from.sendErr("Maximum Payload Violation")
		return false
	}

	payload := make([]byte, size+2)
	if _, err := io.ReadFull(from.br, payload); err != nil {
		return false
	}
	payload = payload[:size]

	from.ok()
	b.msgCount.Add(1)
	b.route(from, subject, reply, payload)
	return true
}

// route fans a message out to matching subscriptions. Queue groups get one
// randomly chosen member per group; plain subscriptions all get a copy.
func (b *broker) route(from *client, subject, reply string, payload []byte) {
	type target struct {
		c   *client
		sub *subscription
	}
	var plain []target
	queues := make(map[string][]target)

	b.mu.Lock()
	for c := range b.clients {
		if c == from && !from.echo {
			continue
		}
		c.wmu.Lock()
		for _, sub := range c.subs {
			if !subjectMatch(sub.subject, subject) {
				continue
			}
			if sub.queue != "" {
				queues[sub.queue] = append(queues[sub.queue], target{c, sub})
			} else {
				plain = append(plain, target{c, sub})
			}
		}
		c.wmu.Unlock()
	}
	b.mu.Unlock()

	for _, group := range queues {
		plain = append(plain, group[rand.Intn(len(group))])
	}

	for _, tgt := range plain {
		tgt.c.deliver(tgt.sub, subject, reply, payload)
	}
}

// deliver writes one MSG frame and retires the subscription when an
// auto-unsubscribe limit runs out.
func (c *client) deliver(sub *subscription, subject, reply string, payload []byte) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	current, ok := c.subs[sub.sid]
	if !ok || current != sub {
		return
	}
	if sub.remaining == 0 {
		return
	}
	if sub.remaining > 0 {
		sub.remaining--
		if sub.remaining == 0 {
			delete(c.subs, sub.sid)
		}
	}

	if reply != "" {
		fmt.Fprintf(c.conn, "MSG %s %s %s %d\r\n", subject, sub.sid, reply, len(payload))
	} else {
		fmt.Fprintf(c.conn, "MSG %s %s %d\r\n", subject, sub.sid, len(payload))
	}
	c.conn.Write(payload)
	c.conn.Write([]byte("\r\n"))
}

func (c *client) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *client) sendf(format string, args ...any) {
	c.wmu.Lock()
	fmt.Fprintf(c.conn, format, args...)
	c.wmu.Unlock()
}

func (c *client) ok() {
	if c.verbose {
		c.sendf("+OK\r\n")
	}
}

func (c *client) sendErr(message string) {
	c.sendf("-ERR '%s'\r\n", message)
}

// subjectMatch reports whether a subscription pattern matches a subject.
// "*" matches exactly one token, ">" matches one or more trailing tokens.
func subjectMatch(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")

	for i, token := range patternTokens {
		if token == ">" {
			return i < len(subjectTokens)
		}
		if i >= len(subjectTokens) {
			return false
		}
		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}
	return len(patternTokens) == len(subjectTokens)
}
