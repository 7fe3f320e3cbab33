package natsclient

import (
	"context"
	"net"
)

// UnixDialer connects to servers over Unix domain sockets. Pass it with
// WithDialer and give Connect any placeholder address, e.g.
// Connect("nats://localhost", WithDialer(NewUnixDialer("/run/nats.sock"))).
type UnixDialer struct {
	// Path is the socket file path.
	Path string
}

// NewUnixDialer creates a new Unix socket dialer.
func NewUnixDialer(path string) *UnixDialer {
	return &UnixDialer{Path: path}
}

// Dial connects to the configured socket path. The address argument is
// ignored; the socket file is the address.
func (d *UnixDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	var dialer net.Dialer
	return dialer.DialContext(ctx, "unix", d.Path)
}
