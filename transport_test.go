package natsclient

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestCert creates a self-signed certificate for loopback tests.
func generateTestCert(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
}

func TestTCPDialer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		conn, err := listener.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	dialer := &TCPDialer{Timeout: 5 * time.Second}
	conn, err := dialer.Dial(context.Background(), listener.Addr().String())
	require.NoError(t, err)
	assert.NotNil(t, conn)
	conn.Close()
	<-accepted
}

func TestTCPDialerContextCancel(t *testing.T) {
	dialer := &TCPDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dialer.Dial(ctx, "192.0.2.1:4222") // TEST-NET-1, never reachable
	assert.Error(t, err)
}

func TestTCPDialerTimeout(t *testing.T) {
	dialer := &TCPDialer{Timeout: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := dialer.Dial(ctx, "192.0.2.1:4222")
	assert.Error(t, err)
}

func TestTLSDialer(t *testing.T) {
	cert := generateTestCert(t)
	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
	})
	require.NoError(t, err)
	defer listener.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4)
		if _, err := conn.Read(buf); err == nil {
			conn.Write(buf)
		}
	}()

	dialer := &TLSDialer{
		Config:  &tls.Config{InsecureSkipVerify: true},
		Timeout: 5 * time.Second,
	}
	conn, err := dialer.Dial(context.Background(), listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
	<-serverDone
}

func TestUpgradeTLS(t *testing.T) {
	cert := generateTestCert(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Speak plaintext first, then wrap the same socket, like a
		// server that upgrades after its announcement.
		conn.Write([]byte("hi\r\n"))

		tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err := tlsConn.Handshake(); err != nil {
			return
		}
		buf := make([]byte, 6)
		if _, err := tlsConn.Read(buf); err == nil {
			tlsConn.Write(buf)
		}
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	greeting := make([]byte, 4)
	_, err = conn.Read(greeting)
	require.NoError(t, err)
	require.Equal(t, "hi\r\n", string(greeting))

	tlsConn, err := upgradeTLS(context.Background(), conn, &tls.Config{
		InsecureSkipVerify: true,
	}, "localhost")
	require.NoError(t, err)

	_, err = tlsConn.Write([]byte("secret"))
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = tlsConn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(buf))
	<-serverDone
}

func TestUpgradeTLSDefaultServerName(t *testing.T) {
	cert := generateTestCert(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
		tlsConn.Handshake()
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// No config given: the dial hostname becomes the SNI name and
	// verification runs against it. The self-signed cert must fail.
	_, err = upgradeTLS(context.Background(), conn, nil, "localhost")
	assert.Error(t, err)
	<-serverDone
}
