package natsclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Client library identification sent in the CONNECT payload.
const (
	// Version is the client library version.
	Version = "0.1.0"

	langName = "go"

	// protocolLevel 1 tells the server this client understands
	// asynchronous INFO updates.
	protocolLevel = 1
)

// NonceSigner signs the server-provided nonce during the handshake.
// Implementations typically wrap an ed25519 private key.
type NonceSigner func(nonce []byte) ([]byte, error)

// ServerInfo is the handshake announcement sent by the server as the first
// protocol line, and again mid-stream when its configuration changes.
// Unknown fields are ignored and missing fields default, so newer servers
// remain readable.
type ServerInfo struct {
	// ServerID is the unique identifier of the server.
	ServerID string `json:"server_id"`

	// ServerName is the configured name of the server.
	ServerName string `json:"server_name"`

	// Version is the server version.
	Version string `json:"version"`

	// Host and Port describe the listen address.
	Host string `json:"host"`
	Port int    `json:"port"`

	// Headers reports whether the server supports header-bearing messages.
	Headers bool `json:"headers"`

	// MaxPayload is the maximum payload size the server accepts.
	MaxPayload int64 `json:"max_payload"`

	// Proto is the protocol level of the server.
	Proto int `json:"proto"`

	// AuthRequired reports whether the server requires authentication.
	AuthRequired bool `json:"auth_required"`

	// TLSRequired reports whether the server requires a TLS upgrade before
	// CONNECT.
	TLSRequired bool `json:"tls_required"`

	// TLSVerify reports whether the server verifies client certificates.
	TLSVerify bool `json:"tls_verify"`

	// Nonce is an optional challenge to sign in the CONNECT payload.
	Nonce string `json:"nonce"`
}

// decodeServerInfo parses the JSON body of an INFO line.
func decodeServerInfo(arg string) (*ServerInfo, error) {
	info := &ServerInfo{}
	if err := json.Unmarshal([]byte(arg), info); err != nil {
		return nil, fmt.Errorf("malformed INFO payload: %w", ErrProtocolError)
	}
	return info, nil
}

// connectRequest is the JSON body of the CONNECT line. Credential fields
// are omitted when unset.
type connectRequest struct {
	Verbose     bool   `json:"verbose"`
	Pedantic    bool   `json:"pedantic"`
	TLSRequired bool   `json:"tls_required"`
	User        string `json:"user,omitempty"`
	Pass        string `json:"pass,omitempty"`
	AuthToken   string `json:"auth_token,omitempty"`
	JWT         string `json:"jwt,omitempty"`
	Sig         string `json:"sig,omitempty"`
	Name        string `json:"name,omitempty"`
	Lang        string `json:"lang"`
	Version     string `json:"version"`
	Protocol    int    `json:"protocol"`
	Echo        bool   `json:"echo"`
	Headers     bool   `json:"headers"`
}

// buildConnectRequest assembles the CONNECT payload from the client options
// and the server's announcement. The nonce, when present and a signer is
// configured, is signed and carried base64-url-encoded without padding.
func buildConnectRequest(opts *clientOptions, info *ServerInfo, tlsRequired bool) (*connectRequest, error) {
	req := &connectRequest{
		Verbose:     opts.verbose,
		Pedantic:    opts.pedantic,
		TLSRequired: tlsRequired,
		User:        opts.user,
		Pass:        opts.password,
		AuthToken:   opts.token,
		JWT:         opts.userJWT,
		Name:        opts.name,
		Lang:        langName,
		Version:     Version,
		Protocol:    protocolLevel,
		Echo:        !opts.noEcho,
		Headers:     false,
	}

	if info.Nonce != "" && opts.nonceSigner != nil {
		sig, err := opts.nonceSigner([]byte(info.Nonce))
		if err != nil {
			return nil, fmt.Errorf("failed to sign server nonce: %w", err)
		}
		req.Sig = base64.RawURLEncoding.EncodeToString(sig)
	}

	return req, nil
}

// encode marshals the request for the wire.
func (r *connectRequest) encode() ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CONNECT payload: %w", err)
	}
	return payload, nil
}
