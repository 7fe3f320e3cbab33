package natsclient

import (
	"crypto/tls"
	"time"
)

type clientOptions struct {
	// Connection settings
	name     string
	verbose  bool
	pedantic bool
	noEcho   bool

	// Credentials
	user        string
	password    string
	token       string
	userJWT     string
	nonceSigner NonceSigner

	// TLS configuration
	tlsConfig *tls.Config

	// Timeouts and flushing
	connectTimeout time.Duration
	requestTimeout time.Duration
	writeTimeout   time.Duration
	flushInterval  time.Duration

	// Transport overrides
	dialer       Dialer
	proxyConfig  *ProxyConfig
	proxyFromEnv bool

	// Observability
	logger  Logger
	metrics Metrics
	onEvent EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *clientOptions {
	return &clientOptions{
		connectTimeout: 2 * time.Second,
		requestTimeout: 2 * time.Second,
		writeTimeout:   5 * time.Second,
		flushInterval:  100 * time.Millisecond,
		logger:         NewNoOpLogger(),
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// WithName sets the connection name sent in the CONNECT handshake.
func WithName(name string) Option {
	return func(o *clientOptions) {
		o.name = name
	}
}

// WithUserInfo sets the username and password for authentication.
func WithUserInfo(user, password string) Option {
	return func(o *clientOptions) {
		o.user = user
		o.password = password
	}
}

// WithToken sets the authentication token.
func WithToken(token string) Option {
	return func(o *clientOptions) {
		o.token = token
	}
}

// WithUserJWT sets the user JWT and the signer used to answer the
// server's nonce challenge.
func WithUserJWT(jwt string, signer NonceSigner) Option {
	return func(o *clientOptions) {
		o.userJWT = jwt
		o.nonceSigner = signer
	}
}

// WithNonceSigner sets the signer for nonce-based authentication without
// a JWT.
func WithNonceSigner(signer NonceSigner) Option {
	return func(o *clientOptions) {
		o.nonceSigner = signer
	}
}

// WithVerbose asks the server to acknowledge every operation with +OK.
func WithVerbose(verbose bool) Option {
	return func(o *clientOptions) {
		o.verbose = verbose
	}
}

// WithPedantic asks the server to run strict subject checking.
func WithPedantic(pedantic bool) Option {
	return func(o *clientOptions) {
		o.pedantic = pedantic
	}
}

// WithNoEcho asks the server not to deliver the client's own publishes
// back to its subscriptions.
func WithNoEcho(noEcho bool) Option {
	return func(o *clientOptions) {
		o.noEcho = noEcho
	}
}

// WithTLS sets the TLS configuration and forces the TLS upgrade even if
// the server does not require it.
func WithTLS(config *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = config
	}
}

// WithConnectTimeout bounds the dial and handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.connectTimeout = d
	}
}

// WithRequestTimeout sets the default deadline for requests and flushes.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.requestTimeout = d
	}
}

// WithWriteTimeout bounds individual writes to the transport. Zero
// disables write deadlines.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.writeTimeout = d
	}
}

// WithFlushInterval sets how often buffered publishes are forced onto
// the wire.
func WithFlushInterval(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.flushInterval = d
		}
	}
}

// WithDialer sets a custom transport dialer, bypassing the URL scheme
// and proxy handling.
func WithDialer(dialer Dialer) Option {
	return func(o *clientOptions) {
		o.dialer = dialer
	}
}

// WithProxy routes the connection through an HTTP CONNECT or SOCKS5
// proxy.
func WithProxy(proxyURL string) Option {
	return func(o *clientOptions) {
		o.proxyConfig = &ProxyConfig{URL: proxyURL}
	}
}

// WithProxyAuth routes the connection through an authenticated proxy.
func WithProxyAuth(proxyURL, username, password string) Option {
	return func(o *clientOptions) {
		o.proxyConfig = &ProxyConfig{
			URL:      proxyURL,
			Username: username,
			Password: password,
		}
	}
}

// WithProxyFromEnvironment enables proxy discovery from HTTP_PROXY,
// HTTPS_PROXY and NO_PROXY.
func WithProxyFromEnvironment(enabled bool) Option {
	return func(o *clientOptions) {
		o.proxyFromEnv = enabled
	}
}

// WithLogger sets the logger for connection lifecycle and traffic
// diagnostics.
func WithLogger(logger Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink for client instrumentation.
func WithMetrics(metrics Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = metrics
	}
}

// OnEvent sets the event handler for client lifecycle events and errors.
func OnEvent(handler EventHandler) Option {
	return func(o *clientOptions) {
		o.onEvent = handler
	}
}

// applyOptions applies all options to the default options.
func applyOptions(opts ...Option) *clientOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
