package swarmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// apiPrefix is the path prefix every endpoint lives under, for both HTTP
// and WebSocket calls.
const apiPrefix = "/API/"

// Options holds client configuration. It is read once at construction and
// never mutated afterwards.
type Options struct {
	// BaseURL is the server's HTTP address, e.g. "http://localhost:7801".
	// A schemeless address is treated as plain HTTP.
	BaseURL string
	// Authorization is an optional credential sent as the Authorization
	// header on every HTTP request and WebSocket handshake.
	Authorization string
	// HTTPTimeout bounds each request/response exchange and the WebSocket
	// handshake.
	HTTPTimeout time.Duration
	// ReceiveBufferSize is the WebSocket I/O buffer size in bytes. Frames
	// larger than the buffer are still reassembled in full.
	ReceiveBufferSize int
	// MaxRetryAttempts bounds WebSocket connection attempts.
	MaxRetryAttempts int
	// RetryBackoff is the linear backoff unit between connection attempts:
	// attempt n waits n * RetryBackoff.
	RetryBackoff time.Duration
	// KeepAliveInterval is the ping period on streaming connections; zero
	// disables keep-alive pings.
	KeepAliveInterval time.Duration
	// CloseTimeout bounds the wait for the peer's close acknowledgment
	// during the graceful close handshake.
	CloseTimeout time.Duration
	// Logger receives diagnostics (retries, swallowed teardown failures).
	// Defaults to a no-op logger.
	Logger zerolog.Logger
	// HTTPClient overrides the HTTP client used for request/response
	// calls. When set, HTTPTimeout only applies to the WebSocket handshake.
	HTTPClient *http.Client
}

// DefaultOptions returns the configuration used for unset fields in New.
func DefaultOptions() Options {
	return Options{
		BaseURL:           "http://localhost:7801",
		HTTPTimeout:       2 * time.Minute,
		ReceiveBufferSize: 8192,
		MaxRetryAttempts:  3,
		RetryBackoff:      500 * time.Millisecond,
		KeepAliveInterval: 30 * time.Second,
		CloseTimeout:      5 * time.Second,
		Logger:            zerolog.Nop(),
	}
}

// Client talks to a generative-media server over its HTTP and WebSocket
// APIs. It owns the cached session token and the registry of active
// streaming connections; everything else it exposes is per-call.
//
// A Client is safe for concurrent use.
type Client struct {
	opts       Options
	baseURL    string
	wsBase     string
	httpClient *http.Client
	dialer     *websocket.Dialer
	sessions   *sessionManager
	registry   *connRegistry
	log        zerolog.Logger
}

// New creates a Client for the server at opts.BaseURL. Zero-valued fields
// fall back to DefaultOptions.
func New(opts Options) (*Client, error) {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = def.HTTPTimeout
	}
	if opts.ReceiveBufferSize == 0 {
		opts.ReceiveBufferSize = def.ReceiveBufferSize
	}
	if opts.MaxRetryAttempts == 0 {
		opts.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.KeepAliveInterval == 0 {
		opts.KeepAliveInterval = def.KeepAliveInterval
	}
	if opts.CloseTimeout == 0 {
		opts.CloseTimeout = def.CloseTimeout
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	wsBase, err := deriveWebSocketBase(base)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.HTTPTimeout}
	}

	c := &Client{
		opts:       opts,
		baseURL:    base,
		wsBase:     wsBase,
		httpClient: httpClient,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HTTPTimeout,
			ReadBufferSize:   opts.ReceiveBufferSize,
			WriteBufferSize:  opts.ReceiveBufferSize,
		},
		registry: newConnRegistry(),
		log:      opts.Logger,
	}
	c.sessions = newSessionManager(c.createSession)
	return c, nil
}

// deriveWebSocketBase substitutes the HTTP scheme with its WebSocket
// counterpart: http becomes ws, https becomes wss.
func deriveWebSocketBase(base string) (string, error) {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://"), nil
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://"), nil
	default:
		return "", fmt.Errorf("unsupported base URL scheme in %q", base)
	}
}

func (c *Client) apiURL(endpoint string) string {
	return c.baseURL + apiPrefix + endpoint
}

// BaseURL returns the normalized HTTP base address.
func (c *Client) BaseURL() string { return c.baseURL }

// WebSocketBase returns the WebSocket base address derived from the HTTP
// base URL.
func (c *Client) WebSocketBase() string { return c.wsBase }

// SessionID returns the cached session token if one is currently valid,
// else "". For diagnostics only; the value may be stale the instant after
// reading.
func (c *Client) SessionID() string { return c.sessions.SessionID() }

// InvalidateSession marks the cached session token as unusable. The next
// authenticated call creates a fresh one.
func (c *Client) InvalidateSession() { c.sessions.Invalidate() }

// RefreshSession discards the cached session token and creates a new one,
// regardless of whether the current one is still valid.
func (c *Client) RefreshSession(ctx context.Context) (string, error) {
	return c.sessions.Refresh(ctx)
}
