package thalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/ws"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent    = "ThalexGoBot/1.0"
	DefaultPingInterval = 5 * time.Second
	defaultBufferSize   = 1000
)

var (
	// ErrNotConnected is returned by sends and receives without a live connection.
	ErrNotConnected = errors.New("thalex: not connected")
	// ErrAlreadyConnected is returned by Connect while a connection is open.
	ErrAlreadyConnected = errors.New("thalex: already connected")
)

// Client is a websocket client of the Thalex API. It exposes one method per
// endpoint; responses and subscription notifications are read one by one with
// Receive, matched to requests by the optional id set with WithID.
//
// All methods are safe for concurrent use. Writes are serialized.
type Client struct {
	network      Network
	url          string
	userAgent    string
	pingInterval time.Duration
	bufferSize   int
	limiter      *rate.Limiter
	logger       *logrus.Entry

	mu        sync.RWMutex
	transport *ws.WebSocketClient
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent on connect.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithURL overrides the endpoint of the network, e.g. for a local gateway.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithPingInterval sets the keepalive ping interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pingInterval = d
	}
}

// WithLogger sets the logger of the client.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRateLimit limits outgoing requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithBufferSize sets how many incoming messages are buffered before the
// reader waits for Receive.
func WithBufferSize(n int) Option {
	return func(c *Client) {
		c.bufferSize = n
	}
}

// NewClient creates a client for network. It does not connect.
func NewClient(network Network, opts ...Option) *Client {
	c := &Client{
		network:      network,
		url:          network.URL(),
		userAgent:    DefaultUserAgent,
		pingInterval: DefaultPingInterval,
		bufferSize:   defaultBufferSize,
		logger:       logrus.WithField("component", "thalex_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Network returns the network the client was created for.
func (c *Client) Network() Network {
	return c.network
}

// Connect opens the websocket connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil && c.transport.IsConnected() {
		return ErrAlreadyConnected
	}

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	transport := ws.NewWebSocketClient(ws.Config{
		URL:          c.url,
		Header:       header,
		PingInterval: c.pingInterval,
		BufferSize:   c.bufferSize,
		Logger:       c.logger,
	})
	if err := transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.transport = transport
	c.logger.WithField("url", c.url).Info("Connected")
	return nil
}

// Connected reports whether the connection is open.
func (c *Client) Connected() bool {
	t := c.current()
	return t != nil && t.IsConnected()
}

// Disconnect closes the connection with a normal closure. Messages already
// received stay available to Receive.
func (c *Client) Disconnect() error {
	t := c.current()
	if t == nil {
		return nil
	}
	return t.Close()
}

// Done returns a channel closed when the current connection goes down. It is
// nil before the first Connect.
func (c *Client) Done() <-chan struct{} {
	t := c.current()
	if t == nil {
		return nil
	}
	return t.Done()
}

// Receive returns the next message in arrival order. Once the connection is
// gone and every buffered message was returned, it returns the error that
// closed the connection, or ErrNotConnected after Disconnect.
func (c *Client) Receive(ctx context.Context) ([]byte, error) {
	t := c.current()
	if t == nil {
		return nil, ErrNotConnected
	}

	select {
	case msg, ok := <-t.Messages():
		if !ok {
			return nil, connError(t.Err())
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReceiveMessage is Receive followed by ParseMessage.
func (c *Client) ReceiveMessage(ctx context.Context) (*Message, error) {
	data, err := c.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return ParseMessage(data)
}

// Send calls an arbitrary endpoint. Nil params are dropped, every other value
// is sent as given, empty strings included.
func (c *Client) Send(ctx context.Context, method string, params map[string]any, opts ...CallOption) error {
	p := Params{}
	for k, v := range params {
		if !isNil(v) {
			p[k] = v
		}
	}
	return c.sendRequest(ctx, Request{Method: method, Params: p, ID: callID(opts)})
}

func (c *Client) send(ctx context.Context, method string, params Params, opts ...CallOption) error {
	return c.sendRequest(ctx, NewRequest(method, callID(opts), params))
}

func callID(opts []CallOption) *uint64 {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}
	return call.id
}

func (c *Client) sendRequest(ctx context.Context, req Request) error {
	t := c.current()
	if t == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", req.Method, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	c.logger.WithField("method", req.Method).Debugf("Sending %s", data)
	if err := t.Write(ctx, data); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("send %s: %w", req.Method, connError(err))
	}
	return nil
}

func (c *Client) current() *ws.WebSocketClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

func connError(err error) error {
	if err == nil || errors.Is(err, ws.ErrClosed) || errors.Is(err, ws.ErrNotConnected) {
		return ErrNotConnected
	}
	return fmt.Errorf("%w: %v", ErrNotConnected, err)
}
