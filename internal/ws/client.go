package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotConnected is returned when writing before Connect succeeded.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrAlreadyConnected is returned by a second Connect.
	ErrAlreadyConnected = errors.New("websocket already connected")
	// ErrClosed is the terminal error of a connection closed by Close.
	ErrClosed = errors.New("websocket closed")
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultBufferSize       = 1000
	closeGracePeriod        = time.Second
)

// Config holds the connection settings of a WebSocketClient.
type Config struct {
	URL              string        // WebSocket server URL
	Header           http.Header   // Extra handshake headers (User-Agent)
	HandshakeTimeout time.Duration // Dial handshake timeout
	PingInterval     time.Duration // Keepalive ping interval, 0 disables pings
	WriteTimeout     time.Duration // Deadline of a single frame write
	BufferSize       int           // Capacity of the incoming message channel
	Logger           *logrus.Entry
}

// WebSocketClient is a single websocket connection. It owns one reader and one
// writer goroutine: the reader forwards every frame to Messages in arrival
// order, the writer serializes Write calls and keepalive pings.
//
// A WebSocketClient is used for one connection only; reconnecting means
// creating a new client.
type WebSocketClient struct {
	cfg    Config
	logger *logrus.Entry

	connMutex sync.Mutex
	conn      *websocket.Conn

	msgChan   chan []byte
	writeChan chan writeRequest
	done      chan struct{}
	wg        sync.WaitGroup

	stopOnce sync.Once
	errMutex sync.RWMutex
	err      error
}

// NewWebSocketClient creates a client for cfg. It does not dial.
func NewWebSocketClient(cfg Config) *WebSocketClient {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.WithField("component", "ws_client")
	}

	return &WebSocketClient{
		cfg:       cfg,
		logger:    log,
		msgChan:   make(chan []byte, cfg.BufferSize),
		writeChan: make(chan writeRequest),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the reader and writer goroutines.
func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.conn != nil {
		return ErrAlreadyConnected
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	c.logger.WithField("url", c.cfg.URL).Debug("Connected to WebSocket")
	c.conn = conn

	var readTimeout time.Duration
	if c.cfg.PingInterval > 0 {
		pongWait := c.pongWait()
		readTimeout = pongWait
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	reader := newReader(conn, c.msgChan, c.done, c.stop, readTimeout, c.logger)
	writer := newWriter(conn, c.writeChan, c.done, c.stop, c.cfg.PingInterval, c.cfg.WriteTimeout, c.logger)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		reader.Run()
	}()
	go func() {
		defer c.wg.Done()
		writer.Run()
	}()

	return nil
}

func (c *WebSocketClient) pongWait() time.Duration {
	return 3 * c.cfg.PingInterval
}

// Write sends msg as a text frame. It blocks until the writer goroutine wrote
// the frame, the connection is gone or ctx is done.
func (c *WebSocketClient) Write(ctx context.Context, msg []byte) error {
	if !c.started() {
		return ErrNotConnected
	}

	req := writeRequest{data: msg, result: make(chan error, 1)}
	select {
	case c.writeChan <- req:
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the incoming message channel. It is closed once the
// connection is gone and the reader exited.
func (c *WebSocketClient) Messages() <-chan []byte {
	return c.msgChan
}

// Done is closed when the connection is down.
func (c *WebSocketClient) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that terminated the connection, nil while it is open.
func (c *WebSocketClient) Err() error {
	c.errMutex.RLock()
	defer c.errMutex.RUnlock()
	return c.err
}

// IsConnected reports whether the connection is open.
func (c *WebSocketClient) IsConnected() bool {
	if !c.started() {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close sends a normal closure frame, closes the connection and waits for the
// reader and writer to exit. It is safe to call more than once.
func (c *WebSocketClient) Close() error {
	if !c.started() {
		return nil
	}

	if c.IsConnected() {
		c.logger.Trace("Sending close message through ws connection")
		err := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod),
		)
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.WithError(err).Debug("Error sending close message")
		}
	}

	c.stop(ErrClosed)
	c.wg.Wait()
	c.logger.Debug("WS Connection closed")
	return nil
}

func (c *WebSocketClient) started() bool {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()
	return c.conn != nil
}

// stop records the first terminal error and tears the connection down.
func (c *WebSocketClient) stop(err error) {
	c.stopOnce.Do(func() {
		c.errMutex.Lock()
		c.err = err
		c.errMutex.Unlock()
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.logger.WithError(err).Trace("Error closing connection")
		}
	})
}
