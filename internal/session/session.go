// Package session keeps a Thalex websocket session alive for long running
// consumers: it logs in, subscribes and reconnects with backoff when the
// connection drops.
package session

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/circuitbreaker"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Call ids of the requests sent by the session. Responses echo them, so
// result handlers can tell them apart from user calls.
const (
	CallIDLogin uint64 = iota + 1
	CallIDCancelOnDisconnect
	CallIDSubscribe
	CallIDPrivateSubscribe
	CallIDCancelAll
)

const (
	defaultBackoffBase      = 500 * time.Millisecond
	defaultBackoffMax       = 30 * time.Second
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
	defaultBufferSize       = 1000
)

var errLoginRequired = errors.New("private channels require credentials")

type Config struct {
	Network thalex.Network
	// URL overrides the network endpoint.
	URL string

	KeyID      string
	PrivateKey *rsa.PrivateKey
	Account    string
	// CancelOnDisconnect is the cancel-on-disconnect timeout in seconds, 0
	// leaves it off. Requires credentials.
	CancelOnDisconnect int

	PublicChannels  []string
	PrivateChannels []string

	BackoffBase      time.Duration
	BackoffMax       time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration

	PingInterval time.Duration
	RateLimit    float64
	RateBurst    int
	BufferSize   int
}

func (c Config) hasCredentials() bool {
	return c.KeyID != "" && c.PrivateKey != nil
}

// Option configures a Session.
type Option func(*Session)

// WithOnReconnect registers fn, called after every successful reconnect.
func WithOnReconnect(fn func()) Option {
	return func(s *Session) {
		s.onReconnect = fn
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session supervises a thalex.Client. Every message received on any of the
// connections it opens is delivered, in order, on Messages.
type Session struct {
	cfg         Config
	id          string
	logger      *logrus.Entry
	breaker     *circuitbreaker.CircuitBreaker
	messages    chan []byte
	onReconnect func()

	mu       sync.RWMutex
	client   *thalex.Client
	connects uint64

	reconnects atomic.Uint64
	newClient  func() *thalex.Client
}

func New(cfg Config, opts ...Option) (*Session, error) {
	if len(cfg.PrivateChannels) > 0 && !cfg.hasCredentials() {
		return nil, errLoginRequired
	}
	if cfg.CancelOnDisconnect > 0 && !cfg.hasCredentials() {
		return nil, errors.New("cancel on disconnect requires credentials")
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = defaultBreakerThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}

	id := uuid.NewString()
	s := &Session{
		cfg:      cfg,
		id:       id,
		logger:   logrus.WithFields(logrus.Fields{"component": "session", "session": id}),
		breaker:  circuitbreaker.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout),
		messages: make(chan []byte, cfg.BufferSize),
	}
	s.newClient = s.defaultClient
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) defaultClient() *thalex.Client {
	opts := []thalex.Option{
		thalex.WithLogger(s.logger.WithField("component", "thalex_client")),
		thalex.WithBufferSize(s.cfg.BufferSize),
	}
	if s.cfg.URL != "" {
		opts = append(opts, thalex.WithURL(s.cfg.URL))
	}
	if s.cfg.PingInterval > 0 {
		opts = append(opts, thalex.WithPingInterval(s.cfg.PingInterval))
	}
	if s.cfg.RateLimit > 0 {
		opts = append(opts, thalex.WithRateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
	}
	return thalex.NewClient(s.cfg.Network, opts...)
}

// ID is the uuid of the session, stable across reconnects.
func (s *Session) ID() string {
	return s.id
}

// Messages returns the raw messages received. It is closed when Run returns.
func (s *Session) Messages() <-chan []byte {
	return s.messages
}

// Client returns the client of the live connection, or nil while
// disconnected.
func (s *Session) Client() *thalex.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Reconnects returns the number of successful reconnects.
func (s *Session) Reconnects() uint64 {
	return s.reconnects.Load()
}

// Run connects and keeps the session alive until ctx is cancelled. Failed
// connects and dropped connections are retried with exponential backoff; the
// backoff resets after every successful connect.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.messages)

	attempt := 0
	for {
		connected, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Info("Session stopped")
			return nil
		}
		if connected {
			attempt = 0
		}

		delay := s.backoff(attempt)
		attempt++
		s.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"retry":   delay,
			"breaker": s.breaker.State(),
		}).Warn("Connection lost, retrying")

		select {
		case <-ctx.Done():
			s.logger.Info("Session stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce opens one connection and pumps it until it goes down. It reports
// whether the connection came up.
func (s *Session) runOnce(ctx context.Context) (bool, error) {
	client := s.newClient()
	err := s.breaker.Execute(func() error {
		return s.connect(ctx, client)
	})
	if err != nil {
		return false, err
	}

	s.setClient(client)
	defer func() {
		s.setClient(nil)
		if err := client.Disconnect(); err != nil {
			s.logger.WithError(err).Debug("Disconnect failed")
		}
	}()

	return true, s.pump(ctx, client)
}

// connect dials, logs in, arms cancel-on-disconnect and subscribes.
func (s *Session) connect(ctx context.Context, client *thalex.Client) error {
	if err := client.Connect(ctx); err != nil {
		return err
	}

	fail := func(step string, err error) error {
		client.Disconnect()
		return fmt.Errorf("%s: %w", step, err)
	}

	if s.cfg.hasCredentials() {
		if err := client.Login(ctx, s.cfg.KeyID, s.cfg.PrivateKey, s.cfg.Account, thalex.WithID(CallIDLogin)); err != nil {
			return fail("login", err)
		}
	}
	if s.cfg.CancelOnDisconnect > 0 {
		if err := client.SetCancelOnDisconnect(ctx, s.cfg.CancelOnDisconnect, thalex.WithID(CallIDCancelOnDisconnect)); err != nil {
			return fail("set cancel on disconnect", err)
		}
	}
	if len(s.cfg.PublicChannels) > 0 {
		if err := client.PublicSubscribe(ctx, s.cfg.PublicChannels, thalex.WithID(CallIDSubscribe)); err != nil {
			return fail("subscribe", err)
		}
	}
	if len(s.cfg.PrivateChannels) > 0 {
		if err := client.PrivateSubscribe(ctx, s.cfg.PrivateChannels, thalex.WithID(CallIDPrivateSubscribe)); err != nil {
			return fail("private subscribe", err)
		}
	}

	s.mu.Lock()
	s.connects++
	reconnect := s.connects > 1
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"network":  s.cfg.Network.Name(),
		"public":   len(s.cfg.PublicChannels),
		"private":  len(s.cfg.PrivateChannels),
		"loggedIn": s.cfg.hasCredentials(),
	}).Info("Session established")

	if reconnect {
		s.reconnects.Add(1)
		if s.onReconnect != nil {
			s.onReconnect()
		}
	}
	return nil
}

func (s *Session) pump(ctx context.Context, client *thalex.Client) error {
	for {
		msg, err := client.Receive(ctx)
		if err != nil {
			return err
		}
		select {
		case s.messages <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) backoff(attempt int) time.Duration {
	delay := s.cfg.BackoffBase
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= s.cfg.BackoffMax {
			return s.cfg.BackoffMax
		}
	}
	return delay
}

func (s *Session) setClient(c *thalex.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}
