// Package redis forwards notifications to Redis pub/sub channels.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sinkName = "redis"

// ErrNotStarted is returned by Send before Start.
var ErrNotStarted = errors.New("redis publisher not started")

// Config holds the Redis connection settings.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Metrics      *metrics.MetricsRecorder
}

// Client is the subset of the go-redis client used by the publisher.
type Client interface {
	Ping(ctx context.Context) *goredis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// Publisher publishes every message it is sent with PUBLISH. It implements the
// dispatcher's MessageSender and PoolController.
type Publisher struct {
	config    Config
	newClient func(Config) Client

	mu      sync.RWMutex
	client  Client
	logger  *logrus.Entry
	metrics *metrics.MetricsRecorder
}

// NewPublisher creates a publisher. It connects on Start.
func NewPublisher(config Config) *Publisher {
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 500 * time.Millisecond
	}
	return &Publisher{
		config:    config,
		newClient: newGoRedisClient,
		logger:    logrus.WithField("component", "redis_publisher"),
		metrics:   config.Metrics,
	}
}

func newGoRedisClient(config Config) Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		WriteTimeout: config.WriteTimeout,
	})
}

// Start connects and pings the server.
func (p *Publisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return errors.New("redis publisher already started")
	}

	client := p.newClient(p.config)
	ctx, cancel := context.WithTimeout(context.Background(), p.config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", p.config.Addr, err)
	}

	p.client = client
	p.logger.WithField("addr", p.config.Addr).Info("Redis publisher started")
	return nil
}

// Stop closes the connection pool.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return ErrNotStarted
	}
	err := p.client.Close()
	p.client = nil
	p.logger.Info("Redis publisher stopped")
	return err
}

// Send publishes msg on channel topic.
func (p *Publisher) Send(ctx context.Context, topic string, msg []byte) error {
	start := time.Now()

	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client == nil {
		return ErrNotStarted
	}

	receivers, err := client.Publish(ctx, topic, msg).Result()
	if err != nil {
		p.metrics.RecordSinkError(sinkName)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.metrics.RecordSinkMessage(sinkName, topic, time.Since(start))
	p.logger.WithFields(logrus.Fields{"channel": topic, "receivers": receivers}).Trace("Published")
	return nil
}
