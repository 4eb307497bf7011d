package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logrus.SetLevel(logrus.TraceLevel)
}

// fakeProducer records the messages it is asked to send.
type fakeProducer struct {
	mu     sync.Mutex
	sent   []Message
	err    error
	delay  time.Duration
	closed bool
}

func (f *fakeProducer) Send(ctx context.Context, msg Message) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestPool(t *testing.T, cfg ProducerConfig, producers ...*fakeProducer) *producerPool {
	t.Helper()
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	cfg.BrokerList = []string{"localhost:9092"}
	cfg.PoolSize = len(producers)
	cfg.Metrics = metrics.NewMetricsRecorder(nil)

	pool, err := NewProducerPool(cfg)
	require.NoError(t, err)
	next := 0
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) {
		p := producers[next]
		next++
		return p, nil
	}
	return pool
}

func TestNewProducerPoolValidation(t *testing.T) {
	_, err := NewProducerPool(ProducerConfig{BrokerList: []string{"localhost:9092"}})
	assert.EqualError(t, err, "pool size must be greater than 0")

	_, err = NewProducerPool(ProducerConfig{PoolSize: 1})
	assert.EqualError(t, err, "at least one broker is required")
}

func TestProducerPoolSend(t *testing.T) {
	producer := &fakeProducer{}
	pool := newTestPool(t, ProducerConfig{Headers: map[string]string{"session": "s-1"}}, producer)

	assert.ErrorIs(t, pool.Send(context.Background(), "thalex.ticker", []byte(`{}`)), ErrPoolNotStarted)

	require.NoError(t, pool.Start())
	assert.Error(t, pool.Start(), "starting twice fails")

	require.NoError(t, pool.Send(context.Background(), "thalex.ticker", []byte(`{"a":1}`)))
	require.NoError(t, pool.SendWithHeaders(context.Background(), "thalex.book", []byte(`{"b":2}`),
		map[string]string{"channel_name": "book.BTC-PERPETUAL.none.10.100ms"}))

	require.Len(t, producer.sent, 2)
	assert.Equal(t, Message{
		Topic:   "thalex.ticker",
		Payload: []byte(`{"a":1}`),
		Headers: map[string]string{"session": "s-1"},
	}, producer.sent[0])
	assert.Equal(t, map[string]string{"session": "s-1", "channel_name": "book.BTC-PERPETUAL.none.10.100ms"}, producer.sent[1].Headers)

	require.NoError(t, pool.Stop())
	assert.True(t, producer.closed)
	assert.ErrorIs(t, pool.Stop(), ErrPoolNotStarted)
	assert.ErrorIs(t, pool.Send(context.Background(), "thalex.ticker", []byte(`{}`)), ErrPoolNotStarted)
}

func TestProducerPoolSendErrors(t *testing.T) {
	t.Run("producer error", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("kafka server: Not Leader For Partition")}
		pool := newTestPool(t, ProducerConfig{}, producer)
		require.NoError(t, pool.Start())
		defer pool.Stop()

		err := pool.Send(context.Background(), "thalex.ticker", []byte(`{}`))
		assert.ErrorContains(t, err, "failed to send message")
	})

	t.Run("no producer available", func(t *testing.T) {
		producer := &fakeProducer{delay: 300 * time.Millisecond}
		pool := newTestPool(t, ProducerConfig{AcquireTimeout: 20 * time.Millisecond}, producer)
		require.NoError(t, pool.Start())
		defer pool.Stop()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pool.Send(context.Background(), "slow", []byte(`{}`)))
		}()
		require.Eventually(t, func() bool { return len(pool.producers) == 0 }, time.Second, time.Millisecond)

		err := pool.Send(context.Background(), "fast", []byte(`{}`))
		assert.EqualError(t, err, "timeout waiting for an available producer")
		wg.Wait()
	})

	t.Run("caller cancelled", func(t *testing.T) {
		producer := &fakeProducer{delay: time.Second}
		pool := newTestPool(t, ProducerConfig{}, producer)
		require.NoError(t, pool.Start())
		defer pool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := pool.Send(ctx, "thalex.ticker", []byte(`{}`))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestProducerPoolStopWaitsForSends(t *testing.T) {
	producer := &fakeProducer{delay: 100 * time.Millisecond}
	pool := newTestPool(t, ProducerConfig{}, producer)
	require.NoError(t, pool.Start())

	sendErr := make(chan error, 1)
	go func() { sendErr <- pool.Send(context.Background(), "thalex.ticker", []byte(`{}`)) }()
	require.Eventually(t, func() bool { return len(pool.producers) == 0 }, time.Second, time.Millisecond)

	require.NoError(t, pool.Stop())
	assert.NoError(t, <-sendErr)
	assert.Len(t, producer.sent, 1)
	assert.True(t, producer.closed, "in-flight producer is closed instead of returned")
}

func TestProducerPoolStartFailure(t *testing.T) {
	first := &fakeProducer{}
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"localhost:9092"}, PoolSize: 2})
	require.NoError(t, err)

	calls := 0
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("kafka: client has run out of available brokers")
		}
		return first, nil
	}

	assert.ErrorContains(t, pool.Start(), "failed to create producer 1")
	assert.True(t, first.closed)
	assert.ErrorIs(t, pool.Stop(), ErrPoolNotStarted)
}
