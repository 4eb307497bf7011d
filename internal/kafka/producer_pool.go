package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/metrics"
	"github.com/sirupsen/logrus"
)

const sinkName = "kafka"

var (
	// ErrPoolNotStarted is returned by Send and Stop before Start.
	ErrPoolNotStarted = errors.New("producer pool not started")
	// ErrPoolShuttingDown is returned by Send while the pool stops.
	ErrPoolShuttingDown = errors.New("producer pool is shutting down")
)

// Message represents a message to be sent to Kafka
type Message struct {
	Topic   string
	Payload []byte
	Headers map[string]string
}

// ProducerConfig holds configuration for the producer pool
type ProducerConfig struct {
	BrokerList []string // List of Kafka brokers (i.e. ["localhost:9092"])
	PoolSize   int      // Number of producers in the pool
	ClientID   string
	// Headers are added to every message, e.g. the session id
	Headers map[string]string
	// AcquireTimeout bounds the wait for a free producer (default 3s)
	AcquireTimeout time.Duration
	// SendTimeout bounds a single send (default 5s)
	SendTimeout time.Duration
	// ShutdownTimeout bounds Stop (default 10s)
	ShutdownTimeout time.Duration
	Metrics         *metrics.MetricsRecorder
}

// producerPool manages a pool of KafkaProducers
type producerPool struct {
	producers chan KafkaProducer
	config    ProducerConfig
	logger    *logrus.Entry
	wg        sync.WaitGroup // in-flight sends
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	mu        sync.RWMutex // protects started, ctx and cancel
	metrics   *metrics.MetricsRecorder

	newProducer func(ProducerConfig) (KafkaProducer, error)
}

// NewProducerPool creates a new pool of Kafka producers. Producers connect
// on Start.
func NewProducerPool(config ProducerConfig) (*producerPool, error) {
	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be greater than 0")
	}
	if len(config.BrokerList) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 3 * time.Second
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 5 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &producerPool{
		producers:   make(chan KafkaProducer, config.PoolSize),
		config:      config,
		logger:      logrus.WithField("component", "kafka_producer_pool"),
		metrics:     config.Metrics,
		newProducer: newSaramaProducer,
	}, nil
}

// Start initializes the producer pool and creates all producers
func (p *producerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("producer pool already started")
	}

	for i := 0; i < p.config.PoolSize; i++ {
		producer, err := p.newProducer(p.config)
		if err != nil {
			p.closeIdle()
			return fmt.Errorf("failed to create producer %d: %w", i, err)
		}
		p.producers <- producer
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.started = true
	p.logger.WithField("size", p.config.PoolSize).Info("Producer pool started successfully")
	return nil
}

// Stop waits for in-flight sends and closes every producer.
func (p *producerPool) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	p.started = false
	p.cancel()
	p.mu.Unlock()

	p.logger.Info("Stopping producer pool...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.config.ShutdownTimeout):
		return fmt.Errorf("timeout while stopping producer pool")
	}

	if err := p.closeIdle(); err != nil {
		p.logger.WithError(err).Error("Errors occurred while closing producers")
		return err
	}
	p.logger.Info("Producer pool stopped successfully")
	return nil
}

// closeIdle closes the producers currently in the pool and returns the first
// error.
func (p *producerPool) closeIdle() error {
	var closeErr error
	for {
		select {
		case producer := <-p.producers:
			if err := producer.Close(); err != nil {
				p.logger.WithError(err).Error("Failed to close producer")
				if closeErr == nil {
					closeErr = err
				}
			}
		default:
			return closeErr
		}
	}
}

// Send sends a message to Kafka using an available producer from the pool.
// It implements the MessageSender interface.
func (p *producerPool) Send(ctx context.Context, topic string, rawMsg []byte) error {
	return p.SendWithHeaders(ctx, topic, rawMsg, nil)
}

// SendWithHeaders sends rawMsg with the configured headers plus headers.
//
// A producer is taken from the pool for the duration of the send and put back
// afterwards, unless the pool is stopping, in which case it is closed.
func (p *producerPool) SendWithHeaders(ctx context.Context, topic string, rawMsg []byte, headers map[string]string) error {
	start := time.Now()

	p.mu.RLock()
	if !p.started {
		p.mu.RUnlock()
		return ErrPoolNotStarted
	}
	poolCtx := p.ctx
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	msg := Message{
		Topic:   topic,
		Payload: rawMsg,
		Headers: p.headers(headers),
	}

	select {
	case producer := <-p.producers:
		defer func() {
			select {
			case <-poolCtx.Done():
				producer.Close()
			default:
				p.producers <- producer
			}
		}()

		sendCtx, cancel := context.WithTimeout(ctx, p.config.SendTimeout)
		defer cancel()

		if err := producer.Send(sendCtx, msg); err != nil {
			p.metrics.RecordSinkError(sinkName)
			return fmt.Errorf("failed to send message: %w", err)
		}

		p.metrics.RecordSinkMessage(sinkName, topic, time.Since(start))
		return nil

	case <-time.After(p.config.AcquireTimeout):
		p.metrics.RecordSinkError(sinkName)
		return fmt.Errorf("timeout waiting for an available producer")

	case <-ctx.Done():
		p.metrics.RecordSinkError(sinkName)
		return fmt.Errorf("operation cancelled by caller: %w", ctx.Err())

	case <-poolCtx.Done():
		p.metrics.RecordSinkError(sinkName)
		return ErrPoolShuttingDown
	}
}

func (p *producerPool) headers(extra map[string]string) map[string]string {
	if len(p.config.Headers) == 0 && len(extra) == 0 {
		return nil
	}
	headers := make(map[string]string, len(p.config.Headers)+len(extra))
	for k, v := range p.config.Headers {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}
