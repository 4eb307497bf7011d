package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/common"
	"github.com/alejoacosta74/thalex-api/internal/events"
	"github.com/alejoacosta74/thalex-api/internal/metrics"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

const defaultStopTimeout = 5 * time.Second

// MessageHandler defines the interface that all message handlers must implement.
// This allows for a pluggable architecture where new handlers can be easily added.
type MessageHandler interface {
	Handle(ctx context.Context, msg *thalex.Message) error
}

// PoolController is a sink the dispatcher starts before reading messages and
// stops on shutdown.
type PoolController interface {
	Start() error
	Stop() error
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	// MsgChan carries raw messages from the session
	MsgChan <-chan []byte
	// ErrChan receives dispatch errors. Errors are dropped when it is full.
	ErrChan chan<- error
	// DoneChan is closed when Run returns. Optional.
	DoneChan chan struct{}
	// EventBus receives every handled message under its type
	EventBus events.Bus
	// Sinks are started and stopped with the dispatcher. Optional.
	Sinks []PoolController
	// Metrics records the processing latency. Optional.
	Metrics *metrics.MetricsRecorder
	// StopTimeout bounds the time spent stopping the sinks.
	StopTimeout time.Duration
}

// Dispatcher manages the routing of exchange messages to handlers.
// It parses each message, derives its common.MessageType, runs the handler
// registered for that type and publishes the raw message on the event bus.
type Dispatcher struct {
	handlers     map[common.MessageType]MessageHandler
	fallback     MessageHandler
	handlerMutex sync.RWMutex

	eventBus    events.Bus
	msgChan     <-chan []byte
	errChan     chan<- error
	doneChan    chan struct{}
	sinks       []PoolController
	metrics     *metrics.MetricsRecorder
	stopTimeout time.Duration
	logger      *logrus.Entry
}

// NewDispatcher creates and initializes a new message dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}
	return &Dispatcher{
		handlers:    make(map[common.MessageType]MessageHandler),
		eventBus:    cfg.EventBus,
		msgChan:     cfg.MsgChan,
		errChan:     cfg.ErrChan,
		doneChan:    cfg.DoneChan,
		sinks:       cfg.Sinks,
		metrics:     cfg.Metrics,
		stopTimeout: cfg.StopTimeout,
		logger:      logrus.WithField("component", "dispatcher"),
	}
}

// RegisterHandler registers a handler for a specific message type.
// This method is thread-safe and can be called concurrently.
//
// Usage example:
//
//	dispatcher.RegisterHandler(common.TypeResult, handlers.NewResultHandler())
func (d *Dispatcher) RegisterHandler(msgType common.MessageType, handler MessageHandler) {
	d.handlerMutex.Lock()
	defer d.handlerMutex.Unlock()
	d.handlers[msgType] = handler
}

// RegisterFallback registers the handler for message types without one.
func (d *Dispatcher) RegisterFallback(handler MessageHandler) {
	d.handlerMutex.Lock()
	defer d.handlerMutex.Unlock()
	d.fallback = handler
}

// Run starts the sinks and processes messages until ctx is cancelled or the
// message channel is closed. Sinks are stopped on the way out.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.doneChan != nil {
		defer close(d.doneChan)
	}

	for i, sink := range d.sinks {
		if err := sink.Start(); err != nil {
			d.stopSinks(d.sinks[:i])
			return fmt.Errorf("failed to start sink: %w", err)
		}
	}
	defer d.stopSinks(d.sinks)

	d.logger.Info("Starting dispatcher")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down dispatcher")
			return nil

		case msg, ok := <-d.msgChan:
			if !ok {
				d.logger.Info("Message channel closed, shutting down dispatcher")
				return nil
			}
			if err := d.dispatch(ctx, msg); err != nil {
				d.reportError(fmt.Errorf("dispatch error: %w", err))
			}
		}
	}
}

// dispatch processes a single message:
//  1. Parse the message and determine its type
//  2. Look up the handler, or the fallback
//  3. Execute the handler
//  4. Publish the raw message on the event bus
func (d *Dispatcher) dispatch(ctx context.Context, raw []byte) error {
	start := time.Now()

	msg, err := thalex.ParseMessage(raw)
	if err != nil {
		return err
	}
	msgType := common.TypeOf(msg)

	d.handlerMutex.RLock()
	handler, exists := d.handlers[msgType]
	if !exists {
		handler = d.fallback
	}
	d.handlerMutex.RUnlock()

	if handler == nil {
		return fmt.Errorf("no handler registered for message type: %s", msgType)
	}

	if err := handler.Handle(ctx, msg); err != nil {
		return fmt.Errorf("handler error for message type %s: %w", msgType, err)
	}
	d.metrics.RecordProcessLatency(time.Since(start))

	d.eventBus.Publish(msgType, raw)
	return nil
}

func (d *Dispatcher) reportError(err error) {
	if d.errChan == nil {
		d.logger.WithError(err).Error("Dispatch failed")
		return
	}
	select {
	case d.errChan <- err:
	default:
		d.logger.WithError(err).Error("Error channel full, dropping error")
	}
}

// stopSinks stops every sink, reporting those that fail or exceed the stop
// timeout.
func (d *Dispatcher) stopSinks(sinks []PoolController) {
	if len(sinks) == 0 {
		return
	}
	d.logger.Debug("Stopping sinks")

	done := make(chan error, len(sinks))
	for _, sink := range sinks {
		go func(s PoolController) { done <- s.Stop() }(sink)
	}

	timeout := time.After(d.stopTimeout)
	for range sinks {
		select {
		case err := <-done:
			if err != nil {
				d.reportError(fmt.Errorf("failed to stop sink: %w", err))
			}
		case <-timeout:
			d.reportError(fmt.Errorf("timeout waiting for sinks to stop"))
			return
		}
	}
}
