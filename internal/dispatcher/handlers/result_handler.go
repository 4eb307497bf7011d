package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// ResultCallback is called with every response echoing a given call id.
type ResultCallback func(ctx context.Context, msg *thalex.Message)

// ResultHandler routes responses by call id: to a pending Await, to a
// registered callback, or to the log.
type ResultHandler struct {
	logger *logrus.Entry

	mu        sync.Mutex
	waiters   map[uint64]chan *thalex.Message
	callbacks map[uint64]ResultCallback
	levels    map[uint64]logrus.Level
}

// NewResultHandler creates a new result handler
func NewResultHandler() *ResultHandler {
	return &ResultHandler{
		logger:    logrus.WithField("component", "result_handler"),
		waiters:   make(map[uint64]chan *thalex.Message),
		callbacks: make(map[uint64]ResultCallback),
		levels:    make(map[uint64]logrus.Level),
	}
}

// SetLogLevel sets the level at which responses to id are logged. The default
// is debug.
func (h *ResultHandler) SetLogLevel(id uint64, level logrus.Level) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels[id] = level
}

// OnResult registers cb for every response to id.
func (h *ResultHandler) OnResult(id uint64, cb ResultCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks[id] = cb
}

// Await blocks until the next response to id arrives or ctx is done.
//
// Usage example:
//
//	go client.CancelAll(ctx, thalex.WithID(callID))
//	msg, err := results.Await(ctx, callID)
func (h *ResultHandler) Await(ctx context.Context, id uint64) (*thalex.Message, error) {
	ch := make(chan *thalex.Message, 1)

	h.mu.Lock()
	if _, busy := h.waiters[id]; busy {
		h.mu.Unlock()
		return nil, errors.New("already waiting for this id")
	}
	h.waiters[id] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.waiters[id] == ch {
			delete(h.waiters, id)
		}
		h.mu.Unlock()
	}()

	select {
	case msg := <-ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Handle delivers a result or error response.
func (h *ResultHandler) Handle(ctx context.Context, msg *thalex.Message) error {
	if msg.ID == nil {
		h.logger.WithField("kind", msg.Kind()).Debugf("Response without id: %s", msg.Raw)
		return nil
	}
	id := *msg.ID

	h.mu.Lock()
	waiter, waiting := h.waiters[id]
	if waiting {
		delete(h.waiters, id)
	}
	cb := h.callbacks[id]
	level, ok := h.levels[id]
	h.mu.Unlock()

	if !ok {
		level = logrus.DebugLevel
	}
	if msg.Kind() == thalex.KindResult {
		h.logger.WithField("id", id).Logf(level, "Result: %s", msg.Result)
	}

	if waiting {
		waiter <- msg
	}
	if cb != nil {
		cb(ctx, msg)
	}
	return nil
}
