package events

import (
	"sync"
	"sync/atomic"

	"github.com/alejoacosta74/thalex-api/internal/common"
)

// DefaultBufferSize is the buffer of every subscriber channel.
const DefaultBufferSize = 100

// EventBus implements the Bus interface providing a concurrent-safe
// publish-subscribe message bus keyed by message type.
type EventBus struct {
	// subscribers maps topics to a set of subscriber channels
	subscribers   map[common.MessageType]map[chan interface{}]struct{}
	subscribersMu sync.RWMutex

	channelBufferSize int
	dropped           atomic.Uint64

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewEventBus creates a new EventBus. Subscriber channels buffer up to
// DefaultBufferSize events.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers:       make(map[common.MessageType]map[chan interface{}]struct{}),
		channelBufferSize: DefaultBufferSize,
		shutdownCh:        make(chan struct{}),
	}
}

// Publish sends an event to all subscribers of the specified topic.
// It never blocks: if a subscriber's channel is full, the event is dropped for
// that subscriber.
func (b *EventBus) Publish(topic common.MessageType, event interface{}) {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	for subscriberCh := range b.subscribers[topic] {
		select {
		case subscriberCh <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe creates a new subscription to the specified topic.
// The subscriber should call Unsubscribe when done. After Shutdown the
// returned channel is already closed.
//
// Usage example:
//
//	ch := eventBus.Subscribe(common.TypeResult)
//	defer eventBus.Unsubscribe(common.TypeResult, ch)
func (b *EventBus) Subscribe(topic common.MessageType) <-chan interface{} {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	ch := make(chan interface{}, b.channelBufferSize)

	select {
	case <-b.shutdownCh:
		close(ch)
		return ch
	default:
	}

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[chan interface{}]struct{})
	}
	b.subscribers[topic][ch] = struct{}{}

	return ch
}

// Unsubscribe removes a subscriber from the specified topic and closes its
// channel. It is idempotent.
func (b *EventBus) Unsubscribe(topic common.MessageType, ch <-chan interface{}) {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	subscribers, exists := b.subscribers[topic]
	if !exists {
		return
	}

	for subCh := range subscribers {
		if ch == subCh {
			delete(subscribers, subCh)
			close(subCh)
			break
		}
	}

	if len(subscribers) == 0 {
		delete(b.subscribers, topic)
	}
}

// Shutdown closes all subscriber channels. Calling it more than once is a
// no-op.
func (b *EventBus) Shutdown() {
	b.shutdownOnce.Do(func() {
		close(b.shutdownCh)

		b.subscribersMu.Lock()
		defer b.subscribersMu.Unlock()

		for topic, subscribers := range b.subscribers {
			for ch := range subscribers {
				close(ch)
			}
			delete(b.subscribers, topic)
		}
	})
}

// TopicSubscriberCount returns the number of subscribers for a topic.
func (b *EventBus) TopicSubscriberCount(topic common.MessageType) int {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	return len(b.subscribers[topic])
}

// Dropped returns the number of events dropped because a subscriber was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}
