package metrics

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/common"
	"github.com/alejoacosta74/thalex-api/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const namespace = "thalex"

// MetricsRecorder records Prometheus metrics about the message stream. It
// counts messages by subscribing to the event bus; the dispatcher, session and
// sinks report the rest through the Record methods.
//
// A nil *MetricsRecorder is valid and records nothing.
type MetricsRecorder struct {
	messages       *prometheus.CounterVec
	rpcErrors      *prometheus.CounterVec
	messageSize    prometheus.Histogram
	processLatency prometheus.Histogram
	reconnects     prometheus.Counter
	sinkMessages   *prometheus.CounterVec
	sinkErrors     *prometheus.CounterVec
	sinkLatency    *prometheus.HistogramVec

	eventBus events.Bus
	topics   []common.MessageType
	logger   *logrus.Entry
	done     chan struct{}
}

// NewMetricsRecorder registers the metrics with prometheus.DefaultRegisterer.
// topics are the message types counted from the event bus; none means all.
func NewMetricsRecorder(eventBus events.Bus, topics ...common.MessageType) *MetricsRecorder {
	if len(topics) == 0 {
		topics = append(common.AllTypes(), common.TypeUnknown)
	}
	r := &MetricsRecorder{
		eventBus: eventBus,
		topics:   topics,
		logger:   logrus.WithField("component", "metrics_recorder"),
		done:     make(chan struct{}),
	}

	r.messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Number of messages received from the exchange by type",
	}, []string{"type"})

	r.rpcErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_errors_total",
		Help:      "Number of error responses by exchange error code",
	}, []string{"code"})

	r.messageSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_size_bytes",
		Help:      "Size of received messages in bytes",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8), // 64B to 1MB
	})

	r.processLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "process_latency_seconds",
		Help:      "Time spent dispatching a message to its handler",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	r.reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconnects_total",
		Help:      "Number of times the session reconnected to the exchange",
	})

	r.sinkMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_messages_total",
		Help:      "Number of messages forwarded to a sink by topic",
	}, []string{"sink", "topic"})

	r.sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Number of failed sink sends",
	}, []string{"sink"})

	r.sinkLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sink_latency_seconds",
		Help:      "Latency of sink sends in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
	}, []string{"sink"})

	r.logger.Debug("Metrics recorder initialized")
	return r
}

// Start subscribes to the event bus and records message metrics until ctx is
// cancelled.
func (r *MetricsRecorder) Start(ctx context.Context) error {
	r.logger.Debug("Starting metrics recorder")
	go r.recordMetrics(ctx)
	return nil
}

// recordMetrics fans in every subscribed topic and records each event.
func (r *MetricsRecorder) recordMetrics(ctx context.Context) {
	defer close(r.done)
	if r.eventBus == nil {
		r.logger.Warn("No event bus, message metrics disabled")
		return
	}

	subs := make([]<-chan interface{}, len(r.topics))
	cases := make([]reflect.SelectCase, 0, len(r.topics)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for i, topic := range r.topics {
		subs[i] = r.eventBus.Subscribe(topic)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(subs[i])})
	}
	r.logger.WithField("topics", len(r.topics)).Debug("Subscribed to event bus")

	defer func() {
		for i, topic := range r.topics {
			r.eventBus.Unsubscribe(topic, subs[i])
		}
	}()

	open := len(subs)
	for open > 0 {
		chosen, value, ok := reflect.Select(cases)
		if chosen == 0 {
			r.logger.Debug("Context cancelled, stopping metrics recorder")
			return
		}
		if !ok {
			// closed by the bus; stop selecting on it
			cases[chosen].Chan = reflect.Value{}
			open--
			continue
		}
		msg, isBytes := value.Interface().([]byte)
		if !isBytes {
			r.logger.Warnf("Unexpected event payload %T", value.Interface())
			continue
		}
		r.recordMessage(r.topics[chosen-1], msg)
	}
	r.logger.Debug("All event bus subscriptions closed")
}

func (r *MetricsRecorder) recordMessage(topic common.MessageType, msg []byte) {
	r.messages.WithLabelValues(string(topic)).Inc()
	r.messageSize.Observe(float64(len(msg)))

	if topic != common.TypeError {
		return
	}
	var resp struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(msg, &resp); err != nil || resp.Error == nil {
		r.logger.Trace("Error event without error code")
		return
	}
	r.RecordRPCError(resp.Error.Code)
}

// RecordRPCError counts an error response.
func (r *MetricsRecorder) RecordRPCError(code int) {
	if r == nil {
		return
	}
	r.rpcErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}

// RecordProcessLatency observes the time taken to handle one message.
func (r *MetricsRecorder) RecordProcessLatency(d time.Duration) {
	if r == nil {
		return
	}
	r.processLatency.Observe(d.Seconds())
}

// RecordReconnect counts a session reconnect.
func (r *MetricsRecorder) RecordReconnect() {
	if r == nil {
		return
	}
	r.reconnects.Inc()
}

// RecordSinkMessage counts a message forwarded to sink.
func (r *MetricsRecorder) RecordSinkMessage(sink, topic string, d time.Duration) {
	if r == nil {
		return
	}
	r.sinkMessages.WithLabelValues(sink, topic).Inc()
	r.sinkLatency.WithLabelValues(sink).Observe(d.Seconds())
}

// RecordSinkError counts a failed send to sink.
func (r *MetricsRecorder) RecordSinkError(sink string) {
	if r == nil {
		return
	}
	r.sinkErrors.WithLabelValues(sink).Inc()
}

// Done is closed once the recorder stopped reading the event bus.
func (r *MetricsRecorder) Done() <-chan struct{} {
	return r.done
}
