package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/common"
	"github.com/alejoacosta74/thalex-api/internal/dispatcher/mocks"
	"github.com/alejoacosta74/thalex-api/internal/events"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tickerType = common.MessageType("ticker")

func setupTestRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return registry
}

func TestRecordMetrics(t *testing.T) {
	tests := []struct {
		name           string
		resultEvent    interface{}
		errorEvent     interface{}
		tickerEvent    interface{}
		expectedCounts map[string]float64
	}{
		{
			name:        "result, error and notification",
			resultEvent: []byte(`{"id":1,"result":"pong"}`),
			errorEvent:  []byte(`{"id":2,"error":{"code":4,"message":"throttled"}}`),
			tickerEvent: []byte(`{"channel_name":"ticker.BTC-PERPETUAL.raw","notification":{"mark_price":30000}}`),
			expectedCounts: map[string]float64{
				"result":   1,
				"error":    1,
				"ticker":   1,
				"rpc_4":    1,
				"observed": 3,
			},
		},
		{
			name:       "error without code is counted but not classified",
			errorEvent: []byte(`{"id":2,"error":null}`),
			expectedCounts: map[string]float64{
				"error":    1,
				"rpc_4":    0,
				"observed": 1,
			},
		},
		{
			name:        "non-byte payload is ignored",
			resultEvent: "string instead of []byte",
			tickerEvent: 123,
			expectedCounts: map[string]float64{
				"result":   0,
				"ticker":   0,
				"observed": 0,
			},
		},
		{
			name: "immediate context cancellation",
			expectedCounts: map[string]float64{
				"result":   0,
				"error":    0,
				"observed": 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestRegistry()
			logrus.SetLevel(logrus.TraceLevel)

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockBus := mocks.NewMockBus(ctrl)

			resultCh := make(chan interface{}, 1)
			errorCh := make(chan interface{}, 1)
			tickerCh := make(chan interface{}, 1)

			mockBus.EXPECT().Subscribe(common.TypeResult).Return(resultCh)
			mockBus.EXPECT().Subscribe(common.TypeError).Return(errorCh)
			mockBus.EXPECT().Subscribe(tickerType).Return(tickerCh)
			mockBus.EXPECT().Unsubscribe(common.TypeResult, gomock.Any()).Times(1)
			mockBus.EXPECT().Unsubscribe(common.TypeError, gomock.Any()).Times(1)
			mockBus.EXPECT().Unsubscribe(tickerType, gomock.Any()).Times(1)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			recorder := NewMetricsRecorder(mockBus, common.TypeResult, common.TypeError, tickerType)
			require.NoError(t, recorder.Start(ctx))

			for ch, event := range map[chan interface{}]interface{}{resultCh: tt.resultEvent, errorCh: tt.errorEvent, tickerCh: tt.tickerEvent} {
				if event != nil {
					ch <- event
				}
			}

			// the recorder drains every channel before we cancel
			require.Eventually(t, func() bool {
				return len(resultCh) == 0 && len(errorCh) == 0 && len(tickerCh) == 0
			}, time.Second, 5*time.Millisecond)
			time.Sleep(20 * time.Millisecond)

			cancel()
			select {
			case <-recorder.Done():
			case <-time.After(time.Second):
				t.Fatal("recorder did not stop")
			}

			for metricName, expected := range tt.expectedCounts {
				var actual float64
				switch metricName {
				case "rpc_4":
					actual = testutil.ToFloat64(recorder.rpcErrors.WithLabelValues("4"))
				case "observed":
					actual = histogramCount(t, recorder.messageSize)
				default:
					actual = testutil.ToFloat64(recorder.messages.WithLabelValues(metricName))
				}
				assert.Equal(t, expected, actual, "metric %s", metricName)
			}
		})
	}
}

func TestRecorderWithEventBus(t *testing.T) {
	setupTestRegistry()
	bus := events.NewEventBus()
	recorder := NewMetricsRecorder(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, recorder.Start(ctx))

	require.Eventually(t, func() bool {
		return bus.TopicSubscriberCount(common.TypeResult) == 1 && bus.TopicSubscriberCount(common.TypeUnknown) == 1
	}, time.Second, 5*time.Millisecond)

	bus.Publish(common.TypeResult, []byte(`{"id":1,"result":{}}`))
	bus.Publish(common.MessageType("account.orders"), []byte(`{"channel_name":"account.orders","notification":[]}`))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(recorder.messages.WithLabelValues("result")) == 1 &&
			testutil.ToFloat64(recorder.messages.WithLabelValues("account.orders")) == 1
	}, time.Second, 5*time.Millisecond)

	// shutting down the bus closes every subscription and stops the recorder
	bus.Shutdown()
	select {
	case <-recorder.Done():
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop after bus shutdown")
	}
}

func TestRecorderDirectMetrics(t *testing.T) {
	setupTestRegistry()
	recorder := NewMetricsRecorder(nil)

	recorder.RecordReconnect()
	recorder.RecordReconnect()
	recorder.RecordRPCError(1)
	recorder.RecordSinkMessage("kafka", "thalex.ticker", 3*time.Millisecond)
	recorder.RecordSinkError("redis")
	recorder.RecordProcessLatency(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.reconnects))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.rpcErrors.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.sinkMessages.WithLabelValues("kafka", "thalex.ticker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.sinkErrors.WithLabelValues("redis")))
	assert.Equal(t, 1.0, histogramCount(t, recorder.processLatency))

	// without an event bus Start returns at once
	require.NoError(t, recorder.Start(context.Background()))
	<-recorder.Done()
}

func TestNilRecorder(t *testing.T) {
	var recorder *MetricsRecorder
	assert.NotPanics(t, func() {
		recorder.RecordReconnect()
		recorder.RecordRPCError(4)
		recorder.RecordSinkMessage("kafka", "topic", time.Second)
		recorder.RecordSinkError("kafka")
		recorder.RecordProcessLatency(time.Second)
	})
}

func histogramCount(t *testing.T, h prometheus.Histogram) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, h.Write(metric))
	return float64(metric.GetHistogram().GetSampleCount())
}
