package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector, err := NewSystemCollector(registry)
	require.NoError(t, err)

	// 7 memory gauges, 2 gc gauges, goroutines and threads
	assert.Equal(t, 11, testutil.CollectAndCount(collector))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"thalex_system_memory_bytes",
		"thalex_system_gc_stats",
		"thalex_system_goroutines",
		"thalex_system_threads",
	}, names)

	for _, f := range families {
		if f.GetName() == "thalex_system_goroutines" {
			assert.Greater(t, f.GetMetric()[0].GetGauge().GetValue(), 0.0)
		}
	}

	_, err = NewSystemCollector(registry)
	assert.Error(t, err, "registering twice fails")
}

func TestSystemCollectorStart(t *testing.T) {
	collector, err := NewSystemCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	collector.Start(ctx, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-collector.Done():
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
