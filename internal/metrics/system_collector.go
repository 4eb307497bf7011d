package metrics

import (
	"context"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// SystemCollector implements the prometheus.Collector interface to expose Go runtime metrics.
// It collects memory statistics, garbage collection metrics, and concurrency information.
type SystemCollector struct {
	memStats   *prometheus.GaugeVec // memory statistics by type
	gcStats    *prometheus.GaugeVec // garbage collector statistics by type
	goroutines prometheus.Gauge
	threads    prometheus.Gauge
	done       chan struct{}
	logger     *logrus.Entry
}

// NewSystemCollector creates a SystemCollector and registers it with reg.
func NewSystemCollector(reg prometheus.Registerer) (*SystemCollector, error) {
	collector := &SystemCollector{
		memStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "system",
				Name:      "memory_bytes",
				Help:      "Memory statistics in bytes.",
			},
			[]string{"type"},
		),
		gcStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "system",
				Name:      "gc_stats",
				Help:      "Garbage collector statistics.",
			},
			[]string{"type"},
		),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "goroutines",
			Help:      "Number of running goroutines.",
		}),
		threads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "threads",
			Help:      "Number of OS threads created.",
		}),
		done:   make(chan struct{}),
		logger: logrus.WithField("component", "system_collector"),
	}

	if err := reg.Register(collector); err != nil {
		return nil, err
	}
	return collector, nil
}

// Describe implements prometheus.Collector.
func (c *SystemCollector) Describe(ch chan<- *prometheus.Desc) {
	c.memStats.Describe(ch)
	c.gcStats.Describe(ch)
	ch <- c.goroutines.Desc()
	ch <- c.threads.Desc()
}

// Collect implements prometheus.Collector. Runtime statistics are read on
// every scrape.
func (c *SystemCollector) Collect(ch chan<- prometheus.Metric) {
	var stats systemStats
	stats.update()

	c.memStats.WithLabelValues("alloc").Set(float64(stats.m.Alloc))
	c.memStats.WithLabelValues("total_alloc").Set(float64(stats.m.TotalAlloc))
	c.memStats.WithLabelValues("sys").Set(float64(stats.m.Sys))
	c.memStats.WithLabelValues("heap_alloc").Set(float64(stats.m.HeapAlloc))
	c.memStats.WithLabelValues("heap_sys").Set(float64(stats.m.HeapSys))
	c.memStats.WithLabelValues("heap_idle").Set(float64(stats.m.HeapIdle))
	c.memStats.WithLabelValues("heap_inuse").Set(float64(stats.m.HeapInuse))

	c.gcStats.WithLabelValues("num_gc").Set(float64(stats.m.NumGC))
	c.gcStats.WithLabelValues("pause_total_ns").Set(float64(stats.m.PauseTotalNs))

	c.goroutines.Set(float64(stats.goroutines))
	c.threads.Set(float64(stats.threads))

	c.memStats.Collect(ch)
	c.gcStats.Collect(ch)
	c.goroutines.Collect(ch)
	c.threads.Collect(ch)
}

type systemStats struct {
	m          runtime.MemStats
	goroutines int
	threads    int
}

func (s *systemStats) update() {
	runtime.ReadMemStats(&s.m)
	s.goroutines = runtime.NumGoroutine()
	s.threads = pprof.Lookup("threadcreate").Count()
}

// Start logs a summary of the runtime statistics every interval until ctx is
// cancelled.
func (c *SystemCollector) Start(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var stats systemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats.update()
				c.logger.WithFields(logrus.Fields{
					"alloc_mb":      bToMb(stats.m.Alloc),
					"sys_mb":        bToMb(stats.m.Sys),
					"heap_inuse_mb": bToMb(stats.m.HeapInuse),
					"num_gc":        stats.m.NumGC,
					"gc_pause_ms":   stats.m.PauseTotalNs / 1e6,
					"goroutines":    stats.goroutines,
					"threads":       stats.threads,
				}).Debug("Runtime stats")
			}
		}
	}()
}

func (c *SystemCollector) Done() <-chan struct{} {
	return c.done
}

// bToMb converts bytes to megabytes
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
