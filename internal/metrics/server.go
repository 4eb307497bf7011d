package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsServer exposes /metrics and /health over HTTP.
type MetricsServer struct {
	server *http.Server
	logger *logrus.Entry
	done   chan struct{}
}

// NewMetricsServer serves prometheus.DefaultGatherer on addr.
func NewMetricsServer(addr string) *MetricsServer {
	s := &MetricsServer{
		logger: logrus.WithField("component", "metrics_server"),
		done:   make(chan struct{}),
	}

	metricsHandler := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          prometheus.DefaultRegisterer,
		}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugf("Metrics request from %s", r.RemoteAddr)
		metricsHandler.ServeHTTP(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully. It returns
// nil after a clean shutdown.
func (s *MetricsServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("Shutting down metrics server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Error shutting down server")
		}
		close(s.done)
	}()

	s.logger.Infof("Serving metrics on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		s.logger.WithError(err).Error("Error starting server")
		return err
	}
	<-s.done
	s.logger.Info("Metrics server shutdown complete")
	return nil
}

// Done is closed once the server has shut down.
func (s *MetricsServer) Done() <-chan struct{} {
	return s.done
}
