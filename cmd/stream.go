/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/common"
	"github.com/alejoacosta74/thalex-api/internal/config"
	"github.com/alejoacosta74/thalex-api/internal/dispatcher"
	"github.com/alejoacosta74/thalex-api/internal/dispatcher/handlers"
	"github.com/alejoacosta74/thalex-api/internal/events"
	"github.com/alejoacosta74/thalex-api/internal/kafka"
	"github.com/alejoacosta74/thalex-api/internal/metrics"
	"github.com/alejoacosta74/thalex-api/internal/redis"
	"github.com/alejoacosta74/thalex-api/internal/session"
	"github.com/alejoacosta74/thalex-api/internal/system"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const kafkaCheckTimeout = 5 * time.Second

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Subscribe to channels and forward notifications",
	Long: `Connect, optionally log in, subscribe to the configured channels and
dispatch every message: responses and notifications are logged, notifications
are forwarded to Kafka and Redis when enabled and Prometheus metrics are
served on --metrics-addr.

The session reconnects and resubscribes when the connection drops. On
SIGINT or SIGTERM it stops, cancelling all open orders first when
--cancel-all-on-exit is set.`,
	Example: `  thalex stream --public ticker.BTC-PERPETUAL.1000ms,price_index.BTCUSD
  thalex stream --key-file keys.yaml --private account.orders --kafka --kafka-brokers localhost:9092`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	flags := streamCmd.Flags()
	flags.StringSlice("public", nil, "public channels to subscribe to")
	flags.StringSlice("private", nil, "private channels to subscribe to (requires a key)")
	flags.Int("cancel-on-disconnect", 0, "cancel orders after this many seconds without connection (0 = off)")
	flags.Bool("cancel-all-on-exit", false, "cancel all open orders before exiting")
	flags.Bool("kafka", false, "forward notifications to Kafka")
	flags.StringSlice("kafka-brokers", nil, "Kafka brokers")
	flags.Bool("redis", false, "publish notifications to Redis")
	flags.String("redis-addr", "", "Redis address")
	flags.Bool("metrics", false, "serve Prometheus metrics")
	flags.String("metrics-addr", "", "metrics listen address")
	flags.StringSlice("metrics-topics", nil, "message types counted by the metrics recorder (default all)")
	flags.String("cpuprofile", "", "write a CPU profile to this file")
	flags.String("memprofile", "", "write a heap profile to this file on exit")

	viper.BindPFlag("session.public_channels", flags.Lookup("public"))
	viper.BindPFlag("session.private_channels", flags.Lookup("private"))
	viper.BindPFlag("session.cancel_on_disconnect", flags.Lookup("cancel-on-disconnect"))
	viper.BindPFlag("session.cancel_all_on_exit", flags.Lookup("cancel-all-on-exit"))
	viper.BindPFlag("kafka.enabled", flags.Lookup("kafka"))
	viper.BindPFlag("kafka.brokers", flags.Lookup("kafka-brokers"))
	viper.BindPFlag("redis.enabled", flags.Lookup("redis"))
	viper.BindPFlag("redis.addr", flags.Lookup("redis-addr"))
	viper.BindPFlag("metrics.enabled", flags.Lookup("metrics"))
	viper.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	viper.BindPFlag("metrics.topics", flags.Lookup("metrics-topics"))
}

func runStream(cmd *cobra.Command, args []string) error {
	logger := logrus.WithField("component", "stream")

	cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
	memprofile, _ := cmd.Flags().GetString("memprofile")
	stopProfiling, err := system.StartProfiling(cpuprofile, memprofile)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.WithError(err).Error("Failed to write profiles")
		}
	}()
	restore := system.NewSettings(cfg.System).Apply()
	defer restore()

	sessCfg, err := sessionConfig(cfg)
	if err != nil {
		return err
	}
	if cfg.Session.CancelAllOnExit && sessCfg.PrivateKey == nil {
		return fmt.Errorf("--cancel-all-on-exit: %w", errNoKeyFile)
	}

	bus := events.NewEventBus()
	var recorder *metrics.MetricsRecorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewMetricsRecorder(bus, metricsTopics(cfg.Metrics.Topics)...)
	}

	sess, err := session.New(sessCfg, session.WithOnReconnect(recorder.RecordReconnect))
	if err != nil {
		return err
	}

	results := handlers.NewResultHandler()
	for _, id := range []uint64{session.CallIDLogin, session.CallIDCancelOnDisconnect, session.CallIDSubscribe, session.CallIDPrivateSubscribe} {
		results.SetLogLevel(id, logrus.InfoLevel)
	}
	forward, sinks, err := buildSinks(cfg, sess.ID(), recorder)
	if err != nil {
		return err
	}

	errChan := make(chan error, 100)
	disp := dispatcher.NewDispatcher(dispatcher.DispatcherConfig{
		MsgChan:  sess.Messages(),
		ErrChan:  errChan,
		EventBus: bus,
		Sinks:    sinks,
		Metrics:  recorder,
	})
	registerHandlers(disp, results, forward)

	var collector *metrics.SystemCollector
	if recorder != nil {
		if collector, err = metrics.NewSystemCollector(prometheus.DefaultRegisterer); err != nil {
			return err
		}
	}

	shutdownCtx, stop := signalContext()
	defer stop()
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return disp.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case err := <-errChan:
				logger.WithError(err).Warn("Dispatch error")
			case <-gctx.Done():
				return nil
			}
		}
	})
	if recorder != nil {
		if err := recorder.Start(gctx); err != nil {
			cancelRun()
			g.Wait()
			return err
		}
		if cfg.Metrics.SystemInterval > 0 {
			collector.Start(gctx, cfg.Metrics.SystemInterval)
		}
		server := metrics.NewMetricsServer(cfg.Metrics.Addr)
		g.Go(func() error { return server.Start(gctx) })
	}

	select {
	case <-shutdownCtx.Done():
	case <-gctx.Done():
	}

	if cfg.Session.CancelAllOnExit {
		cancelAllOnExit(sess, results, cfg.Session.ExitTimeout)
	}

	cancelRun()
	err = g.Wait()
	bus.Shutdown()
	if recorder != nil {
		<-recorder.Done()
	}

	logger.WithFields(logrus.Fields{
		"session":    sess.ID(),
		"reconnects": sess.Reconnects(),
		"dropped":    bus.Dropped(),
	}).Info("Stream stopped")
	return err
}

func sessionConfig(c *config.Config) (session.Config, error) {
	sc := session.Config{
		Network:            network(c),
		URL:                c.URL,
		Account:            c.Account,
		CancelOnDisconnect: c.Session.CancelOnDisconnect,
		PublicChannels:     c.Session.PublicChannels,
		PrivateChannels:    c.Session.PrivateChannels,
		BackoffBase:        c.Session.BackoffBase,
		BackoffMax:         c.Session.BackoffMax,
		BreakerThreshold:   c.Session.BreakerThreshold,
		BreakerTimeout:     c.Session.BreakerTimeout,
		PingInterval:       c.Session.PingInterval,
		RateLimit:          c.Session.RateLimit,
		RateBurst:          c.Session.RateBurst,
		BufferSize:         c.Session.BufferSize,
	}
	if c.KeyFile == "" {
		return sc, nil
	}
	keyID, key, err := credentials(c)
	if err != nil {
		return sc, err
	}
	sc.KeyID, sc.PrivateKey = keyID, key
	return sc, nil
}

// metricsTopics parses the configured message types, dropping unknown names.
func metricsTopics(names []string) []common.MessageType {
	topics, unknown := common.ParseTypes(names)
	if len(unknown) > 0 {
		logrus.WithField("topics", unknown).Warn("Ignoring unknown metrics topics")
	}
	return topics
}

// buildSinks creates the enabled sinks and the handlers forwarding to them.
func buildSinks(c *config.Config, sessionID string, recorder *metrics.MetricsRecorder) ([]handlers.Handler, []dispatcher.PoolController, error) {
	var (
		forward []handlers.Handler
		sinks   []dispatcher.PoolController
	)

	if c.Kafka.Enabled {
		if err := kafka.CheckClusterAvailability(c.Kafka.Brokers, kafkaCheckTimeout); err != nil {
			return nil, nil, fmt.Errorf("kafka: %w", err)
		}
		pool, err := kafka.NewProducerPool(kafka.ProducerConfig{
			BrokerList: c.Kafka.Brokers,
			PoolSize:   c.Kafka.PoolSize,
			ClientID:   c.Kafka.ClientID,
			Headers:    map[string]string{"session": sessionID},
			Metrics:    recorder,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("kafka: %w", err)
		}
		forward = append(forward, handlers.NewForwardHandler("kafka",
			handlers.NewBaseHandler(pool, handlers.KafkaTopic(c.Kafka.TopicPrefix))))
		sinks = append(sinks, pool)
	}

	if c.Redis.Enabled {
		pub := redis.NewPublisher(redis.Config{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			PoolSize: c.Redis.PoolSize,
			Metrics:  recorder,
		})
		forward = append(forward, handlers.NewForwardHandler("redis",
			handlers.NewBaseHandler(pub, handlers.RedisChannel(c.Redis.ChannelPrefix))))
		sinks = append(sinks, pub)
	}

	return forward, sinks, nil
}

// registerHandlers routes responses to results and every notification family
// to the debug log plus the sink forwarders.
func registerHandlers(disp *dispatcher.Dispatcher, results *handlers.ResultHandler, forward []handlers.Handler) {
	disp.RegisterHandler(common.TypeResult, results)
	disp.RegisterHandler(common.TypeError, handlers.NewErrorHandler(results))

	debug := handlers.NewDebugHandler()
	notifications := append(handlers.MultiHandler{debug}, forward...)
	for _, t := range common.AllTypes() {
		if t == common.TypeResult || t == common.TypeError {
			continue
		}
		disp.RegisterHandler(t, notifications)
	}
	disp.RegisterFallback(debug)
}

// cancelAllOnExit cancels every open order through the live connection and
// waits for the exchange to confirm.
func cancelAllOnExit(sess *session.Session, results *handlers.ResultHandler, timeout time.Duration) {
	logger := logrus.WithField("component", "stream")
	client := sess.Client()
	if client == nil {
		logger.Warn("Not connected, open orders were not cancelled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	go func() {
		if err := client.CancelAll(ctx, thalex.WithID(session.CallIDCancelAll)); err != nil {
			logger.WithError(err).Error("Failed to cancel orders")
			cancel()
		}
	}()

	msg, err := results.Await(ctx, session.CallIDCancelAll)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		logger.Warn("Timeout waiting for cancel_all result")
	case msg.Error != nil:
		logger.WithError(msg.Error).Error("Failed to cancel orders")
	default:
		logger.Infof("Cancelled all %s orders", msg.Result)
	}
}
