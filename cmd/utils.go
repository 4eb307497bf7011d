package cmd

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejoacosta74/thalex-api/internal/config"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// handleSignals cancels the context on the first signal read from sigChan
func handleSignals(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logrus.WithField("signal", sig).Info("Signal received, stopping...")
		cancel()
	case <-ctx.Done():
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. The signals
// are subscribed before it returns.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go handleSignals(ctx, cancel, sigChan)
	return ctx, cancel
}

func network(c *config.Config) thalex.Network {
	n, err := thalex.ParseNetwork(c.Network)
	if err != nil {
		// validated on load
		return thalex.Test
	}
	return n
}

// clientOptions maps the session settings to client options.
func clientOptions(c *config.Config) []thalex.Option {
	var opts []thalex.Option
	if c.URL != "" {
		opts = append(opts, thalex.WithURL(c.URL))
	}
	if c.Session.PingInterval > 0 {
		opts = append(opts, thalex.WithPingInterval(c.Session.PingInterval))
	}
	if c.Session.RateLimit > 0 {
		opts = append(opts, thalex.WithRateLimit(c.Session.RateLimit, c.Session.RateBurst))
	}
	return opts
}

var errNoKeyFile = errors.New("no key file configured (set --key-file or key_file)")

// credentials loads the API key of the configured network.
func credentials(c *config.Config) (string, *rsa.PrivateKey, error) {
	if c.KeyFile == "" {
		return "", nil, errNoKeyFile
	}
	keys, err := config.LoadKeyFile(c.KeyFile)
	if err != nil {
		return "", nil, err
	}
	return keys.For(network(c))
}

// awaitResponse reads messages until the response to id arrives. Other
// messages are logged and dropped.
func awaitResponse(ctx context.Context, client *thalex.Client, id uint64) (*thalex.Message, error) {
	for {
		msg, err := client.ReceiveMessage(ctx)
		if err != nil {
			return nil, err
		}
		if msg.HasID(id) {
			return msg, nil
		}
		logrus.WithField("kind", msg.Kind()).Tracef("Skipping message: %s", msg.Raw)
	}
}

// loginAndAwait logs client in and waits for the exchange to accept it.
func loginAndAwait(ctx context.Context, client *thalex.Client, c *config.Config, id uint64) error {
	keyID, key, err := credentials(c)
	if err != nil {
		return err
	}
	if err := client.Login(ctx, keyID, key, c.Account, thalex.WithID(id)); err != nil {
		return err
	}
	msg, err := awaitResponse(ctx, client, id)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if msg.Error != nil {
		return fmt.Errorf("login: %w", msg.Error)
	}
	return nil
}

// printJSON writes data indented to w.
func printJSON(w io.Writer, data []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("error formatting JSON: %w", err)
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}
