package session

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/circuitbreaker"
	"github.com/alejoacosta74/thalex-api/internal/ws/test"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logrus.SetLevel(logrus.TraceLevel)
}

const tickerNotification = `{"channel_name":"ticker.BTC-PERPETUAL.1000ms","notification":{"mark_price":30000}}`

func countMethod(server *test.MockWebSocketServer, method string) int {
	n := 0
	for _, m := range server.ReceivedMethods() {
		if m == method {
			n++
		}
	}
	return n
}

func startSession(t *testing.T, s *Session) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errCh
}

func receive(t *testing.T, s *Session) []byte {
	t.Helper()
	select {
	case msg := <-s.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestSessionSubscribesAndDelivers(t *testing.T) {
	server := test.NewMockWebSocketServer()
	defer server.Close()
	server.RegisterHandler("public/subscribe", test.ResultFor([]string{"ticker.BTC-PERPETUAL.1000ms"}))

	s, err := New(Config{
		Network:        thalex.Test,
		URL:            server.URL,
		PublicChannels: []string{thalex.TickerChannel("BTC-PERPETUAL", thalex.Delay1000ms)},
	})
	require.NoError(t, err)
	startSession(t, s)

	assert.JSONEq(t, `{"id":3,"result":["ticker.BTC-PERPETUAL.1000ms"]}`, string(receive(t, s)))
	require.Eventually(t, func() bool { return s.Client() != nil }, time.Second, 5*time.Millisecond)

	server.Broadcast([]byte(tickerNotification))
	assert.JSONEq(t, tickerNotification, string(receive(t, s)))

	assert.Equal(t, []string{"public/subscribe"}, server.ReceivedMethods())
	assert.Equal(t, uint64(0), s.Reconnects())
	assert.NotEmpty(t, s.ID())
}

func TestSessionLoginSequence(t *testing.T) {
	server := test.NewMockWebSocketServer()
	defer server.Close()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s, err := New(Config{
		Network:            thalex.Test,
		URL:                server.URL,
		KeyID:              "K123",
		PrivateKey:         key,
		CancelOnDisconnect: 10,
		PublicChannels:     []string{"price_index.BTCUSD"},
		PrivateChannels:    []string{"account.orders", "session.orders"},
	})
	require.NoError(t, err)
	startSession(t, s)

	require.True(t, server.WaitForMessages(4, 2*time.Second))
	assert.Equal(t, []string{
		"public/login",
		"private/set_cancel_on_disconnect",
		"public/subscribe",
		"private/subscribe",
	}, server.ReceivedMethods())

	var ids []uint64
	for _, msg := range server.GetReceivedMessages() {
		id, ok := test.RequestID(msg)
		require.True(t, ok)
		ids = append(ids, id)
	}
	assert.Equal(t, []uint64{CallIDLogin, CallIDCancelOnDisconnect, CallIDSubscribe, CallIDPrivateSubscribe}, ids)
}

func TestSessionReconnects(t *testing.T) {
	server := test.NewMockWebSocketServer()
	defer server.Close()

	var hooked atomic.Int32
	s, err := New(Config{
		Network:        thalex.Test,
		URL:            server.URL,
		PublicChannels: []string{"price_index.BTCUSD"},
		BackoffBase:    10 * time.Millisecond,
		BackoffMax:     50 * time.Millisecond,
	}, WithOnReconnect(func() { hooked.Add(1) }))
	require.NoError(t, err)
	startSession(t, s)

	require.Eventually(t, func() bool { return countMethod(server, "public/subscribe") == 1 }, 2*time.Second, 5*time.Millisecond)

	server.DropConnections()

	require.Eventually(t, func() bool { return countMethod(server, "public/subscribe") == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, server.ConnectionCount())
	assert.Equal(t, uint64(1), s.Reconnects())
	assert.Equal(t, int32(1), hooked.Load())

	server.Broadcast([]byte(tickerNotification))
	assert.JSONEq(t, tickerNotification, string(receive(t, s)))
}

func TestSessionStopsOnCancel(t *testing.T) {
	server := test.NewMockWebSocketServer()
	defer server.Close()

	s, err := New(Config{Network: thalex.Test, URL: server.URL})
	require.NoError(t, err)
	cancel, errCh := startSession(t, s)

	require.Eventually(t, func() bool { return s.Client() != nil }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	assert.Nil(t, s.Client())

	_, open := <-s.Messages()
	assert.False(t, open, "messages channel should be closed")
}

func TestSessionBreakerOpensOnUnreachable(t *testing.T) {
	s, err := New(Config{
		Network:          thalex.Test,
		URL:              "ws://127.0.0.1:1",
		BackoffBase:      time.Millisecond,
		BackoffMax:       5 * time.Millisecond,
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	})
	require.NoError(t, err)
	cancel, errCh := startSession(t, s)

	require.Eventually(t, func() bool { return s.breaker.State() == circuitbreaker.StateOpen }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.breaker.Execute(func() error { return nil }), circuitbreaker.ErrCircuitOpen)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSessionBackoff(t *testing.T) {
	s, err := New(Config{BackoffBase: 100 * time.Millisecond, BackoffMax: time.Second})
	require.NoError(t, err)

	testCases := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{20, time.Second},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, s.backoff(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{PrivateChannels: []string{"account.orders"}})
	assert.ErrorIs(t, err, errLoginRequired)

	_, err = New(Config{CancelOnDisconnect: 5})
	assert.Error(t, err)

	s, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, defaultBackoffBase, s.cfg.BackoffBase)
	assert.Equal(t, defaultBackoffMax, s.cfg.BackoffMax)
	assert.Equal(t, defaultBreakerThreshold, s.cfg.BreakerThreshold)
	assert.Equal(t, defaultBufferSize, cap(s.messages))
}
