package common

import (
	"testing"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected MessageType
	}{
		{"result", `{"id":1,"result":{}}`, TypeResult},
		{"error", `{"id":1,"error":{"code":4,"message":"throttled"}}`, TypeError},
		{"ticker", `{"channel_name":"ticker.BTC-PERPETUAL.raw","notification":{}}`, MessageType("ticker")},
		{"account orders", `{"channel_name":"account.orders","notification":[]}`, MessageType("account.orders")},
		{"unknown channel", `{"channel_name":"weather.today","notification":{}}`, TypeUnknown},
		{"empty object", `{}`, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := thalex.ParseMessage([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, TypeOf(msg))
		})
	}
}

func TestAllTypes(t *testing.T) {
	types := AllTypes()
	assert.Len(t, types, len(thalex.Channels)+2)
	assert.Contains(t, types, MessageType("book"))
	assert.Contains(t, types, MessageType("mm.rfq_quotes"))
	assert.Contains(t, types, TypeResult)
	assert.Contains(t, types, TypeError)
	assert.NotContains(t, types, TypeUnknown)
}

func TestParseTypes(t *testing.T) {
	types, unknown := ParseTypes([]string{"ticker", " book. ", "account.orders", "error", "bogus"})
	assert.Equal(t, []MessageType{"ticker", "book", "account.orders", TypeError}, types)
	assert.Equal(t, []string{"bogus"}, unknown)
}
