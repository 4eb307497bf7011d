package thalex

import (
	"context"
	"crypto/rsa"
	"time"
)

// Login authenticates the session with an API key. account selects a sub
// account; empty selects the key's default account.
func (c *Client) Login(ctx context.Context, keyID string, key *rsa.PrivateKey, account string, opts ...CallOption) error {
	token, err := MakeAuthToken(keyID, key, time.Now())
	if err != nil {
		return err
	}
	return c.send(ctx, "public/login", Params{
		"token":   token,
		"account": account,
	}, opts...)
}

// SetCancelOnDisconnect makes the exchange cancel all orders of the session
// when the connection is lost for more than timeoutSecs seconds.
func (c *Client) SetCancelOnDisconnect(ctx context.Context, timeoutSecs int, opts ...CallOption) error {
	return c.send(ctx, "private/set_cancel_on_disconnect", Params{"timeout_secs": timeoutSecs}, opts...)
}

// Instruments requests the active instruments.
func (c *Client) Instruments(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/instruments", nil, opts...)
}

// AllInstruments requests all instruments, including expired ones.
func (c *Client) AllInstruments(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/all_instruments", nil, opts...)
}

// Instrument requests a single instrument.
func (c *Client) Instrument(ctx context.Context, instrumentName string, opts ...CallOption) error {
	return c.send(ctx, "public/instrument", Params{"instrument_name": instrumentName}, opts...)
}

// Ticker requests a single ticker snapshot.
func (c *Client) Ticker(ctx context.Context, instrumentName string, opts ...CallOption) error {
	return c.send(ctx, "public/ticker", Params{"instrument_name": instrumentName}, opts...)
}

// Index requests the price index of an underlying (e.g. BTCUSD).
func (c *Client) Index(ctx context.Context, underlying string, opts ...CallOption) error {
	return c.send(ctx, "public/index", Params{"underlying": underlying}, opts...)
}

// Book requests a single order book snapshot.
func (c *Client) Book(ctx context.Context, instrumentName string, opts ...CallOption) error {
	return c.send(ctx, "public/book", Params{"instrument_name": instrumentName}, opts...)
}

func (c *Client) SystemInfo(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/system_info", nil, opts...)
}

// MarkPriceHistoricalData requests OHLC mark prices of an instrument in
// [from, to).
func (c *Client) MarkPriceHistoricalData(ctx context.Context, instrumentName string, from, to time.Time, resolution Resolution, opts ...CallOption) error {
	return c.send(ctx, "public/mark_price_historical_data", Params{
		"instrument_name": instrumentName,
		"from":            unixSeconds(&from),
		"to":              unixSeconds(&to),
		"resolution":      resolution,
	}, opts...)
}

// IndexPriceHistoricalData requests OHLC index prices (e.g. BTCUSD) in
// [from, to).
func (c *Client) IndexPriceHistoricalData(ctx context.Context, indexName string, from, to time.Time, resolution Resolution, opts ...CallOption) error {
	return c.send(ctx, "public/index_price_historical_data", Params{
		"index_name": indexName,
		"from":       unixSeconds(&from),
		"to":         unixSeconds(&to),
		"resolution": resolution,
	}, opts...)
}

// PublicSubscribe subscribes to public channels, see TickerChannel and friends.
func (c *Client) PublicSubscribe(ctx context.Context, channels []string, opts ...CallOption) error {
	return c.send(ctx, "public/subscribe", Params{"channels": channels}, opts...)
}

// PrivateSubscribe subscribes to account channels. Requires login.
func (c *Client) PrivateSubscribe(ctx context.Context, channels []string, opts ...CallOption) error {
	return c.send(ctx, "private/subscribe", Params{"channels": channels}, opts...)
}

// Unsubscribe removes public or private subscriptions.
func (c *Client) Unsubscribe(ctx context.Context, channels []string, opts ...CallOption) error {
	return c.send(ctx, "unsubscribe", Params{"channels": channels}, opts...)
}
