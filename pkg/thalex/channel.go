package thalex

import (
	"fmt"
	"strings"
)

// Channel is a notification family. The exchange names a subscription
// "<family><arguments>", e.g. "ticker.BTC-PERPETUAL.raw"; a Channel value is the
// family prefix.
type Channel string

const (
	ChannelLWT                 Channel = "lwt."
	ChannelTicker              Channel = "ticker."
	ChannelBook                Channel = "book."
	ChannelRecentTrades        Channel = "recent_trades."
	ChannelIndex               Channel = "index."
	ChannelPriceIndex          Channel = "price_index."
	ChannelInstruments         Channel = "instruments"
	ChannelSystem              Channel = "system"
	ChannelRFQs                Channel = "rfqs"
	ChannelOrders              Channel = "account.orders"
	ChannelPersistentOrders    Channel = "account.persistent_orders"
	ChannelConditionalOrders   Channel = "account.conditional_orders"
	ChannelTradeHistory        Channel = "account.trade_history"
	ChannelOrderHistory        Channel = "account.order_history"
	ChannelPortfolio           Channel = "account.portfolio"
	ChannelAccountSummary      Channel = "account.summary"
	ChannelAccountRFQs         Channel = "account.rfqs"
	ChannelAccountRFQHistory   Channel = "account.rfq_history"
	ChannelNotifications       Channel = "account.notifications"
	ChannelSessionOrders       Channel = "session.orders"
	ChannelSessionMMProtection Channel = "session.mm_protection"
	ChannelMMRFQs              Channel = "mm.rfqs"
	ChannelMMRFQQuotes         Channel = "mm.rfq_quotes"
)

// Channels lists every known notification family.
var Channels = []Channel{
	ChannelLWT,
	ChannelTicker,
	ChannelBook,
	ChannelRecentTrades,
	ChannelIndex,
	ChannelPriceIndex,
	ChannelInstruments,
	ChannelSystem,
	ChannelRFQs,
	ChannelOrders,
	ChannelPersistentOrders,
	ChannelConditionalOrders,
	ChannelTradeHistory,
	ChannelOrderHistory,
	ChannelPortfolio,
	ChannelAccountSummary,
	ChannelAccountRFQs,
	ChannelAccountRFQHistory,
	ChannelNotifications,
	ChannelSessionOrders,
	ChannelSessionMMProtection,
	ChannelMMRFQs,
	ChannelMMRFQQuotes,
}

// Name returns the family name without the trailing separator ("ticker").
func (c Channel) Name() string {
	return strings.TrimSuffix(string(c), ".")
}

// ChannelOf returns the family of a full channel name. When several families
// match, the longest prefix wins.
func ChannelOf(channelName string) (Channel, bool) {
	var best Channel
	for _, c := range Channels {
		if strings.HasPrefix(channelName, string(c)) && len(c) > len(best) {
			best = c
		}
	}
	return best, best != ""
}

// Delay is the throttling interval of a public market data subscription.
type Delay string

const (
	DelayRaw    Delay = "raw"
	Delay100ms  Delay = "100ms"
	Delay200ms  Delay = "200ms"
	Delay500ms  Delay = "500ms"
	Delay1000ms Delay = "1000ms"
	Delay5000ms Delay = "5000ms"
	Delay60000  Delay = "60000ms"
)

// TickerChannel returns "ticker.<instrument>.<delay>".
func TickerChannel(instrument string, delay Delay) string {
	return fmt.Sprintf("%s%s.%s", ChannelTicker, instrument, delay)
}

// LWTChannel returns "lwt.<instrument>.<delay>".
func LWTChannel(instrument string, delay Delay) string {
	return fmt.Sprintf("%s%s.%s", ChannelLWT, instrument, delay)
}

// BookChannel returns "book.<instrument>.<grouping>.<nlevels>.<delay>".
func BookChannel(instrument string, grouping float64, nlevels int, delay Delay) string {
	return fmt.Sprintf("%s%s.%v.%d.%s", ChannelBook, instrument, grouping, nlevels, delay)
}

// RecentTradesChannel returns "recent_trades.<target>.<category>".
func RecentTradesChannel(target, category string) string {
	return fmt.Sprintf("%s%s.%s", ChannelRecentTrades, target, category)
}

// IndexChannel returns "price_index.<underlying>".
func IndexChannel(underlying string) string {
	return string(ChannelPriceIndex) + underlying
}
