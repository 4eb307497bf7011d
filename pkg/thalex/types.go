package thalex

import "fmt"

// Direction of an order or quote.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// OrderType of an order. The exchange defaults to limit.
type OrderType string

const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

// TimeInForce of an order. Limit orders default to GTC, market orders to IOC.
type TimeInForce string

const (
	GTC TimeInForce = "good_till_cancelled"
	IOC TimeInForce = "immediate_or_cancel"
)

// Collar selects how an order priced through the instrument's safety collar is
// handled.
type Collar string

const (
	CollarIgnore Collar = "ignore"
	CollarReject Collar = "reject"
	CollarClamp  Collar = "clamp"
)

// Target is the price a conditional order triggers on.
type Target string

const (
	TargetLast  Target = "last"
	TargetMark  Target = "mark"
	TargetIndex Target = "index"
)

// Product groups instruments for mass quoting and market maker protection.
// Any product string accepted by the exchange can be converted to a Product.
type Product string

const (
	BTCFutures Product = "FBTCUSD"
	BTCOptions Product = "OBTCUSD"
	ETHFutures Product = "FETHUSD"
	ETHOptions Product = "OETHUSD"
)

// Resolution of historical OHLC data.
type Resolution string

const (
	Resolution1m  Resolution = "1m"
	Resolution5m  Resolution = "5m"
	Resolution15m Resolution = "15m"
	Resolution30m Resolution = "30m"
	Resolution1h  Resolution = "1h"
	Resolution1d  Resolution = "1d"
	Resolution1w  Resolution = "1w"
)

// RfqLeg is one leg of a request for quote. Negative amounts are short.
type RfqLeg struct {
	Amount         float64 `json:"amount"`
	InstrumentName string  `json:"instrument_name"`
}

// SideQuote is one side of a mass quote.
type SideQuote struct {
	Price  float64 `json:"p"`
	Amount float64 `json:"a"`
}

func (s SideQuote) String() string {
	return fmt.Sprintf("%v@%v", s.Amount, s.Price)
}

// Quote is a two-sided mass quote entry. A nil side is left untouched.
type Quote struct {
	InstrumentName string     `json:"i"`
	Bid            *SideQuote `json:"b,omitempty"`
	Ask            *SideQuote `json:"a,omitempty"`
}

func (q Quote) String() string {
	return fmt.Sprintf("(b: %s, a: %s)", sideString(q.Bid), sideString(q.Ask))
}

func sideString(s *SideQuote) string {
	if s == nil {
		return "None"
	}
	return s.String()
}

// Asset is an amount of an asset moved by an internal transfer.
type Asset struct {
	AssetName string  `json:"asset_name"`
	Amount    float64 `json:"amount"`
}

// Position is an instrument position moved by an internal transfer.
type Position struct {
	InstrumentName string  `json:"instrument_name"`
	Amount         float64 `json:"amount"`
}

// Combo is one leg of a combination order.
type Combo struct {
	InstrumentName string `json:"instrument_name"`
	Quantity       int    `json:"quantity"`
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }

// Uint64 returns a pointer to v, for optional request fields.
func Uint64(v uint64) *uint64 { return &v }

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v, for optional request fields.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }
