package thalex

import "context"

// OrderRequest describes a single instrument order. Pointer and empty fields
// are optional and left to exchange defaults.
type OrderRequest struct {
	Direction      Direction // ignored by Buy and Sell
	InstrumentName string
	Amount         float64
	ClientOrderID  *uint64
	Price          *float64 // required for limit orders
	Label          string
	OrderType      OrderType
	TimeInForce    TimeInForce
	PostOnly       *bool
	RejectPostOnly *bool
	ReduceOnly     *bool
	Collar         Collar
}

func (r OrderRequest) params() Params {
	return Params{}.
		Set("instrument_name", r.InstrumentName).
		Set("amount", r.Amount).
		Set("client_order_id", r.ClientOrderID).
		Set("price", r.Price).
		Set("label", r.Label).
		Set("order_type", r.OrderType).
		Set("time_in_force", r.TimeInForce).
		Set("post_only", r.PostOnly).
		Set("reject_post_only", r.RejectPostOnly).
		Set("reduce_only", r.ReduceOnly).
		Set("collar", r.Collar)
}

// ComboOrderRequest describes a combination order over two to four legs.
// TimeInForce defaults to IOC, the only value the exchange accepts.
type ComboOrderRequest struct {
	Direction     Direction
	Legs          []Combo
	Amount        float64
	ClientOrderID *uint64
	Price         *float64 // per unit of the combination
	Label         string
	OrderType     OrderType
	TimeInForce   TimeInForce
	Collar        Collar
}

// AmendRequest changes price and amount of an open order.
type AmendRequest struct {
	Order  OrderRef
	Amount float64
	Price  float64
	Collar Collar
}

// Insert places an order.
func (c *Client) Insert(ctx context.Context, req OrderRequest, opts ...CallOption) error {
	return c.send(ctx, "private/insert", req.params().Set("direction", req.Direction), opts...)
}

// InsertCombo places a combination order.
func (c *Client) InsertCombo(ctx context.Context, req ComboOrderRequest, opts ...CallOption) error {
	tif := req.TimeInForce
	if tif == "" {
		tif = IOC
	}
	return c.send(ctx, "private/insert", Params{}.
		Set("direction", req.Direction).
		Set("legs", req.Legs).
		Set("amount", req.Amount).
		Set("client_order_id", req.ClientOrderID).
		Set("price", req.Price).
		Set("label", req.Label).
		Set("order_type", req.OrderType).
		Set("time_in_force", tif).
		Set("collar", req.Collar), opts...)
}

// Buy places a buy order. req.Direction is ignored.
func (c *Client) Buy(ctx context.Context, req OrderRequest, opts ...CallOption) error {
	return c.send(ctx, "private/buy", req.params(), opts...)
}

// Sell places a sell order. req.Direction is ignored.
func (c *Client) Sell(ctx context.Context, req OrderRequest, opts ...CallOption) error {
	return c.send(ctx, "private/sell", req.params(), opts...)
}

// Amend changes an open order.
func (c *Client) Amend(ctx context.Context, req AmendRequest, opts ...CallOption) error {
	if err := req.Order.validate(); err != nil {
		return err
	}
	return c.send(ctx, "private/amend", req.Order.params().
		Set("amount", req.Amount).
		Set("price", req.Price).
		Set("collar", req.Collar), opts...)
}

// Cancel cancels an open order.
func (c *Client) Cancel(ctx context.Context, order OrderRef, opts ...CallOption) error {
	if err := order.validate(); err != nil {
		return err
	}
	return c.send(ctx, "private/cancel", order.params(), opts...)
}

// CancelAll cancels all orders of the account, across sessions.
func (c *Client) CancelAll(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_all", nil, opts...)
}

// CancelSession cancels all orders placed in this session.
func (c *Client) CancelSession(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_session", nil, opts...)
}

// MassQuoteOptions are the optional flags of MassQuote.
type MassQuoteOptions struct {
	Label          string
	PostOnly       *bool
	RejectPostOnly *bool
}

// MassQuote atomically replaces the double sided quotes of the session on each
// listed instrument. Market maker protection must be set for the products.
func (c *Client) MassQuote(ctx context.Context, quotes []Quote, mq MassQuoteOptions, opts ...CallOption) error {
	if quotes == nil {
		quotes = []Quote{}
	}
	return c.send(ctx, "private/mass_quote", Params{}.
		Set("quotes", quotes).
		Set("label", mq.Label).
		Set("post_only", mq.PostOnly).
		Set("reject_post_only", mq.RejectPostOnly), opts...)
}

// CancelMassQuote cancels the mass quotes of all sessions on product, or on
// every product when product is empty.
func (c *Client) CancelMassQuote(ctx context.Context, product Product, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_mass_quote", Params{"product": product}, opts...)
}

// SetMMProtection configures market maker protection of product for this
// session. amount is deprecated and overrides both limits when set.
func (c *Client) SetMMProtection(ctx context.Context, product Product, tradeAmount, quoteAmount float64, amount *float64, opts ...CallOption) error {
	return c.send(ctx, "private/set_mm_protection", Params{
		"product":      product,
		"trade_amount": tradeAmount,
		"quote_amount": quoteAmount,
		"amount":       amount,
	}, opts...)
}

// ConditionalOrderRequest describes a stop, bracket or trailing stop order.
type ConditionalOrderRequest struct {
	Direction                Direction
	InstrumentName           string
	Amount                   float64
	StopPrice                float64
	LimitPrice               *float64 // makes a stop limit order
	BracketPrice             *float64 // makes a bracket order
	TrailingStopCallbackRate *float64 // makes a trailing stop order
	Label                    string
	ReduceOnly               *bool
	Target                   Target
}

func (c *Client) ConditionalOrders(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/conditional_orders", nil, opts...)
}

// CreateConditionalOrder places a conditional order.
func (c *Client) CreateConditionalOrder(ctx context.Context, req ConditionalOrderRequest, opts ...CallOption) error {
	return c.send(ctx, "private/create_conditional_order", Params{
		"direction":                   req.Direction,
		"instrument_name":             req.InstrumentName,
		"amount":                      req.Amount,
		"label":                       req.Label,
		"reduce_only":                 req.ReduceOnly,
		"stop_price":                  req.StopPrice,
		"limit_price":                 req.LimitPrice,
		"bracket_price":               req.BracketPrice,
		"trailing_stop_callback_rate": req.TrailingStopCallbackRate,
		"target":                      req.Target,
	}, opts...)
}

func (c *Client) CancelConditionalOrder(ctx context.Context, orderID string, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_conditional_order", Params{"order_id": orderID}, opts...)
}

func (c *Client) CancelAllConditionalOrders(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_all_conditional_orders", nil, opts...)
}
