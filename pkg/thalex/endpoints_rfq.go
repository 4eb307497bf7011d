package thalex

import "context"

// CreateRFQ requests quotes for a package of legs.
func (c *Client) CreateRFQ(ctx context.Context, legs []RfqLeg, label string, opts ...CallOption) error {
	return c.send(ctx, "private/create_rfq", Params{"legs": legs, "label": label}, opts...)
}

func (c *Client) CancelRFQ(ctx context.Context, rfqID string, opts ...CallOption) error {
	return c.send(ctx, "private/cancel_rfq", Params{"rfq_id": rfqID}, opts...)
}

// TradeRFQ trades an open RFQ at limitPrice or better.
func (c *Client) TradeRFQ(ctx context.Context, rfqID string, direction Direction, limitPrice float64, opts ...CallOption) error {
	return c.send(ctx, "private/trade_rfq", Params{
		"rfq_id":      rfqID,
		"direction":   direction,
		"limit_price": limitPrice,
	}, opts...)
}

// OpenRFQs lists the RFQs created by this account.
func (c *Client) OpenRFQs(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/open_rfqs", nil, opts...)
}

// MMRFQs lists the RFQs open for quoting.
func (c *Client) MMRFQs(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/mm_rfqs", nil, opts...)
}

// RFQQuoteRequest is a market maker quote on an RFQ.
type RFQQuoteRequest struct {
	RfqID         string
	Direction     Direction
	Amount        float64
	Price         float64
	ClientOrderID *uint64
	Label         string
}

func (c *Client) MMRFQInsertQuote(ctx context.Context, req RFQQuoteRequest, opts ...CallOption) error {
	return c.send(ctx, "private/mm_rfq_insert_quote", Params{
		"rfq_id":          req.RfqID,
		"direction":       req.Direction,
		"amount":          req.Amount,
		"price":           req.Price,
		"client_order_id": req.ClientOrderID,
		"label":           req.Label,
	}, opts...)
}

func (c *Client) MMRFQAmendQuote(ctx context.Context, quote OrderRef, amount, price float64, opts ...CallOption) error {
	if err := quote.validate(); err != nil {
		return err
	}
	return c.send(ctx, "private/mm_rfq_amend_quote", quote.params().
		Set("amount", amount).
		Set("price", price), opts...)
}

func (c *Client) MMRFQDeleteQuote(ctx context.Context, quote OrderRef, opts ...CallOption) error {
	if err := quote.validate(); err != nil {
		return err
	}
	return c.send(ctx, "private/mm_rfq_delete_quote", quote.params(), opts...)
}

// MMRFQQuotes lists the open quotes of this account.
func (c *Client) MMRFQQuotes(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/mm_rfq_quotes", nil, opts...)
}
