package thalex

import "context"

func (c *Client) Portfolio(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/portfolio", nil, opts...)
}

func (c *Client) OpenOrders(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/open_orders", nil, opts...)
}

func (c *Client) OrderHistory(ctx context.Context, q HistoryQuery, opts ...CallOption) error {
	return c.send(ctx, "private/order_history", q.params(), opts...)
}

func (c *Client) TradeHistory(ctx context.Context, q HistoryQuery, opts ...CallOption) error {
	return c.send(ctx, "private/trade_history", q.params(), opts...)
}

// DailyMarkHistory requests the daily mark-to-market settlements.
func (c *Client) DailyMarkHistory(ctx context.Context, q HistoryQuery, opts ...CallOption) error {
	return c.send(ctx, "private/daily_mark_history", q.params(), opts...)
}

func (c *Client) TransactionHistory(ctx context.Context, q HistoryQuery, opts ...CallOption) error {
	return c.send(ctx, "private/transaction_history", q.params(), opts...)
}

func (c *Client) RFQHistory(ctx context.Context, q HistoryQuery, opts ...CallOption) error {
	return c.send(ctx, "private/rfq_history", q.params(), opts...)
}

func (c *Client) AccountBreakdown(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/account_breakdown", nil, opts...)
}

func (c *Client) AccountSummary(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/account_summary", nil, opts...)
}

func (c *Client) RequiredMarginBreakdown(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "private/required_margin_breakdown", nil, opts...)
}

// RequiredMarginForOrder requests the margin an order would require. price is
// optional for market orders.
func (c *Client) RequiredMarginForOrder(ctx context.Context, instrumentName string, price *float64, amount float64, opts ...CallOption) error {
	return c.send(ctx, "private/required_margin_for_order", Params{
		"instrument_name": instrumentName,
		"amount":          amount,
		"price":           price,
	}, opts...)
}

// RequiredMarginForComboOrder is RequiredMarginForOrder for a combination.
func (c *Client) RequiredMarginForComboOrder(ctx context.Context, legs []Combo, price *float64, amount float64, opts ...CallOption) error {
	return c.send(ctx, "private/required_margin_for_order", Params{
		"legs":   legs,
		"amount": amount,
		"price":  price,
	}, opts...)
}

// NotificationsInbox requests the account notifications, newest first.
func (c *Client) NotificationsInbox(ctx context.Context, limit *int, opts ...CallOption) error {
	return c.send(ctx, "private/notifications_inbox", Params{"limit": limit}, opts...)
}

// MarkInboxNotificationAsRead marks a notification as read, or unread when
// read is false.
func (c *Client) MarkInboxNotificationAsRead(ctx context.Context, notificationID string, read *bool, opts ...CallOption) error {
	return c.send(ctx, "private/mark_inbox_notification_as_read", Params{
		"notification_id": notificationID,
		"read":            read,
	}, opts...)
}
