package thalex

import (
	"errors"
	"time"
)

// ErrOrderRef is returned when an order reference does not name exactly one of
// order id and client order id.
var ErrOrderRef = errors.New("thalex: exactly one of order id and client order id must be set")

type callOptions struct {
	id *uint64
}

// CallOption configures a single request.
type CallOption func(*callOptions)

// WithID sets the request id. The exchange echoes it in the response so the
// caller can match it with its request. Requests without id get a response
// without id.
func WithID(id uint64) CallOption {
	return func(o *callOptions) {
		o.id = &id
	}
}

// OrderRef identifies an order either by its exchange id or by the client order
// id given on insert.
type OrderRef struct {
	OrderID       string
	ClientOrderID *uint64
}

// ByOrderID references an order by exchange order id.
func ByOrderID(id string) OrderRef {
	return OrderRef{OrderID: id}
}

// ByClientOrderID references an order by client order id.
func ByClientOrderID(id uint64) OrderRef {
	return OrderRef{ClientOrderID: &id}
}

func (r OrderRef) validate() error {
	if (r.OrderID == "") == (r.ClientOrderID == nil) {
		return ErrOrderRef
	}
	return nil
}

func (r OrderRef) params() Params {
	return Params{}.
		Set("order_id", r.OrderID).
		Set("client_order_id", r.ClientOrderID)
}

// HistoryQuery filters the private history endpoints. Every field is optional.
type HistoryQuery struct {
	Limit    *int
	TimeLow  *time.Time
	TimeHigh *time.Time
	Bookmark string
}

func (q HistoryQuery) params() Params {
	return Params{}.
		Set("limit", q.Limit).
		Set("time_low", unixSeconds(q.TimeLow)).
		Set("time_high", unixSeconds(q.TimeHigh)).
		Set("bookmark", q.Bookmark)
}

// unixSeconds converts t to fractional unix seconds, nil when t is nil.
func unixSeconds(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	s := float64(t.UnixNano()) / 1e9
	return &s
}
