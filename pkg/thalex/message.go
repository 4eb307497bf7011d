package thalex

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Error codes returned by the exchange that callers commonly treat differently.
const (
	ErrCodeOrderNotFound = 1
	ErrCodeThrottled     = 4
)

// Params holds the parameters of a request. Unset values are never put on the
// wire: see Set.
type Params map[string]any

// Set stores value under key unless it is unset. Unset means nil, a nil pointer,
// slice or map, or an empty string (this covers every optional enum).
func (p Params) Set(key string, value any) Params {
	if isUnset(value) {
		return p
	}
	p[key] = value
	return p
}

func isUnset(value any) bool {
	if isNil(value) {
		return true
	}
	v := reflect.ValueOf(value)
	return v.Kind() == reflect.String && v.Len() == 0
}

// isNil reports whether value is nil or a nil pointer, slice or map.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Request is the envelope of every call sent to the exchange.
type Request struct {
	Method string  `json:"method"`
	Params Params  `json:"params"`
	ID     *uint64 `json:"id,omitempty"`
}

// NewRequest builds a request, dropping unset params.
func NewRequest(method string, id *uint64, params Params) Request {
	req := Request{Method: method, Params: Params{}, ID: id}
	for k, v := range params {
		req.Params.Set(k, v)
	}
	return req
}

// MessageKind classifies an incoming message.
type MessageKind int

const (
	KindNotification MessageKind = iota // subscription data, has channel_name
	KindResult                          // successful response to a request
	KindError                           // failed response to a request
)

func (k MessageKind) String() string {
	switch k {
	case KindNotification:
		return "notification"
	case KindResult:
		return "result"
	default:
		return "error"
	}
}

// Message is a message received from the exchange: either a response to a
// request (Result or Error, echoing the request ID) or a subscription
// notification.
type Message struct {
	ID           *uint64         `json:"id,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        *RPCError       `json:"error,omitempty"`
	ChannelName  string          `json:"channel_name,omitempty"`
	Notification json.RawMessage `json:"notification,omitempty"`
	Snapshot     bool            `json:"snapshot,omitempty"`

	// Raw is the message as received.
	Raw []byte `json:"-"`
}

// ParseMessage decodes a raw message.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	msg.Raw = data
	return &msg, nil
}

// Kind reports whether the message is a notification, a result or an error.
func (m *Message) Kind() MessageKind {
	switch {
	case m.ChannelName != "":
		return KindNotification
	case len(m.Result) > 0:
		return KindResult
	default:
		return KindError
	}
}

// HasID reports whether the message echoes the given request id.
func (m *Message) HasID(id uint64) bool {
	return m.ID != nil && *m.ID == id
}

// Channel returns the notification family of the message.
func (m *Message) Channel() (Channel, bool) {
	return ChannelOf(m.ChannelName)
}

// DecodeResult unmarshals the result into v. A message carrying an error
// returns that error.
func (m *Message) DecodeResult(v any) error {
	if m.Error != nil {
		return m.Error
	}
	if len(m.Result) == 0 {
		return errors.New("message has no result")
	}
	return json.Unmarshal(m.Result, v)
}

// RPCError is an error returned by the exchange in response to a request.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("thalex: rpc error %d: %s", e.Code, e.Message)
}

// IsThrottled reports whether err is an exchange throttling error.
func IsThrottled(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == ErrCodeThrottled
}

// IsOrderNotFound reports whether err is an exchange "order not found" error.
func IsOrderNotFound(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == ErrCodeOrderNotFound
}
