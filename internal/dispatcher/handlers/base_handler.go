package handlers

import (
	"strings"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// TopicFunc names the sink topic of a notification.
type TopicFunc func(msg *thalex.Message) string

// KafkaTopic maps notifications to "<prefix>.<family>", with the dots of
// the family replaced, e.g. "thalex.ticker" or "thalex.account_orders".
func KafkaTopic(prefix string) TopicFunc {
	return func(msg *thalex.Message) string {
		family := "unknown"
		if c, ok := msg.Channel(); ok {
			family = strings.ReplaceAll(c.Name(), ".", "_")
		}
		return prefix + "." + family
	}
}

// RedisChannel maps notifications to "<prefix>:<channel_name>", e.g.
// "thalex:ticker.BTC-PERPETUAL.raw".
func RedisChannel(prefix string) TopicFunc {
	return func(msg *thalex.Message) string {
		return prefix + ":" + msg.ChannelName
	}
}

// BaseHandler provides common functionality for handlers forwarding to a sink
type BaseHandler struct {
	logger *logrus.Entry
	sender MessageSender
	topic  TopicFunc
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(sender MessageSender, topic TopicFunc) *BaseHandler {
	return &BaseHandler{
		logger: logrus.WithField("component", "base_handler"),
		sender: sender,
		topic:  topic,
	}
}
