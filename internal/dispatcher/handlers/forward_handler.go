package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// ForwardHandler forwards notifications, as received, to a sink.
type ForwardHandler struct {
	*BaseHandler
	name   string
	logger *logrus.Entry
}

// NewForwardHandler creates a handler forwarding to the sink called name.
func NewForwardHandler(name string, base *BaseHandler) *ForwardHandler {
	return &ForwardHandler{
		BaseHandler: base,
		name:        name,
		logger:      logrus.WithFields(logrus.Fields{"component": "forward_handler", "sink": name}),
	}
}

// Handle sends the raw notification to the sink.
func (h *ForwardHandler) Handle(ctx context.Context, msg *thalex.Message) error {
	if msg.Kind() != thalex.KindNotification {
		return errors.New("not a notification")
	}

	topic := h.topic(msg)
	var err error
	if hs, ok := h.sender.(HeaderSender); ok {
		err = hs.SendWithHeaders(ctx, topic, msg.Raw, map[string]string{"channel_name": msg.ChannelName})
	} else {
		err = h.sender.Send(ctx, topic, msg.Raw)
	}
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", h.name, err)
	}

	h.logger.WithField("topic", topic).Trace("Notification forwarded")
	return nil
}

// MultiHandler runs several handlers on the same message, in order. It
// returns the first error after running all of them.
type MultiHandler []Handler

func (m MultiHandler) Handle(ctx context.Context, msg *thalex.Message) error {
	var first error
	for _, h := range m {
		if err := h.Handle(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
