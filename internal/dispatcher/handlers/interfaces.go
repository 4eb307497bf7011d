package handlers

import (
	"context"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
)

// Handler processes one message. It matches dispatcher.MessageHandler.
type Handler interface {
	Handle(ctx context.Context, msg *thalex.Message) error
}

// MessageSender delivers a payload to an external sink under a topic.
type MessageSender interface {
	Send(ctx context.Context, topic string, msg []byte) error
}

// HeaderSender is implemented by senders that can attach headers to a
// message. ForwardHandler uses it when available.
type HeaderSender interface {
	SendWithHeaders(ctx context.Context, topic string, msg []byte, headers map[string]string) error
}
