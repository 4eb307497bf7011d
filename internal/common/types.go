package common

import (
	"strings"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
)

// MessageType represents the kind of a message received from the exchange.
// Notifications are typed by their channel family, e.g. "ticker" or
// "account.orders".
type MessageType string

const (
	TypeResult  MessageType = "result"  // Response to a call
	TypeError   MessageType = "error"   // Error response to a call
	TypeUnknown MessageType = "unknown" // Notification on a channel we don't know
)

// ChannelType returns the message type of notifications on channel family c.
func ChannelType(c thalex.Channel) MessageType {
	return MessageType(c.Name())
}

// TypeOf derives the message type of msg.
func TypeOf(msg *thalex.Message) MessageType {
	switch msg.Kind() {
	case thalex.KindResult:
		return TypeResult
	case thalex.KindError:
		if msg.Error != nil {
			return TypeError
		}
		return TypeUnknown
	}
	if c, ok := msg.Channel(); ok {
		return ChannelType(c)
	}
	return TypeUnknown
}

// AllTypes lists every message type, channel families first.
func AllTypes() []MessageType {
	types := make([]MessageType, 0, len(thalex.Channels)+2)
	for _, c := range thalex.Channels {
		types = append(types, ChannelType(c))
	}
	return append(types, TypeResult, TypeError)
}

// ParseTypes maps channel family names, "result" and "error" to message
// types. Unknown names are returned in the second value.
func ParseTypes(names []string) ([]MessageType, []string) {
	known := make(map[MessageType]bool)
	for _, t := range AllTypes() {
		known[t] = true
	}

	var types []MessageType
	var unknown []string
	for _, name := range names {
		t := MessageType(strings.TrimSuffix(strings.TrimSpace(name), "."))
		if known[t] {
			types = append(types, t)
		} else {
			unknown = append(unknown, name)
		}
	}
	return types, unknown
}
