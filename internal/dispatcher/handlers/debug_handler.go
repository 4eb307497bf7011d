package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// DebugHandler logs received messages
type DebugHandler struct {
	logger *logrus.Entry
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler() *DebugHandler {
	return &DebugHandler{
		logger: logrus.WithField("component", "debug_handler"),
	}
}

// Handle logs the message pretty printed at trace level, or its channel at
// debug level.
func (h *DebugHandler) Handle(_ context.Context, msg *thalex.Message) error {
	if !h.logger.Logger.IsLevelEnabled(logrus.TraceLevel) {
		h.logger.WithFields(logrus.Fields{
			"channel":  msg.ChannelName,
			"snapshot": msg.Snapshot,
		}).Debug("Received notification")
		return nil
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, msg.Raw, "", "    "); err != nil {
		return fmt.Errorf("error formatting JSON: %w", err)
	}
	h.logger.Trace("Received message:\n", prettyJSON.String())
	return nil
}
