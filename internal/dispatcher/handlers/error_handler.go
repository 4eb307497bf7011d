package handlers

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
)

// ErrorHandler logs error responses and passes them on to a ResultHandler,
// so callers waiting on the call id see the failure too.
type ErrorHandler struct {
	logger    *logrus.Entry
	results   *ResultHandler
	throttled atomic.Uint64
}

// NewErrorHandler creates an error handler. results may be nil.
func NewErrorHandler(results *ResultHandler) *ErrorHandler {
	return &ErrorHandler{
		logger:  logrus.WithField("component", "error_handler"),
		results: results,
	}
}

func (h *ErrorHandler) Handle(ctx context.Context, msg *thalex.Message) error {
	if msg.Error == nil {
		return errors.New("not an error response")
	}

	fields := logrus.Fields{"code": msg.Error.Code}
	if msg.ID != nil {
		fields["id"] = *msg.ID
	}
	log := h.logger.WithFields(fields)

	switch {
	case thalex.IsThrottled(msg.Error):
		h.throttled.Add(1)
		log.Warn("Throttled: ", msg.Error.Message)
	case thalex.IsOrderNotFound(msg.Error):
		log.Info("Order not found: ", msg.Error.Message)
	default:
		log.Error(msg.Error.Message)
	}

	if h.results != nil {
		return h.results.Handle(ctx, msg)
	}
	return nil
}

// Throttled returns the number of throttling errors seen.
func (h *ErrorHandler) Throttled() uint64 {
	return h.throttled.Load()
}
