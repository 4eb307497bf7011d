package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type writeRequest struct {
	data   []byte
	result chan error
}

// Writer handles writing messages to a WebSocket connection.
// It is the only goroutine writing data frames, so concurrent Write calls on
// the client are serialized through its queue.
type Writer struct {
	conn         *websocket.Conn     // The WebSocket connection to write to
	writeChan    <-chan writeRequest // Queue of pending writes
	done         <-chan struct{}     // Closed when the connection is torn down
	stop         func(error)         // Reports a fatal write error
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *logrus.Entry
}

func newWriter(conn *websocket.Conn, writeChan <-chan writeRequest, done <-chan struct{}, stop func(error), pingInterval, writeTimeout time.Duration, log *logrus.Entry) *Writer {
	return &Writer{
		conn:         conn,
		writeChan:    writeChan,
		done:         done,
		stop:         stop,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       log.WithField("component", "ws_writer"),
	}
}

// Run starts the writer's main loop.
// It performs the following tasks:
// 1. Waits for messages on the write queue and writes them in order
// 2. Sends a keepalive ping every ping interval
// 3. Exits when the connection is torn down or a write fails
func (w *Writer) Run() {
	w.logger.Debug("Starting writer")
	defer w.logger.Debug("Writer shutdown complete")

	var ping <-chan time.Time
	if w.pingInterval > 0 {
		ticker := time.NewTicker(w.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-w.done:
			return
		case req := <-w.writeChan:
			w.logger.Tracef("Writing message to WebSocket: %s", req.data)
			_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
			err := w.conn.WriteMessage(websocket.TextMessage, req.data)
			req.result <- err
			if err != nil {
				w.logger.WithError(err).Error("Error writing message to WebSocket")
				w.stop(err)
				return
			}
		case <-ping:
			err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
			if err != nil {
				w.logger.WithError(err).Warn("Error sending ping")
				w.stop(err)
				return
			}
		}
	}
}
