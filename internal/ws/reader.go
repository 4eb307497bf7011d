package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Reader handles reading messages from a WebSocket connection.
// It runs in its own goroutine and forwards messages to a channel for processing.
type Reader struct {
	conn    *websocket.Conn // The WebSocket connection to read from
	msgChan chan<- []byte   // Channel for forwarding received messages
	done    <-chan struct{} // Closed when the connection is torn down
	stop    func(error)     // Reports the terminal read error

	// readTimeout is the read deadline renewed after every delivered message,
	// zero for none
	readTimeout time.Duration
	logger      *logrus.Entry
}

// newReader creates a new Reader instance.
// Parameters:
//   - conn: The WebSocket connection to read from
//   - msgChan: Channel where received messages will be sent; the reader closes it on exit
//   - done: Closed by the client when the connection goes down
//   - stop: Called with the error that ended the read loop
//   - readTimeout: Read deadline renewed after every delivered message
func newReader(conn *websocket.Conn, msgChan chan<- []byte, done <-chan struct{}, stop func(error), readTimeout time.Duration, log *logrus.Entry) *Reader {
	return &Reader{
		conn:        conn,
		msgChan:     msgChan,
		done:        done,
		stop:        stop,
		readTimeout: readTimeout,
		logger:      log.WithField("component", "ws_reader"),
	}
}

// Run starts the reader's main loop.
// It continuously reads messages from the WebSocket connection and forwards them
// to the message channel in arrival order. Messages are never dropped: a full
// channel blocks the reader until the consumer catches up or the connection is
// closed.
func (r *Reader) Run() {
	defer close(r.msgChan)
	for {
		// ReadMessage blocks until a message is received
		_, message, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Debug("Connection closed by peer")
			} else {
				r.logger.WithError(err).Debug("Read loop ended")
			}
			r.stop(err)
			return
		}
		r.logger.Tracef("Received message: %s", message)

		select {
		case r.msgChan <- message:
		case <-r.done:
			return
		}

		// time spent waiting on a slow consumer does not count against the peer
		if r.readTimeout > 0 {
			_ = r.conn.SetReadDeadline(time.Now().Add(r.readTimeout))
		}
	}
}
