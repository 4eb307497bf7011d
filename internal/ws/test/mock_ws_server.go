package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageHandler is a function that processes a received request and returns a
// response. A nil response sends nothing.
type MessageHandler func([]byte) interface{}

type mockConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *mockConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// MockWebSocketServer is a websocket server speaking the exchange's JSON-RPC
// envelope, for tests. Requests are routed to handlers by their "method".
type MockWebSocketServer struct {
	Server *httptest.Server
	// URL is the ws:// address of the server
	URL string

	connections      []*mockConn
	receivedMessages [][]byte
	messagesToSend   [][]byte
	headers          []http.Header
	messageHandlers  map[string]MessageHandler
	mu               sync.Mutex
	upgrader         websocket.Upgrader
}

// NewMockWebSocketServer creates and starts a new mock WebSocket server
func NewMockWebSocketServer() *MockWebSocketServer {
	mock := &MockWebSocketServer{
		messageHandlers: make(map[string]MessageHandler),
		upgrader: websocket.Upgrader{
			// Allow all origins for testing
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handleWebSocket))
	mock.URL = "ws" + mock.Server.URL[len("http"):]

	return mock
}

func (m *MockWebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	mc := &mockConn{conn: conn}

	m.mu.Lock()
	queued := append([][]byte(nil), m.messagesToSend...)
	m.mu.Unlock()

	// queued messages are written before the connection is visible to
	// Broadcast and DropConnections
	for _, msg := range queued {
		if err := mc.write(msg); err != nil {
			conn.Close()
			return
		}
	}

	m.mu.Lock()
	m.connections = append(m.connections, mc)
	m.headers = append(m.headers, r.Header.Clone())
	m.mu.Unlock()

	go m.readMessages(mc)
}

// readMessages reads requests from the client and answers through the
// registered handlers.
func (m *MockWebSocketServer) readMessages(mc *mockConn) {
	for {
		_, message, err := mc.conn.ReadMessage()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.receivedMessages = append(m.receivedMessages, message)
		handler, ok := m.messageHandlers[methodOf(message)]
		m.mu.Unlock()

		if !ok {
			continue
		}
		response := handler(message)
		if response == nil {
			continue
		}
		data, err := json.Marshal(response)
		if err != nil {
			return
		}
		if err := mc.write(data); err != nil {
			return
		}
	}
}

// QueueMessage adds a message sent to every client right after it connects.
func (m *MockWebSocketServer) QueueMessage(message []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesToSend = append(m.messagesToSend, message)
}

// Broadcast sends message to every connected client.
func (m *MockWebSocketServer) Broadcast(message []byte) {
	m.mu.Lock()
	conns := append([]*mockConn(nil), m.connections...)
	m.mu.Unlock()
	for _, c := range conns {
		_ = c.write(message)
	}
}

// GetReceivedMessages returns all messages received from clients
func (m *MockWebSocketServer) GetReceivedMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.receivedMessages...)
}

// ReceivedMethods returns the method of every request received, in order.
func (m *MockWebSocketServer) ReceivedMethods() []string {
	msgs := m.GetReceivedMessages()
	methods := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		methods = append(methods, methodOf(msg))
	}
	return methods
}

// WaitForMessages waits until at least n requests were received.
func (m *MockWebSocketServer) WaitForMessages(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(m.GetReceivedMessages()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Headers returns the handshake headers of every connection accepted so far.
func (m *MockWebSocketServer) Headers() []http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]http.Header(nil), m.headers...)
}

// ConnectionCount returns the number of connections accepted so far.
func (m *MockWebSocketServer) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.connections)
}

// DropConnections closes every client connection without a close handshake.
func (m *MockWebSocketServer) DropConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.connections {
		c.conn.Close()
	}
}

// Close shuts down the mock server and closes all connections
func (m *MockWebSocketServer) Close() {
	m.DropConnections()
	m.Server.Close()
}

// RegisterHandler registers a handler for a request method
func (m *MockWebSocketServer) RegisterHandler(method string, handler MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageHandlers[method] = handler
}

// RequestID extracts the "id" of a request, if any.
func RequestID(message []byte) (uint64, bool) {
	var req struct {
		ID *uint64 `json:"id"`
	}
	if err := json.Unmarshal(message, &req); err != nil || req.ID == nil {
		return 0, false
	}
	return *req.ID, true
}

// ResultFor is a handler returning {"id": <request id>, "result": result}.
func ResultFor(result interface{}) MessageHandler {
	return func(msg []byte) interface{} {
		resp := map[string]interface{}{"result": result}
		if id, ok := RequestID(msg); ok {
			resp["id"] = id
		}
		return resp
	}
}

func methodOf(message []byte) string {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		return "error"
	}
	if method, ok := msg["method"].(string); ok {
		return method
	}
	return "unknown"
}
