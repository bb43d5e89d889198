package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

// frame is the named-event envelope exchanged with the backend.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WebSocketTransport implements Transport over a gorilla/websocket
// connection. It can be reconnected after a close or failure by calling
// Connect again; registered handlers are kept across sessions.
type WebSocketTransport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	mu           sync.Mutex
	conn         *websocket.Conn
	closed       bool
	handlers     map[string][]EventHandler
	onDisconnect func(err error)
	done         chan struct{}
}

// NewWebSocketTransport creates a transport for the given ws:// or wss://
// endpoint.
func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{
		url:      url,
		header:   http.Header{},
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string][]EventHandler),
	}
}

// Connect dials the endpoint and starts the read and keepalive loops.
func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.closed = false
	t.mu.Unlock()

	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

	done := make(chan struct{})

	t.mu.Lock()
	t.conn = conn
	t.done = done
	t.mu.Unlock()

	go t.readLoop(conn, done)
	go t.pingLoop(conn, done)

	return nil
}

// Close tears the connection down without invoking the disconnect callback.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.conn = nil
	done := t.done
	t.done = nil
	t.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

// On registers a handler for a named inbound event.
func (t *WebSocketTransport) On(event string, handler EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = append(t.handlers[event], handler)
}

// OnDisconnect registers the session-loss callback.
func (t *WebSocketTransport) OnDisconnect(handler func(err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = handler
}

// Emit sends a named outbound event.
func (t *WebSocketTransport) Emit(event string, payload any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("emit %q: no active connection", event)
	}

	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %q payload: %w", event, err)
		}
		data = encoded
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("emit %q: no active connection", event)
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteJSON(frame{Event: event, Data: data})
}

func (t *WebSocketTransport) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.handleReadFailure(conn, err, done)
			return
		}

		var f frame
		if unmarshalErr := json.Unmarshal(message, &f); unmarshalErr != nil {
			slog.Warn("discarding unparseable frame", "error", unmarshalErr)
			continue
		}

		t.mu.Lock()
		handlers := make([]EventHandler, len(t.handlers[f.Event]))
		copy(handlers, t.handlers[f.Event])
		t.mu.Unlock()

		for _, h := range handlers {
			h(f.Data)
		}
	}
}

func (t *WebSocketTransport) handleReadFailure(conn *websocket.Conn, err error, done chan struct{}) {
	select {
	case <-done:
		// Local close; the failure is expected and not reported.
		return
	default:
	}

	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
		t.done = nil
	}
	closed := t.closed
	callback := t.onDisconnect
	t.mu.Unlock()

	_ = conn.Close()

	if !closed && callback != nil {
		callback(err)
	}
}

func (t *WebSocketTransport) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
