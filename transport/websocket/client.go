package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client is one socket connection. Outbound messages go through a buffered
// channel drained by a single writer goroutine, so every subscriber sees
// broadcasts in the order the hub emitted them.
type Client struct {
	logger *slog.Logger

	playerID string
	conn     *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(logger *slog.Logger, playerID string, conn *websocket.Conn) *Client {
	return &Client{
		logger:   logger.With("component", "ws-client", "playerID", playerID),
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Send queues a message for delivery to this client alone. A client that
// cannot keep up is dropped rather than allowed to stall the hub.
func (that *Client) Send(msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		that.logger.Error("failed to marshal message", "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- raw:
	default:
		that.logger.Warn("send buffer full, closing connection")
		that.conn.Close()
	}
}

// Close stops outbound delivery. Safe to call once the client left all rooms.
func (that *Client) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings. It exits when the channel closes or a write fails.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
