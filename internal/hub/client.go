package hub

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

// Client wraps one WebSocket connection with a buffered outbound queue.
type Client struct {
	ConnectionID string

	conn *websocket.Conn
	send chan []byte
}

func NewClient(connectionID string, conn *websocket.Conn) *Client {
	return &Client{
		ConnectionID: connectionID,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
	}
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, event dropped", "connectionId", c.ConnectionID)
	}
}

// ReadPump reads frames until the connection dies, invoking onMessage per
// frame and onActivity per successful read. It blocks the caller; run it on
// the connection's goroutine.
func (c *Client) ReadPump(onMessage func([]byte), onActivity func()) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "connectionId", c.ConnectionID, "error", err)
			}
			return
		}
		if onActivity != nil {
			onActivity()
		}
		onMessage(message)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
// It exits when the send channel is closed (Hub.Unregister) or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("websocket write error", "connectionId", c.ConnectionID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
