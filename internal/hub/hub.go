// Package hub is the outbound transport port: it tracks live WebSocket
// clients by connection id and delivers discrete named events to one
// connection or to the whole room. Sends are non-blocking; a client whose
// buffer is full drops the event instead of stalling the caller.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Envelope is the outbound wire frame.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // connection id -> client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register tracks a client under its connection id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ConnectionID] = c
	h.mu.Unlock()
}

// Unregister drops a client and closes its send channel, stopping its write
// pump. Safe to call once per client.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
	}
	h.mu.Unlock()

	if ok {
		close(c.send)
	}
}

// IsConnected reports whether a connection id has a live client.
func (h *Hub) IsConnected(connectionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connectionID]
	return ok
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo delivers an event to a single connection.
func (h *Hub) SendTo(connectionID, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		slog.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	// Enqueue under the read lock: Unregister closes the send channel under
	// the write lock, so a send can never race the close.
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	if !ok {
		slog.Debug("send to unknown connection dropped", "connectionId", connectionID, "event", event)
		return
	}
	c.enqueue(data)
}

// BroadcastAll delivers an event to every registered connection.
func (h *Hub) BroadcastAll(event string, payload any) {
	h.broadcast(event, payload, "")
}

// BroadcastExcept delivers an event to everyone but the excluded connection.
func (h *Hub) BroadcastExcept(excludeConnectionID, event string, payload any) {
	h.broadcast(event, payload, excludeConnectionID)
}

func (h *Hub) broadcast(event string, payload any, exclude string) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		slog.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id != exclude {
			c.enqueue(data)
		}
	}
}
