package ws

import (
	"log/slog"
	"sync"
)

// Hub is the connection registry: the single shared mutable structure
// tracking live connections and their room association.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// Inbound receives every frame read off a connection.
	Inbound func(raw []byte, c *Client)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	slog.Info("client connected", "client", c.id)
}

// Unregister removes a connection. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	// c.send is never closed: concurrent broadcasts may still be
	// racing Send, and a send on a closed channel is fatal. The done
	// channel is the teardown signal.
	c.markClosed()
	close(c.done)
	slog.Info("client unregistered", "client", c.id)
}

// Associate marks a connection as belonging to a room. A connection belongs
// to at most one room; re-associating replaces the prior association.
func (h *Hub) Associate(c *Client, roomID int64) {
	c.setRoom(roomID)
}

// Broadcast delivers payload to every registered connection matched by
// pred. Membership is snapshotted at call time; delivery is best-effort
// per connection and a failed or closing connection never aborts the rest.
func (h *Hub) Broadcast(pred func(*Client) bool, payload []byte) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		if pred == nil || pred(c) {
			c.Send(payload)
		}
	}
}

// Count reports the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
