package ws

import (
	"log"
	"sync"
	"time"
)

// Hub tracks every authenticated connection by user id. One connection
// per user: a second login replaces the first.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// register adds the client, displacing any previous connection for the
// same account.
func (h *Hub) register(c *Client) (displaced *Client) {
	h.mu.Lock()
	displaced = h.clients[c.userID]
	h.clients[c.userID] = c
	h.mu.Unlock()
	return displaced
}

// unregister removes the client if it is still the registered one.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.userID] == c {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()
}

// Get returns the connected client for a user id, or nil.
func (h *Hub) Get(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// Each visits every connected client.
func (h *Hub) Each(fn func(*Client)) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()
	for _, c := range snapshot {
		fn(c)
	}
}

// Count reports the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartIdleWorker disconnects clients with no inbound traffic for the
// given window. Runs until the process exits.
func (h *Hub) StartIdleWorker(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-timeout)
			h.Each(func(c *Client) {
				if c.IdleSince().Before(cutoff) {
					log.Printf("[WS] Disconnecting idle client %s", c.name)
					c.close()
				}
			})
		}
	}()
}
