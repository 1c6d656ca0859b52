package chat

import (
	"sync"
)

// Client represents a broadcast subscriber with a transport-agnostic connection.
type Client struct {
	Conn     Conn
	Outgoing chan []byte
}

// NewClient creates a subscriber with a buffered outgoing queue.
func NewClient(conn Conn, buffer int) *Client {
	return &Client{
		Conn:     conn,
		Outgoing: make(chan []byte, buffer),
	}
}

// Hub manages broadcast subscribers.
// TCP and WebSocket subscribers share a single Hub instance.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from the hub and closes its outgoing queue.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.Outgoing)
	}
}

// Broadcast queues line for every subscriber. Subscribers whose queue is
// full miss the line; it returns how many clients it reached.
func (h *Hub) Broadcast(line []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients {
		select {
		case client.Outgoing <- line:
			delivered++
		default:
		}
	}
	return delivered
}

// ClientCount returns number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every subscriber connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Conn.Close()
	}
}
