package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of authenticated client connections, keyed by user ID.
// One connection per user: a new registration for the same user replaces and
// closes the previous one. The hub is injected where fanout is needed; it is
// not a package-level singleton.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// register binds a client to its authenticated user ID, replacing any
// previous connection for that user (last registration wins). A connection
// that re-authenticates under a new id gives up its earlier binding.
func (h *Hub) register(client *Client) {
	if client.UserID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, current := range h.clients {
		if current == client && userID != client.UserID {
			delete(h.clients, userID)
			log.Printf("WS: user %s rebound to %s", userID, client.UserID)
		}
	}
	if old, ok := h.clients[client.UserID]; ok && old != client {
		close(old.send)
	}
	h.clients[client.UserID] = client
	log.Printf("WS: user %s connected", client.UserID)
}

// unregister removes a closing client. The registry is scanned by connection,
// not by the client's current user id: every binding holding this connection
// is dropped, so an entry left under an earlier id cannot outlive the channel.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for userID, current := range h.clients {
		if current == client {
			delete(h.clients, userID)
			removed = true
			log.Printf("WS: user %s disconnected", userID)
		}
	}
	if removed {
		close(client.send)
	}
}

// online reports whether a user currently has a registered connection
func (h *Hub) online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// NotifyUser pushes an event to one user. If the user has no registered
// connection, or the connection's buffer is full, the event is dropped.
func (h *Hub) NotifyUser(userID string, event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS: error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userID]
	if !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
		// Buffer full or client dead; the close event cleans up
		log.Printf("WS: dropping event for slow client %s", userID)
	}
}

// NotifyUsers pushes an event to each listed user, best effort
func (h *Hub) NotifyUsers(userIDs []string, event Event) {
	for _, id := range userIDs {
		h.NotifyUser(id, event)
	}
}
