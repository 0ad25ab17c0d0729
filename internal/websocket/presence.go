package websocket

import "sync"

// Registry tracks the single live connection per user. It is a routing
// hint for targeted events, never an authorization source.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*WSClient
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*WSClient)}
}

// Register binds userID to client, returning the connection it
// replaced, if any. A reconnect before the old socket times out simply
// takes over the slot.
func (r *Registry) Register(userID string, client *WSClient) *WSClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.clients[userID]
	if previous == client {
		return nil
	}
	r.clients[userID] = client
	return previous
}

// Remove drops the binding only when client still owns it. A stale
// disconnect arriving after a reconnect must not evict the new socket.
func (r *Registry) Remove(userID string, client *WSClient) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[userID]; ok && current == client {
		delete(r.clients, userID)
		return true
	}
	return false
}

func (r *Registry) Get(userID string) (*WSClient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[userID]
	return client, ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
