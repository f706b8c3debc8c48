package netio

import (
	"net/netip"
	"sync"
)

// Registry is a map of ConnectionId -> Connection for every currently live
// client. Writers (Add, Remove) take the write lock; lookups (Get, Len)
// may overlap freely under the read lock.
type Registry struct {
	mu          sync.RWMutex
	connections map[netip.AddrPort]*Connection
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{connections: make(map[netip.AddrPort]*Connection)}
}

// Add inserts conn keyed by its id. If a connection is already registered
// under the same id (the peer reconnected before the prior entry was
// removed), the new connection replaces it; the prior connection is not
// terminated automatically — a known edge case, not a bug.
func (r *Registry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID()] = conn
}

// Remove drops id from the registry if present and its current entry is
// conn (so a Remove racing a replacement never evicts the newer entry).
func (r *Registry) Remove(id netip.AddrPort, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.connections[id]; ok && existing == conn {
		delete(r.connections, id)
	}
}

// Get returns the connection registered under id, if any.
func (r *Registry) Get(id netip.AddrPort) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[id]
	return c, ok
}

// DisconnectAll terminates every currently registered connection. Used on
// server shutdown to deliver ProtocolError::fatal(Terminated) to every
// live client before the listener itself stops.
func (r *Registry) DisconnectAll() {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.connections))
	for _, c := range r.connections {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		c.Terminate()
	}
}

// Len reports the number of currently registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
