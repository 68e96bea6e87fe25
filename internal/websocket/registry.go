package websocket

import (
	"sync"

	"chatrelay/pkg/interfaces"
)

// Registry tracks live connections by identifier. It holds no business
// state; presence and membership live in their own components.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]interfaces.Connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]interfaces.Connection),
	}
}

// Register adds a connection. Identifiers are unique per connection, so
// a collision is a programming error.
func (r *Registry) Register(conn interfaces.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[conn.ID()]; exists {
		return ErrDuplicateConnectionID
	}
	r.connections[conn.ID()] = conn
	return nil
}

// Remove deletes a connection entry and returns it. Idempotent: a
// second removal reports false.
func (r *Registry) Remove(id string) (interfaces.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[id]
	if exists {
		delete(r.connections, id)
	}
	return conn, exists
}

// Get returns the connection for an identifier with O(1) lookup.
func (r *Registry) Get(id string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[id]
	return conn, exists
}

// All returns a snapshot of every live connection, for whole-set
// broadcasts.
func (r *Registry) All() []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]interfaces.Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	return conns
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connections)
}
