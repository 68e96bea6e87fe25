// Package presence is the authoritative map from live connections to
// usernames: the source of truth for who is online.
package presence

import (
	"log"
	"sort"
	"sync"
)

// Registry maps connection identifiers to usernames. At most one entry
// exists per connection; several connections may carry the same
// username (multi-device).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string // connID -> username
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]string),
	}
}

// Join associates a username with a connection. A connection joins
// once; a repeat join is a protocol error tolerated by overwrite.
func (r *Registry) Join(connID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.entries[connID]; exists && prev != username {
		log.Printf("Duplicate join overwritten: conn=%s old=%s new=%s", connID, prev, username)
	}
	r.entries[connID] = username
}

// Leave removes the connection's entry and returns its username. The
// second return is false for connections that never joined; callers use
// it to suppress the user-left notification.
func (r *Registry) Leave(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, exists := r.entries[connID]
	if exists {
		delete(r.entries, connID)
	}
	return username, exists
}

// Username returns the username a connection joined with.
func (r *Registry) Username(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, exists := r.entries[connID]
	return username, exists
}

// OnlineUsernames returns the sorted set of distinct usernames with at
// least one live connection.
func (r *Registry) OnlineUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.entries))
	users := make([]string, 0, len(r.entries))
	for _, username := range r.entries {
		if !seen[username] {
			seen[username] = true
			users = append(users, username)
		}
	}
	sort.Strings(users)
	return users
}

// ConnectionCount returns the number of joined connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
