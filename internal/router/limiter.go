package router

import (
	"sync"
	"time"
)

// defaultEventsPerMinute caps inbound events per connection. Generous
// enough for typing renewals plus messages from one human.
const defaultEventsPerMinute = 240

// EventLimiter implements per-connection flood limiting with a
// minute-based sliding window. Excess events are dropped silently,
// matching the relay's best-effort failure semantics.
type EventLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string]*connWindow
}

type connWindow struct {
	eventCount  int
	windowStart time.Time
}

// NewEventLimiter creates a limiter allowing limit events per minute
// per connection.
func NewEventLimiter(limit int) *EventLimiter {
	return &EventLimiter{
		limit:   limit,
		clients: make(map[string]*connWindow),
	}
}

// Allow reports whether the connection may submit another event.
func (l *EventLimiter) Allow(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	window, exists := l.clients[connID]
	if !exists {
		l.clients[connID] = &connWindow{eventCount: 1, windowStart: now}
		return true
	}

	if now.Sub(window.windowStart) >= time.Minute {
		window.eventCount = 1
		window.windowStart = now
		return true
	}

	if window.eventCount >= l.limit {
		return false
	}

	window.eventCount++
	return true
}

// Forget drops a connection's window. Called on disconnect, which keeps
// the map bounded by the live connection count.
func (l *EventLimiter) Forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.clients, connID)
}
