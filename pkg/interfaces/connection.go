package interfaces

import "chatrelay/pkg/types"

// Connection is the transport-level session the routing core writes to.
// Implemented by internal/websocket.Connection; tests substitute fakes.
type Connection interface {
	// ID returns the opaque connection identifier assigned at upgrade.
	ID() string
	// WriteEvent queues an outbound event on the connection's send
	// buffer. Writes are fire-and-forget: a failure affects only this
	// recipient.
	WriteEvent(ev types.OutboundEvent) error
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// ConnectionRegistry tracks live connections by identifier.
type ConnectionRegistry interface {
	Register(conn Connection) error
	Remove(id string) (Connection, bool)
	Get(id string) (Connection, bool)
	All() []Connection
	Count() int
}
