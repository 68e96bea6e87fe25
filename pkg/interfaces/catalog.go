package interfaces

import "context"

// ChannelStore is the persistent roster of pre-declared named channels.
// Only the roster persists; all session state is volatile.
type ChannelStore interface {
	// List returns channel names in declaration order.
	List(ctx context.Context) ([]string, error)
	// Create declares a new named channel.
	Create(ctx context.Context, name string) error
	// Close releases the underlying store.
	Close() error
}
