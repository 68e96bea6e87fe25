// Package hub serializes all authoritative state mutation onto one
// goroutine: each inbound event is processed to completion, state
// mutation plus broadcast, before the next is handled. This removes the
// need for locking around the presence registry and membership table.
package hub

import (
	"context"
	"log"
	"sync"

	"chatrelay/internal/router"
	"chatrelay/pkg/interfaces"
	"chatrelay/pkg/types"
)

// Hub coordinates connection lifecycle and event routing through
// buffered channels drained by a single run loop.
type Hub struct {
	eventChannel      chan *eventContext
	registerChannel   chan interfaces.Connection
	unregisterChannel chan string
	shutdownChannel   chan struct{}

	registry interfaces.ConnectionRegistry
	router   *router.Router

	running bool
	mu      sync.RWMutex
}

// eventContext pairs a decoded inbound event with its originating
// connection; the router takes identity from there, never the payload.
type eventContext struct {
	connID string
	event  types.InboundEvent
}

// NewHub creates a hub over the given registry and router.
func NewHub(registry interfaces.ConnectionRegistry, rt *router.Router) *Hub {
	return &Hub{
		// Sized for message bursts: a full channel drops the event
		// rather than blocking the reader.
		eventChannel:      make(chan *eventContext, 1024),
		registerChannel:   make(chan interfaces.Connection, 128),
		unregisterChannel: make(chan string, 128),
		shutdownChannel:   make(chan struct{}),
		registry:          registry,
		router:            rt,
	}
}

// Start begins hub processing.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	log.Println("Starting event hub...")
	go h.run(ctx)

	return nil
}

// Stop shuts the hub down. Queued events are abandoned; the protocol is
// best-effort and clients reconnect with fresh state.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	log.Println("Stopping event hub...")

	select {
	case <-h.shutdownChannel:
	default:
		close(h.shutdownChannel)
	}

	return nil
}

// Submit queues an inbound event for serialized processing.
func (h *Hub) Submit(connID string, ev types.InboundEvent) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.eventChannel <- &eventContext{connID: connID, event: ev}:
		return nil
	default:
		return ErrEventChannelFull
	}
}

// Register queues a connection for registration.
func (h *Hub) Register(conn interfaces.Connection) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.registerChannel <- conn:
		return nil
	default:
		return ErrRegisterChannelFull
	}
}

// Unregister queues a connection for removal by identifier, which works
// even when the connection object is already closed.
func (h *Hub) Unregister(connID string) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.unregisterChannel <- connID:
		return nil
	default:
		return ErrUnregisterChannelFull
	}
}

func (h *Hub) checkRunning() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.running {
		return ErrHubNotRunning
	}
	return nil
}

// run is the single event loop over the full connection set.
func (h *Hub) run(ctx context.Context) {
	defer log.Println("Hub processing stopped")

	for {
		select {
		case evCtx := <-h.eventChannel:
			h.router.Dispatch(evCtx.connID, evCtx.event)

		case conn := <-h.registerChannel:
			h.handleRegistration(conn)

		case connID := <-h.unregisterChannel:
			h.handleDeregistration(connID)

		case <-h.shutdownChannel:
			log.Println("Hub shutdown requested")
			return

		case <-ctx.Done():
			log.Println("Hub context cancelled")
			return
		}
	}
}

func (h *Hub) handleRegistration(conn interfaces.Connection) {
	if conn == nil {
		log.Printf("Attempted to register nil connection")
		return
	}

	if err := h.registry.Register(conn); err != nil {
		log.Printf("Connection registration failed: conn=%s: %v", conn.ID(), err)
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("Failed to close connection after registration failure: %v", closeErr)
		}
		return
	}

	log.Printf("Connection registered: conn=%s", conn.ID())
	h.router.HandleConnect(conn)
}

func (h *Hub) handleDeregistration(connID string) {
	if _, exists := h.registry.Remove(connID); !exists {
		log.Printf("Connection already deregistered: conn=%s", connID)
		return
	}

	h.router.HandleDisconnect(connID)
	log.Printf("Connection deregistered: conn=%s", connID)
}
