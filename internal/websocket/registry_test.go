package websocket

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"chatrelay/pkg/types"
)

type stubConn struct {
	id string
}

func (c *stubConn) ID() string                             { return c.id }
func (c *stubConn) WriteEvent(ev types.OutboundEvent) error { return nil }
func (c *stubConn) Close() error                            { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	conn := &stubConn{id: "c1"}

	if err := registry.Register(conn); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}

	got, exists := registry.Get("c1")
	if !exists || got.ID() != "c1" {
		t.Errorf("Get(c1) = %v, %v", got, exists)
	}
	if _, exists := registry.Get("missing"); exists {
		t.Error("Get(missing) reported a connection")
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(nil); !errors.Is(err, ErrNilConnection) {
		t.Errorf("Register(nil) error = %v, want ErrNilConnection", err)
	}

	registry.Register(&stubConn{id: "c1"})
	if err := registry.Register(&stubConn{id: "c1"}); !errors.Is(err, ErrDuplicateConnectionID) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateConnectionID", err)
	}
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubConn{id: "c1"})

	conn, existed := registry.Remove("c1")
	if !existed || conn.ID() != "c1" {
		t.Fatalf("Remove(c1) = %v, %v", conn, existed)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d after removal, want 0", registry.Count())
	}

	if _, existed := registry.Remove("c1"); existed {
		t.Error("second Remove(c1) reported an existing connection")
	}
}

func TestRegistry_All(t *testing.T) {
	registry := NewRegistry()
	for i := 0; i < 3; i++ {
		registry.Register(&stubConn{id: fmt.Sprintf("c%d", i)})
	}

	conns := registry.All()
	if len(conns) != 3 {
		t.Errorf("All() returned %d connections, want 3", len(conns))
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			registry.Register(&stubConn{id: id})
			registry.Get(id)
			registry.All()
			registry.Remove(id)
		}(i)
	}
	wg.Wait()

	if registry.Count() != 0 {
		t.Errorf("Count() = %d after all removals, want 0", registry.Count())
	}
}
