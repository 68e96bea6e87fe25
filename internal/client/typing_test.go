package client

import (
	"sync/atomic"
	"testing"
	"time"
)

type signalCounter struct {
	starts atomic.Int32
	stops  atomic.Int32
}

func newCountedNotifier(window time.Duration) (*TypingNotifier, *signalCounter) {
	c := &signalCounter{}
	n := NewTypingNotifier(window,
		func() { c.starts.Add(1) },
		func() { c.stops.Add(1) },
	)
	return n, c
}

func TestTypingNotifier_OneStartPerBurst(t *testing.T) {
	n, c := newCountedNotifier(50 * time.Millisecond)
	defer n.Close()

	for i := 0; i < 10; i++ {
		n.Keystroke()
	}

	if got := c.starts.Load(); got != 1 {
		t.Errorf("starts = %d after one burst, want 1", got)
	}
	if got := c.stops.Load(); got != 0 {
		t.Errorf("stops = %d mid-burst, want 0", got)
	}
}

func TestTypingNotifier_StopAfterIdleWindow(t *testing.T) {
	n, c := newCountedNotifier(20 * time.Millisecond)
	defer n.Close()

	n.Keystroke()

	deadline := time.Now().Add(2 * time.Second)
	for c.stops.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.stops.Load(); got != 1 {
		t.Fatalf("stops = %d after idle window, want 1", got)
	}

	// The next keystroke opens a fresh burst.
	n.Keystroke()
	if got := c.starts.Load(); got != 2 {
		t.Errorf("starts = %d after second burst, want 2", got)
	}
}

func TestTypingNotifier_KeystrokeResetsWindow(t *testing.T) {
	n, c := newCountedNotifier(60 * time.Millisecond)
	defer n.Close()

	// Keep renewing inside the window; no stop may fire.
	for i := 0; i < 5; i++ {
		n.Keystroke()
		time.Sleep(20 * time.Millisecond)
	}

	if got := c.stops.Load(); got != 0 {
		t.Errorf("stops = %d during sustained typing, want 0", got)
	}
}

func TestTypingNotifier_FlushStopsImmediately(t *testing.T) {
	n, c := newCountedNotifier(time.Hour)
	defer n.Close()

	n.Keystroke()
	n.Flush()

	if got := c.stops.Load(); got != 1 {
		t.Errorf("stops = %d after Flush, want 1", got)
	}

	// Flush without an active burst emits nothing.
	n.Flush()
	if got := c.stops.Load(); got != 1 {
		t.Errorf("stops = %d after idle Flush, want 1", got)
	}
}

func TestTypingNotifier_CloseSuppressesSignals(t *testing.T) {
	n, c := newCountedNotifier(20 * time.Millisecond)

	n.Keystroke()
	n.Close()

	time.Sleep(50 * time.Millisecond)
	if got := c.stops.Load(); got != 0 {
		t.Errorf("stops = %d after Close, want 0", got)
	}

	// Everything after Close is a no-op.
	n.Keystroke()
	n.Flush()
	if got := c.starts.Load(); got != 1 {
		t.Errorf("starts = %d after Close, want 1", got)
	}
}

func TestTypingNotifier_DefaultWindow(t *testing.T) {
	n := NewTypingNotifier(0, func() {}, func() {})
	defer n.Close()

	if n.window != DefaultTypingWindow {
		t.Errorf("window = %v, want %v", n.window, DefaultTypingWindow)
	}
}
