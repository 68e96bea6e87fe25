package client

import (
	"sync"
	"time"
)

// DefaultTypingWindow is the idle time after the last keystroke before
// the stop signal fires.
const DefaultTypingWindow = 1000 * time.Millisecond

// TypingNotifier turns raw keystrokes into a bounded typing/stop-typing
// pair per burst: the start signal is edge-triggered on the first
// keystroke, and the stop signal fires once the window elapses with no
// renewal.
type TypingNotifier struct {
	mu     sync.Mutex
	window time.Duration
	start  func()
	stop   func()
	timer  *time.Timer
	active bool
	closed bool
}

// NewTypingNotifier creates a notifier calling start on the first
// keystroke of a burst and stop when the burst ends.
func NewTypingNotifier(window time.Duration, start, stop func()) *TypingNotifier {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingNotifier{
		window: window,
		start:  start,
		stop:   stop,
	}
}

// Keystroke records input activity. The idle timer resets on every
// call; only the first call of a burst emits the start signal.
func (n *TypingNotifier) Keystroke() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if !n.active {
		n.active = true
		n.start()
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.window, n.expire)
}

func (n *TypingNotifier) expire() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || !n.active {
		return
	}
	n.active = false
	n.stop()
}

// Flush ends the burst immediately, as when the composed message is
// sent or the input loses focus.
func (n *TypingNotifier) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.active {
		n.active = false
		n.stop()
	}
}

// Close cancels any pending timer without emitting. Must be called on
// session teardown so the stop signal cannot fire after the session
// ends.
func (n *TypingNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.active = false
}
