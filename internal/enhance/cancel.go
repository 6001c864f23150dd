package enhance

import "sync"

// Handle is a shareable cancellation signal. The caller cancels, the client
// observes. Cancel is idempotent and safe from any goroutine; Done returns a
// channel closed exactly once when cancellation fires.
type Handle struct {
	once sync.Once
	done chan struct{}
}

// NewHandle returns a fresh, uncancelled handle.
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Cancel signals cancellation. Calling it again is a no-op.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.done) })
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when cancellation fires.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
