package enhance

import (
	"sync"
	"testing"
	"time"
)

func TestHandleCancelIdempotent(t *testing.T) {
	h := NewHandle()
	if h.Cancelled() {
		t.Fatal("fresh handle already cancelled")
	}

	h.Cancel()
	h.Cancel() // second call must not panic
	if !h.Cancelled() {
		t.Fatal("handle not cancelled after Cancel")
	}

	select {
	case <-h.Done():
	default:
		t.Fatal("Done channel not closed after Cancel")
	}
}

func TestHandleConcurrentCancel(t *testing.T) {
	h := NewHandle()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Cancel()
		}()
	}
	wg.Wait()

	if !h.Cancelled() {
		t.Fatal("handle not cancelled")
	}
}

func TestHandleDoneBlocksUntilCancel(t *testing.T) {
	h := NewHandle()

	done := make(chan struct{})
	go func() {
		<-h.Done()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Done resolved before Cancel")
	case <-time.After(20 * time.Millisecond):
	}

	h.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done did not resolve after Cancel")
	}
}
