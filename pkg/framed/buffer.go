package framed

import (
	"sync"
)

// Buffer is the ingress byte queue between the asynchronous receive
// callback and the framing loop. It is unbounded: a stalled consumer
// grows it without limit, and any cap or truncation policy belongs to
// the byte source feeding it.
type Buffer struct {
	lock   sync.Mutex
	data   []byte
	wakeCh chan struct{}
}

// NewBuffer creates a Buffer.
func NewBuffer() *Buffer {
	return &Buffer{wakeCh: make(chan struct{}, 1)}
}

// Push appends bytes to the tail, preserving order, and wakes a waiting
// consumer. It never blocks beyond the brief append and is safe to call
// from a time-sensitive receive callback concurrently with TryPop.
func (b *Buffer) Push(p []byte) {
	if len(p) == 0 {
		return
	}
	b.lock.Lock()
	b.data = append(b.data, p...)
	b.lock.Unlock()
	select {
	case b.wakeCh <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the oldest byte, or false when empty. It
// never blocks.
func (b *Buffer) TryPop() (byte, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.data) == 0 {
		return 0, false
	}
	c := b.data[0]
	if b.data = b.data[1:]; len(b.data) == 0 {
		b.data = nil
	}
	return c, true
}

// Len is the current count of buffered bytes. Advisory only: concurrent
// pushes may change it the instant after it is read.
func (b *Buffer) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.data)
}

// Wakeup returns the chan signaled after each Push. The signal is
// coalesced: one receive may cover many pushes, so a consumer re-checks
// the buffer after waking rather than counting signals.
func (b *Buffer) Wakeup() <-chan struct{} {
	return b.wakeCh
}
