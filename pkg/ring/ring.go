// Package ring provides a small fixed-capacity ring that keeps the
// most recent values. It backs bounded backlogs: caption history for
// late subscribers and the in-memory log tail shown by the TUI.
package ring

import "sync"

// Ring keeps the last cap values added, overwriting the oldest.
// The zero value is not usable; call New.
type Ring[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
}

// New creates a Ring that retains the most recent n values.
func New[T any](n int) *Ring[T] {
	if n < 1 {
		n = 1
	}
	return &Ring[T]{buf: make([]T, n)}
}

// Add appends v, evicting the oldest value when full.
func (r *Ring[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
	}
}

// Len returns the number of retained values.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// Cap returns the retention capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Snapshot returns the retained values oldest-first. The result is a
// copy and safe to hold across later Adds.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.tail - r.head)
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+int64(i))%int64(len(r.buf))]
	}
	return out
}

// Reset discards all retained values.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head, r.tail = 0, 0
}
