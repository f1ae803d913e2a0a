// Package history provides the bounded buffers behind command history and
// terminal scrollback.
package history

// Ring is a fixed-capacity FIFO. Pushing onto a full ring evicts the
// oldest element. The zero value is unusable; call NewRing.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

// NewRing creates a ring holding at most capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when full.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Get returns the i-th element, oldest first.
func (r *Ring[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}
	return r.buf[(r.start+i)%len(r.buf)], true
}

// Last returns the newest element.
func (r *Ring[T]) Last() (T, bool) {
	return r.Get(r.size - 1)
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Clear drops all elements.
func (r *Ring[T]) Clear() {
	clear(r.buf)
	r.start, r.size = 0, 0
}

// Slice copies the contents out, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
