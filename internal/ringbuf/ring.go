// Package ringbuf provides a fixed-capacity circular buffer.
package ringbuf

// Ring is a fixed-capacity circular buffer. When full, push overwrites the
// oldest entry, using a head index and a count to track the logical window.
//
// Not safe for concurrent use; callers must hold their own lock.
type Ring[T any] struct {
	buf   []T // fixed-size backing array
	head  int // index of the oldest entry (next to be overwritten when full)
	count int // number of valid entries (0..cap)
}

// New allocates a ring with the given capacity.
// Capacity values <= 0 are clamped to 1 to prevent modulo-by-zero panics.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends an entry and returns the evicted oldest entry, if any.
func (r *Ring[T]) Push(entry T) (evicted T, didEvict bool) {
	bufCap := len(r.buf)
	if r.count < bufCap {
		r.buf[(r.head+r.count)%bufCap] = entry
		r.count++
		return evicted, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = entry
	r.head = (r.head + 1) % bufCap
	return evicted, true
}

// Snapshot returns a newly allocated slice with all entries, oldest first.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.count)
	if r.count == 0 {
		return out
	}
	bufCap := len(r.buf)

	// Number of entries from head to end of backing array (first segment).
	first := min(bufCap-r.head, r.count)
	copy(out, r.buf[r.head:r.head+first])

	// Remaining entries wrap around to the beginning of the backing array.
	if rest := r.count - first; rest > 0 {
		copy(out[first:], r.buf[:rest])
	}
	return out
}

// Newest returns the most recently pushed entry.
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// Resize changes the capacity, keeping the newest entries.
func (r *Ring[T]) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(r.buf) {
		return
	}
	entries := r.Snapshot()
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	r.buf = make([]T, capacity)
	r.head = 0
	r.count = copy(r.buf, entries)
}

// Len returns the number of valid entries currently stored.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }
