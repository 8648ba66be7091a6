package applog

import (
	"sync"

	"snapcap/internal/ringbuf"
)

// DefaultRecentCapacity bounds the in-memory warning/error ring.
const DefaultRecentCapacity = 50

// Recent keeps the newest teed entries for the status command.
type Recent struct {
	mu   sync.Mutex
	ring *ringbuf.Ring[Entry]
}

// NewRecent creates a ring holding at most capacity entries.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &Recent{ring: ringbuf.New[Entry](capacity)}
}

// Add records entry, evicting the oldest when full. Safe as an EntryCallback.
func (r *Recent) Add(entry Entry) {
	r.mu.Lock()
	r.ring.Push(entry)
	r.mu.Unlock()
}

// Snapshot returns the retained entries, oldest first.
func (r *Recent) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ring.Snapshot()
}

// Len returns the number of retained entries.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ring.Len()
}
