package overlay

import (
	"sync"
	"time"

	"snapcap/internal/ringbuf"
)

// DefaultHistorySize is the number of archived overlays kept by default.
const DefaultHistorySize = 10

// ArchiveReason records why an overlay left the screen.
type ArchiveReason string

const (
	ArchiveReplaced   ArchiveReason = "replaced"
	ArchiveExpired    ArchiveReason = "expired"
	ArchiveClosed     ArchiveReason = "closed"
	ArchiveSuperseded ArchiveReason = "superseded"
	ArchiveFailed     ArchiveReason = "render-failed"
)

// HistoryEntry is one archived overlay.
type HistoryEntry struct {
	Handle     Handle
	Title      string
	Message    string
	Severity   Severity
	ShownAt    time.Time // zero when the request never reached the screen
	ArchivedAt time.Time
	Reason     ArchiveReason

	request Request
}

// history is written by the UI thread and read from any goroutine.
type history struct {
	mu   sync.Mutex
	ring *ringbuf.Ring[HistoryEntry]
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &history{ring: ringbuf.New[HistoryEntry](capacity)}
}

func (h *history) push(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring.Push(entry)
}

func (h *history) snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ring.Snapshot()
}

func (h *history) newest() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ring.Newest()
}

func (h *history) resize(capacity int) {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring.Resize(capacity)
}
