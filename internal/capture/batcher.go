// Package capture grabs screen images on trigger and groups them into
// batches separated by a quiet period.
package capture

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBatchDelay   = 5 * time.Second
	DefaultMaxBatchSize = 10
)

// ErrBatchFull is returned by Add when MaxSize captures are already pending.
var ErrBatchFull = errors.New("capture batch is full")

// ErrStopped is returned by Add after Stop.
var ErrStopped = errors.New("capture batcher stopped")

// Capture is one encoded screen grab.
type Capture struct {
	ID      string
	TakenAt time.Time
	PNG     []byte
}

// Batch is the group of captures handed to the analysis worker.
type Batch struct {
	ID       string
	Captures []Capture
}

// Images returns the PNG payloads in capture order.
func (b Batch) Images() [][]byte {
	out := make([][]byte, len(b.Captures))
	for i, c := range b.Captures {
		out[i] = c.PNG
	}
	return out
}

// Len returns the number of captures in the batch.
func (b Batch) Len() int { return len(b.Captures) }

type stopper interface {
	Stop() bool
}

// Batcher collects captures and flushes them once no new capture has arrived
// for Delay. Every Add restarts the quiet timer.
type Batcher struct {
	delay   time.Duration
	maxSize int
	onFlush func(Batch)

	// afterFunc is a test seam for time.AfterFunc.
	afterFunc func(d time.Duration, f func()) stopper

	mu      sync.Mutex
	pending []Capture
	timer   stopper
	gen     uint64
	stopped bool
}

// NewBatcher creates a batcher. delay <= 0 and maxSize <= 0 use the
// defaults. onFlush runs on the timer goroutine and must not block for long.
func NewBatcher(delay time.Duration, maxSize int, onFlush func(Batch)) *Batcher {
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	return &Batcher{
		delay:   delay,
		maxSize: maxSize,
		onFlush: onFlush,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Full reports whether another Add would be rejected.
func (b *Batcher) Full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) >= b.maxSize
}

// Add appends png to the pending batch and restarts the quiet timer. It
// returns the pending count after the append.
func (b *Batcher) Add(png []byte, takenAt time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return 0, ErrStopped
	}
	if len(b.pending) >= b.maxSize {
		return len(b.pending), ErrBatchFull
	}
	b.pending = append(b.pending, Capture{ID: uuid.NewString(), TakenAt: takenAt, PNG: png})
	b.restartTimerLocked()
	return len(b.pending), nil
}

// Requeue puts batch back in front of any pending captures and restarts the
// quiet timer. Used when a flush arrives while the previous batch is still
// being analyzed.
func (b *Batcher) Requeue(batch Batch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped || batch.Len() == 0 {
		return
	}
	merged := make([]Capture, 0, batch.Len()+len(b.pending))
	merged = append(merged, batch.Captures...)
	merged = append(merged, b.pending...)
	b.pending = merged
	b.restartTimerLocked()
	slog.Debug("[DEBUG-CAPTURE] batch requeued", "batch", batch.ID, "pending", len(b.pending))
}

// Pending returns the number of captures waiting for the next flush.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stop cancels the quiet timer and discards pending captures. It returns the
// number discarded. Add fails with ErrStopped afterwards.
func (b *Batcher) Stop() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	discarded := len(b.pending)
	b.pending = nil
	b.stopped = true
	return discarded
}

func (b *Batcher) restartTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = b.afterFunc(b.delay, func() { b.fire(gen) })
}

// fire flushes the pending captures if gen is still the latest timer. A
// stale timer that lost the race with Stop or a newer Add does nothing.
func (b *Batcher) fire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.stopped || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := Batch{ID: uuid.NewString(), Captures: b.pending}
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()

	slog.Debug("[DEBUG-CAPTURE] batch flushed", "batch", batch.ID, "images", batch.Len())
	if b.onFlush != nil {
		b.onFlush(batch)
	}
}
