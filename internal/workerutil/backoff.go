package workerutil

import "time"

const (
	defaultBackoffInitial = 100 * time.Millisecond
	defaultBackoffMax     = 5 * time.Second
)

// Backoff yields doubling delays from Initial up to Max. Zero bounds take
// 100ms and 5s; a Max below Initial is raised to Initial.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	last time.Duration
}

func (b *Backoff) bounds() (lo, hi time.Duration) {
	lo, hi = b.Initial, b.Max
	if lo <= 0 {
		lo = defaultBackoffInitial
	}
	if hi <= 0 {
		hi = defaultBackoffMax
	}
	return lo, max(lo, hi)
}

// Next returns the delay to wait before the next attempt.
func (b *Backoff) Next() time.Duration {
	lo, hi := b.bounds()
	switch {
	case b.last <= 0:
		b.last = lo
	case b.last > hi/2:
		b.last = hi
	default:
		b.last *= 2
	}
	return b.last
}

// Reset makes the next delay Initial again.
func (b *Backoff) Reset() { b.last = 0 }
