package overlay

import (
	"context"
	"runtime"
	"time"
)

// DefaultFrameInterval is the UI tick period, about 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// RunUI owns the calling goroutine's OS thread for the life of ctx. It pumps
// native messages and ticks n every frame. Every native window is created
// and destroyed on this thread. The live overlay is destroyed on return.
func RunUI(ctx context.Context, n *Notifier, frame time.Duration) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if frame <= 0 {
		frame = DefaultFrameInterval
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	defer n.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			n.backend.PumpMessages()
			n.Tick(now)
		}
	}
}
