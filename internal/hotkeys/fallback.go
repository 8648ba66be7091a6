package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// keyEvent is one decoded event from a global observer.
type keyEvent struct {
	vk         VKey
	transition keyTransition
}

// eventSource is a global, observe-only keyboard listener.
type eventSource interface {
	start() (<-chan keyEvent, error)
	stop()
}

// FallbackListener observes the Print Screen key without privilege.
//
// Degraded mode: it cannot suppress the key. The foreground application
// still receives Print Screen and may run its own action at the same time
// as onPress. Use it only after KeyHook.Start returns *HookInstallError.
type FallbackListener struct {
	onPress     func()
	source      eventSource
	filter      *keyFilter
	stopTimeout time.Duration

	mu     sync.Mutex
	doneCh chan struct{}
}

// NewFallbackListener creates a listener bound to the platform observer.
func NewFallbackListener(onPress func()) *FallbackListener {
	return newFallbackListenerWithSource(onPress, platformEventSource())
}

func newFallbackListenerWithSource(onPress func(), source eventSource) *FallbackListener {
	l := &FallbackListener{
		onPress:     onPress,
		source:      source,
		stopTimeout: hookStopTimeout,
	}
	l.filter = newKeyFilter(VKSnapshot, func() { dispatchPress("fallback", l.onPress) })
	return l
}

// Start begins observing. Calling Start while running is a no-op.
func (l *FallbackListener) Start() error {
	if l.onPress == nil {
		return errors.New("onPress callback is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doneCh != nil && !closed(l.doneCh) {
		return nil
	}

	events, err := l.source.start()
	if err != nil {
		return fmt.Errorf("start fallback key listener: %w", err)
	}
	slog.Warn("[hotkey] fallback listener active: Print Screen is observed but NOT suppressed; the foreground app also receives it")

	l.filter.reset()
	doneCh := make(chan struct{})
	l.doneCh = doneCh
	go func() {
		defer close(doneCh)
		for ev := range events {
			// The decision is ignored: an observer cannot swallow.
			l.filter.handle(0, ev.vk, ev.transition)
		}
	}()
	return nil
}

// Stop ends observation and waits for the event goroutine, bounded by the
// stop timeout. Safe to call before Start.
func (l *FallbackListener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doneCh == nil {
		return nil
	}
	doneCh := l.doneCh
	l.doneCh = nil

	l.source.stop()

	timer := time.NewTimer(l.stopTimeout)
	defer timer.Stop()
	select {
	case <-doneCh:
	case <-timer.C:
		slog.Warn("[hotkey] DEBUG fallback listener stop timed out, goroutine may leak",
			"timeout", l.stopTimeout)
		return fmt.Errorf("fallback key listener stop timed out after %s", l.stopTimeout)
	}
	l.filter.reset()
	return nil
}

// IsRunning reports whether the listener is delivering events.
func (l *FallbackListener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doneCh != nil && !closed(l.doneCh)
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
