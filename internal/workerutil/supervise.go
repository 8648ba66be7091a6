// Package workerutil keeps long-lived background goroutines alive across
// panics.
package workerutil

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const defaultMaxCrashes = 10

// Policy controls how Supervise restarts a crashed worker.
type Policy struct {
	// Backoff spaces restarts. The zero value waits 100ms doubling to 5s.
	Backoff Backoff
	// MaxCrashes is how many panics are tolerated before giving up.
	// Zero means 10; 1 means never restart.
	MaxCrashes int

	// Stopping suppresses restarts and callbacks during teardown.
	Stopping func() bool
	// OnCrash runs after each recovered panic. crash counts from 1.
	OnCrash func(worker string, crash int)
	// OnGiveUp runs once after the last tolerated panic.
	OnGiveUp func(worker string, crashes int)
}

// Supervise runs fn on a goroutine tracked by wg and restarts it after a
// panic. It stops when fn returns normally, ctx ends, Stopping reports true
// or MaxCrashes panics have happened.
func Supervise(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context), p Policy) {
	if p.MaxCrashes <= 0 {
		p.MaxCrashes = defaultMaxCrashes
	}
	wg.Go(func() { supervise(ctx, name, fn, p) })
}

func supervise(ctx context.Context, name string, fn func(context.Context), p Policy) {
	for crash := 1; ; crash++ {
		if !crashed(ctx, name, fn) || ctx.Err() != nil {
			return
		}
		if p.Stopping != nil && p.Stopping() {
			slog.Info("[worker] stopping, no restart", "worker", name)
			return
		}
		if p.OnCrash != nil {
			p.OnCrash(name, crash)
		}
		if crash >= p.MaxCrashes {
			slog.Error("[worker] crashed too often, giving up", "worker", name, "crashes", crash)
			if p.OnGiveUp != nil {
				p.OnGiveUp(name, crash)
			}
			return
		}

		delay := p.Backoff.Next()
		slog.Warn("[worker] restarting after panic", "worker", name, "crash", crash, "delay", delay)
		wait := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			wait.Stop()
			return
		case <-wait.C:
		}
	}
}

func crashed(ctx context.Context, name string, fn func(context.Context)) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[worker] recovered panic", "worker", name, "panic", r, "stack", string(debug.Stack()))
			panicked = true
		}
	}()
	fn(ctx)
	return false
}
