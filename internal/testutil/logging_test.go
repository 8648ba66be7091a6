package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCaptureLogBufferRestoresLogger(t *testing.T) {
	before := slog.Default()
	t.Run("capture", func(t *testing.T) {
		logBuf := CaptureLogBuffer(t, slog.LevelInfo)
		slog.Debug("hidden")
		slog.Info("visible", "key", "value")
		out := logBuf.String()
		if strings.Contains(out, "hidden") || !strings.Contains(out, "key=value") {
			t.Fatalf("captured log = %q", out)
		}
	})
	if slog.Default() != before {
		t.Fatal("default logger was not restored")
	}
}

func TestLogBufferConcurrentWrites(t *testing.T) {
	logBuf := CaptureLogBuffer(t, slog.LevelInfo)
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() { slog.Info("tick") })
	}
	wg.Wait()
	if got := strings.Count(logBuf.String(), "msg=tick"); got != 8 {
		t.Fatalf("tick lines = %d, want 8", got)
	}
}

func TestWaitForLog(t *testing.T) {
	logBuf := CaptureLogBuffer(t, slog.LevelInfo)
	go func() {
		time.Sleep(10 * time.Millisecond)
		slog.Info("late arrival")
	}()
	WaitForLog(t, logBuf, "late arrival", time.Second)
}
