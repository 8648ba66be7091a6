package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"snapcap/internal/config"
	"snapcap/internal/overlay"
	"snapcap/internal/testutil"
)

func TestRequestDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Theme = "light"
	cfg.Notification.Position = "bottom-right"
	cfg.Notification.DurationSeconds = 7
	cfg.Notification.Width = 640
	cfg.Notification.ClickThrough = false
	cfg.Notification.FadeIn = true

	got := requestDefaults(cfg)
	want := overlay.Request{
		Severity:     overlay.SeveritySuccess,
		Duration:     7 * time.Second,
		Position:     overlay.PositionBottomRight,
		Theme:        overlay.ThemeLight,
		ClickThrough: false,
		FadeIn:       true,
		Width:        640,
	}
	if got != want {
		t.Fatalf("requestDefaults() = %+v, want %+v", got, want)
	}
}

func TestNotifyUsesCurrentSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Notification.Theme = "light"
	app, deps := newTestApp(t, cfg)

	if h := app.notify(overlay.SeverityWarning, "Title", "Body"); h == "" {
		t.Fatal("notify() returned an empty handle")
	}
	reqs := deps.notifier.requests()
	if len(reqs) != 1 {
		t.Fatalf("overlays shown = %d, want 1", len(reqs))
	}
	got := reqs[0]
	if got.Severity != overlay.SeverityWarning || got.Title != "Title" || got.Message != "Body" {
		t.Fatalf("overlay = %+v", got)
	}
	if got.Theme != overlay.ThemeLight {
		t.Fatalf("theme = %q, want light", got.Theme)
	}
}

func TestNotifyWithoutNotifier(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.notifier = nil
	if h := app.notify(overlay.SeverityInfo, "t", "m"); h != "" {
		t.Fatalf("notify() = %q, want empty handle without a notifier", h)
	}
}

func TestApplyConfig(t *testing.T) {
	app, deps := newTestApp(t, testConfig())
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelInfo)

	next := testConfig()
	next.Notification.Theme = "light"
	next.Notification.HistorySize = 25
	next.Hotkeys.Recall = "Ctrl+Alt+R"
	next.Capture.BatchDelayMS = 2000

	app.applyConfig(next)

	if got := app.getConfigSnapshot(); got != next {
		t.Fatalf("config snapshot = %+v, want %+v", got, next)
	}
	if len(deps.notifier.defaults) != 1 || deps.notifier.defaults[0] != requestDefaults(next) {
		t.Fatalf("SetDefaults calls = %+v", deps.notifier.defaults)
	}
	if len(deps.notifier.historySize) != 1 || deps.notifier.historySize[0] != 25 {
		t.Fatalf("SetHistorySize calls = %v, want [25]", deps.notifier.historySize)
	}
	if len(deps.chords.starts) != 1 {
		t.Fatalf("hotkey Start calls = %d, want 1", len(deps.chords.starts))
	}
	if got := deps.chords.ActiveBindings()[actionRecall]; got != "Ctrl+Alt+R" {
		t.Fatalf("recall binding = %q, want Ctrl+Alt+R", got)
	}
	logs := logBuf.String()
	if !strings.Contains(logs, "capture batch settings take effect after restart") {
		t.Fatalf("expected restart notice for capture settings, logs:\n%s", logs)
	}
	if !strings.Contains(logs, "[config] applied") {
		t.Fatalf("expected applied log, logs:\n%s", logs)
	}
}

func TestApplyConfigUnchangedHotkeysSkipsRegistration(t *testing.T) {
	app, deps := newTestApp(t, testConfig())
	next := testConfig()
	next.GeminiModel = "gemini-2.5-pro"

	app.applyConfig(next)

	if len(deps.chords.starts) != 0 {
		t.Fatalf("hotkey Start calls = %d, want 0", len(deps.chords.starts))
	}
}

func TestConfigureHotkeys(t *testing.T) {
	t.Run("registers recall and dismiss", func(t *testing.T) {
		app, deps := newTestApp(t, testConfig())
		app.configureHotkeys(app.getConfigSnapshot())

		if len(deps.chords.starts) != 1 {
			t.Fatalf("Start calls = %d, want 1", len(deps.chords.starts))
		}
		actions := deps.chords.starts[0]
		if len(actions) != 2 || actions[0].Name != actionRecall || actions[1].Name != actionDismiss {
			t.Fatalf("actions = %+v", actions)
		}
		actions[0].OnTrigger()
		actions[1].OnTrigger()
		if deps.notifier.recalls != 1 || deps.notifier.dismisses != 1 {
			t.Fatalf("recalls = %d dismisses = %d, want 1 each", deps.notifier.recalls, deps.notifier.dismisses)
		}
	})

	t.Run("both blank stops manager", func(t *testing.T) {
		cfg := testConfig()
		cfg.Hotkeys = config.HotkeysConfig{}
		app, deps := newTestApp(t, cfg)
		app.configureHotkeys(cfg)

		if len(deps.chords.starts) != 0 || deps.chords.stops != 1 {
			t.Fatalf("starts = %d stops = %d, want 0 and 1", len(deps.chords.starts), deps.chords.stops)
		}
	})

	t.Run("registration failure is logged", func(t *testing.T) {
		app, deps := newTestApp(t, testConfig())
		deps.chords.startErr = errors.New("hotkey already registered")
		logBuf := testutil.CaptureLogBuffer(t, slog.LevelWarn)

		app.configureHotkeys(app.getConfigSnapshot())

		if !strings.Contains(logBuf.String(), "hotkey already registered") {
			t.Fatalf("expected registration failure in logs:\n%s", logBuf.String())
		}
	})
}
