package main

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"snapcap/internal/applog"
	"snapcap/internal/ipc"
	"snapcap/internal/overlay"
	"snapcap/internal/store"
)

func TestExecuteSimpleCommands(t *testing.T) {
	app, deps := newTestApp(t, testConfig())

	tests := []struct {
		command    string
		wantStdout string
	}{
		{command: ipc.CommandPing, wantStdout: "pong\n"},
		{command: ipc.CommandRecall, wantStdout: "ok\n"},
		{command: ipc.CommandDismiss, wantStdout: "ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			resp := app.Execute(ipc.Request{Command: tt.command})
			if resp.ExitCode != 0 || resp.Stdout != tt.wantStdout {
				t.Fatalf("Execute(%q) = %+v, want stdout %q", tt.command, resp, tt.wantStdout)
			}
		})
	}
	if deps.notifier.recalls != 1 || deps.notifier.dismisses != 1 {
		t.Fatalf("recalls = %d dismisses = %d, want 1 each", deps.notifier.recalls, deps.notifier.dismisses)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	resp := app.Execute(ipc.Request{Command: "reboot"})
	if resp.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", resp.ExitCode)
	}
	if !strings.Contains(resp.Stderr, `unknown command "reboot"`) {
		t.Fatalf("stderr = %q", resp.Stderr)
	}
}

func TestExecuteStopCancelsApp(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.cancel = cancel

	resp := app.Execute(ipc.Request{Command: ipc.CommandStop})

	if resp.Stdout != "stopping\n" {
		t.Fatalf("stdout = %q, want stopping", resp.Stdout)
	}
	if ctx.Err() == nil {
		t.Fatal("stop should cancel the app context")
	}
}

func TestExecuteNotify(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantTitle   string
		wantMessage string
	}{
		{name: "no args", wantTitle: "snapcap"},
		{name: "title only", args: []string{"Hello"}, wantTitle: "Hello"},
		{name: "title and message", args: []string{"Hello", "from", "ctl"}, wantTitle: "Hello", wantMessage: "from ctl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApp(t, testConfig())
			resp := app.Execute(ipc.Request{Command: ipc.CommandNotify, Args: tt.args})
			if resp.ExitCode != 0 {
				t.Fatalf("exit code = %d, stderr = %q", resp.ExitCode, resp.Stderr)
			}
			reqs := deps.notifier.requests()
			if len(reqs) != 1 {
				t.Fatalf("overlays shown = %d, want 1", len(reqs))
			}
			got := reqs[0]
			if got.Severity != overlay.SeverityInfo || got.Title != tt.wantTitle || got.Message != tt.wantMessage {
				t.Fatalf("overlay = %+v, want info %q / %q", got, tt.wantTitle, tt.wantMessage)
			}
		})
	}
}

func TestExecuteHistoryInvalidCount(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	for _, arg := range []string{"abc", "0", "-3"} {
		resp := app.Execute(ipc.Request{Command: ipc.CommandHistory, Args: []string{arg}})
		if resp.ExitCode != 1 || !strings.Contains(resp.Stderr, "invalid count") {
			t.Fatalf("history %q = %+v, want invalid count error", arg, resp)
		}
	}
}

func TestExecuteHistoryFromStore(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.history = openTestStore(t)
	ctx := context.Background()

	resp := app.Execute(ipc.Request{Command: ipc.CommandHistory})
	if resp.Stdout != "no analyses yet\n" {
		t.Fatalf("empty history stdout = %q", resp.Stdout)
	}

	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	records := []store.Record{
		{CreatedAt: base, Model: "gemini-test", Result: "first\nanswer", ImageCount: 1},
		{CreatedAt: base.Add(time.Minute), Model: "gemini-test", Error: "quota exceeded", ImageCount: 2},
		{CreatedAt: base.Add(2 * time.Minute), Model: "gemini-test", Result: "third", ImageCount: 3},
	}
	for _, rec := range records {
		if _, err := app.history.Add(ctx, rec); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	resp = app.Execute(ipc.Request{Command: ipc.CommandHistory, Args: []string{"2"}})
	if resp.ExitCode != 0 {
		t.Fatalf("history exit code = %d, stderr = %q", resp.ExitCode, resp.Stderr)
	}
	lines := strings.Split(strings.TrimSpace(resp.Stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("history lines = %d, want 2:\n%s", len(lines), resp.Stdout)
	}
	if !strings.Contains(lines[0], "third") || !strings.Contains(lines[0], "3 image(s)") {
		t.Fatalf("newest line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "error") || !strings.Contains(lines[1], "quota exceeded") {
		t.Fatalf("failed line = %q", lines[1])
	}
}

func TestExecuteHistoryFallsBackToOverlayHistory(t *testing.T) {
	app, deps := newTestApp(t, testConfig())
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	deps.notifier.history = []overlay.HistoryEntry{
		{Title: "old", Message: "one", Severity: overlay.SeveritySuccess, ArchivedAt: at},
		{Title: "new", Message: "two\nlines", Severity: overlay.SeverityError, ArchivedAt: at.Add(time.Minute)},
	}

	resp := app.Execute(ipc.Request{Command: ipc.CommandHistory, Args: []string{"1"}})

	lines := strings.Split(strings.TrimSpace(resp.Stdout), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1:\n%s", len(lines), resp.Stdout)
	}
	if !strings.Contains(lines[0], "new") || !strings.Contains(lines[0], "two lines") {
		t.Fatalf("line = %q, want newest entry on one line", lines[0])
	}
}

func TestFormatOverlayHistoryEmpty(t *testing.T) {
	if got := formatOverlayHistory(nil, 5); got != "no analyses yet\n" {
		t.Fatalf("formatOverlayHistory(nil) = %q", got)
	}
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "a\n\n b\t c", want: "a b c"},
		{name: "truncates long text", in: strings.Repeat("x", 100), want: strings.Repeat("x", historyPreviewRunes) + "..."},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := oneLine(tt.in); got != tt.want {
				t.Fatalf("oneLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatusText(t *testing.T) {
	app, deps := newTestApp(t, testConfig())
	app.startedAt = time.Now()
	app.mode.Store(captureModeFallback)
	app.captures.Add(4)
	app.analyses.Add(2)
	app.failures.Add(1)
	deps.chords.bindings = map[string]string{actionRecall: "Ctrl+Shift+F11", actionDismiss: "Ctrl+Shift+F12"}
	deps.notifier.current = "h1"
	app.recent.Add(applog.Entry{Time: time.Now(), Level: slog.LevelWarn, Message: "[capture] screen grab failed", Detail: "error=boom"})

	out := app.Execute(ipc.Request{Command: ipc.CommandStatus}).Stdout

	for _, want := range []string{
		"capture mode:  fallback",
		"api key:       set",
		"captures:      4",
		"analyses:      2 ok, 1 failed",
		"overlay:       showing",
		"hotkey dismiss: Ctrl+Shift+F12",
		"hotkey recall:  Ctrl+Shift+F11",
		"[capture] screen grab failed (error=boom)",
		"config:        " + app.configPath,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "hotkey dismiss") > strings.Index(out, "hotkey recall") {
		t.Errorf("hotkey bindings should be sorted:\n%s", out)
	}
}

func TestStatusTextMissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	app, _ := newTestApp(t, cfg)
	app.startedAt = time.Now()
	out := app.statusText()
	if !strings.Contains(out, "api key:       missing") {
		t.Fatalf("status should report a missing key:\n%s", out)
	}
	if strings.Contains(out, "recent warnings") {
		t.Fatalf("status should omit an empty warnings section:\n%s", out)
	}
}
