package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"snapcap/internal/ipc"
	"snapcap/internal/overlay"
	"snapcap/internal/vision"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	historyPreviewRunes = 80
	statusRecentEntries = 5
	controlQueryTimeout = 5 * time.Second
)

// Execute serves one control-pipe request. It implements ipc.CommandExecutor.
func (a *App) Execute(req ipc.Request) ipc.Response {
	slog.Debug("[DEBUG-IPC] control request", "command", req.Command, "args", req.Args)
	switch req.Command {
	case ipc.CommandPing:
		return ipc.Response{Stdout: "pong\n"}
	case ipc.CommandStatus:
		return ipc.Response{Stdout: a.statusText()}
	case ipc.CommandRecall:
		a.notifier.RecallLast()
		return ipc.Response{Stdout: "ok\n"}
	case ipc.CommandDismiss:
		a.notifier.DismissCurrent()
		return ipc.Response{Stdout: "ok\n"}
	case ipc.CommandHistory:
		return a.historyResponse(req.Args)
	case ipc.CommandNotify:
		return a.notifyResponse(req.Args)
	case ipc.CommandStop:
		slog.Info("[ipc] stop requested over control pipe")
		a.requestStop()
		return ipc.Response{Stdout: "stopping\n"}
	default:
		return ipc.ErrorResponse(fmt.Sprintf("unknown command %q", req.Command))
	}
}

func (a *App) statusText() string {
	cfg := a.getConfigSnapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "uptime:        %s\n", time.Since(a.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "capture mode:  %s\n", a.currentCaptureMode())
	if a.batcher != nil {
		fmt.Fprintf(&b, "pending:       %d/%d\n", a.batcher.Pending(), cfg.Capture.MaxBatchSize)
	}
	fmt.Fprintf(&b, "processing:    %t\n", a.processing.Load())
	fmt.Fprintf(&b, "model:         %s\n", cfg.GeminiModel)
	fmt.Fprintf(&b, "prompt preset: %s\n", cfg.PromptPreset)
	fmt.Fprintf(&b, "api key:       %s\n", presence(cfg.APIKey() != ""))
	fmt.Fprintf(&b, "captures:      %d\n", a.captures.Load())
	fmt.Fprintf(&b, "analyses:      %d ok, %d failed\n", a.analyses.Load(), a.failures.Load())
	if last, _ := a.lastResult.Load().(time.Time); !last.IsZero() {
		fmt.Fprintf(&b, "last result:   %s\n", last.Format(time.DateTime))
	}
	if _, live := a.notifier.Current(); live {
		b.WriteString("overlay:       showing\n")
	}
	fmt.Fprintf(&b, "overlay hist:  %d\n", len(a.notifier.History()))
	if a.hotkeys != nil {
		bindings := a.hotkeys.ActiveBindings()
		for _, name := range slices.Sorted(maps.Keys(bindings)) {
			fmt.Fprintf(&b, "hotkey %-8s %s\n", name+":", bindings[name])
		}
	}
	fmt.Fprintf(&b, "config:        %s\n", a.configPath)

	entries := a.recent.Snapshot()
	if len(entries) > statusRecentEntries {
		entries = entries[len(entries)-statusRecentEntries:]
	}
	if len(entries) > 0 {
		b.WriteString("recent warnings:\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "  %s %-5s %s", e.Time.Format(time.TimeOnly), e.Level, e.Message)
			if e.Detail != "" {
				fmt.Fprintf(&b, " (%s)", e.Detail)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}

// historyResponse lists stored analyses, newest first. Without a history
// database it falls back to the in-memory overlay history.
func (a *App) historyResponse(args []string) ipc.Response {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return ipc.ErrorResponse(fmt.Sprintf("history: invalid count %q", args[0]))
		}
		limit = min(n, maxHistoryLimit)
	}

	if a.history == nil {
		return ipc.Response{Stdout: formatOverlayHistory(a.notifier.History(), limit)}
	}
	ctx, cancel := context.WithTimeout(context.Background(), controlQueryTimeout)
	defer cancel()
	records, err := a.history.Recent(ctx, limit)
	if err != nil {
		return ipc.ErrorResponse("history: " + err.Error())
	}
	if len(records) == 0 {
		return ipc.Response{Stdout: "no analyses yet\n"}
	}
	var b strings.Builder
	for _, rec := range records {
		status := "ok"
		text := rec.Result
		if rec.Failed() {
			status = "error"
			text = rec.Error
		}
		fmt.Fprintf(&b, "%s  %-5s  %s  %d image(s)  %s\n",
			rec.CreatedAt.Format(time.DateTime), status, rec.Model, rec.ImageCount, oneLine(text))
	}
	return ipc.Response{Stdout: b.String()}
}

func formatOverlayHistory(entries []overlay.HistoryEntry, limit int) string {
	if len(entries) == 0 {
		return "no analyses yet\n"
	}
	var b strings.Builder
	for i := len(entries) - 1; i >= 0 && len(entries)-i <= limit; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "%s  %-7s  %s  %s\n",
			e.ArchivedAt.Format(time.DateTime), e.Severity, e.Title, oneLine(e.Message))
	}
	return b.String()
}

func oneLine(text string) string {
	return vision.Preview(strings.Join(strings.Fields(text), " "), historyPreviewRunes)
}

// notifyResponse shows an info overlay. A second snapcap instance uses it to
// tell the user this one is already running.
func (a *App) notifyResponse(args []string) ipc.Response {
	title := "snapcap"
	message := ""
	if len(args) > 0 {
		title = args[0]
	}
	if len(args) > 1 {
		message = strings.Join(args[1:], " ")
	}
	a.notify(overlay.SeverityInfo, title, message)
	return ipc.Response{Stdout: "ok\n"}
}
