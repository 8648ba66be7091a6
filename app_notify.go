package main

import (
	"log/slog"

	"snapcap/internal/config"
	"snapcap/internal/hotkeys"
	"snapcap/internal/overlay"
)

const (
	actionRecall  = "recall"
	actionDismiss = "dismiss"
)

// requestDefaults maps the notification settings onto an overlay request
// template.
func requestDefaults(cfg config.Config) overlay.Request {
	n := cfg.Notification
	return overlay.Request{
		Severity:     overlay.SeveritySuccess,
		Duration:     cfg.NotificationDuration(),
		Position:     overlay.Position(n.Position),
		Theme:        overlay.ParseTheme(n.Theme),
		ClickThrough: n.ClickThrough,
		FadeIn:       n.FadeIn,
		Width:        n.Width,
	}
}

// notify enqueues an overlay built from the current notification settings.
func (a *App) notify(severity overlay.Severity, title, message string) overlay.Handle {
	if a.notifier == nil {
		return ""
	}
	req := requestDefaults(a.getConfigSnapshot())
	req.Severity = severity
	req.Title = title
	req.Message = message
	return a.notifier.Show(req)
}

// applyConfig is the hot-reload callback. Notification and hotkey settings
// apply at once; capture, log, and storage settings need a restart.
func (a *App) applyConfig(cfg config.Config) {
	previous := a.getConfigSnapshot()
	a.setConfigSnapshot(cfg)

	if a.notifier != nil {
		a.notifier.SetDefaults(requestDefaults(cfg))
		a.notifier.SetHistorySize(cfg.Notification.HistorySize)
	}
	if previous.Hotkeys != cfg.Hotkeys {
		a.configureHotkeys(cfg)
	}
	if previous.Capture.BatchDelayMS != cfg.Capture.BatchDelayMS || previous.Capture.MaxBatchSize != cfg.Capture.MaxBatchSize {
		slog.Info("[config] capture batch settings take effect after restart",
			"batchDelayMS", cfg.Capture.BatchDelayMS, "maxBatchSize", cfg.Capture.MaxBatchSize)
	}
	if previous.Log != cfg.Log || previous.HistoryDB != cfg.HistoryDB {
		slog.Info("[config] log and history_db settings take effect after restart")
	}
	slog.Info("[config] applied",
		"model", cfg.GeminiModel,
		"preset", cfg.PromptPreset,
		"theme", cfg.Notification.Theme,
		"position", cfg.Notification.Position,
	)
}

// configureHotkeys registers the recall and dismiss chords. Blank chords
// disable their action; both blank stops the manager.
func (a *App) configureHotkeys(cfg config.Config) {
	if a.hotkeys == nil || a.notifier == nil {
		return
	}
	if cfg.Hotkeys.Recall == "" && cfg.Hotkeys.Dismiss == "" {
		if err := a.hotkeys.Stop(); err != nil {
			slog.Warn("[hotkey] stop failed", "error", err)
		}
		slog.Debug("[DEBUG-hotkey] no recall/dismiss hotkeys configured, skipping")
		return
	}
	actions := []hotkeys.Action{
		{Name: actionRecall, Spec: cfg.Hotkeys.Recall, OnTrigger: a.notifier.RecallLast},
		{Name: actionDismiss, Spec: cfg.Hotkeys.Dismiss, OnTrigger: a.notifier.DismissCurrent},
	}
	if err := a.hotkeys.Start(actions); err != nil {
		slog.Warn("[hotkey] recall/dismiss registration failed", "error", err)
		return
	}
	slog.Info("[hotkey] registered", "bindings", a.hotkeys.ActiveBindings())
}
