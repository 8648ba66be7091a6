package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// intBounds is the accepted range of a numeric setting. Zero in the file
// means "use the default".
type intBounds struct {
	lo, hi int
}

var (
	durationBounds   = intBounds{1, 10}
	historyBounds    = intBounds{1, 100}
	widthBounds      = intBounds{200, 1600}
	batchSizeBounds  = intBounds{1, 10}
	batchDelayBounds = intBounds{500, 60_000}
)

var (
	themes    = []string{"light", "dark"}
	positions = []string{"top-center", "center", "bottom-right"}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// normalize trims, lower-cases and clamps cfg in place, replacing anything
// unusable with the matching default. Only conflicting hotkeys are an error.
func normalize(cfg *Config) error {
	def := DefaultConfig()

	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = def.GeminiModel
	}
	cfg.Prompt = strings.TrimSpace(cfg.Prompt)
	cfg.PromptPreset = pickKnown("prompt_preset", cfg.PromptPreset, PromptPresetNames(), def.PromptPreset)

	n := &cfg.Notification
	n.Theme = pickKnown("notification.theme", n.Theme, themes, def.Notification.Theme)
	n.Position = pickKnown("notification.position", n.Position, positions, def.Notification.Position)
	n.DurationSeconds = durationBounds.fit("notification.duration_seconds", n.DurationSeconds, def.Notification.DurationSeconds)
	n.HistorySize = historyBounds.fit("notification.history_size", n.HistorySize, def.Notification.HistorySize)
	n.Width = widthBounds.fit("notification.width", n.Width, def.Notification.Width)

	c := &cfg.Capture
	c.BatchDelayMS = batchDelayBounds.fit("capture.batch_delay_ms", c.BatchDelayMS, def.Capture.BatchDelayMS)
	c.MaxBatchSize = batchSizeBounds.fit("capture.max_batch_size", c.MaxBatchSize, def.Capture.MaxBatchSize)
	c.SaveDir = absDir("capture.save_dir", c.SaveDir)

	l := &cfg.Log
	l.Level = pickKnown("log.level", l.Level, logLevels, def.Log.Level)
	if l.MaxSizeMB <= 0 {
		l.MaxSizeMB = def.Log.MaxSizeMB
	}
	if l.MaxBackups < 0 {
		l.MaxBackups = def.Log.MaxBackups
	}
	if l.MaxAgeDays < 0 {
		l.MaxAgeDays = def.Log.MaxAgeDays
	}

	cfg.HistoryDB = absDir("history_db", cfg.HistoryDB)

	h := &cfg.Hotkeys
	h.Recall = strings.TrimSpace(h.Recall)
	h.Dismiss = strings.TrimSpace(h.Dismiss)
	if h.Recall != "" && strings.EqualFold(h.Recall, h.Dismiss) {
		return fmt.Errorf("hotkeys.recall and hotkeys.dismiss must differ: both are %q", h.Recall)
	}
	return nil
}

func pickKnown(field, value string, known []string, fallback string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if slices.Contains(known, v) {
		return v
	}
	if v != "" {
		slog.Warn("[WARN-CONFIG] unknown value, using default", "field", field, "value", value, "default", fallback)
	}
	return fallback
}

func (b intBounds) fit(field string, value, fallback int) int {
	if value == 0 {
		return fallback
	}
	fitted := min(max(value, b.lo), b.hi)
	if fitted != value {
		slog.Warn("[WARN-CONFIG] value out of range, clamped", "field", field, "value", value, "clamped", fitted)
	}
	return fitted
}
