// Package config loads, normalizes and persists snapcap's YAML settings.
package config

import (
	"os"
	"strings"
	"time"
)

// APIKeyEnv overrides gemini_api_key when set.
const APIKeyEnv = "GEMINI_API_KEY"

// Config is the on-disk snapcap configuration. It holds only value fields,
// so plain assignment copies it and == compares it.
type Config struct {
	GeminiModel  string             `yaml:"gemini_model" json:"gemini_model"`
	GeminiAPIKey string             `yaml:"gemini_api_key,omitempty" json:"-"`
	PromptPreset string             `yaml:"prompt_preset" json:"prompt_preset"`
	Prompt       string             `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Notification NotificationConfig `yaml:"notification" json:"notification"`
	Capture      CaptureConfig      `yaml:"capture" json:"capture"`
	Hotkeys      HotkeysConfig      `yaml:"hotkeys" json:"hotkeys"`
	Log          LogConfig          `yaml:"log" json:"log"`
	HistoryDB    string             `yaml:"history_db,omitempty" json:"history_db,omitempty"`
}

// NotificationConfig holds the overlay defaults applied to every result.
type NotificationConfig struct {
	Theme           string `yaml:"theme" json:"theme"`
	DurationSeconds int    `yaml:"duration_seconds" json:"duration_seconds"`
	Position        string `yaml:"position" json:"position"`
	Width           int    `yaml:"width" json:"width"`
	ClickThrough    bool   `yaml:"click_through" json:"click_through"`
	FadeIn          bool   `yaml:"fade_in" json:"fade_in"`
	HistorySize     int    `yaml:"history_size" json:"history_size"`
}

// CaptureConfig controls how PrintScreen captures are grouped.
type CaptureConfig struct {
	BatchDelayMS int    `yaml:"batch_delay_ms" json:"batch_delay_ms"`
	MaxBatchSize int    `yaml:"max_batch_size" json:"max_batch_size"`
	SaveDir      string `yaml:"save_dir,omitempty" json:"save_dir,omitempty"`
}

// HotkeysConfig holds RegisterHotKey chords. Empty disables the action.
type HotkeysConfig struct {
	Recall  string `yaml:"recall" json:"recall"`
	Dismiss string `yaml:"dismiss" json:"dismiss"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

func DefaultConfig() Config {
	return Config{
		GeminiModel:  "gemini-2.5-flash",
		PromptPreset: DefaultPromptPreset,
		Notification: NotificationConfig{
			Theme:           "dark",
			DurationSeconds: 3,
			Position:        "top-center",
			Width:           500,
			ClickThrough:    true,
			FadeIn:          true,
			HistorySize:     10,
		},
		Capture: CaptureConfig{
			BatchDelayMS: 5000,
			MaxBatchSize: 10,
		},
		Hotkeys: HotkeysConfig{
			Recall:  "Ctrl+Shift+F11",
			Dismiss: "Ctrl+Shift+F12",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Clone returns an independent copy of src.
func Clone(src Config) Config {
	return src
}

// APIKey returns the Gemini key. A non-blank GEMINI_API_KEY wins over the
// file value.
func (c Config) APIKey() string {
	if env := strings.TrimSpace(os.Getenv(APIKeyEnv)); env != "" {
		return env
	}
	return strings.TrimSpace(c.GeminiAPIKey)
}

// EffectivePrompt is the custom prompt when set, else the preset text.
func (c Config) EffectivePrompt() string {
	if custom := strings.TrimSpace(c.Prompt); custom != "" {
		return custom
	}
	if text, ok := PromptPresets[c.PromptPreset]; ok {
		return text
	}
	return PromptPresets[DefaultPromptPreset]
}

func (c Config) NotificationDuration() time.Duration {
	return time.Duration(c.Notification.DurationSeconds) * time.Second
}

func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Capture.BatchDelayMS) * time.Millisecond
}
