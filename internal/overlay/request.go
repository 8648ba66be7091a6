package overlay

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Severity selects the accent colour and icon glyph of an overlay.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Position is a screen placement preset resolved against the work area.
type Position string

const (
	PositionTopCenter   Position = "top-center"
	PositionCenter      Position = "center"
	PositionBottomRight Position = "bottom-right"
)

// Theme is the overlay colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	// MaxMessageRunes is the longest message body rendered verbatim.
	MaxMessageRunes = 500
	// TruncationMarker is appended to bodies cut at MaxMessageRunes.
	TruncationMarker = "..."

	MinDuration     = time.Second
	MaxDuration     = 10 * time.Second
	DefaultDuration = 3 * time.Second

	DefaultWidth = 500
	MinWidth     = 200
	// MinHeight is the floor for the content-measured window height.
	MinHeight = 150
)

// Request is one overlay to render.
type Request struct {
	Title        string
	Message      string
	Severity     Severity
	Duration     time.Duration
	Position     Position
	Theme        Theme
	ClickThrough bool
	FadeIn       bool
	Width        int
}

// DefaultRequest returns the baseline used to fill unset request fields.
func DefaultRequest() Request {
	return Request{
		Severity:     SeveritySuccess,
		Duration:     DefaultDuration,
		Position:     PositionTopCenter,
		Theme:        ThemeLight,
		ClickThrough: true,
		Width:        DefaultWidth,
	}
}

// Normalize fills zero fields from defaults and enforces the rendering
// limits. Boolean flags are taken from req as-is.
func Normalize(req Request, defaults Request) Request {
	out := req
	out.Message = TruncateMessage(req.Message, MaxMessageRunes)

	if out.Severity == "" {
		out.Severity = defaults.Severity
	}
	if out.Severity == "" {
		out.Severity = SeveritySuccess
	}

	if out.Duration <= 0 {
		out.Duration = defaults.Duration
	}
	out.Duration = ClampDuration(out.Duration)

	if out.Position == "" {
		out.Position = defaults.Position
	}
	out.Position = Position(strings.ToLower(strings.TrimSpace(string(out.Position))))

	if out.Theme == "" {
		out.Theme = defaults.Theme
	}
	out.Theme = ParseTheme(string(out.Theme))

	if out.Width <= 0 {
		out.Width = defaults.Width
	}
	if out.Width <= 0 {
		out.Width = DefaultWidth
	}
	out.Width = max(out.Width, MinWidth)
	return out
}

// ClampDuration bounds d to [MinDuration, MaxDuration]. Zero or negative
// values become DefaultDuration.
func ClampDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDuration
	}
	return min(max(d, MinDuration), MaxDuration)
}

// ParseTheme maps a config value to a Theme. "white" is accepted as an alias
// of light; anything unrecognised is light.
func ParseTheme(value string) Theme {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dark", "black":
		return ThemeDark
	default:
		return ThemeLight
	}
}

// TruncateMessage cuts msg to limit runes and appends TruncationMarker.
// Messages at or under the limit are returned unchanged.
func TruncateMessage(msg string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:limit]) + TruncationMarker
}
