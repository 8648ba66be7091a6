package overlay

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"
)

// headlessWorkArea is the work area reported when no display is available.
var headlessWorkArea = Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1040}

// HeadlessBackend renders nothing. Every overlay is logged instead, so the
// pipeline keeps working on hosts without a Win32 desktop.
type HeadlessBackend struct{}

// NewHeadlessBackend returns a backend that only logs.
func NewHeadlessBackend() *HeadlessBackend { return &HeadlessBackend{} }

func (*HeadlessBackend) WorkArea() (Rect, error) { return headlessWorkArea, nil }

// MeasureHeight estimates wrapped text height with a fixed glyph size.
func (*HeadlessBackend) MeasureHeight(c Content, width int) int {
	const (
		chrome     = 4 + 15 + 24 + 10 + 13 + 10 + 15 + 2
		lineHeight = 22
		charWidth  = 9
	)
	perLine := max(1, (width-50)/charWidth)
	lines := 0
	for _, para := range strings.Split(c.Message, "\n") {
		lines += max(1, (utf8.RuneCountInString(para)+perLine-1)/perLine)
	}
	return chrome + lines*lineHeight
}

func (*HeadlessBackend) CreateWindow(c Content, bounds Rect) (Window, error) {
	slog.Info("[overlay] headless overlay",
		"title", c.Title,
		"severity", c.Severity,
		"message", c.Message,
		"bounds", bounds)
	return &headlessWindow{title: c.Title}, nil
}

func (*HeadlessBackend) PumpMessages() {}

type headlessWindow struct {
	mu        sync.Mutex
	title     string
	destroyed bool
}

func (w *headlessWindow) check() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrWindowGone
	}
	return nil
}

func (w *headlessWindow) Show() error                { return w.check() }
func (w *headlessWindow) SetOpacity(float64) error   { return w.check() }
func (w *headlessWindow) SetCountdown(float64) error { return w.check() }

func (w *headlessWindow) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrWindowGone
	}
	w.destroyed = true
	slog.Debug("[overlay] headless overlay dismissed", "title", w.title)
	return nil
}
