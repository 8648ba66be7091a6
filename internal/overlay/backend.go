package overlay

import (
	"errors"
	"fmt"
)

// ErrWindowGone is returned by Window methods after the native window is
// destroyed. The notifier treats it as a benign timing race.
var ErrWindowGone = errors.New("overlay window already destroyed")

// Content is everything a backend needs to paint one overlay.
type Content struct {
	Title     string
	Message   string
	Timestamp string
	Icon      string
	Severity  Severity
	Palette   Palette
}

// Backend creates native overlay windows. All methods are called from the
// UI thread only.
type Backend interface {
	// WorkArea returns the primary monitor area excluding the taskbar.
	WorkArea() (Rect, error)
	// MeasureHeight returns the content-driven height for a window of width.
	MeasureHeight(c Content, width int) int
	// CreateWindow creates a hidden, undecorated window at bounds.
	CreateWindow(c Content, bounds Rect) (Window, error)
	// PumpMessages dispatches pending native messages without blocking.
	PumpMessages()
}

// Window is one native overlay window.
type Window interface {
	// Show makes the window visible without activating it.
	Show() error
	SetOpacity(alpha float64) error
	// SetCountdown sets the countdown bar to ratio of the full width.
	SetCountdown(ratio float64) error
	Destroy() error
}

// Stealth is the window-style capability applied before an overlay is shown.
type Stealth interface {
	// SetNonActivating adds WS_EX_NOACTIVATE.
	SetNonActivating() error
	// HideFromSwitcher adds WS_EX_TOOLWINDOW.
	HideFromSwitcher() error
	// SetLayered adds WS_EX_LAYERED.
	SetLayered() error
	// SetClickThrough toggles WS_EX_TRANSPARENT.
	SetClickThrough(enabled bool) error
	// SetTopmostNoActivate re-asserts HWND_TOPMOST with SWP_NOACTIVATE.
	SetTopmostNoActivate() error
}

// OverlayRenderError reports a failed native operation. The overlay is still
// shown, possibly without its stealth guarantees.
type OverlayRenderError struct {
	Op  string
	Err error
}

func (e *OverlayRenderError) Error() string {
	return fmt.Sprintf("overlay %s: %v", e.Op, e.Err)
}

func (e *OverlayRenderError) Unwrap() error { return e.Err }

// applyStealth applies every stealth style. Failures are collected so that a
// single refused style does not skip the others.
func applyStealth(s Stealth, clickThrough bool) error {
	steps := []struct {
		op string
		fn func() error
	}{
		{"set non-activating", s.SetNonActivating},
		{"hide from switcher", s.HideFromSwitcher},
		{"set layered", s.SetLayered},
		{"set click-through", func() error { return s.SetClickThrough(clickThrough) }},
		{"set topmost", s.SetTopmostNoActivate},
	}
	var errs []error
	for _, step := range steps {
		if err := step.fn(); err != nil {
			errs = append(errs, &OverlayRenderError{Op: step.op, Err: err})
		}
	}
	return errors.Join(errs...)
}
