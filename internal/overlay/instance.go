package overlay

import (
	"errors"
	"log/slog"
	"time"
)

// phase is the lifecycle state of one overlay.
type phase int

const (
	phaseCreated phase = iota
	phaseFadingIn
	phaseVisible
	phaseFadingOut
	phaseDestroyed
)

func (p phase) String() string {
	switch p {
	case phaseCreated:
		return "created"
	case phaseFadingIn:
		return "fading-in"
	case phaseVisible:
		return "visible"
	case phaseFadingOut:
		return "fading-out"
	case phaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

const (
	targetOpacity     = 0.90
	fadeInStep        = 0.10
	fadeOutStep       = 0.15
	fadeInterval      = 20 * time.Millisecond
	countdownInterval = 16 * time.Millisecond

	opacityEpsilon = 1e-6
)

// instance is the live state of one rendered overlay. UI thread only.
type instance struct {
	handle   Handle
	req      Request
	window   Window
	recalled bool

	phase   phase
	opacity float64

	shownAt         time.Time
	dismissAt       time.Time
	nextFadeAt      time.Time
	nextCountdownAt time.Time
	countdownDone   bool

	endReason   ArchiveReason
	archived    bool
	errorLogged bool
}

func newInstance(handle Handle, req Request, window Window, recalled bool) *instance {
	return &instance{
		handle:   handle,
		req:      req,
		window:   window,
		recalled: recalled,
		phase:    phaseCreated,
	}
}

// prepare sets the initial opacity and schedules every timer from now.
// The auto-dismiss deadline is fixed here and never moves.
func (in *instance) prepare(now time.Time) {
	in.shownAt = now
	in.dismissAt = now.Add(in.req.Duration)
	in.nextCountdownAt = now
	if in.req.FadeIn {
		in.phase = phaseFadingIn
		in.opacity = 0
		in.nextFadeAt = now
	} else {
		in.phase = phaseVisible
		in.opacity = targetOpacity
	}
	in.applyOpacity()
}

// advance runs every timer that is due at now, in order. Timers that fell
// behind catch up step by step so the animation is independent of tick rate.
func (in *instance) advance(now time.Time) {
	if in.phase == phaseDestroyed || in.phase == phaseCreated {
		return
	}

	if in.counting() && !now.Before(in.dismissAt) {
		in.beginFadeOut(in.dismissAt, ArchiveExpired)
	}

	for in.phase == phaseFadingIn && !now.Before(in.nextFadeAt) {
		in.opacity = min(in.opacity+fadeInStep, targetOpacity)
		if targetOpacity-in.opacity < opacityEpsilon {
			in.opacity = targetOpacity
			in.phase = phaseVisible
		}
		in.applyOpacity()
		in.nextFadeAt = in.nextFadeAt.Add(fadeInterval)
	}

	if in.counting() && !in.countdownDone && !now.Before(in.nextCountdownAt) {
		in.updateCountdown(now)
	}

	for in.phase == phaseFadingOut && !now.Before(in.nextFadeAt) {
		in.opacity -= fadeOutStep
		if in.opacity <= opacityEpsilon {
			in.opacity = 0
			in.destroy()
			return
		}
		in.applyOpacity()
		in.nextFadeAt = in.nextFadeAt.Add(fadeInterval)
	}
}

func (in *instance) counting() bool {
	return in.phase == phaseFadingIn || in.phase == phaseVisible
}

// beginFadeOut starts the fade from the current opacity. It reports false
// when the overlay is already fading out or gone, so a repeated close never
// restarts the sequence.
func (in *instance) beginFadeOut(at time.Time, reason ArchiveReason) bool {
	if in.phase == phaseFadingOut || in.phase == phaseDestroyed {
		return false
	}
	in.phase = phaseFadingOut
	in.endReason = reason
	in.nextFadeAt = at.Add(fadeInterval)
	return true
}

func (in *instance) updateCountdown(now time.Time) {
	elapsed := now.Sub(in.shownAt)
	ratio := max(0, 1-float64(elapsed)/float64(in.req.Duration))
	if err := in.window.SetCountdown(ratio); err != nil {
		in.windowError("set countdown", err)
	}
	if ratio == 0 {
		in.countdownDone = true
		return
	}
	in.nextCountdownAt = now.Add(countdownInterval)
}

func (in *instance) applyOpacity() {
	if err := in.window.SetOpacity(in.opacity); err != nil {
		in.windowError("set opacity", err)
	}
}

// destroy releases the native window. Safe to call more than once.
func (in *instance) destroy() {
	if in.phase == phaseDestroyed {
		return
	}
	in.phase = phaseDestroyed
	if err := in.window.Destroy(); err != nil && !errors.Is(err, ErrWindowGone) {
		slog.Warn("[overlay] destroy window failed", "handle", in.handle, "error", &OverlayRenderError{Op: "destroy", Err: err})
	}
}

// windowError handles a failed per-frame call. A window destroyed by
// another path ends the instance quietly; other failures are logged once.
func (in *instance) windowError(op string, err error) {
	if errors.Is(err, ErrWindowGone) {
		in.phase = phaseDestroyed
		return
	}
	if in.errorLogged {
		return
	}
	in.errorLogged = true
	slog.Warn("[overlay] window update failed", "handle", in.handle, "error", &OverlayRenderError{Op: op, Err: err})
}

func (in *instance) historyEntry(reason ArchiveReason, at time.Time) HistoryEntry {
	return HistoryEntry{
		Handle:     in.handle,
		Title:      in.req.Title,
		Message:    in.req.Message,
		Severity:   in.req.Severity,
		ShownAt:    in.shownAt,
		ArchivedAt: at,
		Reason:     reason,
		request:    in.req,
	}
}
