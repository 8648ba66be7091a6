package hotkeys

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// keyTransition is the direction of a key event after message decoding.
type keyTransition int

const (
	transitionDown keyTransition = iota
	transitionUp
)

// filterDecision tells the hook whether to forward an event down the chain.
type filterDecision int

const (
	decisionPass filterDecision = iota
	decisionSwallow
)

func (d filterDecision) String() string {
	if d == decisionSwallow {
		return "swallow"
	}
	return "pass"
}

// Win32 keyboard message identifiers delivered as wParam to a WH_KEYBOARD_LL proc.
const (
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
)

// transitionFromMessage maps a low-level keyboard message to a transition.
// ok is false for messages the filter does not inspect.
func transitionFromMessage(msg uintptr) (transition keyTransition, ok bool) {
	switch msg {
	case wmKeyDown, wmSysKeyDown:
		return transitionDown, true
	case wmKeyUp, wmSysKeyUp:
		return transitionUp, true
	default:
		return 0, false
	}
}

// keyFilter collapses OS auto-repeat of one target key into a single press.
// A leading edge fires, a trailing edge re-arms. Every event of the target
// key is swallowed; every other key passes.
//
// The hook thread is the only writer during normal operation. down is atomic
// so that reset from Start/Stop does not race with an in-flight event.
type keyFilter struct {
	target VKey
	fire   func()
	down   atomic.Bool
}

func newKeyFilter(target VKey, fire func()) *keyFilter {
	return &keyFilter{target: target, fire: fire}
}

// handle decides the fate of one event. A panic anywhere in the decision is
// recovered and the event passes, so keyboard input is never lost.
func (f *keyFilter) handle(nCode int32, vk VKey, transition keyTransition) (decision filterDecision) {
	if nCode < 0 {
		return decisionPass
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("[DEBUG-PANIC] keyboard filter recovered from panic",
				"panic", fmt.Sprintf("%v", recovered),
				"vk", uint32(vk),
				"stack", string(debug.Stack()))
			decision = decisionPass
		}
	}()

	if vk != f.target {
		return decisionPass
	}

	switch transition {
	case transitionDown:
		if f.down.CompareAndSwap(false, true) {
			if f.fire != nil {
				f.fire()
			}
		}
	case transitionUp:
		f.down.Store(false)
	}
	return decisionSwallow
}

func (f *keyFilter) reset() {
	f.down.Store(false)
}

// dispatchPress runs onPress on a new goroutine behind a panic boundary.
// The caller never waits for it.
func dispatchPress(source string, onPress func()) {
	if onPress == nil {
		return
	}
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				err := &HookCallbackError{Panic: recovered}
				slog.Error("[DEBUG-PANIC] press callback recovered from panic",
					"source", source,
					"error", err,
					"stack", string(debug.Stack()))
			}
		}()
		onPress()
	}()
}
