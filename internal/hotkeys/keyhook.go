package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	hookInstallTimeout = 300 * time.Millisecond
	hookStopTimeout    = 2 * time.Second
	hookPollInterval   = time.Millisecond
)

// hookHandle is the opaque OS handle of an installed hook. It never leaves
// this package.
type hookHandle uintptr

// hookAPI is the OS surface KeyHook drives from its loop thread.
// The Win32 binding lives in keyhook_windows.go; tests inject a fake.
type hookAPI interface {
	// install hooks the keyboard and routes events to target.hookEvent.
	install(target *KeyHook) (hookHandle, error)
	// uninstall releases a handle that install returned for target.
	uninstall(target *KeyHook, handle hookHandle) error
	// pump processes at most one pending thread message and reports
	// whether one was processed.
	pump() bool
}

// hookRegistration is the state of one Start..Stop bracket.
// The handle and the loop thread are acquired together and released together.
type hookRegistration struct {
	owner  *KeyHook
	handle hookHandle
	stopCh chan struct{}
	doneCh chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

func (r *hookRegistration) release(api hookAPI) error {
	r.releaseOnce.Do(func() {
		r.releaseErr = api.uninstall(r.owner, r.handle)
	})
	return r.releaseErr
}

// hookSlot publishes the KeyHook that receives trampoline events. A timed-out
// Start can leave a late install of the same KeyHook alive next to a retried
// one, so the slot counts live handles and clears only when the last one goes.
type hookSlot struct {
	owner atomic.Pointer[KeyHook]

	mu   sync.Mutex
	refs int
}

func (s *hookSlot) load() *KeyHook { return s.owner.Load() }

func (s *hookSlot) acquire(target *KeyHook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.owner.Load(); cur != nil && cur != target {
		return &HookInstallError{Reason: "another keyboard hook is already active in this process"}
	}
	s.owner.Store(target)
	s.refs++
	return nil
}

func (s *hookSlot) release(target *KeyHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner.Load() != target || s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 {
		s.owner.Store(nil)
	}
}

type installResult struct {
	reg *hookRegistration
	err error
}

// KeyHook swallows the Print Screen key system-wide and calls onPress once
// per physical press. onPress runs on its own goroutine, never on the hook
// thread.
type KeyHook struct {
	onPress func()
	api     hookAPI
	filter  *keyFilter

	installTimeout time.Duration
	stopTimeout    time.Duration
	pollInterval   time.Duration

	mu     sync.Mutex
	active *hookRegistration
}

// NewKeyHook creates a hook for VK_SNAPSHOT bound to the platform hook API.
func NewKeyHook(onPress func()) *KeyHook {
	return newKeyHookWithAPI(onPress, platformHookAPI())
}

func newKeyHookWithAPI(onPress func(), api hookAPI) *KeyHook {
	h := &KeyHook{
		onPress:        onPress,
		api:            api,
		installTimeout: hookInstallTimeout,
		stopTimeout:    hookStopTimeout,
		pollInterval:   hookPollInterval,
	}
	h.filter = newKeyFilter(VKSnapshot, func() { dispatchPress("hook", h.onPress) })
	return h
}

// hookEvent is called by the platform trampoline on the hook thread.
func (h *KeyHook) hookEvent(nCode int32, msg uintptr, vk uint32) filterDecision {
	if nCode < 0 {
		return decisionPass
	}
	transition, ok := transitionFromMessage(msg)
	if !ok {
		return decisionPass
	}
	return h.filter.handle(nCode, VKey(vk), transition)
}

// Start installs the hook on a dedicated OS thread. It returns once the
// install is confirmed, or a *HookInstallError on refusal or timeout.
// Calling Start while running is a no-op.
func (h *KeyHook) Start() error {
	if h.onPress == nil {
		return errors.New("onPress callback is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active != nil {
		if h.loopAlive(h.active) {
			return nil
		}
		// Loop died on its own; drop the stale registration before reinstalling.
		if err := h.active.release(h.api); err != nil {
			slog.Warn("[hotkey] DEBUG releasing stale hook registration failed", "error", err)
		}
		h.active = nil
	}

	h.filter.reset()

	readyCh := make(chan installResult, 1)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go h.runLoop(stopCh, doneCh, readyCh)

	timer := time.NewTimer(h.installTimeout)
	defer timer.Stop()

	select {
	case res := <-readyCh:
		if res.err != nil {
			return res.err
		}
		h.active = res.reg
		slog.Info("[hotkey] keyboard hook installed", "vk", fmt.Sprintf("0x%02X", uint32(VKSnapshot)))
		return nil
	case <-timer.C:
		// The loop tears itself down if the install lands late.
		close(stopCh)
		return &HookInstallError{Reason: fmt.Sprintf("install not confirmed within %s", h.installTimeout)}
	}
}

// Stop signals the loop, waits for it, and uninstalls the hook. If the wait
// times out the loop thread is abandoned and the leak is logged. Stop is safe
// to call at any time, including before Start.
func (h *KeyHook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg := h.active
	if reg == nil {
		return nil
	}
	h.active = nil

	close(reg.stopCh)

	timer := time.NewTimer(h.stopTimeout)
	defer timer.Stop()

	var stopErr error
	select {
	case <-reg.doneCh:
	case <-timer.C:
		slog.Warn("[hotkey] DEBUG hook loop stop timed out, goroutine/thread may leak",
			"timeout", h.stopTimeout)
		stopErr = fmt.Errorf("keyboard hook loop stop timed out after %s", h.stopTimeout)
	}

	if err := reg.release(h.api); err != nil {
		stopErr = errors.Join(stopErr, fmt.Errorf("uninstall keyboard hook: %w", err))
	}
	h.filter.reset()
	return stopErr
}

// IsRunning reports whether the hook is installed and its loop is alive.
func (h *KeyHook) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active != nil && h.loopAlive(h.active)
}

func (h *KeyHook) loopAlive(reg *hookRegistration) bool {
	select {
	case <-reg.doneCh:
		return false
	default:
		return true
	}
}

func (h *KeyHook) runLoop(stopCh <-chan struct{}, doneCh chan struct{}, readyCh chan<- installResult) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	handle, err := h.api.install(h)
	if err != nil {
		readyCh <- installResult{err: err}
		return
	}

	reg := &hookRegistration{
		owner:  h,
		handle: handle,
		stopCh: make(chan struct{}),
		doneCh: doneCh,
	}
	// Stop closes reg.stopCh; a timed-out Start closes stopCh.
	// Either one ends the loop.
	defer func() {
		if err := reg.release(h.api); err != nil {
			slog.Error("[hotkey] DEBUG uninstall on loop exit failed (resource leak)", "error", err)
		}
	}()
	readyCh <- installResult{reg: reg}

	for {
		select {
		case <-stopCh:
			return
		case <-reg.stopCh:
			return
		default:
		}
		if !h.api.pump() {
			time.Sleep(h.pollInterval)
		}
	}
}
