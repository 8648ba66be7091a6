package hotkeys

import "fmt"

// HookInstallError reports that the low-level keyboard hook could not be
// installed. Code carries the Win32 error code when one is available.
// Callers detect it with errors.As and switch to FallbackListener.
type HookInstallError struct {
	Code   uint32
	Reason string
}

func (e *HookInstallError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("install keyboard hook: %s (code=%d)", e.Reason, e.Code)
	}
	return "install keyboard hook: " + e.Reason
}

// HookCallbackError wraps a panic recovered from the press callback.
type HookCallbackError struct {
	Panic any
}

func (e *HookCallbackError) Error() string {
	return fmt.Sprintf("keyboard hook callback panicked: %v", e.Panic)
}
