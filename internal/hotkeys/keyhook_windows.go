//go:build windows

package hotkeys

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const whKeyboardLL = 13

var (
	procSetWindowsHookExW   = user32DLL.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32DLL.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32DLL.NewProc("UnhookWindowsHookEx")
	procGetModuleHandleW    = kernelDLL.NewProc("GetModuleHandleW")
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

var (
	// activeKeyHook is read by the trampoline on every keyboard event.
	activeKeyHook hookSlot

	// lowLevelKeyboardCallback is created once per process. Callbacks made
	// by windows.NewCallback are never freed, so it stays valid for every hook
	// installed during the process lifetime.
	lowLevelKeyboardCallback = windows.NewCallback(lowLevelKeyboardProc)
)

func lowLevelKeyboardProc(nCode uintptr, wParam uintptr, lParam uintptr) uintptr {
	code := int32(nCode)
	if h := activeKeyHook.load(); h != nil && code >= 0 && lParam != 0 {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if h.hookEvent(code, wParam, kb.vkCode) == decisionSwallow {
			return 1
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

type win32HookAPI struct{}

func platformHookAPI() hookAPI { return win32HookAPI{} }

func (win32HookAPI) install(target *KeyHook) (hookHandle, error) {
	if err := user32DLL.Load(); err != nil {
		return 0, &HookInstallError{Reason: "user32.dll is unavailable: " + err.Error()}
	}
	if err := activeKeyHook.acquire(target); err != nil {
		return 0, err
	}

	module, _, _ := procGetModuleHandleW.Call(0)
	handle, _, callErr := procSetWindowsHookExW.Call(
		whKeyboardLL,
		lowLevelKeyboardCallback,
		module,
		0,
	)
	if handle == 0 {
		activeKeyHook.release(target)
		installErr := &HookInstallError{Reason: "SetWindowsHookExW returned NULL"}
		var errno syscall.Errno
		if errors.As(callErr, &errno) {
			installErr.Code = uint32(errno)
		}
		return 0, installErr
	}

	// Force creation of the thread message queue before the loop starts polling.
	ensureMsgQueue()
	return hookHandle(handle), nil
}

func (win32HookAPI) uninstall(target *KeyHook, handle hookHandle) error {
	if handle == 0 {
		return nil
	}
	defer activeKeyHook.release(target)
	res, _, err := procUnhookWindowsHookEx.Call(uintptr(handle))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("UnhookWindowsHookEx failed")
	}
	return err
}

func (win32HookAPI) pump() bool {
	var msg threadMsg
	if !pollMsg(&msg) {
		return false
	}
	dispatchMsg(&msg)
	return true
}
