//go:build windows

package hotkeys

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")
	kernelDLL = windows.NewLazySystemDLL("kernel32.dll")

	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
)

const (
	wmQuit     = 0x0012
	pmNoRemove = 0x0000
	pmRemove   = 0x0001
)

// threadMsg has the binary layout of the Win32 MSG struct.
type threadMsg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
	private uint32
}

func (m *threadMsg) ptr() uintptr { return uintptr(unsafe.Pointer(m)) }

// ensureMsgQueue makes Windows create the calling thread's message queue,
// so PostThreadMessageW aimed at it cannot fail before the first wait.
func ensureMsgQueue() {
	var m threadMsg
	procPeekMessageW.Call(m.ptr(), 0, 0, 0, pmNoRemove)
}

// waitMsg blocks in GetMessageW. It returns 0 on WM_QUIT and -1 on failure.
func waitMsg(m *threadMsg) (int32, error) {
	ret, _, err := procGetMessageW.Call(m.ptr(), 0, 0, 0)
	return int32(ret), err
}

// pollMsg removes one queued message without blocking.
func pollMsg(m *threadMsg) bool {
	ret, _, _ := procPeekMessageW.Call(m.ptr(), 0, 0, 0, pmRemove)
	return ret != 0
}

func dispatchMsg(m *threadMsg) {
	procTranslateMessage.Call(m.ptr())
	procDispatchMessageW.Call(m.ptr())
}
