//go:build windows

package hotkeys

import (
	"runtime"
	"testing"
	"unsafe"
)

func TestNativeStructLayouts(t *testing.T) {
	wide := unsafe.Sizeof(uintptr(0)) == 8
	tests := []struct {
		name   string
		got    uintptr
		want64 uintptr
		want32 uintptr
	}{
		{"MSG", unsafe.Sizeof(threadMsg{}), 48, 32},
		{"KBDLLHOOKSTRUCT", unsafe.Sizeof(kbdllHookStruct{}), 24, 20},
	}
	for _, tt := range tests {
		want := tt.want32
		if wide {
			want = tt.want64
		}
		if tt.got != want {
			t.Errorf("sizeof %s = %d, want %d", tt.name, tt.got, want)
		}
	}
}

func TestPollMsgOnEmptyQueue(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ensureMsgQueue()
	var m threadMsg
	for pollMsg(&m) {
		dispatchMsg(&m)
	}
	if pollMsg(&m) {
		t.Fatal("pollMsg() = true after draining the queue")
	}
}
