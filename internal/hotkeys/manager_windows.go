//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

const (
	wmHotkey           = 0x0312
	chordLoopStopLimit = 2 * time.Second
)

var (
	procRegisterHotKey   = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32DLL.NewProc("UnregisterHotKey")
)

// win32ChordLoop is a thread that owns the registrations and receives
// WM_HOTKEY for them.
type win32ChordLoop struct {
	threadID uint32
	done     chan struct{}
}

type chordLoopReady struct {
	threadID uint32
	err      error
}

func platformChordLoop(chords []chord) (chordLoop, error) {
	if err := user32DLL.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	ready := make(chan chordLoopReady, 1)
	done := make(chan struct{})
	go runChordLoop(chords, ready, done)

	r := <-ready
	if r.err != nil {
		return nil, r.err
	}
	return &win32ChordLoop{threadID: r.threadID, done: done}, nil
}

func (l *win32ChordLoop) stop() error {
	err := postQuit(l.threadID)
	timer := time.NewTimer(chordLoopStopLimit)
	defer timer.Stop()
	select {
	case <-l.done:
		return err
	case <-timer.C:
		slog.Warn("[hotkey] chord loop did not exit in time; its thread may leak", "threadID", l.threadID)
		return errors.Join(err, fmt.Errorf("hotkey loop stop timed out (threadID=%d)", l.threadID))
	}
}

// runChordLoop registers on its own locked thread because WM_HOTKEY is
// posted to the registering thread's queue.
func runChordLoop(chords []chord, ready chan<- chordLoopReady, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	threadID := windows.GetCurrentThreadId()
	ensureMsgQueue()

	byID := make(map[int32]parsedAction, len(chords))
	unregisterAll := func() {
		for id := range byID {
			if err := unregisterHotKey(id); err != nil {
				slog.Warn("[hotkey] UnregisterHotKey failed", "hotkeyID", id, "error", err)
			}
		}
	}
	for _, c := range chords {
		b := c.action.binding
		if err := registerHotKey(c.id, uint32(b.Modifiers()|modNoRepeat), uint32(b.Key())); err != nil {
			unregisterAll()
			ready <- chordLoopReady{err: fmt.Errorf("register %s for %q: %w", b.Normalized(), c.action.name, err)}
			return
		}
		byID[c.id] = c.action
	}
	defer unregisterAll()
	ready <- chordLoopReady{threadID: threadID}

	for {
		var msg threadMsg
		ret, callErr := waitMsg(&msg)
		switch ret {
		case -1:
			slog.Warn("[hotkey] GetMessageW failed, chord loop exiting", "error", callErr)
			return
		case 0:
			slog.Debug("[DEBUG-hotkey] chord loop received WM_QUIT")
			return
		}
		if msg.message == wmHotkey {
			if action, ok := byID[int32(msg.wParam)]; ok {
				dispatchPress(action.name, action.onTrigger)
				continue
			}
		}
		dispatchMsg(&msg)
	}
}

func registerHotKey(id int32, modifiers, key uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(modifiers), uintptr(key))
	return win32CallResult(res, err, "RegisterHotKey")
}

func unregisterHotKey(id int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	return win32CallResult(res, err, "UnregisterHotKey")
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("post WM_QUIT: thread id is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	return win32CallResult(res, err, "PostThreadMessageW")
}

// win32CallResult maps a BOOL-returning call to an error. Some calls fail
// without setting last-error.
func win32CallResult(res uintptr, err error, name string) error {
	if res != 0 {
		return nil
	}
	if err == nil || err == syscall.Errno(0) {
		return errors.New(name + " failed")
	}
	return fmt.Errorf("%s: %w", name, err)
}
