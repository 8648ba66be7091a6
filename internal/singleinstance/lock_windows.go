//go:build windows

package singleinstance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Lock owns a named kernel mutex. Windows releases it when the process
// exits, so a crash never leaves a stale lock.
type Lock struct {
	name   string
	handle windows.Handle
}

func platformLockName(scoped string) string {
	return `Global\` + scoped
}

// TryLock creates and owns the mutex called name.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errEmptyName
	}
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("mutex name %q: %w", name, err)
	}
	h, err := windows.CreateMutex(nil, true, name16)
	if err != nil {
		if h != 0 {
			_ = windows.CloseHandle(h)
		}
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("CreateMutex %q: %w", name, err)
	}
	return &Lock{name: name, handle: h}, nil
}

// Release closes the mutex handle. Nil-safe and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	h := l.handle
	l.handle = 0
	if err := windows.CloseHandle(h); err != nil {
		return fmt.Errorf("release %q: %w", l.name, err)
	}
	return nil
}
