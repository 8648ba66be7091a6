//go:build windows || unix

package singleinstance

import (
	"errors"
	"strings"
	"testing"
)

func TestTryLockExclusive(t *testing.T) {
	name := testLockName(t)

	first, err := TryLock(name)
	if err != nil {
		t.Fatalf("first TryLock() error = %v", err)
	}

	second, err := TryLock(name)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second TryLock() error = %v, want ErrAlreadyRunning", err)
	}
	if second != nil {
		t.Fatal("second TryLock() returned a lock alongside ErrAlreadyRunning")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	again, err := TryLock(name)
	if err != nil {
		t.Fatalf("TryLock() after release error = %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	lock, err := TryLock(testLockName(t))
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	for i := range 2 {
		if err := lock.Release(); err != nil {
			t.Fatalf("Release() #%d error = %v", i+1, err)
		}
	}

	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Fatalf("nil Release() error = %v", err)
	}
}

func TestTryLockEmptyName(t *testing.T) {
	lock, err := TryLock("")
	if err == nil {
		_ = lock.Release()
		t.Fatal("TryLock(\"\") expected an error")
	}
}

func TestDefaultLockNameIsPerUser(t *testing.T) {
	t.Setenv("USERNAME", "lock tester")
	name := DefaultLockName()
	if !strings.Contains(name, "snapcap-lock_tester") {
		t.Fatalf("DefaultLockName() = %q, want it to contain snapcap-lock_tester", name)
	}
}
