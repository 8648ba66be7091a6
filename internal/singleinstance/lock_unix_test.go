//go:build unix

package singleinstance

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func testLockName(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "snapcap-test.lock")
}

func TestTryLockRecordsPID(t *testing.T) {
	name := testLockName(t)
	lock, err := TryLock(name)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	t.Cleanup(func() { _ = lock.Release() })

	raw, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != strconv.Itoa(os.Getpid()) {
		t.Fatalf("lock file = %q, want pid %d", got, os.Getpid())
	}
}
