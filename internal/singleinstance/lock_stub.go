//go:build !windows && !unix

package singleinstance

// Lock is a no-op where neither named mutexes nor flock exist.
type Lock struct{}

func platformLockName(scoped string) string { return scoped }

// TryLock always succeeds on this platform.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errEmptyName
	}
	return &Lock{}, nil
}

// Release is a no-op.
func (l *Lock) Release() error { return nil }
