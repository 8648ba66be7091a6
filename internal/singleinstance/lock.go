// Package singleinstance keeps a second snapcap from installing a competing
// PrintScreen hook for the same user.
package singleinstance

import (
	"errors"

	"snapcap/internal/userutil"
)

// ErrAlreadyRunning is returned by TryLock when another process holds the
// lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

var errEmptyName = errors.New("lock name is required")

const lockPrefix = "snapcap"

// DefaultLockName returns the per-user lock identifier for this platform.
func DefaultLockName() string {
	return platformLockName(userutil.Scoped(lockPrefix))
}
