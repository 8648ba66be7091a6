//go:build !windows

package overlay

// NewPlatformBackend returns the headless backend on non-Windows hosts.
func NewPlatformBackend() Backend { return NewHeadlessBackend() }
