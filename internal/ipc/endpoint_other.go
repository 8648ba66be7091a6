//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const socketSuffix = ".sock"

// userEndpoint is a Unix socket in the temp dir; sockets stand in for Named
// Pipes off Windows.
func userEndpoint(user string) string {
	return filepath.Join(os.TempDir(), "snapcap-"+user+socketSuffix)
}

// validEndpoint accepts absolute .sock paths.
func validEndpoint(path string) bool {
	return filepath.IsAbs(path) && strings.HasSuffix(path, socketSuffix)
}

// listenEndpoint binds a Unix socket readable only by the current user. A
// stale socket file left by a crashed instance is removed first when nothing
// answers on it.
func listenEndpoint(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		conn, dialErr := net.DialTimeout("unix", path, 200*time.Millisecond)
		if dialErr == nil {
			_ = conn.Close()
			return nil, fmt.Errorf("socket %s is in use", path)
		}
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket: %w", removeErr)
		}
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return listener, nil
}

func dialEndpoint(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}
