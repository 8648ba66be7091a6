// Package userutil derives per-user object names for the control endpoint
// and the single-instance lock.
package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

const unknownUser = "unknown"

var unsafeNameRun = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Swapped in tests.
var (
	lookupEnv   = os.Getenv
	currentUser = user.Current
)

// Sanitize collapses every run of characters outside [A-Za-z0-9._-] into a
// single underscore. Blank input yields "unknown".
func Sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return unknownUser
	}
	return unsafeNameRun.ReplaceAllString(value, "_")
}

// Name returns the sanitized login name of the current user. USERNAME wins
// over USER; the OS account lookup is the last resort.
func Name() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if v := strings.TrimSpace(lookupEnv(key)); v != "" {
			return Sanitize(v)
		}
	}
	if u, err := currentUser(); err == nil {
		return Sanitize(u.Username)
	}
	return unknownUser
}

// Scoped returns prefix-<user>, e.g. "snapcap-alice".
func Scoped(prefix string) string {
	return prefix + "-" + Name()
}
