//go:build windows

package singleinstance

import (
	"strings"
	"testing"

	"snapcap/internal/userutil"
)

func testLockName(t *testing.T) string {
	t.Helper()
	return `Local\snapcap-test-` + userutil.Sanitize(strings.ReplaceAll(t.Name(), "/", "-"))
}
