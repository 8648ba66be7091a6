//go:build windows

package ipc

import (
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"
)

const pipePrefix = `\\.\pipe\snapcap-`

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\snapcap-[a-z0-9._-]{1,128}$`)

func userEndpoint(user string) string { return pipePrefix + user }

// validEndpoint accepts only snapcap-prefixed local pipe names.
func validEndpoint(name string) bool { return pipeNamePattern.MatchString(name) }

// listenEndpoint opens a byte-mode pipe that only SYSTEM and the current
// user may open.
func listenEndpoint(name string) (net.Listener, error) {
	sddl, err := ownerOnlySDDL()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(name, &winio.PipeConfig{
		SecurityDescriptor: sddl,
		InputBufferSize:    maxFrameBytes,
		OutputBufferSize:   maxFrameBytes,
	})
}

func dialEndpoint(name string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(name, &timeout)
}

// ownerOnlySDDL builds a protected DACL granting GENERIC_ALL to SYSTEM and
// the SID of the process token owner.
func ownerOnlySDDL() (string, error) {
	tokenUser, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("read process token user: %w", err)
	}
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", tokenUser.User.Sid.String()), nil
}
