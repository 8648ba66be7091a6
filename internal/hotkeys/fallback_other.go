//go:build !windows

package hotkeys

import "errors"

type unsupportedEventSource struct{}

func platformEventSource() eventSource { return unsupportedEventSource{} }

func (unsupportedEventSource) start() (<-chan keyEvent, error) {
	return nil, errors.New("global key listener is only wired on Windows")
}

func (unsupportedEventSource) stop() {}
