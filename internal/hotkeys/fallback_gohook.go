//go:build windows

package hotkeys

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// gohookSource adapts github.com/robotn/gohook. On Windows, Rawcode carries
// the virtual-key code.
type gohookSource struct {
	mu      sync.Mutex
	running bool
}

func platformEventSource() eventSource { return &gohookSource{} }

func (s *gohookSource) start() (<-chan keyEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := hook.Start()
	s.running = true

	out := make(chan keyEvent, 16)
	go func() {
		defer close(out)
		for ev := range raw {
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold:
				out <- keyEvent{vk: VKey(ev.Rawcode), transition: transitionDown}
			case hook.KeyUp:
				out <- keyEvent{vk: VKey(ev.Rawcode), transition: transitionUp}
			}
		}
	}()
	return out, nil
}

func (s *gohookSource) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	hook.End()
}
