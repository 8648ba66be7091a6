// Package notice shows native desktop toasts for conditions the user should
// learn about once, such as running without key suppression.
package notice

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

// AppName prefixes every toast title.
const AppName = "snapcap"

// Toaster shows each keyed notice at most once per process.
type Toaster struct {
	notify func(title, message, icon string) error

	mu    sync.Mutex
	shown map[string]struct{}
}

// NewToaster returns a toaster backed by beeep.
func NewToaster() *Toaster {
	return newToasterWithNotify(func(title, message, icon string) error {
		return beeep.Notify(title, message, icon)
	})
}

func newToasterWithNotify(notify func(title, message, icon string) error) *Toaster {
	return &Toaster{notify: notify, shown: make(map[string]struct{})}
}

// Once shows the toast unless key was already shown. It reports whether a
// toast was attempted. Delivery failures are logged, never returned.
func (t *Toaster) Once(key, title, message string) bool {
	t.mu.Lock()
	if _, done := t.shown[key]; done {
		t.mu.Unlock()
		return false
	}
	t.shown[key] = struct{}{}
	t.mu.Unlock()

	t.Show(title, message)
	return true
}

// Show displays a toast unconditionally.
func (t *Toaster) Show(title, message string) {
	if err := t.notify(AppName+" - "+title, message, ""); err != nil {
		slog.Warn("[notice] desktop notification failed", "title", title, "error", err)
	}
}
