//go:build !windows

package hotkeys

import "log/slog"

type inertChordLoop struct{}

func (inertChordLoop) stop() error { return nil }

// platformChordLoop accepts the chords without registering them; global
// chords exist only on Windows.
func platformChordLoop(chords []chord) (chordLoop, error) {
	names := make([]string, 0, len(chords))
	for _, c := range chords {
		names = append(names, c.action.name+"="+c.action.binding.Normalized())
	}
	slog.Warn("[hotkey] global hotkeys are not supported on this platform; bindings validated but will never fire",
		"bindings", names)
	return inertChordLoop{}, nil
}
