package hotkeys

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// RegisterHotKey accepts application ids in [0x0000, 0xBFFF].
const (
	firstChordID int32 = 0x4000
	maxChordID   int32 = 0xBFFF
)

var chordIDSeq atomic.Int32

// chord is one action paired with the id it is registered under.
type chord struct {
	id     int32
	action parsedAction
}

// chordLoop is a running registration of one chord set.
type chordLoop interface {
	stop() error
}

// startChordLoopFunc registers chords and dispatches their presses until the
// returned loop is stopped. Either every chord registers or none does.
type startChordLoopFunc func(chords []chord) (chordLoop, error)

// Manager owns the RegisterHotKey chords for secondary actions such as
// recall and dismiss.
type Manager struct {
	startLoop startChordLoopFunc

	mu       sync.Mutex
	loop     chordLoop
	bindings map[string]string
}

// NewManager creates a manager bound to the platform registration loop.
func NewManager() *Manager {
	return &Manager{startLoop: platformChordLoop}
}

// Start replaces the registered set with actions. Invalid actions leave the
// previous set running.
func (m *Manager) Start(actions []Action) error {
	parsed, err := parseActions(actions)
	if err != nil {
		return err
	}
	chords := make([]chord, 0, len(parsed))
	for _, action := range parsed {
		id := firstChordID + chordIDSeq.Add(1)
		if id > maxChordID {
			return fmt.Errorf("hotkey id range exhausted (id=%d)", id)
		}
		chords = append(chords, chord{id: id, action: action})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.stopLocked(); err != nil {
		return err
	}
	loop, err := m.startLoop(chords)
	if err != nil {
		return err
	}
	m.loop = loop
	m.bindings = bindingsByName(parsed)
	return nil
}

// Stop unregisters every chord. Safe to call when nothing is registered.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBindings maps action name to normalized chord for the running set.
func (m *Manager) ActiveBindings() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.bindings)
}

func (m *Manager) stopLocked() error {
	if m.loop == nil {
		return nil
	}
	loop := m.loop
	m.loop = nil
	m.bindings = nil
	return loop.stop()
}
