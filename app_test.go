package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"snapcap/internal/config"
	"snapcap/internal/hotkeys"
	"snapcap/internal/ipc"
	"snapcap/internal/overlay"
	"snapcap/internal/vision"
)

type fakeNotifier struct {
	mu          sync.Mutex
	shown       []overlay.Request
	closed      []overlay.Handle
	recalls     int
	dismisses   int
	defaults    []overlay.Request
	historySize []int
	history     []overlay.HistoryEntry
	current     overlay.Handle
}

func (f *fakeNotifier) Show(req overlay.Request) overlay.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, req)
	return overlay.Handle(fmt.Sprintf("h%d", len(f.shown)))
}

func (f *fakeNotifier) Close(h overlay.Handle) {
	f.mu.Lock()
	f.closed = append(f.closed, h)
	f.mu.Unlock()
}

func (f *fakeNotifier) RecallLast() {
	f.mu.Lock()
	f.recalls++
	f.mu.Unlock()
}

func (f *fakeNotifier) DismissCurrent() {
	f.mu.Lock()
	f.dismisses++
	f.mu.Unlock()
}

func (f *fakeNotifier) History() []overlay.HistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.HistoryEntry(nil), f.history...)
}

func (f *fakeNotifier) Current() (overlay.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.current != ""
}

func (f *fakeNotifier) SetDefaults(defaults overlay.Request) {
	f.mu.Lock()
	f.defaults = append(f.defaults, defaults)
	f.mu.Unlock()
}

func (f *fakeNotifier) SetHistorySize(size int) {
	f.mu.Lock()
	f.historySize = append(f.historySize, size)
	f.mu.Unlock()
}

func (f *fakeNotifier) requests() []overlay.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.Request(nil), f.shown...)
}

type fakeTrigger struct {
	mu       sync.Mutex
	startErr error
	started  int
	stopped  int
	running  bool
}

func (f *fakeTrigger) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeTrigger) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	f.running = false
	return nil
}

func (f *fakeTrigger) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fakeChords struct {
	mu       sync.Mutex
	startErr error
	starts   [][]hotkeys.Action
	stops    int
	bindings map[string]string
}

func (f *fakeChords) Start(actions []hotkeys.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, actions)
	if f.startErr != nil {
		return f.startErr
	}
	f.bindings = make(map[string]string, len(actions))
	for _, a := range actions {
		if a.Spec != "" {
			f.bindings[a.Name] = a.Spec
		}
	}
	return nil
}

func (f *fakeChords) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.bindings = nil
	return nil
}

func (f *fakeChords) ActiveBindings() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.bindings))
	for k, v := range f.bindings {
		out[k] = v
	}
	return out
}

type fakeToaster struct {
	mu   sync.Mutex
	keys []string
	seen map[string]bool
}

func (f *fakeToaster) Once(key, title, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	f.keys = append(f.keys, key)
	return true
}

func (f *fakeToaster) shownKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type fakeGrabber struct {
	png []byte
	err error
}

func (f fakeGrabber) Grab(ctx context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.png, nil
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	model  string
	text   string
	err    error
	calls  int
	prompt string
	images [][]byte
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, prompt string, images [][]byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompt = prompt
	f.images = images
	return f.text, f.err
}

func (f *fakeAnalyzer) Model() string { return f.model }

type fakePipeServer struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (f *fakePipeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakePipeServer) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakePipeServer) PipeName() string { return f.name }

type testAppDeps struct {
	notifier *fakeNotifier
	chords   *fakeChords
	toaster  *fakeToaster
}

// newTestApp builds an App around fakes with a key configured in the config
// file rather than the environment.
func newTestApp(t *testing.T, cfg config.Config) (*App, testAppDeps) {
	t.Helper()
	t.Setenv(config.APIKeyEnv, "")
	deps := testAppDeps{
		notifier: &fakeNotifier{},
		chords:   &fakeChords{},
		toaster:  &fakeToaster{},
	}
	app := NewApp(AppOptions{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Notifier:   deps.notifier,
		Grabber:    fakeGrabber{png: []byte("png")},
		Hotkeys:    deps.chords,
		Toaster:    deps.toaster,
		PipeName:   "test-pipe",
	})
	return app, deps
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.GeminiAPIKey = "test-key"
	return cfg
}

// stubSeams replaces the package-level constructors for one test.
func stubSeams(t *testing.T, hook, fallback *fakeTrigger, analyzer vision.Analyzer) {
	t.Helper()
	origHook, origFallback := newKeyHookFn, newFallbackFn
	origAnalyzer, origPipe := newAnalyzerFn, newPipeServerFn
	t.Cleanup(func() {
		newKeyHookFn, newFallbackFn = origHook, origFallback
		newAnalyzerFn, newPipeServerFn = origAnalyzer, origPipe
	})
	newKeyHookFn = func(func()) keyTrigger { return hook }
	newFallbackFn = func(func()) keyTrigger { return fallback }
	newAnalyzerFn = func(context.Context, string, string) (vision.Analyzer, error) {
		if analyzer == nil {
			return nil, errors.New("no analyzer stubbed")
		}
		return analyzer, nil
	}
	newPipeServerFn = func(name string, _ ipc.CommandExecutor) pipeServer {
		return &fakePipeServer{name: name}
	}
}

func TestNewAppDefaults(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	if got := app.currentCaptureMode(); got != captureModeDisabled {
		t.Fatalf("capture mode = %q, want %q", got, captureModeDisabled)
	}
	if app.recent == nil {
		t.Fatal("recent ring should default to a new ring")
	}
	if cap(app.batchCh) != 1 {
		t.Fatalf("batchCh capacity = %d, want 1", cap(app.batchCh))
	}
}

func TestConfigSnapshotIsCopy(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	snap := app.getConfigSnapshot()
	snap.GeminiModel = "mutated"
	if got := app.getConfigSnapshot().GeminiModel; got == "mutated" {
		t.Fatal("mutating a snapshot changed the app config")
	}

	next := testConfig()
	next.GeminiModel = "gemini-2.5-pro"
	app.setConfigSnapshot(next)
	if got := app.getConfigSnapshot().GeminiModel; got != "gemini-2.5-pro" {
		t.Fatalf("model = %q, want gemini-2.5-pro", got)
	}
}

func TestRequestStopCancelsContext(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.requestStop() // no context yet

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.cancel = cancel
	app.requestStop()
	if ctx.Err() == nil {
		t.Fatal("requestStop should cancel the app context")
	}
}
