package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"snapcap/internal/applog"
	"snapcap/internal/capture"
	"snapcap/internal/config"
	"snapcap/internal/hotkeys"
	"snapcap/internal/ipc"
	"snapcap/internal/notice"
	"snapcap/internal/overlay"
	"snapcap/internal/store"
	"snapcap/internal/vision"
)

// overlayNotifier is the part of *overlay.Notifier the app drives from
// worker goroutines. Every method is safe off the UI thread.
type overlayNotifier interface {
	Show(req overlay.Request) overlay.Handle
	Close(h overlay.Handle)
	RecallLast()
	DismissCurrent()
	History() []overlay.HistoryEntry
	Current() (overlay.Handle, bool)
	SetDefaults(defaults overlay.Request)
	SetHistorySize(size int)
}

// keyTrigger is satisfied by both *hotkeys.KeyHook and
// *hotkeys.FallbackListener.
type keyTrigger interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// chordManager is satisfied by *hotkeys.Manager.
type chordManager interface {
	Start(actions []hotkeys.Action) error
	Stop() error
	ActiveBindings() map[string]string
}

// toaster is satisfied by *notice.Toaster.
type toaster interface {
	Once(key, title, message string) bool
}

// captureMode describes how PrintScreen reaches the app.
type captureMode string

const (
	captureModeHook     captureMode = "hook"
	captureModeFallback captureMode = "fallback"
	captureModeDisabled captureMode = "disabled"
)

// Test seams for the platform collaborators.
var (
	newKeyHookFn    = func(onPress func()) keyTrigger { return hotkeys.NewKeyHook(onPress) }
	newFallbackFn   = func(onPress func()) keyTrigger { return hotkeys.NewFallbackListener(onPress) }
	openStoreFn     = store.Open
	newPipeServerFn = func(name string, exec ipc.CommandExecutor) pipeServer { return ipc.NewPipeServer(name, exec) }

	newAnalyzerFn = func(ctx context.Context, apiKey, model string) (vision.Analyzer, error) {
		return vision.NewClient(ctx, apiKey, model)
	}
)

// pipeServer is satisfied by *ipc.PipeServer.
type pipeServer interface {
	Start() error
	Stop() error
	PipeName() string
}

// AppOptions are the collaborators NewApp wires together. Nil optional
// fields get production defaults.
type AppOptions struct {
	Config        config.Config
	ConfigPath    string
	Notifier      overlayNotifier
	Recent        *applog.Recent
	ForceFallback bool

	Grabber  capture.Grabber
	Hotkeys  chordManager
	Toaster  toaster
	PipeName string
}

// App owns the capture pipeline: trigger, batcher, analysis worker, result
// overlays, and the control pipe.
type App struct {
	// Lock ordering: cfgMu and analyzerMu are independent; never hold both.
	cfgMu      sync.RWMutex
	cfg        config.Config
	configPath string

	notifier overlayNotifier
	recent   *applog.Recent
	toaster  toaster
	grabber  capture.Grabber
	hotkeys  chordManager
	pipeName string

	forceFallback bool
	triggerMu     sync.Mutex
	trigger       keyTrigger
	mode          atomic.Value // captureMode

	batcher    *capture.Batcher
	batchCh    chan capture.Batch
	processing atomic.Bool

	analyzerMu  sync.Mutex
	analyzer    vision.Analyzer
	analyzerKey string

	history    *store.Store
	pipeServer pipeServer
	watcher    *config.Watcher

	// Counters reported by the status command.
	startedAt    time.Time
	captures     atomic.Uint64
	analyses     atomic.Uint64
	failures     atomic.Uint64
	lastResult   atomic.Value // time.Time
	shuttingDown atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	bgWG   sync.WaitGroup
}

// NewApp creates the app service. Nothing starts until startup.
func NewApp(opts AppOptions) *App {
	a := &App{
		cfg:           opts.Config,
		configPath:    opts.ConfigPath,
		notifier:      opts.Notifier,
		recent:        opts.Recent,
		toaster:       opts.Toaster,
		grabber:       opts.Grabber,
		hotkeys:       opts.Hotkeys,
		pipeName:      opts.PipeName,
		forceFallback: opts.ForceFallback,
		batchCh:       make(chan capture.Batch, 1),
	}
	if a.recent == nil {
		a.recent = applog.NewRecent(applog.DefaultRecentCapacity)
	}
	if a.toaster == nil {
		a.toaster = notice.NewToaster()
	}
	if a.grabber == nil {
		a.grabber = capture.NewScreenGrabber(false)
	}
	if a.hotkeys == nil {
		a.hotkeys = hotkeys.NewManager()
	}
	if a.pipeName == "" {
		a.pipeName = ipc.DefaultPipeName()
	}
	a.mode.Store(captureModeDisabled)
	a.lastResult.Store(time.Time{})
	return a
}

func (a *App) getConfigSnapshot() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return config.Clone(a.cfg)
}

func (a *App) setConfigSnapshot(cfg config.Config) {
	a.cfgMu.Lock()
	a.cfg = config.Clone(cfg)
	a.cfgMu.Unlock()
}

func (a *App) currentCaptureMode() captureMode {
	return a.mode.Load().(captureMode)
}

// requestStop ends the UI loop, which then runs shutdown.
func (a *App) requestStop() {
	if a.cancel != nil {
		a.cancel()
	}
}
