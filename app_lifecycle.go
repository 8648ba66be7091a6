package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"snapcap/internal/capture"
	"snapcap/internal/config"
	"snapcap/internal/overlay"
	"snapcap/internal/store"
	"snapcap/internal/workerutil"
)

const shutdownWaitTimeout = 10 * time.Second

// startup wires every subsystem and returns the context that ends when the
// app is asked to stop. Failures of optional subsystems are logged and the
// app keeps running without them.
func (a *App) startup(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	a.ctx = ctx
	a.cancel = cancel
	a.startedAt = time.Now()
	cfg := a.getConfigSnapshot()

	a.openHistory(ctx, cfg)
	a.batcher = capture.NewBatcher(cfg.BatchDelay(), cfg.Capture.MaxBatchSize, a.onBatchFlush)
	a.startAnalysisWorker(ctx)
	a.startCaptureTrigger()
	a.configureHotkeys(cfg)
	a.startPipeServer()
	a.startConfigWatcher()

	if cfg.APIKey() == "" {
		slog.Warn("[app] no Gemini API key configured; captures will fail until one is set",
			"env", config.APIKeyEnv, "config", a.configPath)
		a.notify(overlay.SeverityWarning, "API key missing",
			"Set "+config.APIKeyEnv+" or gemini_api_key in "+a.configPath)
	}
	slog.Info("[app] started",
		"captureMode", a.currentCaptureMode(),
		"model", cfg.GeminiModel,
		"preset", cfg.PromptPreset,
		"batchDelay", cfg.BatchDelay(),
		"maxBatch", cfg.Capture.MaxBatchSize,
	)
	return ctx
}

// shutdown stops input first so no capture races the teardown, then drains
// the worker and closes storage.
func (a *App) shutdown() {
	if !a.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	a.stopCaptureTrigger()
	if a.hotkeys != nil {
		if err := a.hotkeys.Stop(); err != nil {
			slog.Warn("[hotkey] stop failed", "error", err)
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			slog.Warn("[config] watcher stop failed", "error", err)
		}
	}
	if a.pipeServer != nil {
		if err := a.pipeServer.Stop(); err != nil {
			slog.Warn("[ipc] pipe server stop failed", "error", err)
		}
	}
	if a.batcher != nil {
		if discarded := a.batcher.Stop(); discarded > 0 {
			slog.Info("[capture] discarded pending captures at shutdown", "count", discarded)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		slog.Warn("[app] timed out waiting for background workers during shutdown")
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("[store] close failed", "error", err)
		}
	}
	slog.Info("[app] stopped", "uptime", time.Since(a.startedAt).Round(time.Second))
}

func (a *App) historyPath(cfg config.Config) string {
	if cfg.HistoryDB != "" {
		return cfg.HistoryDB
	}
	dir := config.DefaultDataDir()
	if a.configPath != "" {
		dir = filepath.Dir(a.configPath)
	}
	return filepath.Join(dir, store.DefaultFileName)
}

func (a *App) openHistory(ctx context.Context, cfg config.Config) {
	path := a.historyPath(cfg)
	history, err := openStoreFn(ctx, path)
	if err != nil {
		slog.Warn("[store] analysis history unavailable", "path", path, "error", err)
		return
	}
	a.history = history
}

func (a *App) startAnalysisWorker(ctx context.Context) {
	workerutil.Supervise(ctx, &a.bgWG, "analysis-worker", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case batch := <-a.batchCh:
				a.processBatch(ctx, batch)
			}
		}
	}, workerutil.Policy{
		Stopping: a.shuttingDown.Load,
		OnGiveUp: func(string, int) {
			a.notify(overlay.SeverityError, "Analysis disabled",
				"The analysis worker crashed repeatedly and was stopped. Restart snapcap.")
		},
	})
}

func (a *App) startPipeServer() {
	server := newPipeServerFn(a.pipeName, a)
	if err := server.Start(); err != nil {
		slog.Warn("[ipc] control pipe unavailable; ctl commands will not reach this instance", "error", err)
		return
	}
	a.pipeServer = server
	slog.Info("[ipc] control pipe listening", "pipe", server.PipeName())
}

func (a *App) startConfigWatcher() {
	if a.configPath == "" {
		return
	}
	watcher := config.NewWatcher(a.configPath, config.DefaultReloadDebounce, a.applyConfig)
	if err := watcher.Start(); err != nil {
		slog.Warn("[config] hot reload disabled", "path", a.configPath, "error", err)
		return
	}
	a.watcher = watcher
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// The waiting goroutine may outlive timeout when waitFn blocks; this is
	// only used on the shutdown path.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
