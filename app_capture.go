package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"snapcap/internal/capture"
	"snapcap/internal/config"
	"snapcap/internal/hotkeys"
	"snapcap/internal/overlay"
	"snapcap/internal/store"
	"snapcap/internal/vision"
)

const (
	noticeKeyFallback = "fallback-listener"
	noticeKeyDisabled = "capture-disabled"
)

// startCaptureTrigger installs the low-level PrintScreen hook, falling back
// to the observe-only listener when the hook cannot be installed. In
// fallback mode PrintScreen still reaches the foreground application; the
// user is told once.
func (a *App) startCaptureTrigger() {
	a.triggerMu.Lock()
	defer a.triggerMu.Unlock()

	if !a.forceFallback {
		hook := newKeyHookFn(a.onCaptureKey)
		err := hook.Start()
		if err == nil {
			a.trigger = hook
			a.mode.Store(captureModeHook)
			slog.Info("[hotkey] PrintScreen hook installed")
			return
		}
		var installErr *hotkeys.HookInstallError
		if errors.As(err, &installErr) {
			slog.Warn("[hotkey] low-level hook refused, using fallback listener",
				"code", installErr.Code, "reason", installErr.Reason)
		} else {
			slog.Warn("[hotkey] low-level hook failed, using fallback listener", "error", err)
		}
	} else {
		slog.Info("[hotkey] fallback listener forced by flag")
	}

	listener := newFallbackFn(a.onCaptureKey)
	if err := listener.Start(); err != nil {
		a.mode.Store(captureModeDisabled)
		slog.Error("[hotkey] no PrintScreen listener available; capture disabled", "error", err)
		a.toaster.Once(noticeKeyDisabled, "Capture disabled",
			"PrintScreen could not be intercepted. Run snapcap with the required privileges.")
		a.notify(overlay.SeverityError, "Capture disabled", err.Error())
		return
	}
	a.trigger = listener
	a.mode.Store(captureModeFallback)
	a.toaster.Once(noticeKeyFallback, "PrintScreen not suppressed",
		"Running without the low-level keyboard hook. PrintScreen still reaches the foreground application.")
}

func (a *App) stopCaptureTrigger() {
	a.triggerMu.Lock()
	defer a.triggerMu.Unlock()
	if a.trigger == nil {
		return
	}
	if err := a.trigger.Stop(); err != nil {
		slog.Warn("[hotkey] trigger stop failed", "mode", a.currentCaptureMode(), "error", err)
	}
	a.trigger = nil
	a.mode.Store(captureModeDisabled)
}

// onCaptureKey runs on its own goroutine for every PrintScreen press.
func (a *App) onCaptureKey() {
	if a.shuttingDown.Load() || a.batcher == nil {
		return
	}
	cfg := a.getConfigSnapshot()
	if a.batcher.Full() {
		slog.Info("[capture] max batch size reached, press ignored", "max", cfg.Capture.MaxBatchSize)
		return
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	img, err := a.grabber.Grab(ctx)
	if err != nil {
		slog.Warn("[capture] screen grab failed", "error", err)
		return
	}
	count, err := a.batcher.Add(img, time.Now())
	switch {
	case errors.Is(err, capture.ErrBatchFull):
		slog.Info("[capture] max batch size reached, press ignored", "max", cfg.Capture.MaxBatchSize)
		return
	case errors.Is(err, capture.ErrStopped):
		return
	case err != nil:
		slog.Warn("[capture] batch add failed", "error", err)
		return
	}
	a.captures.Add(1)
	slog.Info("[capture] captured", "count", count, "max", cfg.Capture.MaxBatchSize, "flushIn", cfg.BatchDelay())
}

// onBatchFlush runs on the batcher's timer goroutine. Only one batch is
// analyzed at a time; a batch that flushes while another is in flight goes
// back in front of the pending captures.
func (a *App) onBatchFlush(batch capture.Batch) {
	if !a.processing.CompareAndSwap(false, true) {
		a.batcher.Requeue(batch)
		slog.Info("[capture] still processing previous batch, requeued", "batch", batch.ID, "images", batch.Len())
		return
	}
	select {
	case a.batchCh <- batch:
	default:
		a.processing.Store(false)
		a.batcher.Requeue(batch)
	}
}

// processBatch analyzes one batch and routes the outcome to the overlay
// and the history store.
func (a *App) processBatch(ctx context.Context, batch capture.Batch) {
	defer a.processing.Store(false)

	cfg := a.getConfigSnapshot()
	prompt := cfg.EffectivePrompt()
	if cfg.Capture.SaveDir != "" {
		if paths, err := capture.SaveBatch(cfg.Capture.SaveDir, batch); err != nil {
			slog.Warn("[capture] saving captures failed", "dir", cfg.Capture.SaveDir, "error", err)
		} else {
			slog.Debug("[DEBUG-CAPTURE] captures saved", "paths", paths)
		}
	}

	analyzer, err := a.currentAnalyzer(ctx, cfg)
	if err != nil {
		a.reportAnalysis(ctx, batch, cfg.GeminiModel, prompt, "", err)
		return
	}

	slog.Info("[vision] sending batch", "batch", batch.ID, "images", batch.Len(), "model", analyzer.Model())
	a.notify(overlay.SeverityInfo, vision.ProcessingTitle, vision.ProcessingMessage(batch.Len(), analyzer.Model()))

	text, err := analyzer.Analyze(ctx, prompt, batch.Images())
	if err != nil && ctx.Err() != nil {
		slog.Info("[vision] analysis cancelled by shutdown", "batch", batch.ID)
		return
	}
	a.reportAnalysis(ctx, batch, analyzer.Model(), prompt, text, err)
}

func (a *App) reportAnalysis(ctx context.Context, batch capture.Batch, model, prompt, text string, analysisErr error) {
	now := time.Now()
	rec := store.Record{CreatedAt: now, Model: model, Prompt: prompt, Result: text, ImageCount: batch.Len()}
	if analysisErr != nil {
		a.failures.Add(1)
		rec.Error = analysisErr.Error()
		slog.Error("[vision] analysis failed", "batch", batch.ID, "model", model, "error", analysisErr)
		a.notify(overlay.SeverityError, vision.ErrorTitle, analysisErr.Error())
	} else {
		a.analyses.Add(1)
		a.lastResult.Store(now)
		slog.Info("[vision] analysis complete", "batch", batch.ID, "images", batch.Len(), "chars", len(text))
		a.notify(overlay.SeveritySuccess, vision.ResultTitle(batch.Len()), vision.ResultMessage(now, model, text))
	}
	a.recordHistory(ctx, rec)
}

func (a *App) recordHistory(ctx context.Context, rec store.Record) {
	if a.history == nil {
		return
	}
	// Records are written even after shutdown cancels ctx.
	ctx = context.WithoutCancel(ctx)
	if _, err := a.history.Add(ctx, rec); err != nil {
		slog.Warn("[store] saving analysis failed", "error", err)
		return
	}
	if _, err := a.history.Prune(ctx, store.DefaultKeep); err != nil {
		slog.Warn("[store] pruning history failed", "error", err)
	}
}

// currentAnalyzer returns a client for the configured model and key,
// rebuilding it when either changed since the last batch.
func (a *App) currentAnalyzer(ctx context.Context, cfg config.Config) (vision.Analyzer, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, vision.ErrNoAPIKey
	}
	cacheKey := cfg.GeminiModel + "\x00" + apiKey

	a.analyzerMu.Lock()
	defer a.analyzerMu.Unlock()
	if a.analyzer != nil && a.analyzerKey == cacheKey {
		return a.analyzer, nil
	}
	analyzer, err := newAnalyzerFn(ctx, apiKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	a.analyzer = analyzer
	a.analyzerKey = cacheKey
	return analyzer, nil
}
