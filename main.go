package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"snapcap/internal/applog"
	"snapcap/internal/config"
	"snapcap/internal/ipc"
	"snapcap/internal/overlay"
	"snapcap/internal/singleinstance"
)

const usageText = `usage: snapcap [flags] [run]
       snapcap [flags] ctl <ping|status|recall|dismiss|history [n]|stop|notify [title] [message]>

flags:
`

type cliOptions struct {
	configPath    string
	logLevel      string
	forceFallback bool
}

func main() {
	setConsoleUTF8()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("snapcap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts cliOptions
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (default: per-user data dir)")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	fs.BoolVar(&opts.forceFallback, "fallback", false, "skip the low-level hook and use the non-suppressing listener")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	command := "run"
	if len(rest) > 0 {
		command = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	switch command {
	case "run":
		if len(rest) > 0 {
			fmt.Fprintf(stderr, "run takes no arguments, got %q\n", rest)
			return 2
		}
		return runApp(opts, stderr)
	case "ctl":
		return runCtl(ipc.DefaultPipeName(), rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fs.Usage()
		return 2
	}
}

// runCtl sends one control request to the running instance and relays its
// output.
func runCtl(pipeName string, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "ctl requires a command")
		return 2
	}
	resp, err := sendFn(pipeName, ipc.Request{Command: args[0], Args: args[1:]})
	if err != nil {
		if ipc.IsConnectionError(err) {
			fmt.Fprintln(stderr, "snapcap is not running")
			return 1
		}
		fmt.Fprintf(stderr, "control request failed: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, resp.Stdout)
	fmt.Fprint(stderr, resp.Stderr)
	return resp.ExitCode
}

var sendFn = ipc.Send

func runApp(opts cliOptions, stderr io.Writer) int {
	// An explicit -config path is read as-is; only the default location is
	// created on first run.
	configPath, pathNote := config.LocatePath()
	loadConfig := config.EnsureFile
	if opts.configPath != "" {
		configPath, pathNote = opts.configPath, ""
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
		loadConfig = config.Load
	}

	cfg, cfgErr := loadConfig(configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	levelName := cfg.Log.Level
	if opts.logLevel != "" {
		levelName = opts.logLevel
	}
	level, err := applog.ParseLevel(levelName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	recent := applog.NewRecent(applog.DefaultRecentCapacity)
	logger, logCloser, err := applog.Setup(applog.Options{
		Dir:          filepath.Dir(configPath),
		Level:        level,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
		MaxBackups:   cfg.Log.MaxBackups,
		MaxAgeDays:   cfg.Log.MaxAgeDays,
		ConsoleLevel: slog.LevelWarn,
		Console:      stderr,
		OnEntry:      recent.Add,
	})
	if err != nil {
		fmt.Fprintf(stderr, "log setup failed, logging to stderr only: %v\n", err)
		logger, logCloser, _ = applog.Setup(applog.Options{Level: level, ConsoleLevel: slog.LevelWarn, Console: stderr, OnEntry: recent.Add})
	}
	defer applog.CloseQuietly(logCloser)
	slog.SetDefault(logger)

	if pathNote != "" {
		slog.Warn("[WARN-CONFIG] using temp dir for config", "path", configPath, "note", pathNote)
	}
	if cfgErr != nil {
		slog.Warn("[WARN-CONFIG] failed to load config, running with defaults", "path", configPath, "error", cfgErr)
	}

	// Single-instance check before the hook is installed; a second hook on
	// the same key gives undefined delivery order.
	instanceLock, err := singleinstance.TryLock(singleinstance.DefaultLockName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running, signaling it")
		if _, sendErr := sendFn("", ipc.Request{Command: ipc.CommandNotify, Args: []string{"Already running", "snapcap is already running."}}); sendErr != nil {
			slog.Warn("[DEBUG-SINGLE] failed to signal existing instance", "error", sendErr)
		}
		return 0
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] instance lock failed, proceeding without single-instance guard", "error", err)
	}
	if instanceLock != nil {
		defer func() {
			if releaseErr := instanceLock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] instance lock release failed", "error", releaseErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := overlay.NewNotifier(overlay.NewPlatformBackend(), overlay.Options{
		HistorySize: cfg.Notification.HistorySize,
		Defaults:    requestDefaults(cfg),
	})
	app := NewApp(AppOptions{
		Config:        cfg,
		ConfigPath:    configPath,
		Notifier:      notifier,
		Recent:        recent,
		ForceFallback: opts.forceFallback,
	})
	appCtx := app.startup(ctx)

	// The overlay owns this goroutine's OS thread until shutdown.
	if err := overlay.RunUI(appCtx, notifier, overlay.DefaultFrameInterval); err != nil {
		slog.Error("[overlay] ui loop failed", "error", err)
	}
	app.shutdown()
	return 0
}
