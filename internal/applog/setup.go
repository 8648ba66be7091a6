// Package applog wires the process logger: a rotating JSON file sink plus a
// teed console stream for warnings and errors.
package applog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFileName is the log file created inside Options.Dir.
const DefaultFileName = "snapcap.log"

// Options configures Setup.
type Options struct {
	// Dir holds the rotating log file. Empty disables the file sink and
	// sends every record at Level to Console instead.
	Dir        string
	FileName   string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// ConsoleLevel is the tee threshold for Console and OnEntry.
	ConsoleLevel slog.Level
	// Console defaults to os.Stderr.
	Console io.Writer
	// OnEntry additionally receives every teed entry.
	OnEntry EntryCallback
}

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog level.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

// Setup builds the process logger. The returned closer flushes and closes
// the file sink; it is never nil.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: slog.LevelDebug})

	if strings.TrimSpace(opts.Dir) == "" {
		handler := NewTeeHandler(
			slog.NewTextHandler(console, &slog.HandlerOptions{Level: opts.Level}),
			opts.ConsoleLevel,
			opts.OnEntry,
		)
		return slog.New(handler), nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}
	fileName := opts.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, fileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: opts.Level})
	var consoleMu sync.Mutex
	onEntry := opts.OnEntry
	tee := func(entry Entry) {
		consoleMu.Lock()
		writeConsole(consoleHandler, entry)
		consoleMu.Unlock()
		if onEntry != nil {
			onEntry(entry)
		}
	}
	return slog.New(NewTeeHandler(fileHandler, opts.ConsoleLevel, tee)), rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func writeConsole(handler slog.Handler, entry Entry) {
	record := slog.NewRecord(entry.Time, entry.Level, entry.Message, 0)
	if entry.Source != "" {
		record.AddAttrs(slog.String("source", entry.Source))
	}
	if entry.Detail != "" {
		record.AddAttrs(slog.String("detail", entry.Detail))
	}
	if err := handler.Handle(context.Background(), record); err != nil {
		fmt.Fprintf(os.Stderr, "[applog] console write failed: %v\n", err)
	}
}

// CloseQuietly closes c and reports a failure on stderr. Used at shutdown
// when the logger itself is being torn down.
func CloseQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		fmt.Fprintf(os.Stderr, "[applog] close log sink: %v\n", err)
	}
}
