package applog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// Entry is the teed view of one log record.
type Entry struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
	// Source is the dotted slog group path, empty at the top level.
	Source string `json:"source,omitempty"`
	// Detail is the logger's bound attributes followed by the record's own,
	// as space-separated key=value.
	Detail string `json:"detail,omitempty"`
}

// EntryCallback receives teed entries.
type EntryCallback func(Entry)

// TeeHandler forwards every record to the wrapped handler and copies
// records at or above its threshold to a callback. A nil callback turns
// it into a plain pass-through.
type TeeHandler struct {
	slog.Handler

	threshold slog.Level
	onEntry   EntryCallback
	groups    []string
	// bound holds attributes added via WithAttrs, already formatted.
	bound string
}

func NewTeeHandler(next slog.Handler, threshold slog.Level, onEntry EntryCallback) *TeeHandler {
	return &TeeHandler{Handler: next, threshold: threshold, onEntry: onEntry}
}

func (h *TeeHandler) teed(level slog.Level) bool {
	return h.onEntry != nil && level >= h.threshold
}

// Enabled is true when either the wrapped handler or the tee wants level,
// so warnings reach the callback even under a stricter file level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.teed(level) || h.Handler.Enabled(ctx, level)
}

// Handle returns the wrapped handler's error. The callback still runs when
// that handler fails.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.Handler.Enabled(ctx, r.Level) {
		err = h.Handler.Handle(ctx, r)
	}
	if h.teed(r.Level) {
		h.deliver(Entry{
			Time:    r.Time,
			Level:   r.Level,
			Message: r.Message,
			Source:  strings.Join(h.groups, "."),
			Detail:  formatAttrs(h.bound, r),
		})
	}
	return err
}

func (h *TeeHandler) deliver(e Entry) {
	defer func() {
		if p := recover(); p != nil {
			// stderr, since logging here would re-enter the handler
			fmt.Fprintf(os.Stderr, "[applog] callback panicked: %v\n%s\n", p, debug.Stack())
		}
	}()
	h.onEntry(e)
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.Handler = h.Handler.WithAttrs(attrs)
	var b strings.Builder
	b.WriteString(h.bound)
	for _, a := range attrs {
		appendAttr(&b, a)
	}
	clone.bound = b.String()
	return &clone
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.Handler = h.Handler.WithGroup(name)
	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &clone
}

func formatAttrs(bound string, r slog.Record) string {
	var b strings.Builder
	b.WriteString(bound)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, a)
		return true
	})
	return b.String()
}

func appendAttr(b *strings.Builder, a slog.Attr) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.Resolve().String())
}
