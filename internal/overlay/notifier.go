package overlay

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDrainInterval is how often Tick drains the request queue.
const DefaultDrainInterval = 100 * time.Millisecond

// Handle identifies one Show call.
type Handle string

// Options configures a Notifier.
type Options struct {
	HistorySize   int
	DrainInterval time.Duration
	// Defaults fills zero fields of every request. See Normalize.
	Defaults Request
	// Clock stamps the overlay header. Defaults to time.Now.
	Clock func() time.Time
}

type commandOp int

const (
	opShow commandOp = iota
	opClose
	opDismissCurrent
	opRecall
)

type command struct {
	op     commandOp
	handle Handle
	req    Request
}

// Notifier renders requests as transient overlays. Show, Close, RecallLast,
// DismissCurrent, History and Current are safe from any goroutine. Tick and
// Shutdown belong to the UI thread that owns the backend.
type Notifier struct {
	backend Backend
	history *history
	clock   func() time.Time

	mu            sync.Mutex // guards the fields below
	queue         []command
	defaults      Request
	drainInterval time.Duration
	currentHandle Handle

	// UI thread only.
	current   *instance
	lastDrain time.Time
	drained   bool
}

// NewNotifier creates a notifier that renders through backend.
func NewNotifier(backend Backend, opts Options) *Notifier {
	defaults := opts.Defaults
	if defaults == (Request{}) {
		defaults = DefaultRequest()
	}
	drain := opts.DrainInterval
	if drain <= 0 {
		drain = DefaultDrainInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Notifier{
		backend:       backend,
		history:       newHistory(opts.HistorySize),
		clock:         clock,
		defaults:      defaults,
		drainInterval: drain,
	}
}

// Show normalizes and enqueues req and returns its handle at once.
func (n *Notifier) Show(req Request) Handle {
	handle := Handle(uuid.NewString())
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, command{op: opShow, handle: handle, req: Normalize(req, n.defaults)})
	return handle
}

// Close fades out the overlay of h. A request still in the queue is
// cancelled. Unknown or already-closed handles are ignored.
func (n *Notifier) Close(h Handle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, cmd := range n.queue {
		if cmd.op == opShow && cmd.handle == h {
			n.queue = slices.Delete(n.queue, i, i+1)
			return
		}
	}
	n.queue = append(n.queue, command{op: opClose, handle: h})
}

// DismissCurrent fades out whatever overlay is live when the queue drains.
func (n *Notifier) DismissCurrent() {
	n.enqueue(command{op: opDismissCurrent})
}

// RecallLast re-shows the newest history entry when nothing is on screen.
func (n *Notifier) RecallLast() {
	n.enqueue(command{op: opRecall})
}

func (n *Notifier) enqueue(cmd command) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, cmd)
}

// History returns archived overlays, oldest first.
func (n *Notifier) History() []HistoryEntry {
	return n.history.snapshot()
}

// Current returns the handle of the live overlay, if any.
func (n *Notifier) Current() (Handle, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentHandle, n.currentHandle != ""
}

// SetDefaults replaces the defaults applied to subsequent Show calls.
func (n *Notifier) SetDefaults(defaults Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.defaults = defaults
}

// SetHistorySize changes the history capacity, keeping the newest entries.
func (n *Notifier) SetHistorySize(size int) {
	n.history.resize(size)
}

// Tick drains the queue when DrainInterval has elapsed since the last drain,
// then advances the live overlay. A panic is recovered and logged so the UI
// loop keeps running.
func (n *Notifier) Tick(now time.Time) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("[DEBUG-PANIC] overlay tick recovered from panic",
				"panic", fmt.Sprintf("%v", recovered),
				"stack", string(debug.Stack()))
		}
	}()

	if !n.drained || now.Sub(n.lastDrain) >= n.interval() {
		n.drain(now)
		n.lastDrain = now
		n.drained = true
	}

	if n.current == nil {
		return
	}
	n.current.advance(now)
	if n.current.phase == phaseDestroyed {
		reason := n.current.endReason
		if reason == "" {
			reason = ArchiveClosed
		}
		n.retire(n.current, reason, now)
		n.setCurrent(nil)
	}
}

// Shutdown destroys the live overlay and drops pending requests.
func (n *Notifier) Shutdown() {
	n.mu.Lock()
	n.queue = nil
	n.mu.Unlock()

	if n.current != nil {
		now := n.clock()
		n.current.destroy()
		n.retire(n.current, ArchiveClosed, now)
		n.setCurrent(nil)
	}
}

func (n *Notifier) interval() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.drainInterval
}

func (n *Notifier) drain(now time.Time) {
	n.mu.Lock()
	batch := n.queue
	n.queue = nil
	n.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	lastShow := -1
	for i, cmd := range batch {
		if cmd.op == opShow {
			lastShow = i
		}
	}

	for i, cmd := range batch {
		switch cmd.op {
		case opShow:
			if i != lastShow {
				// Never reaches the screen; a later request in the same
				// batch replaces it.
				n.history.push(HistoryEntry{
					Handle:     cmd.handle,
					Title:      cmd.req.Title,
					Message:    cmd.req.Message,
					Severity:   cmd.req.Severity,
					ArchivedAt: now,
					Reason:     ArchiveSuperseded,
					request:    cmd.req,
				})
				continue
			}
			n.render(cmd.handle, cmd.req, now, false)
		case opClose:
			if n.current != nil && n.current.handle == cmd.handle {
				n.current.beginFadeOut(now, ArchiveClosed)
			}
		case opDismissCurrent:
			if n.current != nil {
				n.current.beginFadeOut(now, ArchiveClosed)
			}
		case opRecall:
			n.recall(now)
		}
	}
}

func (n *Notifier) recall(now time.Time) {
	if n.current != nil && n.current.counting() {
		slog.Debug("[overlay] recall ignored, an overlay is already showing", "handle", n.current.handle)
		return
	}
	entry, ok := n.history.newest()
	if !ok {
		slog.Info("[overlay] recall requested but history is empty")
		return
	}
	n.render(Handle(uuid.NewString()), entry.request, now, true)
}

// render replaces the live overlay with req. The previous window is archived
// and destroyed before the new one is created.
func (n *Notifier) render(handle Handle, req Request, now time.Time, recalled bool) {
	if prev := n.current; prev != nil {
		reason := ArchiveReplaced
		if prev.endReason != "" {
			reason = prev.endReason
		}
		prev.destroy()
		n.retire(prev, reason, now)
		n.setCurrent(nil)
	}

	content := Content{
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: n.clock().Format("15:04:05"),
		Icon:      Icon(req.Severity),
		Severity:  req.Severity,
		Palette:   PaletteFor(req.Theme),
	}

	width := req.Width
	height := max(n.backend.MeasureHeight(content, width), MinHeight)

	work, err := n.backend.WorkArea()
	if err != nil {
		slog.Warn("[overlay] work area unavailable, placing at origin", "error", &OverlayRenderError{Op: "work area", Err: err})
	}
	x, y := ResolvePosition(work, width, height, req.Position)

	window, err := n.backend.CreateWindow(content, Rect{Left: x, Top: y, Right: x + width, Bottom: y + height})
	if err != nil {
		slog.Error("[overlay] create window failed", "handle", handle, "error", &OverlayRenderError{Op: "create window", Err: err})
		if !recalled {
			n.history.push(HistoryEntry{
				Handle:     handle,
				Title:      req.Title,
				Message:    req.Message,
				Severity:   req.Severity,
				ArchivedAt: now,
				Reason:     ArchiveFailed,
				request:    req,
			})
		}
		return
	}

	if stealth, ok := window.(Stealth); ok {
		if err := applyStealth(stealth, req.ClickThrough); err != nil {
			slog.Warn("[overlay] stealth styles not fully applied; overlay may take focus", "handle", handle, "error", err)
		}
	}

	inst := newInstance(handle, req, window, recalled)
	inst.prepare(now)
	if err := window.Show(); err != nil {
		slog.Warn("[overlay] show window failed", "handle", handle, "error", &OverlayRenderError{Op: "show", Err: err})
	}

	n.current = inst
	n.setCurrent(inst)
	slog.Debug("[overlay] overlay shown",
		"handle", handle,
		"severity", req.Severity,
		"position", req.Position,
		"bounds", fmt.Sprintf("%dx%d+%d+%d", width, height, x, y))
}

// retire archives inst exactly once. Recalled overlays are already in history.
func (n *Notifier) retire(inst *instance, reason ArchiveReason, now time.Time) {
	if inst.archived || inst.recalled {
		return
	}
	inst.archived = true
	n.history.push(inst.historyEntry(reason, now))
}

func (n *Notifier) setCurrent(inst *instance) {
	if inst == nil {
		n.current = nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if inst == nil {
		n.currentHandle = ""
		return
	}
	n.currentHandle = inst.handle
}
