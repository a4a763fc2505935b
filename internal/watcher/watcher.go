package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/edc/internal/journal"
)

// State is the watcher's position in its lifecycle.
type State int32

const (
	Idle State = iota
	Locating
	Bootstrapping
	Tailing
	Rotated
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Locating:
		return "locating"
	case Bootstrapping:
		return "bootstrapping"
	case Tailing:
		return "tailing"
	case Rotated:
		return "rotated"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// DefaultPattern matches the client's journal files.
const DefaultPattern = "Journal.*.log"

// Config controls discovery, bootstrap and polling.
type Config struct {
	Dir     string
	Pattern string

	// PollInterval is the tailing cadence.
	PollInterval time.Duration
	// WaitInterval is the retry cadence while no journal exists.
	WaitInterval time.Duration
	// RetryInterval is the pause after an I/O error.
	RetryInterval time.Duration
	// NoticeInterval throttles repeated "waiting" notices.
	NoticeInterval time.Duration

	// BootstrapBytes caps how much of a file's tail is read on attach.
	BootstrapBytes int64
	// BootstrapEvents caps how many records bootstrap may forward.
	BootstrapEvents int
}

// DefaultConfig returns the standard settings for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		Pattern:         DefaultPattern,
		PollInterval:    250 * time.Millisecond,
		WaitInterval:    2 * time.Second,
		RetryInterval:   time.Second,
		NoticeInterval:  30 * time.Second,
		BootstrapBytes:  256 << 10,
		BootstrapEvents: 800,
	}
}

// readChunk caps one tail read so a huge append is spread over cycles.
const readChunk = 1 << 20

// Watcher surfaces new records from the newest journal file in a directory.
//
// Run owns the open file and all read state; only State may be called from
// other goroutines. Records and status notices go to the Queue in file
// order.
type Watcher struct {
	cfg   Config
	out   *Queue
	log   *slog.Logger
	state atomic.Int32

	waiting *rate.Sometimes

	f       *os.File
	path    string
	offset  int64
	partial []byte
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New creates a Watcher that feeds out. Zero config fields take defaults.
func New(cfg Config, out *Queue, opts ...Option) *Watcher {
	def := DefaultConfig(cfg.Dir)
	if cfg.Pattern == "" {
		cfg.Pattern = def.Pattern
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.WaitInterval <= 0 {
		cfg.WaitInterval = def.WaitInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.NoticeInterval <= 0 {
		cfg.NoticeInterval = def.NoticeInterval
	}
	if cfg.BootstrapBytes <= 0 {
		cfg.BootstrapBytes = def.BootstrapBytes
	}
	if cfg.BootstrapEvents <= 0 {
		cfg.BootstrapEvents = def.BootstrapEvents
	}

	w := &Watcher{cfg: cfg, out: out}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = slog.Default().With("component", "watcher", "dir", cfg.Dir)
	}
	w.resetWaiting()
	return w
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) setState(s State) {
	w.state.Store(int32(s))
}

// Path returns the journal currently attached, or "".
// Only meaningful from the Run goroutine or after Run returns.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) resetWaiting() {
	w.waiting = &rate.Sometimes{First: 1, Interval: w.cfg.NoticeInterval}
}

// Run polls until ctx is cancelled. It returns ctx.Err() and never a data
// or I/O error: those are logged, reported on the queue and retried.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.closeFile()
		w.setState(Stopped)
		w.log.Info("watcher stopped")
	}()

	w.log.Info("watcher starting", "pattern", w.cfg.Pattern)
	w.setState(Locating)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		timer.Reset(w.step(ctx))
	}
}

// step runs one poll cycle and returns the delay before the next.
func (w *Watcher) step(ctx context.Context) time.Duration {
	newest, err := Newest(w.cfg.Dir, w.cfg.Pattern)
	if err != nil {
		w.log.Debug("journal discovery failed", "error", err)
	}

	if newest == "" && w.path == "" {
		w.setState(Locating)
		w.waiting.Do(func() {
			w.status(ctx, "", fmt.Sprintf("Waiting for journal in %s", w.cfg.Dir))
		})
		return w.cfg.WaitInterval
	}

	if newest != "" && newest != w.path {
		if w.path != "" {
			w.setState(Rotated)
			w.log.Info("journal rotated", "from", filepath.Base(w.path), "to", filepath.Base(newest))
		}
		w.closeFile()
		if err := w.attach(ctx, newest); err != nil {
			w.ioError(ctx, err)
			return w.cfg.RetryInterval
		}
		return w.cfg.PollInterval
	}

	if err := w.tail(ctx); err != nil {
		w.ioError(ctx, err)
		return w.cfg.RetryInterval
	}
	return w.cfg.PollInterval
}

// attach bootstraps from the tail of path and leaves the file open for
// tailing.
func (w *Watcher) attach(ctx context.Context, path string) error {
	w.setState(Bootstrapping)
	// Set again only once the tail is read; a failed attach retries as one.
	w.path = ""
	w.offset = 0
	w.partial = nil

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat journal: %w", err)
	}

	size := fi.Size()
	start := max(0, size-w.cfg.BootstrapBytes)
	buf, err := io.ReadAll(io.NewSectionReader(f, start, size-start))
	if err != nil {
		f.Close()
		return fmt.Errorf("read journal tail: %w", err)
	}

	win := SelectWindow(buf, start > 0, w.cfg.BootstrapEvents, w.log)
	w.f = f
	w.path = path
	w.offset = start + int64(win.Consumed)
	w.resetWaiting()

	w.log.Info("journal attached",
		"file", filepath.Base(path),
		"records", len(win.Records),
		"boundary", win.Boundary,
		"skipped", win.Skipped)
	w.status(ctx, path, fmt.Sprintf("Watching %s", filepath.Base(path)))
	for _, rec := range win.Records {
		if !w.forward(ctx, path, rec) {
			return nil
		}
	}
	w.setState(Tailing)
	return nil
}

// tail reads whatever was appended since the last cycle.
func (w *Watcher) tail(ctx context.Context) error {
	if w.f == nil {
		f, err := os.Open(w.path)
		if err != nil {
			return fmt.Errorf("reopen journal: %w", err)
		}
		w.f = f
		w.log.Info("journal reopened", "file", filepath.Base(w.path), "offset", w.offset)
	}
	w.setState(Tailing)

	fi, err := w.f.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	size := fi.Size()
	if size < w.offset {
		w.log.Warn("journal truncated", "file", filepath.Base(w.path), "size", size, "offset", w.offset)
		path := w.path
		w.closeFile()
		return w.attach(ctx, path)
	}
	if size == w.offset {
		return nil
	}

	buf := make([]byte, min(size-w.offset, readChunk))
	n, err := w.f.ReadAt(buf, w.offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read journal: %w", err)
	}
	w.offset += int64(n)

	data := append(w.partial, buf[:n]...)
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		w.partial = data
		return nil
	}
	lines := data[:end+1]
	w.partial = bytes.Clone(data[end+1:])

	for len(lines) > 0 {
		i := bytes.IndexByte(lines, '\n')
		line := lines[:i]
		lines = lines[i+1:]
		if !w.forwardLine(ctx, line) {
			return nil
		}
	}
	return nil
}

// forwardLine decodes and forwards one line. Returns false once ctx is done.
func (w *Watcher) forwardLine(ctx context.Context, line []byte) bool {
	rec, err := journal.Decode(line)
	if err != nil {
		if errors.Is(err, journal.ErrBlankLine) {
			return ctx.Err() == nil
		}
		w.log.Warn("skipping malformed journal line", "file", filepath.Base(w.path), "error", err)
		return w.status(ctx, w.path, "Skipped malformed journal line")
	}
	return w.forward(ctx, w.path, rec)
}

func (w *Watcher) forward(ctx context.Context, path string, rec journal.Record) bool {
	if ctx.Err() != nil {
		return false
	}
	w.out.Enqueue(Item{Type: ItemRecord, Record: rec, Path: path})
	return true
}

func (w *Watcher) status(ctx context.Context, path, msg string) bool {
	if ctx.Err() != nil {
		return false
	}
	w.out.Enqueue(Item{Type: ItemStatus, Status: msg, Path: path})
	return true
}

// ioError drops the handle but keeps path and offset, so the next cycle
// reopens where reading stopped.
func (w *Watcher) ioError(ctx context.Context, err error) {
	w.log.Error("journal read failed", "file", w.path, "error", err)
	w.closeFile()
	w.status(ctx, w.path, fmt.Sprintf("Journal read error: %v", err))
}

func (w *Watcher) closeFile() {
	if w.f == nil {
		return
	}
	if err := w.f.Close(); err != nil {
		w.log.Debug("close journal", "error", err)
	}
	w.f = nil
}

// Newest returns the matching file in dir with the latest modification
// time, or "" if there is none. Ties go to the lexically greater name,
// which for journal names is the later one.
func Newest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		mod := fi.ModTime()
		if best == "" || mod.After(bestMod) || (mod.Equal(bestMod) && m > best) {
			best, bestMod = m, mod
		}
	}
	return best, nil
}
