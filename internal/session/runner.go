// Package session runs the consumer side of the journal pipeline: it drains
// the watcher queue, folds each record through the engine into the one
// Session it owns, and publishes notices and debounced snapshots.
//
// CRITICAL: Run must be called from exactly one goroutine. The Session is
// only ever mutated there; other goroutines see deep-copied snapshots.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/edc/internal/engine"
	"github.com/roach88/edc/internal/state"
	"github.com/roach88/edc/internal/watcher"
)

// Source says where a notice came from.
type Source string

const (
	SourceEngine  Source = "engine"
	SourceWatcher Source = "watcher"
)

// Notice is one line of advisory output.
type Notice struct {
	Seq    int64     `json:"seq,omitempty"` // engine sequence; 0 for watcher notices
	At     time.Time `json:"at"`
	Kind   string    `json:"kind,omitempty"`
	Source Source    `json:"source"`
	Text   string    `json:"text"`
}

// History persists notices. Implementations must tolerate being called
// only from the runner goroutine.
type History interface {
	BeginSession(ctx context.Context, id string, started time.Time) error
	RecordNotice(ctx context.Context, sessionID string, n Notice) error
}

// Archiver keeps the raw lines of ingested records.
type Archiver interface {
	Append(line []byte) error
}

// DefaultRefresh is the snapshot debounce interval.
const DefaultRefresh = 250 * time.Millisecond

// Runner drains a queue into an engine.
type Runner struct {
	id      string
	eng     *engine.Engine
	queue   *watcher.Queue
	state   *state.Session
	refresh time.Duration
	log     *slog.Logger
	now     func() time.Time

	history  History
	archive  Archiver
	notices  []func(Notice)
	snapshot []func(*state.Session)

	dirty   bool
	flushed time.Time
	latest  atomic.Pointer[state.Session]
	faults  atomic.Int64
	folded  atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithIDGenerator sets how the session id is made. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) {
		r.id = g.Generate()
	}
}

// WithState starts from an existing session instead of an empty one.
func WithState(s *state.Session) Option {
	return func(r *Runner) {
		r.state = s
	}
}

// WithRefresh sets the snapshot debounce interval.
func WithRefresh(d time.Duration) Option {
	return func(r *Runner) {
		r.refresh = d
	}
}

// WithHistory records every notice.
func WithHistory(h History) Option {
	return func(r *Runner) {
		r.history = h
	}
}

// WithArchive appends the raw line of every folded record.
func WithArchive(a Archiver) Option {
	return func(r *Runner) {
		r.archive = a
	}
}

// OnNotice registers a notice listener. Listeners run on the runner
// goroutine and must not block.
func OnNotice(fn func(Notice)) Option {
	return func(r *Runner) {
		r.notices = append(r.notices, fn)
	}
}

// OnSnapshot registers a snapshot listener. The snapshot is a private copy.
func OnSnapshot(fn func(*state.Session)) Option {
	return func(r *Runner) {
		r.snapshot = append(r.snapshot, fn)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithNow sets the wall clock used for watcher notices and session start.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a Runner folding items from q through e.
func New(e *engine.Engine, q *watcher.Queue, opts ...Option) *Runner {
	r := &Runner{
		eng:     e,
		queue:   q,
		refresh: DefaultRefresh,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = UUIDv7Generator{}.Generate()
	}
	if r.state == nil {
		r.state = state.New()
	}
	if r.log == nil {
		r.log = slog.Default().With("component", "session")
	}
	r.log = r.log.With("session", r.id)
	r.latest.Store(r.state.Snapshot())
	return r
}

// ID returns the session id.
func (r *Runner) ID() string {
	return r.id
}

// Latest returns the most recently published snapshot. Safe from any
// goroutine; never nil.
func (r *Runner) Latest() *state.Session {
	return r.latest.Load()
}

// Stats reports how many records were folded and how many faulted.
func (r *Runner) Stats() (folded, faults int64) {
	return r.folded.Load(), r.faults.Load()
}

// Run drains the queue until ctx is cancelled or the queue is closed and
// empty. A final snapshot is always published before returning.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("session starting")
	if r.history != nil {
		if err := r.history.BeginSession(ctx, r.id, r.now()); err != nil {
			r.log.Error("history unavailable; notices will not be recorded", "error", err)
			r.history = nil
		}
	}
	defer r.Flush()

	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()
	r.flushed = r.now()

	for {
		if it, ok := r.queue.TryDequeue(); ok {
			r.Apply(ctx, it)
			// A busy queue starves the ticker case below.
			if r.dirty && r.now().Sub(r.flushed) >= r.refresh {
				r.Flush()
			}
			continue
		}

		select {
		case <-ctx.Done():
			r.log.Info("session stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
			r.Flush()
		case <-r.queue.Wait():
			if r.queue.Closed() && r.queue.Len() == 0 {
				r.log.Info("session stopping: queue closed")
				return nil
			}
		}
	}
}

// Apply folds one queue item. Called by Run; exported for synchronous
// replays that have no watcher.
func (r *Runner) Apply(ctx context.Context, it watcher.Item) {
	switch it.Type {
	case watcher.ItemStatus:
		r.emit(ctx, Notice{At: r.now(), Source: SourceWatcher, Text: it.Status})
	case watcher.ItemRecord:
		res := r.eng.Process(r.state, it.Record)
		r.folded.Add(1)
		r.dirty = true
		if res.Err != nil {
			r.faults.Add(1)
		}
		if r.archive != nil {
			if err := r.archive.Append(it.Record.Raw()); err != nil {
				r.log.Error("archive append failed; archiving disabled", "error", err)
				r.archive = nil
			}
		}
		at, ok := it.Record.Time()
		if !ok {
			at = r.now()
		}
		for _, text := range res.Notices {
			r.emit(ctx, Notice{Seq: res.Seq, At: at, Kind: string(res.Kind), Source: SourceEngine, Text: text})
		}
	}
}

func (r *Runner) emit(ctx context.Context, n Notice) {
	if r.history != nil {
		if err := r.history.RecordNotice(ctx, r.id, n); err != nil {
			r.log.Warn("history write failed", "error", err, "seq", n.Seq)
		}
	}
	for _, fn := range r.notices {
		fn(n)
	}
}

// Flush publishes a snapshot if anything was folded since the last one.
func (r *Runner) Flush() {
	if !r.dirty {
		return
	}
	r.dirty = false
	r.flushed = r.now()
	snap := r.state.Snapshot()
	r.latest.Store(snap)
	for _, fn := range r.snapshot {
		fn(snap.Snapshot())
	}
}
