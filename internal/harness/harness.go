package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/edc/internal/engine"
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/session"
	"github.com/roach88/edc/internal/state"
	"github.com/roach88/edc/internal/testutil"
	"github.com/roach88/edc/internal/watcher"
)

// Result is the outcome of one scenario run.
type Result struct {
	Pass      bool             `json:"pass"`
	Errors    []error          `json:"-"`
	Notices   []session.Notice `json:"notices"`
	State     *state.Session   `json:"state"`
	Records   int64            `json:"records"`
	Malformed int              `json:"malformed"`
	Faults    int64            `json:"faults"`
}

type options struct {
	tables engine.Tables
	log    *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithTables gives the engine reference tables.
func WithTables(t engine.Tables) Option {
	return func(o *options) {
		o.tables = t
	}
}

// WithLogger routes engine and runner logs to l. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Run folds the scenario journal through a fresh engine and evaluates its
// assertions. The returned error covers setup problems only; failed
// assertions are reported in Result.Errors with Pass false.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	if s == nil {
		return nil, errors.New("nil scenario")
	}
	o := options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	engOpts := []engine.Option{
		engine.WithTables(o.tables),
		engine.WithLogger(o.log),
	}
	if s.Thresholds != nil {
		engOpts = append(engOpts, engine.WithThresholds(engine.Thresholds{
			PlanetValue:   s.Thresholds.PlanetValue,
			OrganismValue: s.Thresholds.OrganismValue,
		}))
	}

	res := &Result{Notices: []session.Notice{}}
	runner := session.New(engine.New(engOpts...), watcher.NewQueue(),
		session.WithIDGenerator(session.NewFixedGenerator(s.Name)),
		session.WithLogger(o.log),
		session.WithNow(func() time.Time { return testutil.Epoch }),
		session.OnNotice(func(n session.Notice) {
			res.Notices = append(res.Notices, n)
		}),
	)

	ctx := context.Background()
	ts := testutil.NewTimestamps()
	for i, step := range s.Journal {
		line, err := step.line(ts)
		if err != nil {
			return nil, fmt.Errorf("journal[%d]: %w", i, err)
		}
		rec, err := journal.Decode(line)
		if errors.Is(err, journal.ErrBlankLine) {
			continue
		}
		if err != nil {
			res.Malformed++
			continue
		}
		runner.Apply(ctx, watcher.Item{Type: watcher.ItemRecord, Record: rec, Path: s.Name})
	}
	runner.Flush()

	res.Records, res.Faults = runner.Stats()
	res.State = runner.Latest()
	if res.State == nil {
		res.State = state.New()
	}

	for _, a := range s.Assertions {
		if err := evaluate(res, a); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	res.Pass = len(res.Errors) == 0
	return res, nil
}

// line renders the step as one journal line.
func (st Step) line(ts *testutil.Timestamps) ([]byte, error) {
	if st.Raw != nil {
		return []byte(*st.Raw), nil
	}
	m := make(map[string]any, len(st.Fields)+2)
	for k, v := range st.Fields {
		m[k] = v
	}
	m["event"] = st.Event
	if _, ok := m["timestamp"]; !ok {
		m["timestamp"] = ts.Next()
	}
	rec, err := journal.FromMap(m)
	if err != nil {
		return nil, err
	}
	return rec.Raw(), nil
}
