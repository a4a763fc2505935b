package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/refdata"
	"github.com/roach88/edc/internal/state"
)

// PlanetValuer estimates a body's exploration payout.
type PlanetValuer interface {
	Estimate(planetClass string, terraformable, mapped, firstDiscovered bool) (int64, bool)
}

// OrganismValuer looks up a species by display name.
type OrganismValuer interface {
	Lookup(name string) (refdata.Organism, bool)
}

// POILookup returns advisory points of interest for a system.
type POILookup interface {
	Lookup(system string, address int64) []refdata.POI
}

// FarmingLookup returns advisory farming sites for a system.
type FarmingLookup interface {
	ForSystem(system string) []refdata.FarmSite
}

// ItemLabeler renders a short "Type / Subtype" label for an item.
type ItemLabeler interface {
	SubtypeLabel(name string) string
}

// Tables are the read-only reference lookups the engine consults. Any of
// them may be nil; estimation then degrades to "unknown".
type Tables struct {
	Planets   PlanetValuer
	Organisms OrganismValuer
	POIs      POILookup
	Farming   FarmingLookup
	Catalog   ItemLabeler
}

// TablesFrom adapts a reference set. A nil set yields empty Tables.
func TablesFrom(set *refdata.Set) Tables {
	if set == nil {
		return Tables{}
	}
	return Tables{
		Planets:   set.Planets,
		Organisms: set.Organisms,
		POIs:      set.POIs,
		Farming:   set.Farming,
		Catalog:   set.Catalog,
	}
}

// Thresholds control the extra "high value" notices. Zero disables one.
type Thresholds struct {
	// PlanetValue is the minimum body estimate, in credits.
	PlanetValue int64
	// OrganismValue is the minimum species base value, in credits.
	OrganismValue int64
}

// Result is the outcome of folding one record.
type Result struct {
	Seq     int64
	Kind    journal.Kind
	Handler string   // "" when no handler claims the kind
	Notices []string // in the order produced
	Err     error    // a *HandlerError when the handler faulted
}

// Engine folds journal records into a state.Session.
//
// Process is not safe for concurrent use: records must be delivered one at
// a time, in file order, by a single consumer goroutine that also owns the
// Session. The engine performs no blocking I/O of its own; reference tables
// answer from memory after a metadata stat.
type Engine struct {
	tables     Tables
	thresholds Thresholds
	seq        int64
	log        *slog.Logger
	fmt        formatter
	routes     map[journal.Kind]route
}

// Option configures an Engine.
type Option func(*Engine)

// WithTables sets the reference lookups.
func WithTables(t Tables) Option {
	return func(e *Engine) {
		e.tables = t
	}
}

// WithThresholds sets the high-value notice thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithStartSeq resumes record numbering after n, so the next record
// folded is n+1. A restarted session passes its last stored Seq.
func WithStartSeq(n int64) Option {
	return func(e *Engine) {
		e.seq = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default with a component
// attribute.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		fmt:    newFormatter(),
		routes: buildRoutes(domains),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default().With("component", "engine")
	}
	return e
}

// LastSeq returns the sequence number of the last record folded, or the
// start position if none has been. Same goroutine rules as Process.
func (e *Engine) LastSeq() int64 {
	return e.seq
}

// Handles reports whether some domain handler claims kind.
func (e *Engine) Handles(k journal.Kind) bool {
	_, ok := e.routes[k]
	return ok
}

// Process folds rec into s and returns the notices it produced.
//
// Cross-cutting updates run first for every kind: the last-event marker,
// the sequence number and a numeric Credits field. The record is then
// routed by kind to the single domain handler that claims it; unclaimed
// kinds are ignored. A handler fault is recovered, logged and reported in
// Result.Err; it never propagates as a panic.
func (e *Engine) Process(s *state.Session, rec journal.Record) Result {
	e.seq++
	res := Result{Seq: e.seq, Kind: rec.Kind()}

	s.Activity.LastEvent = string(rec.Kind())
	s.Activity.Seq = res.Seq
	if cr, ok := rec.Int("Credits"); ok {
		s.Commander.Credits = &cr
	}

	r, ok := e.routes[rec.Kind()]
	if !ok {
		return res
	}
	res.Handler = r.domain

	out := &notices{f: e.fmt}
	res.Err = e.invoke(r, s, rec, out, res.Seq)
	res.Notices = out.list
	if res.Err != nil {
		e.log.Error("handler fault; record treated as handled",
			"event", rec.Kind(),
			"handler", r.domain,
			"seq", res.Seq,
			"timestamp", rec.Timestamp(),
			"error", res.Err,
		)
	}
	return res
}

func (e *Engine) invoke(r route, s *state.Session, rec journal.Record, out *notices, seq int64) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &HandlerError{Kind: rec.Kind(), Handler: r.domain, Seq: seq, Err: errPanic{value: v}}
		}
	}()
	r.fold(e, s, rec, out)
	return nil
}

// notices collects the human-readable output of one record.
type notices struct {
	f    formatter
	list []string
}

func (n *notices) add(s string) {
	if s != "" {
		n.list = append(n.list, s)
	}
}

func (n *notices) addf(format string, args ...any) {
	n.add(fmt.Sprintf(format, args...))
}
