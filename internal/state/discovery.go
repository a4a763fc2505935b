package state

import (
	"maps"
	"slices"
	"strings"
)

// MaxSignals bounds the per-system discovered-signal list.
const MaxSignals = 200

// Body is everything known about one celestial body of the current system.
type Body struct {
	Name            string             `json:"name"`
	ID              int64              `json:"id"`
	HasID           bool               `json:"has_id"`
	Scanned         bool               `json:"scanned"` // false for signal-only placeholders
	PlanetClass     string             `json:"planet_class,omitempty"`
	Terraformable   bool               `json:"terraformable,omitempty"`
	Mapped          bool               `json:"mapped,omitempty"`
	FirstDiscovered bool               `json:"first_discovered,omitempty"`
	DistanceLS      *float64           `json:"distance_ls,omitempty"`
	Landable        *bool              `json:"landable,omitempty"`
	Volcanism       string             `json:"volcanism,omitempty"`
	Materials       map[string]float64 `json:"materials,omitempty"`
	EstimatedValue  *int64             `json:"estimated_value,omitempty"`
	BioSignals      int                `json:"bio_signals,omitempty"`
	GeoSignals      int                `json:"geo_signals,omitempty"`
	Genuses         []string           `json:"genuses,omitempty"`
}

// SignalCategory is the coarse class of a system-level signal.
type SignalCategory string

const (
	SignalMegaship  SignalCategory = "Megaship"
	SignalStation   SignalCategory = "Station"
	SignalUSS       SignalCategory = "USS"
	SignalPhenomena SignalCategory = "Phenomena"
	SignalOther     SignalCategory = "Other"
)

// Signal is one discovered system-level signal.
type Signal struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	Type          string         `json:"type,omitempty"`
	USSType       string         `json:"uss_type,omitempty"`
	Category      SignalCategory `json:"category"`
	ThreatLevel   *int64         `json:"threat_level,omitempty"`
	IsStation     *bool          `json:"is_station,omitempty"`
	TimeRemaining *float64       `json:"time_remaining,omitempty"`
	LastSeen      string         `json:"last_seen,omitempty"`
}

// Discovery holds the per-system scan results.
type Discovery struct {
	Bodies         map[string]*Body    `json:"bodies"`
	BodyNames      map[int64]string    `json:"body_names"`
	BodyCount      int64               `json:"body_count,omitempty"`
	NonBodyCount   int64               `json:"non_body_count,omitempty"`
	AllBodiesFound bool                `json:"all_bodies_found,omitempty"`
	Signals        []Signal            `json:"signals,omitempty"`
	BioSignals     map[string]int      `json:"bio_signals,omitempty"`
	GeoSignals     map[string]int      `json:"geo_signals,omitempty"`
	Genuses        map[string][]string `json:"genuses,omitempty"`
}

// Reset empties the slice.
func (d *Discovery) Reset() {
	*d = Discovery{
		Bodies:     make(map[string]*Body),
		BodyNames:  make(map[int64]string),
		BioSignals: make(map[string]int),
		GeoSignals: make(map[string]int),
		Genuses:    make(map[string][]string),
	}
}

// Body returns the record for name, creating an empty placeholder on first
// reference. The returned pointer stays valid until Reset.
func (d *Discovery) Body(name string) *Body {
	if b, ok := d.Bodies[name]; ok {
		return b
	}
	b := &Body{Name: name}
	d.Bodies[name] = b
	return b
}

// Lookup returns an existing body record.
func (d *Discovery) Lookup(name string) (*Body, bool) {
	b, ok := d.Bodies[name]
	return b, ok
}

// NameBody records the id -> name mapping and stamps the id on the body
// record if one exists.
func (d *Discovery) NameBody(id int64, name string) {
	d.BodyNames[id] = name
	if b, ok := d.Bodies[name]; ok {
		b.ID, b.HasID = id, true
	}
}

// BodyName resolves a numeric body id.
func (d *Discovery) BodyName(id int64) (string, bool) {
	n, ok := d.BodyNames[id]
	return n, ok
}

// SetSignalCounts stores biological/geological counts for a body and mirrors
// them onto its record.
func (d *Discovery) SetSignalCounts(name string, bio, geo int) {
	d.BioSignals[name] = bio
	d.GeoSignals[name] = geo
	b := d.Body(name)
	b.BioSignals, b.GeoSignals = bio, geo
}

// SetGenuses stores the confirmed genus list for a body, de-duplicated in
// first-seen order.
func (d *Discovery) SetGenuses(name string, genuses []string) {
	seen := make(map[string]bool, len(genuses))
	out := make([]string, 0, len(genuses))
	for _, g := range genuses {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	d.Genuses[name] = out
	d.Body(name).Genuses = slices.Clone(out)
}

// AddSignal inserts or refreshes a signal by key. New keys are appended;
// once the list exceeds MaxSignals the oldest entries are dropped. It
// reports whether the key was new.
func (d *Discovery) AddSignal(sig Signal) bool {
	for i := range d.Signals {
		if d.Signals[i].Key == sig.Key {
			d.Signals[i] = sig
			return false
		}
	}
	d.Signals = append(d.Signals, sig)
	if over := len(d.Signals) - MaxSignals; over > 0 {
		d.Signals = slices.Delete(d.Signals, 0, over)
	}
	return true
}

// SortedBodies returns the body records ordered by id (unknown ids last),
// then name.
func (d *Discovery) SortedBodies() []Body {
	out := make([]Body, 0, len(d.Bodies))
	for _, b := range d.Bodies {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b Body) int {
		if a.HasID != b.HasID {
			if a.HasID {
				return -1
			}
			return 1
		}
		if a.HasID && a.ID != b.ID {
			if a.ID < b.ID {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (d Discovery) clone() Discovery {
	c := d
	c.Bodies = make(map[string]*Body, len(d.Bodies))
	for k, b := range d.Bodies {
		bc := *b
		bc.Materials = maps.Clone(b.Materials)
		bc.Genuses = slices.Clone(b.Genuses)
		c.Bodies[k] = &bc
	}
	c.BodyNames = maps.Clone(d.BodyNames)
	c.Signals = slices.Clone(d.Signals)
	c.BioSignals = maps.Clone(d.BioSignals)
	c.GeoSignals = maps.Clone(d.GeoSignals)
	c.Genuses = make(map[string][]string, len(d.Genuses))
	for k, v := range d.Genuses {
		c.Genuses[k] = slices.Clone(v)
	}
	return c
}
