package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var explorationDomain = domain{
	name: "exploration",
	kinds: map[journal.Kind]foldFunc{
		journal.KindScan: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.scanBody(&s.Discovery, &s.Activity, r, out)
		},
		journal.KindSAAScanComplete: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.mapped(&s.Discovery, &s.Activity, r, out)
		},
		journal.KindFSSDiscoveryScan: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.discoveryScan(&s.Discovery, r, out)
		},
		journal.KindFSSAllBodiesFound: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.allBodiesFound(&s.Discovery, r, out)
		},
		journal.KindFSSSignalDiscovered: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.signalDiscovered(&s.Discovery, r, out)
		},
		journal.KindFSSBodySignals: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.bodySignals(&s.Discovery, r, out)
		},
		journal.KindSAASignalsFound: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.surfaceSignals(&s.Discovery, r, out)
		},
		journal.KindMultiSellExplorationData: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.sellExploration(&s.Ledger, r, out)
		},
		journal.KindSellExplorationData: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.sellExploration(&s.Ledger, r, out)
		},
	},
}

func (e *Engine) estimate(b *state.Body) {
	if e.tables.Planets == nil || b.PlanetClass == "" {
		return
	}
	if v, ok := e.tables.Planets.Estimate(b.PlanetClass, b.Terraformable, b.Mapped, b.FirstDiscovered); ok {
		b.EstimatedValue = &v
	}
}

func terraformable(stateText string) bool {
	s := strings.TrimSpace(stateText)
	return s != "" && !strings.EqualFold(s, "Not terraformable")
}

// scanBody folds a detailed body scan. Records without a planet class
// (stars, belt clusters) only update the id map and the last-body marker.
func (e *Engine) scanBody(d *state.Discovery, a *state.Activity, r journal.Record, out *notices) {
	name := r.Text("BodyName")
	if name == "" {
		return
	}
	a.LastBody = name
	id, hasID := r.Int("BodyID")
	if hasID {
		d.NameBody(id, name)
	}

	class := r.Localised("PlanetClass")
	if class == "" {
		return
	}

	existing, known := d.Lookup(name)
	wasScanned := known && existing.Scanned

	b := d.Body(name)
	if hasID {
		b.ID, b.HasID = id, true
	}
	b.Scanned = true
	b.PlanetClass = class
	b.Terraformable = terraformable(r.Text("TerraformState"))
	if dist, ok := r.Float("DistanceFromArrivalLS"); ok {
		b.DistanceLS = &dist
	}
	if land, ok := r.Bool("Landable"); ok {
		b.Landable = &land
	}
	if v := r.Localised("Volcanism"); v != "" {
		b.Volcanism = v
	}
	if mats := scanMaterials(r); mats != nil {
		b.Materials = mats
	}
	// An absent WasDiscovered is not evidence of a first discovery.
	if wd, ok := r.Bool("WasDiscovered"); ok {
		b.FirstDiscovered = !wd
	}
	if wm, ok := r.Bool("WasMapped"); ok && wm {
		b.Mapped = true
	}
	if n, ok := d.BioSignals[name]; ok {
		b.BioSignals = n
	}
	if n, ok := d.GeoSignals[name]; ok {
		b.GeoSignals = n
	}
	if g, ok := d.Genuses[name]; ok {
		b.Genuses = append([]string(nil), g...)
	}
	e.estimate(b)

	if !wasScanned && b.EstimatedValue != nil && e.thresholds.PlanetValue > 0 && *b.EstimatedValue >= e.thresholds.PlanetValue {
		desc := class
		if b.Terraformable {
			desc += ", terraformable"
		}
		out.add(fmt.Sprintf("High value: %s (%s) ~%s", name, desc, out.f.credits(*b.EstimatedValue)))
	}
}

// scanMaterials accepts both the list form [{Name, Percent}] written by the
// client and a flat {name: percent} object.
func scanMaterials(r journal.Record) map[string]float64 {
	if list, ok := r.Objects("Materials"); ok {
		out := make(map[string]float64, len(list))
		for _, m := range list {
			name := m.Localised("Name")
			pct, ok := m.Float("Percent")
			if name == "" || !ok {
				continue
			}
			out[name] = pct
		}
		return out
	}
	if obj, ok := r.Object.Object("Materials"); ok {
		out := make(map[string]float64, len(obj))
		for k := range obj {
			if pct, ok := obj.Float(k); ok {
				out[k] = pct
			}
		}
		return out
	}
	return nil
}

// mapped marks a body as surface-mapped and re-estimates it. An unknown body
// gets a placeholder so the flag is not lost if its Scan arrives later.
func (e *Engine) mapped(d *state.Discovery, a *state.Activity, r journal.Record, out *notices) {
	name := r.Text("BodyName")
	if name == "" {
		return
	}
	a.LastBody = name
	b := d.Body(name)
	if id, ok := r.Int("BodyID"); ok {
		d.NameBody(id, name)
	}
	first := !b.Mapped
	b.Mapped = true
	e.estimate(b)

	if !first {
		return
	}
	if b.EstimatedValue != nil {
		out.addf("Mapped: %s (~%s)", name, out.f.credits(*b.EstimatedValue))
	} else {
		out.addf("Mapped: %s", name)
	}
}

func (e *Engine) discoveryScan(d *state.Discovery, r journal.Record, out *notices) {
	bc, hasBC := r.Int("BodyCount")
	if hasBC {
		d.BodyCount = bc
	}
	nb, hasNB := r.Int("NonBodyCount")
	if hasNB {
		d.NonBodyCount = nb
	}
	if hasBC || hasNB {
		out.addf("Discovery scan: %d bodies, %d signals", d.BodyCount, d.NonBodyCount)
	}
}

func (e *Engine) allBodiesFound(d *state.Discovery, r journal.Record, out *notices) {
	if n, ok := r.Int("Count"); ok {
		d.BodyCount = n
	}
	if !d.AllBodiesFound {
		out.addf("All bodies found (%d)", d.BodyCount)
	}
	d.AllBodiesFound = true
}

var phenomenaWords = []string{"lagrange", "cloud", "anomal", "phenomen", "notable", "stellar"}

// ClassifySignal picks the category of a system-level signal, checking in
// order: megaship type, station flag, USS subtype, phenomena keywords in the
// display name.
func ClassifySignal(name, signalType, ussType string, isStation bool) state.SignalCategory {
	switch {
	case strings.EqualFold(strings.TrimSpace(signalType), "megaship"):
		return state.SignalMegaship
	case isStation:
		return state.SignalStation
	case strings.TrimSpace(ussType) != "":
		return state.SignalUSS
	}
	lower := strings.ToLower(name)
	for _, w := range phenomenaWords {
		if strings.Contains(lower, w) {
			return state.SignalPhenomena
		}
	}
	return state.SignalOther
}

func (e *Engine) signalDiscovered(d *state.Discovery, r journal.Record, out *notices) {
	name := r.Localised("SignalName")
	sigType := r.Text("SignalType")
	if sigType == "" {
		sigType = r.Text("SignalType_Localised")
	}
	uss := label(r.Object, "USSType")

	sig := state.Signal{
		Name:     name,
		Type:     sigType,
		USSType:  uss,
		LastSeen: r.Timestamp(),
	}
	threatKey, stationKey := "", ""
	if t, ok := r.Int("ThreatLevel"); ok {
		sig.ThreatLevel = &t
		threatKey = fmt.Sprint(t)
	}
	station, hasStation := r.Bool("IsStation")
	if hasStation {
		sig.IsStation = &station
		stationKey = fmt.Sprint(station)
	}
	if tr, ok := r.Float("TimeRemaining"); ok {
		sig.TimeRemaining = &tr
	}
	sig.Category = ClassifySignal(name, sigType, uss, station)
	sig.Key = strings.Join([]string{name, sigType, uss, threatKey, stationKey}, "|")

	if d.AddSignal(sig) && sig.Category == state.SignalPhenomena {
		out.addf("Signal: %s (%s)", name, sig.Category)
	}
}

// signalCounts reads biological and geological counts from a Signals list.
// The Type field is a token such as "$SAA_SignalType_Biological;".
func signalCounts(r journal.Record) (bio, geo int, found bool) {
	list, ok := r.Objects("Signals")
	if !ok {
		return 0, 0, false
	}
	for _, sig := range list {
		t := strings.ToLower(sig.Text("Type"))
		tl := strings.ToLower(sig.Text("Type_Localised"))
		n, ok := sig.Int("Count")
		if !ok {
			continue
		}
		switch {
		case strings.Contains(t, "biological") || tl == "biological":
			bio = int(n)
		case strings.Contains(t, "geological") || tl == "geological":
			geo = int(n)
		}
	}
	return bio, geo, true
}

func (e *Engine) bodySignals(d *state.Discovery, r journal.Record, out *notices) {
	name := r.Text("BodyName")
	if name == "" {
		return
	}
	if id, ok := r.Int("BodyID"); ok {
		d.Body(name)
		d.NameBody(id, name)
	}
	bio, geo, _ := signalCounts(r)
	prevBio := d.BioSignals[name]
	d.SetSignalCounts(name, bio, geo)
	if bio > 0 && bio != prevBio {
		out.addf("Bio signals: %s (%d)", name, bio)
	}
}

// surfaceSignals folds a surface-scan signal report. Counts it does not
// carry keep their previous values.
func (e *Engine) surfaceSignals(d *state.Discovery, r journal.Record, out *notices) {
	name := r.Text("BodyName")
	if name == "" {
		return
	}
	d.Body(name)
	if id, ok := r.Int("BodyID"); ok {
		d.NameBody(id, name)
	}

	bio, geo, _ := signalCounts(r)
	if bio == 0 {
		bio = d.BioSignals[name]
	}
	if geo == 0 {
		geo = d.GeoSignals[name]
	}
	d.SetSignalCounts(name, bio, geo)

	list, _ := r.Objects("Genuses")
	var genuses []string
	for _, g := range list {
		if n := g.Localised("Genus"); n != "" {
			genuses = append(genuses, n)
		}
	}
	if len(genuses) == 0 {
		return
	}
	before := strings.Join(d.Genuses[name], ", ")
	d.SetGenuses(name, genuses)
	if after := strings.Join(d.Genuses[name], ", "); after != before {
		out.addf("Genera on %s: %s", name, after)
	}
}

func (e *Engine) sellExploration(l *state.Ledger, r journal.Record, out *notices) {
	total, ok := r.Int("TotalEarnings")
	if !ok {
		base, _ := r.Int("BaseValue")
		bonus, _ := r.Int("Bonus")
		total = base + bonus
	}
	if state.Earn(&l.Exploration, total) {
		out.addf("Exploration sold: %s", out.f.credits(total))
	}
}
