package engine

import (
	"strings"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var systemDomain = domain{
	name: "system",
	kinds: map[journal.Kind]foldFunc{
		journal.KindLocation:    (*Engine).arrive,
		journal.KindFSDJump:     (*Engine).arrive,
		journal.KindCarrierJump: (*Engine).arrive,
		journal.KindStartJump: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.startJump(&s.System, &s.Activity, r, out)
		},
	},
}

// arrive handles the three system-boundary kinds. The whole session is in
// scope because a change of system clears every per-system slice.
func (e *Engine) arrive(s *state.Session, r journal.Record, out *notices) {
	name := r.Text("StarSystem")
	jumpStar := s.System.JumpStarClass
	if name != "" && name != s.System.Name {
		s.ClearSystem()
	}
	sys := &s.System

	if name != "" {
		sys.Name = name
		s.Activity.Visit(name)
	}
	if addr, ok := r.Int("SystemAddress"); ok {
		sys.Address = addr
	}

	// Arrival completes a pending hyperspace jump; the star class came with
	// StartJump.
	if s.Activity.PendingSystem != "" && s.Activity.PendingSystem == sys.Name && jumpStar != "" {
		sys.StarClass = jumpStar
	}
	if sc := r.Text("StarClass"); sc != "" {
		sys.StarClass = sc
	}
	sys.InHyperspace = false
	sys.JumpStarClass = ""
	s.Activity.PendingSystem = ""
	s.Activity.PendingJumpType = ""

	adoptSystemMeta(sys, r)
	e.refreshIntel(s, out)

	if sys.Name == "" {
		return
	}
	switch r.Kind() {
	case journal.KindFSDJump:
		if d, ok := r.Float("JumpDist"); ok {
			out.addf("Arrived: %s (%.2f ly)", sys.Name, d)
		} else {
			out.addf("Arrived: %s", sys.Name)
		}
	case journal.KindCarrierJump:
		out.addf("Carrier jump: %s", sys.Name)
	default:
		out.addf("Location: %s", sys.Name)
	}
}

// adoptSystemMeta copies authoritative system metadata from a boundary
// record. Absent fields leave the current value in place.
func adoptSystemMeta(sys *state.System, r journal.Record) {
	if v := label(r.Object, "SystemAllegiance"); v != "" {
		sys.Allegiance = v
	}
	if v := label(r.Object, "SystemGovernment"); v != "" {
		sys.Government = v
	}
	if v := label(r.Object, "SystemEconomy"); v != "" {
		sys.Economy = v
	}
	if v := label(r.Object, "SystemSecurity"); v != "" {
		sys.Security = v
	}
	if n, ok := r.Int("Population"); ok {
		sys.Population = n
	}

	// SystemFaction is an object in current clients and a bare string in
	// old ones.
	if f, ok := r.Object.Object("SystemFaction"); ok {
		if n := f.Text("Name"); n != "" {
			sys.ControllingFaction = n
		}
	} else if n := r.Text("SystemFaction"); n != "" {
		sys.ControllingFaction = n
	}

	if list, ok := r.Objects("Factions"); ok {
		sys.Factions = nil
		for _, f := range list {
			name := f.Text("Name")
			if name == "" {
				continue
			}
			inf, _ := f.Float("Influence")
			rep, _ := f.Float("MyReputation")
			sys.Factions = append(sys.Factions, state.Faction{
				Name:       name,
				Influence:  inf,
				State:      CleanToken(f.Text("FactionState")),
				Allegiance: f.Text("Allegiance"),
				Government: f.Text("Government"),
				Reputation: rep,
			})
		}
	}

	if v := r.Text("ControllingPower"); v != "" {
		sys.ControllingPower = v
	}
	if v := r.Text("PowerplayState"); v != "" {
		sys.PowerplayState = v
	}
	if powers, ok := r.Strings("Powers"); ok {
		sys.Powers = powers
	}
	if list, ok := r.Objects("PowerplayConflictProgress"); ok {
		sys.ConflictProgress = make(map[string]float64, len(list))
		for _, p := range list {
			power := p.Text("Power")
			cp, ok := p.Float("ConflictProgress")
			if power == "" || !ok {
				continue
			}
			sys.ConflictProgress[power] = cp
		}
	}
}

// refreshIntel replaces the advisory data for the current system.
func (e *Engine) refreshIntel(s *state.Session, out *notices) {
	s.Intel = state.Intel{}
	if s.System.Name == "" {
		return
	}

	if e.tables.POIs != nil {
		for _, p := range e.tables.POIs.Lookup(s.System.Name, s.System.Address) {
			s.Intel.POIs = append(s.Intel.POIs, state.POI{
				Title:    p.Title,
				Category: p.Category,
				Body:     p.Body,
				Note:     p.Note,
				Source:   p.Source,
			})
		}
	}
	if e.tables.Farming != nil {
		s.Intel.FarmSites = len(e.tables.Farming.ForSystem(s.System.Name))
	}

	for _, p := range s.Intel.POIs {
		title := p.Title
		if title == "" {
			title = "Point of interest"
		}
		var extra []string
		if p.Category != "" {
			extra = append(extra, p.Category)
		}
		if p.Body != "" {
			extra = append(extra, p.Body)
		}
		if len(extra) > 0 {
			title += " (" + strings.Join(extra, ", ") + ")"
		}
		out.addf("POI: %s", title)
	}
	if s.Intel.FarmSites > 0 {
		out.addf("Farming sites in system: %d", s.Intel.FarmSites)
	}
}

// startJump records the pending destination. Per-system state is kept until
// the arrival record confirms a different system.
func (e *Engine) startJump(sys *state.System, a *state.Activity, r journal.Record, out *notices) {
	jt := r.Text("JumpType")
	if jt == "" {
		return
	}
	a.PendingJumpType = jt
	if !strings.EqualFold(jt, "Hyperspace") {
		return
	}

	dest := r.Text("StarSystem")
	star := r.Text("StarClass")
	a.PendingSystem = dest
	sys.InHyperspace = true
	sys.JumpStarClass = star

	switch {
	case dest != "" && star != "":
		out.addf("Jumping to: %s (%s)", dest, star)
	case dest != "":
		out.addf("Jumping to: %s", dest)
	}
}
