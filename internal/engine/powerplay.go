package engine

import (
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var powerplayDomain = domain{
	name: "powerplay",
	kinds: map[journal.Kind]foldFunc{
		journal.KindPowerplay: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.powerplay(&s.Pledge, r, out)
		},
		journal.KindPowerplayJoin: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.pledgeJoin(&s.Pledge, r, out)
		},
		journal.KindPowerplayLeave: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.pledgeLeave(&s.Pledge, r, out)
		},
		journal.KindPowerplayDefect: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.pledgeDefect(&s.Pledge, r, out)
		},
		journal.KindPowerplayRank: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.pledgeRank(&s.Pledge, r, out)
		},
		journal.KindPowerplayMerits: func(e *Engine, s *state.Session, r journal.Record, _ *notices) {
			e.pledgeMerits(&s.Pledge, r)
		},
	},
}

// powerplay is the status record written at login.
func (e *Engine) powerplay(p *state.Pledge, r journal.Record, out *notices) {
	if v := r.Text("Power"); v != "" {
		p.Power = v
	}
	if v := r.Text("State"); v != "" {
		p.State = v
	}
	if n, ok := r.Int("Rank"); ok {
		p.Rank = n
	}
	if n, ok := r.Int("Merits"); ok {
		p.Merits = n
	}
	if p.Power != "" {
		out.addf("PowerPlay: %s (Rank %d, Merits %d)", p.Power, p.Rank, p.Merits)
	}
}

func (e *Engine) pledgeJoin(p *state.Pledge, r journal.Record, out *notices) {
	power := r.Text("Power")
	if power == "" {
		return
	}
	*p = state.Pledge{Power: power}
	out.addf("PowerPlay: pledged to %s", power)
}

func (e *Engine) pledgeLeave(p *state.Pledge, r journal.Record, out *notices) {
	old := p.Power
	if v := r.Text("Power"); v != "" {
		old = v
	}
	*p = state.Pledge{}
	if old != "" {
		out.addf("PowerPlay: left %s", old)
	}
}

// pledgeDefect moves the pledge; rank restarts and merits are not carried.
func (e *Engine) pledgeDefect(p *state.Pledge, r journal.Record, out *notices) {
	to := r.Text("ToPower")
	if to == "" {
		return
	}
	from := r.Text("FromPower")
	*p = state.Pledge{Power: to}
	if from != "" {
		out.addf("PowerPlay: defected from %s to %s", from, to)
	} else {
		out.addf("PowerPlay: defected to %s", to)
	}
}

func (e *Engine) pledgeRank(p *state.Pledge, r journal.Record, out *notices) {
	n, ok := r.Int("Rank")
	if !ok {
		return
	}
	if v := r.Text("Power"); v != "" {
		p.Power = v
	}
	if n != p.Rank {
		out.addf("PowerPlay rank: %d", n)
	}
	p.Rank = n
}

// pledgeMerits takes the running total; the per-event gain is not summed.
func (e *Engine) pledgeMerits(p *state.Pledge, r journal.Record) {
	if v := r.Text("Power"); v != "" {
		p.Power = v
	}
	if n, ok := r.Int("TotalMerits"); ok {
		p.Merits = n
	}
}
