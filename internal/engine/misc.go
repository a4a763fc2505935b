package engine

import (
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var miscDomain = domain{
	name: "misc",
	kinds: map[journal.Kind]foldFunc{
		journal.KindRedeemVoucher: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.redeemVoucher(&s.Ledger, r, out)
		},
		journal.KindCommunityGoalJoin: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.goalJoin(&s.Ledger, r, out)
		},
		journal.KindCommunityGoal: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.goalStatus(&s.Ledger, r, out)
		},
		journal.KindCommunityGoalReward: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.goalReward(&s.Ledger, r, out)
		},
		journal.KindCommunityGoalDiscard: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.goalDiscard(&s.Ledger, r, out)
		},
	},
}

func (e *Engine) redeemVoucher(l *state.Ledger, r journal.Record, out *notices) {
	amt, ok := r.Int("Amount")
	if !ok {
		return
	}
	if state.Earn(&l.Vouchers, amt) {
		if t := label(r.Object, "Type"); t != "" {
			out.addf("Voucher redeemed: %s (%s)", out.f.credits(amt), t)
		} else {
			out.addf("Voucher redeemed: %s", out.f.credits(amt))
		}
	}
}

// goalIdentity fills the descriptive fields the join/reward/discard
// records share. Existing values survive when a field is absent.
func goalIdentity(g *state.CommunityGoal, o journal.Object, at string) {
	if v := o.Text("Name"); v != "" {
		g.Title = v
	}
	if v := o.Text("System"); v != "" {
		g.System = v
	}
	if at != "" {
		g.LastUpdated = at
	}
}

func (e *Engine) goalJoin(l *state.Ledger, r journal.Record, out *notices) {
	id, ok := r.Int("CGID")
	if !ok {
		return
	}
	g := l.Goal(id)
	wasJoined := g.Joined
	goalIdentity(g, r.Object, r.Timestamp())
	g.Joined = true
	g.Discarded = false
	l.LastJoined = id
	if !wasJoined && g.Title != "" {
		out.addf("Community goal joined: %s", g.Title)
	}
}

// goalStatus applies the periodic snapshot of every active goal. Fields a
// row omits keep their previous values.
func (e *Engine) goalStatus(l *state.Ledger, r journal.Record, out *notices) {
	list, ok := r.Objects("CurrentGoals")
	if !ok {
		return
	}
	for _, o := range list {
		id, ok := o.Int("CGID")
		if !ok {
			continue
		}
		g := l.Goal(id)
		wasComplete := g.Complete
		if v := o.Text("Title"); v != "" {
			g.Title = v
		}
		if v := o.Text("SystemName"); v != "" {
			g.System = v
		}
		if v := o.Text("MarketName"); v != "" {
			g.Market = v
		}
		if v := o.Text("Expiry"); v != "" {
			g.Expiry = v
		}
		if v, ok := o.Bool("IsComplete"); ok {
			g.Complete = v
		}
		if v, ok := o.Int("CurrentTotal"); ok {
			g.CurrentTotal = v
		}
		if v, ok := o.Int("PlayerContribution"); ok {
			g.PlayerContribution = v
		}
		if v, ok := o.Int("NumContributors"); ok {
			g.Contributors = v
		}
		if v, ok := o.Int("PlayerPercentileBand"); ok {
			g.PercentileBand = v
		}
		if v := o.Text("TierReached"); v != "" {
			g.Tier = v
		}
		if v, ok := o.Int("Bonus"); ok {
			g.Bonus = v
		}
		if r.Timestamp() != "" {
			g.LastUpdated = r.Timestamp()
		}
		if g.Complete && !wasComplete && g.Title != "" {
			out.addf("Community goal complete: %s", g.Title)
		}
	}
}

func (e *Engine) goalReward(l *state.Ledger, r journal.Record, out *notices) {
	id, ok := r.Int("CGID")
	if !ok {
		return
	}
	g := l.Goal(id)
	goalIdentity(g, r.Object, r.Timestamp())
	amt, ok := r.Int("Reward")
	if !ok || amt == g.Reward {
		return
	}
	g.Reward = amt
	if g.Title != "" {
		out.addf("Community goal reward: %s (%s)", out.f.credits(amt), g.Title)
	} else {
		out.addf("Community goal reward: %s", out.f.credits(amt))
	}
}

func (e *Engine) goalDiscard(l *state.Ledger, r journal.Record, out *notices) {
	id, ok := r.Int("CGID")
	if !ok {
		return
	}
	g := l.Goal(id)
	goalIdentity(g, r.Object, r.Timestamp())
	if g.Discarded {
		return
	}
	g.Discarded = true
	g.Joined = false
	if l.LastJoined == id {
		l.LastJoined = 0
	}
	if g.Title != "" {
		out.addf("Community goal discarded: %s", g.Title)
	}
}
