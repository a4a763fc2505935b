package engine

import (
	"strings"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var combatDomain = domain{
	name: "combat",
	kinds: map[journal.Kind]foldFunc{
		journal.KindShipTargeted: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.shipTargeted(&s.Combat, s.Pledge, s.System, r, out)
		},
	},
}

// Alert thresholds for bounty targets.
const (
	HighBounty     = 500_000
	finalScanStage = 3
)

var pilotRanks = []string{
	"Harmless",
	"Mostly Harmless",
	"Novice",
	"Competent",
	"Expert",
	"Master",
	"Dangerous",
	"Deadly",
	"Elite",
}

func rankName(r journal.Record) string {
	if n, ok := r.Int("PilotRank"); ok {
		if n >= 0 && int(n) < len(pilotRanks) {
			return pilotRanks[n]
		}
		return ""
	}
	return r.Text("PilotRank")
}

func topRank(rank string) bool {
	switch strings.ToLower(rank) {
	case "dangerous", "deadly", "elite":
		return true
	}
	return false
}

// shipTargeted tracks scanned contacts and raises the threat alert. Only a
// completed scan carries pilot details; earlier stages are ignored. The
// pledge and system are read only.
func (e *Engine) shipTargeted(c *state.Combat, pledge state.Pledge, sys state.System, r journal.Record, out *notices) {
	if locked, ok := r.Bool("TargetLocked"); ok && !locked {
		c.Release()
		return
	}
	if stage, ok := r.Int("ScanStage"); ok && stage < finalScanStage {
		return
	}

	ct := state.Contact{
		Pilot:    r.Localised("PilotName"),
		Rank:     rankName(r),
		Ship:     r.Localised("Ship"),
		Faction:  r.Text("Faction"),
		Power:    r.Text("Power"),
		Wanted:   strings.EqualFold(r.Text("LegalStatus"), "wanted"),
		LastSeen: r.Timestamp(),
	}
	if b, ok := r.Int("Bounty"); ok {
		ct.Bounty, ct.HasBounty = b, true
	}

	pilotKey := r.Text("PilotName")
	if pilotKey == "" {
		pilotKey = ct.Pilot
	}
	shipKey := r.Text("Ship")
	if shipKey == "" {
		shipKey = ct.Ship
	}
	c.Upsert(state.ContactKey(pilotKey, shipKey, ct.Faction), ct)

	alert := threatAlert(ct, pledge, sys, out.f)
	if alert == "" || alert == c.Alert {
		return
	}
	c.Alert = alert
	out.add(alert)
}

// threatAlert returns the alert text for a contact, or "" when the contact
// is not a threat. A high-bounty wanted pilot of top rank is flagged
// anywhere; a pilot of an opposing power only inside space the commander's
// own power controls.
func threatAlert(ct state.Contact, pledge state.Pledge, sys state.System, f formatter) string {
	bountyTarget := ct.Wanted && ct.HasBounty && ct.Bounty >= HighBounty && topRank(ct.Rank)
	enemy := pledge.Power != "" && ct.Power != "" && ct.Power != pledge.Power
	inOwnSpace := pledge.Power != "" && sys.ControllingPower == pledge.Power

	if !bountyTarget && !(inOwnSpace && enemy) {
		return ""
	}

	var who []string
	for _, s := range []string{ct.Pilot, ct.Ship, ct.Faction} {
		if s != "" {
			who = append(who, s)
		}
	}
	target := "Unknown target"
	if len(who) > 0 {
		target = strings.Join(who, " / ")
	}

	kind := "High bounty"
	if inOwnSpace && enemy {
		kind = "PP enemy"
	}
	parts := []string{kind + " scan: " + target}
	if ct.Rank != "" {
		parts = append(parts, "Rank: "+ct.Rank)
	}
	if ct.Power != "" {
		parts = append(parts, "Power: "+ct.Power)
	}
	if ct.Wanted {
		parts = append(parts, "Wanted")
	}
	if ct.Bounty > 0 {
		parts = append(parts, "Bounty: "+f.credits(ct.Bounty))
	}
	return strings.Join(parts, " | ")
}
