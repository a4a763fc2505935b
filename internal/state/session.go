package state

import (
	"maps"
	"slices"
)

// Commander identifies the player and their current ship.
type Commander struct {
	Name      string `json:"name,omitempty"`
	Ship      string `json:"ship,omitempty"`
	ShipName  string `json:"ship_name,omitempty"`
	ShipIdent string `json:"ship_ident,omitempty"`
	ShipID    int64  `json:"ship_id,omitempty"`
	Credits   *int64 `json:"credits,omitempty"`
}

// Pledge is the commander's own PowerPlay affiliation.
type Pledge struct {
	Power  string `json:"power,omitempty"`
	State  string `json:"state,omitempty"`
	Rank   int64  `json:"rank,omitempty"`
	Merits int64  `json:"merits,omitempty"`
}

// Activity is bookkeeping about the record stream itself.
type Activity struct {
	LastEvent       string          `json:"last_event,omitempty"`
	LastBody        string          `json:"last_body,omitempty"`
	LastCodex       string          `json:"last_codex,omitempty"`
	PendingSystem   string          `json:"pending_system,omitempty"`
	PendingJumpType string          `json:"pending_jump_type,omitempty"`
	Visited         map[string]bool `json:"visited,omitempty"`
	Seq             int64           `json:"seq"`
}

// Visit records a system name in the visited set.
func (a *Activity) Visit(system string) {
	if system == "" {
		return
	}
	if a.Visited == nil {
		a.Visited = make(map[string]bool)
	}
	a.Visited[system] = true
}

// Session is everything reconstructed from the journal so far.
type Session struct {
	Commander Commander `json:"commander"`
	Pledge    Pledge    `json:"pledge"`
	System    System    `json:"system"`
	Intel     Intel     `json:"intel"`
	Discovery Discovery `json:"discovery"`
	Exobio    Exobio    `json:"exobio"`
	Combat    Combat    `json:"combat"`
	Inventory Inventory `json:"inventory"`
	Ledger    Ledger    `json:"ledger"`
	Activity  Activity  `json:"activity"`
}

// New returns an empty session with its maps allocated.
func New() *Session {
	s := &Session{}
	s.Discovery.Reset()
	s.Exobio.Reset()
	s.Combat.Reset()
	return s
}

// ClearSystem drops every per-system collection in one step. Commander,
// Pledge, Inventory, Ledger and Activity are untouched.
func (s *Session) ClearSystem() {
	s.System = System{}
	s.Intel = Intel{}
	s.Discovery.Reset()
	s.Exobio.Reset()
	s.Combat.Reset()
}

// Snapshot returns a deep copy safe to hand to another goroutine.
//
// Pointer fields inside records (*int64, *bool, *float64) are always
// replaced, never written through, so sharing them is safe.
func (s *Session) Snapshot() *Session {
	c := *s

	c.Activity.Visited = maps.Clone(s.Activity.Visited)

	c.System.Factions = slices.Clone(s.System.Factions)
	c.System.Powers = slices.Clone(s.System.Powers)
	c.System.ConflictProgress = maps.Clone(s.System.ConflictProgress)

	c.Intel.POIs = slices.Clone(s.Intel.POIs)

	c.Discovery = s.Discovery.clone()
	c.Exobio = s.Exobio.clone()
	c.Combat = s.Combat.clone()
	c.Inventory = s.Inventory.clone()
	c.Ledger = s.Ledger.clone()
	return &c
}
