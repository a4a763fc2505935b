package state

import "strings"

// Contact is a scanned ship.
type Contact struct {
	Pilot     string `json:"pilot"`
	Rank      string `json:"rank,omitempty"`
	Ship      string `json:"ship"`
	Faction   string `json:"faction,omitempty"`
	Power     string `json:"power,omitempty"`
	Wanted    bool   `json:"wanted,omitempty"`
	Bounty    int64  `json:"bounty,omitempty"`
	HasBounty bool   `json:"has_bounty,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
}

// ContactKey builds the dedupe key for a contact. The contact's power is
// not part of it: the same ship may report its power only on a later scan.
func ContactKey(pilot, ship, faction string) string {
	part := func(s string) string {
		if s = strings.TrimSpace(s); s == "" {
			return "UNKNOWN"
		}
		return s
	}
	return part(pilot) + "|" + part(ship) + "|" + part(faction)
}

// Combat holds the per-system combat contacts and the current alert.
type Combat struct {
	Contacts map[string]*Contact `json:"contacts"`
	Current  string              `json:"current,omitempty"`
	Alert    string              `json:"alert,omitempty"`
}

func (c *Combat) Reset() {
	*c = Combat{Contacts: make(map[string]*Contact)}
}

// Upsert stores the contact under key and makes it current.
func (c *Combat) Upsert(key string, ct Contact) {
	if cur, ok := c.Contacts[key]; ok {
		*cur = ct
	} else {
		c.Contacts[key] = &ct
	}
	c.Current = key
}

// Release forgets the current target and its alert. Contacts stay listed.
func (c *Combat) Release() {
	c.Current = ""
	c.Alert = ""
}

func (c Combat) clone() Combat {
	out := c
	out.Contacts = make(map[string]*Contact, len(c.Contacts))
	for k, v := range c.Contacts {
		vc := *v
		out.Contacts[k] = &vc
	}
	return out
}
