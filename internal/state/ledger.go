package state

import (
	"maps"
	"slices"
)

// CommunityGoal is the latest known status of one community goal.
type CommunityGoal struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title,omitempty"`
	System             string `json:"system,omitempty"`
	Market             string `json:"market,omitempty"`
	Expiry             string `json:"expiry,omitempty"`
	Complete           bool   `json:"complete,omitempty"`
	CurrentTotal       int64  `json:"current_total,omitempty"`
	PlayerContribution int64  `json:"player_contribution,omitempty"`
	Contributors       int64  `json:"contributors,omitempty"`
	PercentileBand     int64  `json:"percentile_band,omitempty"`
	Tier               string `json:"tier,omitempty"`
	Bonus              int64  `json:"bonus,omitempty"`
	Joined             bool   `json:"joined,omitempty"`
	Reward             int64  `json:"reward,omitempty"`
	Discarded          bool   `json:"discarded,omitempty"`
	LastUpdated        string `json:"last_updated,omitempty"`
}

// Ledger holds session earnings. Counters only grow.
type Ledger struct {
	Exploration int64 `json:"exploration"`
	Exobiology  int64 `json:"exobiology"`
	Vouchers    int64 `json:"vouchers"`
	Codex       int64 `json:"codex"`

	Goals      map[int64]*CommunityGoal `json:"goals,omitempty"`
	LastJoined int64                    `json:"last_joined,omitempty"`
}

// Earn adds a positive amount to a counter; other amounts are ignored.
func Earn(counter *int64, amount int64) bool {
	if amount <= 0 {
		return false
	}
	*counter += amount
	return true
}

// Goal returns the record for a goal id, creating it on first reference.
func (l *Ledger) Goal(id int64) *CommunityGoal {
	if l.Goals == nil {
		l.Goals = make(map[int64]*CommunityGoal)
	}
	if g, ok := l.Goals[id]; ok {
		return g
	}
	g := &CommunityGoal{ID: id}
	l.Goals[id] = g
	return g
}

// SortedGoals returns the goals ordered by id.
func (l *Ledger) SortedGoals() []CommunityGoal {
	ids := slices.Sorted(maps.Keys(l.Goals))
	out := make([]CommunityGoal, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.Goals[id])
	}
	return out
}

func (l Ledger) clone() Ledger {
	c := l
	if l.Goals != nil {
		c.Goals = make(map[int64]*CommunityGoal, len(l.Goals))
		for k, g := range l.Goals {
			gc := *g
			c.Goals[k] = &gc
		}
	}
	return c
}
