package state

// System is the metadata of the star system the commander is in (or, during
// a hyperspace jump, heading to).
type System struct {
	Name          string `json:"name,omitempty"`
	Address       int64  `json:"address,omitempty"`
	StarClass     string `json:"star_class,omitempty"`
	InHyperspace  bool   `json:"in_hyperspace,omitempty"`
	JumpStarClass string `json:"jump_star_class,omitempty"`

	Allegiance         string    `json:"allegiance,omitempty"`
	Government         string    `json:"government,omitempty"`
	Economy            string    `json:"economy,omitempty"`
	Security           string    `json:"security,omitempty"`
	Population         int64     `json:"population,omitempty"`
	ControllingFaction string    `json:"controlling_faction,omitempty"`
	Factions           []Faction `json:"factions,omitempty"`

	// PowerPlay context of the system (not the commander's pledge).
	ControllingPower string             `json:"controlling_power,omitempty"`
	PowerplayState   string             `json:"powerplay_state,omitempty"`
	Powers           []string           `json:"powers,omitempty"`
	ConflictProgress map[string]float64 `json:"conflict_progress,omitempty"`
}

// Faction is one minor faction present in the system.
type Faction struct {
	Name       string  `json:"name"`
	Influence  float64 `json:"influence"`
	State      string  `json:"state,omitempty"`
	Allegiance string  `json:"allegiance,omitempty"`
	Government string  `json:"government,omitempty"`
	Reputation float64 `json:"reputation,omitempty"`
}

// POI is advisory point-of-interest data for the current system.
type POI struct {
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Body     string `json:"body,omitempty"`
	Note     string `json:"note,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Intel is operator-supplied advisory data looked up on arrival. It never
// overrides journal-derived fields.
type Intel struct {
	POIs      []POI `json:"pois,omitempty"`
	FarmSites int   `json:"farm_sites,omitempty"`
}
