package refdata

import (
	"fmt"
	"strings"

	"github.com/roach88/edc/internal/journal"
)

// Organism is one species row of exo_values.json.
type Organism struct {
	Species   string
	Genus     string
	BaseValue int64
}

type organismTable struct {
	bySpecies map[string]Organism
}

// OrganismValues answers species value queries.
type OrganismValues struct {
	src *source[organismTable]
}

func NewOrganismValues(path string) *OrganismValues {
	return &OrganismValues{src: newSource(path, organismValuesJSONSchema, parseOrganismValues)}
}

// Lookup finds a species by display name. Codex-style names with a variant
// suffix ("Stratum Tectonicas - Lime") fall back to the species part.
func (o *OrganismValues) Lookup(name string) (Organism, bool) {
	t := o.src.get()
	if len(t.bySpecies) == 0 {
		return Organism{}, false
	}
	if rec, ok := t.bySpecies[Key(name)]; ok {
		return rec, true
	}
	if left, _, found := strings.Cut(name, " - "); found {
		rec, ok := t.bySpecies[Key(left)]
		return rec, ok
	}
	return Organism{}, false
}

// Value returns the base value of a species.
func (o *OrganismValues) Value(name string) (int64, bool) {
	rec, ok := o.Lookup(name)
	if !ok {
		return 0, false
	}
	return rec.BaseValue, true
}

// Len returns the number of species loaded.
func (o *OrganismValues) Len() int {
	return len(o.src.get().bySpecies)
}

func (o *OrganismValues) Status() (bool, error) {
	return o.src.status()
}

func parseOrganismValues(doc any) (organismTable, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return organismTable{}, fmt.Errorf("unexpected document type %T", doc)
	}
	species, _ := journal.Object(m).Object("species")

	t := organismTable{bySpecies: make(map[string]Organism, len(species))}
	for name, v := range species {
		recMap, ok := v.(map[string]any)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		rec := journal.Object(recMap)
		bv, ok := rec.Int("base_value")
		if !ok {
			continue
		}
		genus := rec.Text("genus")
		if genus == "" {
			continue
		}
		t.bySpecies[Key(name)] = Organism{Species: tidy(name), Genus: genus, BaseValue: bv}
	}
	return t, nil
}
