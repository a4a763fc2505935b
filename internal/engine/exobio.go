package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var exobioDomain = domain{
	name: "exobio",
	kinds: map[journal.Kind]foldFunc{
		journal.KindScanOrganic: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.scanOrganic(&s.Exobio, &s.Discovery, &s.Activity, r, out)
		},
		journal.KindCodexEntry: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.codexEntry(&s.Exobio, &s.Ledger, &s.Activity, r, out)
		},
		journal.KindSellOrganicData: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.sellOrganic(&s.Ledger, r, out)
		},
	},
}

const (
	unknownGenus   = "Unknown Genus"
	unknownSpecies = "Unknown Species"
)

func (e *Engine) organism(names ...string) (int64, bool) {
	if e.tables.Organisms == nil {
		return 0, false
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if o, ok := e.tables.Organisms.Lookup(n); ok {
			return o.BaseValue, true
		}
	}
	return 0, false
}

// scanOrganic folds one sampling step. The record key is (body id, genus,
// species); the variant is descriptive only so a missing or inconsistent
// variant never splits a species into two rows.
func (e *Engine) scanOrganic(x *state.Exobio, d *state.Discovery, a *state.Activity, r journal.Record, out *notices) {
	bodyID, ok := r.Int("Body")
	if !ok {
		return
	}
	genus := r.Localised("Genus")
	if genus == "" {
		genus = unknownGenus
	}
	species := r.Localised("Species")
	if species == "" {
		species = unknownSpecies
	}
	variant := r.Localised("Variant")
	scan := state.ParseScanType(r.Text("ScanType"))

	x.DropPlaceholder(bodyID, genus, species)

	key := state.ExoKey{BodyID: bodyID, Genus: genus, Species: species}
	_, existed := x.Records[key]
	rec := x.Record(key)
	if variant != "" {
		rec.Variant = variant
	}
	if name, ok := d.BodyName(bodyID); ok {
		rec.Body = name
		a.LastBody = name
	}
	if v, ok := e.organism(variant, species); ok {
		rec.BaseValue = v
	}

	if !rec.Apply(scan, r.Timestamp()) {
		return
	}

	where := rec.Body
	if where == "" {
		where = fmt.Sprintf("body %d", bodyID)
	}
	if rec.Complete && scan == state.ScanAnalyse {
		out.addf("Exobio complete: %s (%s)", species, where)
	} else {
		out.addf("Exobio %s: %s %d/%d (%s)", strings.ToLower(string(scan)), species, rec.Samples, state.CompleteSamples, where)
	}
	if !existed && rec.BaseValue > 0 && e.thresholds.OrganismValue > 0 && rec.BaseValue >= e.thresholds.OrganismValue {
		out.addf("High value organism: %s ~%s", species, out.f.credits(rec.BaseValue))
	}
}

// codexEntry collects the voucher and, for an organic entry on a known body,
// leaves a placeholder row until a real sample for that genus arrives.
func (e *Engine) codexEntry(x *state.Exobio, l *state.Ledger, a *state.Activity, r journal.Record, out *notices) {
	if v, ok := r.Int("VoucherAmount"); ok {
		state.Earn(&l.Codex, v)
	}
	name := r.Text("Name_Localised")
	if name != "" {
		a.LastCodex = name
	}

	bodyID, ok := r.Int("BodyID")
	if !ok || name == "" {
		return
	}
	if sub := r.Text("SubCategory"); sub != "" && !strings.Contains(strings.ToLower(sub), "organic") {
		return
	}

	genus, _, _ := strings.Cut(name, " ")
	if genus == "" {
		return
	}
	species, variant := name, ""
	if left, right, ok := strings.Cut(name, " - "); ok {
		species, variant = strings.TrimSpace(left), strings.TrimSpace(right)
	}

	var potential int64
	if e.tables.Organisms != nil {
		o, ok := e.tables.Organisms.Lookup(name)
		if !ok && variant != "" {
			o, ok = e.tables.Organisms.Lookup(species)
		}
		if ok {
			if o.Genus != "" {
				genus = o.Genus
			}
			potential = o.BaseValue
		}
	}

	if x.HasSample(bodyID, genus, species) {
		return
	}

	key := state.ExoKey{BodyID: bodyID, Genus: genus}
	_, existed := x.Records[key]
	rec := x.Record(key)
	rec.Species = species
	rec.Variant = variant
	rec.Samples = 0
	rec.Complete = false
	rec.LastScanType = state.ScanCodex
	rec.LastScanAt = r.Timestamp()
	rec.CodexName = name
	if id, ok := r.Int("EntryID"); ok {
		rec.CodexEntryID = id
	}
	rec.BaseValue = potential
	rec.PotentialValue = potential

	if !existed {
		out.addf("Codex: %s", name)
	}
}

func (e *Engine) sellOrganic(l *state.Ledger, r journal.Record, out *notices) {
	list, _ := r.Objects("BioData")
	var total int64
	for _, item := range list {
		if v, ok := item.Int("Value"); ok {
			total += v
		}
		if b, ok := item.Int("Bonus"); ok {
			total += b
		}
	}
	if state.Earn(&l.Exobiology, total) {
		out.addf("Exobiology sold: %s", out.f.credits(total))
	}
}
