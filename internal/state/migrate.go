package state

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Legacy exobiology records were stored under "|"-joined string keys. The
// shapes seen over time:
//
//	body|genus|species            one row per species (current)
//	body|genus|species|variant    one row per variant
//	body|genus|CODEX              codex placeholder
//	body|genus|CODEX|name         codex placeholder, one per codex name
//
// ParseLegacyExoKey maps any of them to the canonical ExoKey. The variant
// part of a per-variant key is returned separately.
func ParseLegacyExoKey(s string) (ExoKey, string, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 3 {
		return ExoKey{}, "", fmt.Errorf("exo key %q: want at least 3 parts", s)
	}
	body, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return ExoKey{}, "", fmt.Errorf("exo key %q: body id: %w", s, err)
	}
	genus := strings.Join(strings.Fields(parts[1]), " ")
	if genus == "" {
		return ExoKey{}, "", fmt.Errorf("exo key %q: empty genus", s)
	}

	third := strings.Join(strings.Fields(parts[2]), " ")
	if third == string(ScanCodex) {
		return ExoKey{BodyID: body, Genus: genus}, "", nil
	}
	if third == "" {
		return ExoKey{}, "", fmt.Errorf("exo key %q: empty species", s)
	}
	var variant string
	if len(parts) > 3 {
		variant = strings.Join(strings.Fields(strings.Join(parts[3:], "|")), " ")
	}
	return ExoKey{BodyID: body, Genus: genus, Species: third}, variant, nil
}

// MigrateExo rebuilds legacy string-keyed records into the canonical key
// space. Records colliding on one canonical key are merged field by field
// (see ExoRecord.merge), visiting keys in sorted order so the shortest
// (canonical) shape contributes its descriptive fields first. Placeholders
// superseded by a real record for the same body and genus are dropped.
// Unparseable keys are returned in skipped.
func MigrateExo(legacy map[string]ExoRecord) (records map[ExoKey]*ExoRecord, skipped []string) {
	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	records = make(map[ExoKey]*ExoRecord, len(legacy))
	for _, raw := range keys {
		key, variant, err := ParseLegacyExoKey(raw)
		if err != nil {
			skipped = append(skipped, raw)
			continue
		}

		in := legacy[raw]
		in.BodyID, in.Genus = key.BodyID, key.Genus
		if key.Placeholder() {
			in.LastScanType = ScanCodex
			in.Samples = 0
			in.Complete = false
		} else {
			in.Species = key.Species
			if in.Variant == "" {
				in.Variant = variant
			}
		}

		if cur, ok := records[key]; ok {
			cur.merge(in)
			continue
		}
		rec := in
		records[key] = &rec
	}

	e := Exobio{Records: records}
	for k, r := range records {
		if k.Placeholder() && e.HasSample(k.BodyID, k.Genus, r.Species) {
			delete(records, k)
		}
	}
	return records, skipped
}

// Import replaces the records with migrated legacy data.
func (e *Exobio) Import(legacy map[string]ExoRecord) (skipped []string) {
	e.Records, skipped = MigrateExo(legacy)
	return skipped
}
