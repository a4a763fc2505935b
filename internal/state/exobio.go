package state

import (
	"encoding/json"
	"slices"
	"strings"
)

// CompleteSamples is the sample count at which a species is complete.
const CompleteSamples = 3

// ScanType is the stage reported by an organic scan.
type ScanType string

const (
	ScanLog     ScanType = "Log"
	ScanSample  ScanType = "Sample"
	ScanAnalyse ScanType = "Analyse"
	// ScanCodex marks a placeholder created from a codex hint.
	ScanCodex ScanType = "CODEX"
)

// ParseScanType maps the journal's ScanType onto a known stage,
// case-insensitively. Unknown stages are returned verbatim.
func ParseScanType(s string) ScanType {
	s = strings.TrimSpace(s)
	for _, st := range []ScanType{ScanLog, ScanSample, ScanAnalyse, ScanCodex} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return ScanType(s)
}

// ExoKey identifies an exobiology record. A placeholder built from a codex
// hint has an empty Species.
type ExoKey struct {
	BodyID  int64
	Genus   string
	Species string
}

// Placeholder reports whether the key is a codex placeholder key.
func (k ExoKey) Placeholder() bool {
	return k.Species == ""
}

// ExoRecord is sampling progress for one species on one body.
type ExoRecord struct {
	BodyID         int64    `json:"body_id"`
	Body           string   `json:"body,omitempty"`
	Genus          string   `json:"genus"`
	Species        string   `json:"species,omitempty"`
	Variant        string   `json:"variant,omitempty"`
	Samples        int      `json:"samples"`
	Complete       bool     `json:"complete"`
	LastScanType   ScanType `json:"last_scan_type,omitempty"`
	LastScanAt     string   `json:"last_scan_at,omitempty"`
	BaseValue      int64    `json:"base_value,omitempty"`
	PotentialValue int64    `json:"potential_value,omitempty"`
	CodexName      string   `json:"codex_name,omitempty"`
	CodexEntryID   int64    `json:"codex_entry_id,omitempty"`
}

// Placeholder reports whether the record came from a codex hint only.
func (r *ExoRecord) Placeholder() bool {
	return r.LastScanType == ScanCodex
}

// Apply folds one organic scan into the record and reports whether anything
// changed. Progress never decreases:
//
//	Log     -> at least 1
//	Sample  -> one step, capped at CompleteSamples
//	Analyse -> CompleteSamples
//
// A scan carrying the same timestamp and stage as the last one applied is a
// replay of that record and is ignored.
func (r *ExoRecord) Apply(scan ScanType, at string) bool {
	if at != "" && at == r.LastScanAt && scan == r.LastScanType {
		return false
	}
	before := *r

	switch scan {
	case ScanLog:
		r.Samples = max(r.Samples, 1)
	case ScanSample:
		r.Samples = min(CompleteSamples, r.Samples+1)
	case ScanAnalyse:
		r.Samples = max(r.Samples, CompleteSamples)
	}
	r.Complete = r.Complete || r.Samples >= CompleteSamples || scan == ScanAnalyse
	r.LastScanType = scan
	r.LastScanAt = at
	return *r != before
}

// merge folds other into r using per-field rules: samples take the max,
// completion is sticky, descriptive fields keep the first non-empty value.
func (r *ExoRecord) merge(other ExoRecord) {
	r.Samples = max(r.Samples, other.Samples)
	r.Complete = r.Complete || other.Complete
	if r.Variant == "" {
		r.Variant = other.Variant
	}
	if r.Body == "" {
		r.Body = other.Body
	}
	if r.LastScanType == "" {
		r.LastScanType = other.LastScanType
		r.LastScanAt = other.LastScanAt
	}
	if r.BaseValue == 0 {
		r.BaseValue = other.BaseValue
	}
	if r.PotentialValue == 0 {
		r.PotentialValue = other.PotentialValue
	}
	if r.CodexName == "" {
		r.CodexName = other.CodexName
	}
	if r.CodexEntryID == 0 {
		r.CodexEntryID = other.CodexEntryID
	}
}

// Exobio holds per-system exobiology records.
type Exobio struct {
	Records map[ExoKey]*ExoRecord
}

func (e *Exobio) Reset() {
	e.Records = make(map[ExoKey]*ExoRecord)
}

// Record returns the record for k, creating it if absent.
func (e *Exobio) Record(k ExoKey) *ExoRecord {
	if r, ok := e.Records[k]; ok {
		return r
	}
	r := &ExoRecord{BodyID: k.BodyID, Genus: k.Genus, Species: k.Species}
	e.Records[k] = r
	return r
}

// sameOrganism reports whether the record at k describes the organism named
// by genus and species. Codex names do not carry the genus on its own, so a
// placeholder keyed on the first word of a multi-word genus ("Roseum" for
// "Roseum Sinuous Tubers") is matched through the species name.
func sameOrganism(k ExoKey, r *ExoRecord, genus, species string) bool {
	if k.Genus == genus {
		return true
	}
	if species == "" {
		return false
	}
	if r.Species != "" && strings.EqualFold(r.Species, species) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(species), strings.ToLower(k.Genus)+" ")
}

// HasSample reports whether a real (non-placeholder) record exists on the
// body for the organism.
func (e *Exobio) HasSample(bodyID int64, genus, species string) bool {
	for k, r := range e.Records {
		if k.BodyID != bodyID || k.Placeholder() || r.Placeholder() {
			continue
		}
		if sameOrganism(k, r, genus, species) {
			return true
		}
	}
	return false
}

// DropPlaceholder removes every codex placeholder on the body for the
// organism and reports whether any existed.
func (e *Exobio) DropPlaceholder(bodyID int64, genus, species string) bool {
	dropped := false
	for k, r := range e.Records {
		if k.BodyID != bodyID || !k.Placeholder() {
			continue
		}
		if sameOrganism(k, r, genus, species) {
			delete(e.Records, k)
			dropped = true
		}
	}
	return dropped
}

// Rows returns the records ordered by body id, genus, then species.
func (e *Exobio) Rows() []ExoRecord {
	out := make([]ExoRecord, 0, len(e.Records))
	for _, r := range e.Records {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b ExoRecord) int {
		if a.BodyID != b.BodyID {
			if a.BodyID < b.BodyID {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Genus, b.Genus); c != 0 {
			return c
		}
		return strings.Compare(a.Species, b.Species)
	})
	return out
}

// MarshalJSON renders the records as an ordered list; struct map keys have
// no JSON form.
func (e Exobio) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Rows())
}

func (e Exobio) clone() Exobio {
	c := Exobio{Records: make(map[ExoKey]*ExoRecord, len(e.Records))}
	for k, r := range e.Records {
		rc := *r
		c.Records[k] = &rc
	}
	return c
}
