package refdata

import (
	"fmt"

	"github.com/roach88/edc/internal/journal"
)

// Stage selects one of a value row's four precomputed figures.
type Stage int

const (
	StageFSS      Stage = iota // scanned only
	StageFSSDSS                // scanned and mapped
	StageFSSFD                 // scanned, first discovery
	StageFSSFDDSS              // scanned, first discovery, mapped
)

// StageFor picks the figure for a body's discovery/mapping flags.
func StageFor(mapped, firstDiscovered bool) Stage {
	switch {
	case firstDiscovered && mapped:
		return StageFSSFDDSS
	case firstDiscovered:
		return StageFSSFD
	case mapped:
		return StageFSSDSS
	default:
		return StageFSS
	}
}

var stageFields = [...]string{"fss", "fss_dss", "fss_fd", "fss_fd_dss"}

// PlanetValueRow holds the credit figures for one (planet type,
// terraformable) pair.
type PlanetValueRow struct {
	PlanetType    string
	Terraformable bool
	values        [4]int64
	present       [4]bool
}

// Value returns the figure for a stage, if the document supplied it.
func (r PlanetValueRow) Value(s Stage) (int64, bool) {
	if s < StageFSS || s > StageFSSFDDSS {
		return 0, false
	}
	return r.values[s], r.present[s]
}

type planetKey struct {
	planetType    string // compactKey of the table's planet type
	terraformable bool
}

type planetTable struct {
	rows map[planetKey]PlanetValueRow
}

// planetAliases maps journal PlanetClass spellings onto table names.
// Keys and values are compactKey forms.
var planetAliases = map[string]string{
	compactKey("High metal content world"):          compactKey("High Metal Content Planet"),
	compactKey("High metal content body"):           compactKey("High Metal Content Planet"),
	compactKey("Earthlike world"):                   compactKey("Earth-Like World"),
	compactKey("Earthlike body"):                    compactKey("Earth-Like World"),
	compactKey("Water world"):                       compactKey("Water World"),
	compactKey("Ammonia world"):                     compactKey("Ammonia World"),
	compactKey("Gas giant with water based life"):   compactKey("Gas Giant With Water Based Life"),
	compactKey("Gas giant with ammonia based life"): compactKey("Gas Giant With Ammonia Based Life"),
	compactKey("Sudarsky class I gas giant"):        compactKey("Class I Gas Giant"),
	compactKey("Sudarsky class II gas giant"):       compactKey("Class II Gas Giant"),
	compactKey("Sudarsky class III gas giant"):      compactKey("Class III Gas Giant"),
	compactKey("Sudarsky class IV gas giant"):       compactKey("Class IV Gas Giant"),
	compactKey("Sudarsky class V gas giant"):        compactKey("Class V Gas Giant"),
}

// PlanetValues estimates exploration payouts from planet_values.json.
type PlanetValues struct {
	src *source[planetTable]
}

// NewPlanetValues serves the table stored at path. A missing file is an
// empty table.
func NewPlanetValues(path string) *PlanetValues {
	return &PlanetValues{src: newSource(path, planetValuesJSONSchema, parsePlanetValues)}
}

// Estimate returns the table figure for a body, or false when the planet
// class is unknown (after alias resolution) or the row lacks the figure.
func (p *PlanetValues) Estimate(planetClass string, terraformable, mapped, firstDiscovered bool) (int64, bool) {
	row, ok := p.Row(planetClass, terraformable)
	if !ok {
		return 0, false
	}
	return row.Value(StageFor(mapped, firstDiscovered))
}

// Row resolves a journal planet class to a table row.
func (p *PlanetValues) Row(planetClass string, terraformable bool) (PlanetValueRow, bool) {
	t := p.src.get()
	if len(t.rows) == 0 {
		return PlanetValueRow{}, false
	}
	k := compactKey(planetClass)
	if k == "" {
		return PlanetValueRow{}, false
	}
	if row, ok := t.rows[planetKey{k, terraformable}]; ok {
		return row, true
	}
	if alias, ok := planetAliases[k]; ok {
		row, ok := t.rows[planetKey{alias, terraformable}]
		return row, ok
	}
	return PlanetValueRow{}, false
}

// Len returns the number of usable rows.
func (p *PlanetValues) Len() int {
	return len(p.src.get().rows)
}

// Status reports whether a document is loaded and the last load error.
func (p *PlanetValues) Status() (bool, error) {
	return p.src.status()
}

func parsePlanetValues(doc any) (planetTable, error) {
	var rows []journal.Object
	switch v := doc.(type) {
	case []any:
		rows = objects(v)
	case map[string]any:
		o := journal.Object(v)
		if list, ok := o.Objects("entries"); ok {
			rows = list
		} else if list, ok := o.Objects("rows"); ok {
			rows = list
		}
	default:
		return planetTable{}, fmt.Errorf("unexpected document type %T", doc)
	}

	t := planetTable{rows: make(map[planetKey]PlanetValueRow, len(rows))}
	for _, r := range rows {
		pt, ok := r.String("planet_type")
		if !ok {
			continue
		}
		tf, ok := r.Bool("terraformable")
		if !ok {
			continue
		}
		row := PlanetValueRow{PlanetType: tidy(pt), Terraformable: tf}
		// Figures live under "values"; some documents flatten them onto the row.
		vals, ok := r.Object("values")
		if !ok {
			vals = r
		}
		for i, field := range stageFields {
			n, ok := vals.Int(field)
			if !ok {
				n, ok = r.Int(field)
			}
			row.values[i], row.present[i] = n, ok
		}
		t.rows[planetKey{compactKey(pt), tf}] = row
	}
	return t, nil
}

func objects(list []any) []journal.Object {
	out := make([]journal.Object, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, journal.Object(m))
		}
	}
	return out
}
