package refdata

import (
	"fmt"
	"strconv"

	"github.com/roach88/edc/internal/journal"
)

// POI is an advisory point of interest from external_pois.json. Known
// fields are lifted out; the full record stays in Fields.
type POI struct {
	Title    string
	Category string
	Body     string
	Note     string
	Source   string
	Fields   map[string]any
}

type poiIndex struct {
	bySystem  map[string][]POI
	byAddress map[string][]POI
}

// POIStore answers "what does the operator know about this system".
type POIStore struct {
	src *source[poiIndex]
}

func NewPOIStore(path string) *POIStore {
	return &POIStore{src: newSource(path, poisJSONSchema, parsePOIs)}
}

// Lookup returns POIs filed under the system address (when non-zero)
// followed by those filed under the case-insensitive system name.
func (p *POIStore) Lookup(system string, address int64) []POI {
	idx := p.src.get()
	var out []POI
	if address != 0 {
		out = append(out, idx.byAddress[strconv.FormatInt(address, 10)]...)
	}
	if k := Key(system); k != "" {
		out = append(out, idx.bySystem[k]...)
	}
	return out
}

func (p *POIStore) Status() (bool, error) {
	return p.src.status()
}

func parsePOIs(doc any) (poiIndex, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return poiIndex{}, fmt.Errorf("unexpected document type %T", doc)
	}
	root := journal.Object(m)
	idx := poiIndex{
		bySystem:  make(map[string][]POI),
		byAddress: make(map[string][]POI),
	}

	if systems, ok := root.Object("systems"); ok {
		for name := range systems {
			k := Key(name)
			if k == "" {
				continue
			}
			recs, _ := systems.Objects(name)
			// Keys differing only in case merge into one list.
			idx.bySystem[k] = append(idx.bySystem[k], toPOIs(recs)...)
		}
	}
	if addrs, ok := root.Object("system_addresses"); ok {
		for addr := range addrs {
			recs, _ := addrs.Objects(addr)
			idx.byAddress[tidy(addr)] = append(idx.byAddress[tidy(addr)], toPOIs(recs)...)
		}
	}
	return idx, nil
}

func toPOIs(recs []journal.Object) []POI {
	out := make([]POI, 0, len(recs))
	for _, r := range recs {
		out = append(out, POI{
			Title:    r.Text("title"),
			Category: r.Text("category"),
			Body:     r.Text("body"),
			Note:     r.Text("note"),
			Source:   r.Text("source"),
			Fields:   map[string]any(r),
		})
	}
	return out
}
