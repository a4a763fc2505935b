package refdata

import (
	"fmt"

	"github.com/roach88/edc/internal/journal"
)

// FarmSite is one advisory farming location.
type FarmSite struct {
	Domain       string // encoded, raw, manufactured, odyssey_onfoot, ...
	Name         string
	System       string
	Body         string
	Method       string
	KeyMaterials []string
	Fields       map[string]any
}

type farmingIndex struct {
	lastUpdated string
	sites       []FarmSite
	bySystem    map[string][]int
	byMaterial  map[string][]int
	tips        map[string]any
}

// FarmingLocations serves elite_farming_locations.json.
type FarmingLocations struct {
	src *source[farmingIndex]
}

func NewFarmingLocations(path string) *FarmingLocations {
	return &FarmingLocations{src: newSource(path, farmingJSONSchema, parseFarming)}
}

// ForSystem returns sites located in the named system.
func (f *FarmingLocations) ForSystem(system string) []FarmSite {
	idx := f.src.get()
	return idx.pick(idx.bySystem[Key(system)])
}

// ForMaterial returns sites listing the material among their key materials.
func (f *FarmingLocations) ForMaterial(material string) []FarmSite {
	idx := f.src.get()
	return idx.pick(idx.byMaterial[Key(material)])
}

// LastUpdated is the document's own freshness stamp, or "".
func (f *FarmingLocations) LastUpdated() string {
	return f.src.get().lastUpdated
}

// Tips passes the bgs_tips object through untouched.
func (f *FarmingLocations) Tips() map[string]any {
	return f.src.get().tips
}

func (f *FarmingLocations) Len() int {
	return len(f.src.get().sites)
}

func (f *FarmingLocations) Status() (bool, error) {
	return f.src.status()
}

func (idx farmingIndex) pick(ids []int) []FarmSite {
	if len(ids) == 0 {
		return nil
	}
	out := make([]FarmSite, len(ids))
	for i, id := range ids {
		out[i] = idx.sites[id]
	}
	return out
}

func parseFarming(doc any) (farmingIndex, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return farmingIndex{}, fmt.Errorf("unexpected document type %T", doc)
	}
	root := journal.Object(m)
	idx := farmingIndex{
		lastUpdated: root.Text("last_updated"),
		bySystem:    make(map[string][]int),
		byMaterial:  make(map[string][]int),
	}
	if tips, ok := root.Object("bgs_tips"); ok {
		idx.tips = map[string]any(tips)
	}

	domains, _ := root.Object("farming_locations")
	for domain := range domains {
		recs, _ := domains.Objects(domain)
		dom := Key(domain)
		if dom == "" {
			dom = "other"
		}
		for _, r := range recs {
			site := FarmSite{
				Domain: dom,
				Name:   r.Text("name"),
				System: r.Text("system"),
				Body:   r.Text("body"),
				Method: r.Text("method"),
				Fields: map[string]any(r),
			}
			if site.Name == "" {
				site.Name = "Farm Site"
			}
			for _, field := range []string{"key_materials", "materials", "mats"} {
				if mats, ok := r.Strings(field); ok {
					for _, mat := range mats {
						if mat = tidy(mat); mat != "" {
							site.KeyMaterials = append(site.KeyMaterials, mat)
						}
					}
					break
				}
			}

			id := len(idx.sites)
			idx.sites = append(idx.sites, site)
			if k := Key(site.System); k != "" {
				idx.bySystem[k] = append(idx.bySystem[k], id)
			}
			for _, mat := range site.KeyMaterials {
				k := Key(mat)
				idx.byMaterial[k] = append(idx.byMaterial[k], id)
			}
		}
	}
	return idx, nil
}
