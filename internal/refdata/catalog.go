package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/edc/internal/journal"
)

// Item is one entry of the materials / locker item catalog.
type Item struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Subtype   string   `json:"subtype"`
	Grade     string   `json:"grade"`
	Locations []string `json:"locations"`
}

type catalogIndex struct {
	lastUpdated string
	byName      map[string]Item
}

// ItemCatalog serves inara_items_catalog.json.
type ItemCatalog struct {
	path string
	src  *source[catalogIndex]
}

func NewItemCatalog(path string) *ItemCatalog {
	return &ItemCatalog{path: path, src: newSource(path, catalogJSONSchema, parseCatalog)}
}

func (c *ItemCatalog) Get(name string) (Item, bool) {
	k := Key(name)
	if k == "" {
		return Item{}, false
	}
	it, ok := c.src.get().byName[k]
	return it, ok
}

// SubtypeLabel renders "Type / Subtype" for table display, or whichever
// half is known, or "".
func (c *ItemCatalog) SubtypeLabel(name string) string {
	it, ok := c.Get(name)
	if !ok {
		return ""
	}
	switch {
	case it.Type != "" && it.Subtype != "":
		return it.Type + " / " + it.Subtype
	case it.Type != "":
		return it.Type
	default:
		return it.Subtype
	}
}

func (c *ItemCatalog) Count() int {
	return len(c.src.get().byName)
}

func (c *ItemCatalog) LastUpdated() string {
	return c.src.get().lastUpdated
}

func (c *ItemCatalog) Status() (bool, error) {
	return c.src.status()
}

// WriteSample creates a small editable starter catalog. It returns false
// without touching anything when the file already exists.
func (c *ItemCatalog) WriteSample() (bool, error) {
	if _, err := os.Stat(c.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	sample := struct {
		LastUpdated string `json:"last_updated"`
		Items       []Item `json:"items"`
	}{
		Items: []Item{
			{
				Name:      "Pharmaceutical Isolators",
				Type:      "Manufactured",
				Subtype:   "Chemical",
				Grade:     "Very rare",
				Locations: []string{"USS (High grade emissions)", "Mission reward"},
			},
			{
				Name:      "Manufacturing Instructions",
				Type:      "Data",
				Subtype:   "Odyssey",
				Locations: []string{"IND buildings", "RES buildings", "Mission reward"},
			},
		},
	}
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(c.path, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("write sample catalog: %w", err)
	}
	return true, nil
}

func parseCatalog(doc any) (catalogIndex, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return catalogIndex{}, fmt.Errorf("unexpected document type %T", doc)
	}
	root := journal.Object(m)
	idx := catalogIndex{
		lastUpdated: root.Text("last_updated"),
		byName:      make(map[string]Item),
	}
	recs, _ := root.Objects("items")
	for _, r := range recs {
		name := r.Text("name")
		if name == "" {
			continue
		}
		it := Item{
			Name:    name,
			Type:    r.Text("type"),
			Subtype: r.Text("subtype"),
			Grade:   r.Text("grade"),
		}
		if locs, ok := r.Strings("locations"); ok {
			for _, l := range locs {
				if l = tidy(l); l != "" {
					it.Locations = append(it.Locations, l)
				}
			}
		} else if l := r.Text("locations"); l != "" {
			it.Locations = []string{l}
		}
		idx.byName[Key(name)] = it
	}
	return idx, nil
}
