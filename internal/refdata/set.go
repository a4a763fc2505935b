package refdata

import "path/filepath"

// Document file names inside the data directory.
const (
	PlanetValuesFile   = "planet_values.json"
	OrganismValuesFile = "exo_values.json"
	POIsFile           = "external_pois.json"
	FarmingFile        = "elite_farming_locations.json"
	CatalogFile        = "inara_items_catalog.json"
)

// Set bundles the five reference tables served from one data directory.
type Set struct {
	Planets   *PlanetValues
	Organisms *OrganismValues
	POIs      *POIStore
	Farming   *FarmingLocations
	Catalog   *ItemCatalog
}

// Open binds every table to its document under dir. Nothing is read until
// the first query; absent documents are empty tables.
func Open(dir string) *Set {
	return &Set{
		Planets:   NewPlanetValues(filepath.Join(dir, PlanetValuesFile)),
		Organisms: NewOrganismValues(filepath.Join(dir, OrganismValuesFile)),
		POIs:      NewPOIStore(filepath.Join(dir, POIsFile)),
		Farming:   NewFarmingLocations(filepath.Join(dir, FarmingFile)),
		Catalog:   NewItemCatalog(filepath.Join(dir, CatalogFile)),
	}
}

// TableStatus is one line of Set.Status.
type TableStatus struct {
	File   string
	Loaded bool
	Err    error
}

// Status reports, per document, whether it is loaded and its last load
// error. Used for the "value table not loaded" degraded-mode notices.
func (s *Set) Status() []TableStatus {
	type statuser interface{ Status() (bool, error) }
	tables := []struct {
		file string
		t    statuser
	}{
		{PlanetValuesFile, s.Planets},
		{OrganismValuesFile, s.Organisms},
		{POIsFile, s.POIs},
		{FarmingFile, s.Farming},
		{CatalogFile, s.Catalog},
	}
	out := make([]TableStatus, 0, len(tables))
	for _, tb := range tables {
		ok, err := tb.t.Status()
		out = append(out, TableStatus{File: tb.file, Loaded: ok, Err: err})
	}
	return out
}
