package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

var inventoryDomain = domain{
	name: "inventory",
	kinds: map[journal.Kind]foldFunc{
		journal.KindCommander: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.commander(&s.Commander, r, out)
		},
		journal.KindLoadGame: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.loadGame(&s.Commander, r, out)
		},
		journal.KindLoadout: func(e *Engine, s *state.Session, r journal.Record, _ *notices) {
			e.loadout(&s.Commander, r)
		},
		journal.KindShipyardSwap: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.shipyardSwap(&s.Commander, r, out)
		},
		journal.KindMaterials: func(e *Engine, s *state.Session, r journal.Record, _ *notices) {
			e.materials(&s.Inventory, r)
		},
		journal.KindMaterialCollected: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.materialDelta(&s.Inventory, r, +1, out)
		},
		journal.KindMaterialDiscarded: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.materialDelta(&s.Inventory, r, -1, out)
		},
		journal.KindShipLocker: func(e *Engine, s *state.Session, r journal.Record, _ *notices) {
			e.shipLocker(&s.Inventory, r)
		},
		journal.KindCargo: func(e *Engine, s *state.Session, r journal.Record, out *notices) {
			e.cargo(&s.Inventory, r, out)
		},
		journal.KindModuleBuy: func(e *Engine, _ *state.Session, r journal.Record, out *notices) {
			if mod := r.Localised("BuyItem"); mod != "" {
				out.addf("Module bought: %s", mod)
			}
		},
	},
}

func (e *Engine) commander(c *state.Commander, r journal.Record, out *notices) {
	name := r.Text("Name")
	if name == "" {
		return
	}
	if name != c.Name {
		out.addf("Commander: %s", name)
	}
	c.Name = name
}

func (e *Engine) loadGame(c *state.Commander, r journal.Record, out *notices) {
	if name := r.Text("Commander"); name != "" {
		c.Name = name
	}
	e.loadout(c, r)
	if c.Name != "" {
		out.addf("Loaded game: CMDR %s", c.Name)
	}
}

// loadout reads the ship identity fields shared by LoadGame and Loadout.
func (e *Engine) loadout(c *state.Commander, r journal.Record) {
	if ship := r.Localised("Ship"); ship != "" {
		c.Ship = ship
	}
	if id, ok := r.Int("ShipID"); ok {
		c.ShipID = id
	}
	if n := r.Text("ShipName"); n != "" {
		c.ShipName = n
	}
	if n := r.Text("ShipIdent"); n != "" {
		c.ShipIdent = n
	}
}

func (e *Engine) shipyardSwap(c *state.Commander, r journal.Record, out *notices) {
	ship := r.Localised("ShipType")
	if ship == "" {
		return
	}
	c.Ship = ship
	if id, ok := r.Int("ShipID"); ok {
		c.ShipID = id
	}
	// Name and ident belong to the old ship; the next Loadout refills them.
	c.ShipName, c.ShipIdent = "", ""
	out.addf("Ship swapped: %s", ship)
}

// items reads a list of {Name, Name_Localised, Count} stacks. Entries
// without a name or an integral count are skipped.
func items(list []journal.Object) []state.Item {
	out := make([]state.Item, 0, len(list))
	for _, o := range list {
		name, ok := o.String("Name")
		if !ok {
			continue
		}
		n, ok := o.Int("Count")
		if !ok {
			continue
		}
		key := state.ItemKey(name)
		disp := o.Text("Name_Localised")
		if disp == "" {
			disp = displayName(key)
		}
		out = append(out, state.Item{Name: key, Display: disp, Count: n})
	}
	return out
}

var materialLists = map[state.MaterialCategory]string{
	state.Raw:          "Raw",
	state.Manufactured: "Manufactured",
	state.Encoded:      "Encoded",
}

func (e *Engine) materials(inv *state.Inventory, r journal.Record) {
	for _, cat := range state.Categories {
		list, ok := r.Objects(materialLists[cat])
		if !ok {
			continue
		}
		inv.SetMaterials(cat, items(list), r.Timestamp())
	}
}

func (e *Engine) materialDelta(inv *state.Inventory, r journal.Record, sign int64, out *notices) {
	cat, ok := materialCategory(r.Text("Category"))
	if !ok {
		return
	}
	name, ok := r.String("Name")
	if !ok {
		return
	}
	n, ok := r.Int("Count")
	if !ok || n <= 0 {
		return
	}
	key := state.ItemKey(name)
	disp := r.Text("Name_Localised")
	if disp == "" {
		disp = displayName(key)
	}
	total := inv.AdjustMaterial(cat, state.Item{Name: key, Display: disp}, sign*n)
	if r.Timestamp() != "" {
		inv.MaterialsUpdated = r.Timestamp()
	}

	verb := "collected"
	if sign < 0 {
		verb = "discarded"
	}
	msg := fmt.Sprintf("Material %s: %s x%d (%d)", verb, disp, n, total)
	if e.tables.Catalog != nil {
		if lbl := e.tables.Catalog.SubtypeLabel(disp); lbl != "" {
			msg += " [" + lbl + "]"
		}
	}
	out.add(msg)
}

func materialCategory(s string) (state.MaterialCategory, bool) {
	s = strings.ToLower(CleanToken(s))
	for _, c := range state.Categories {
		if s == string(c) {
			return c, true
		}
	}
	return "", false
}

// shipLocker sums every on-foot list present. A ShipLocker record without
// lists (the client wrote the contents to a side file) changes nothing.
func (e *Engine) shipLocker(inv *state.Inventory, r journal.Record) {
	var all []state.Item
	found := false
	for _, key := range []string{"Items", "Components", "Consumables", "Data"} {
		if list, ok := r.Objects(key); ok {
			found = true
			all = append(all, items(list)...)
		}
	}
	if found {
		inv.SetLocker(all, r.Timestamp())
	}
}

func (e *Engine) cargo(inv *state.Inventory, r journal.Record, out *notices) {
	if v := r.Text("Vessel"); v != "" && !strings.EqualFold(v, "Ship") {
		return
	}
	if n, ok := r.Int("Count"); ok {
		inv.CargoCount = n
	}
	if list, ok := r.Objects("Inventory"); ok {
		inv.Cargo = nil
		inv.Limpets = 0
		for _, o := range list {
			name, ok := o.String("Name")
			if !ok {
				continue
			}
			n, _ := o.Int("Count")
			stolen, _ := o.Int("Stolen")
			key := state.ItemKey(name)
			inv.Cargo = append(inv.Cargo, state.CargoItem{
				Name:    key,
				Display: o.Text("Name_Localised"),
				Count:   n,
				Stolen:  stolen,
			})
			if key == "drones" {
				inv.Limpets += n
			}
		}
	}
	out.addf("Cargo: %d (Limpets %d)", inv.CargoCount, inv.Limpets)
}
