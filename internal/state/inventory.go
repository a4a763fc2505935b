package state

import (
	"maps"
	"slices"
	"strings"
)

// MaterialCategory groups engineering materials.
type MaterialCategory string

const (
	Raw          MaterialCategory = "raw"
	Manufactured MaterialCategory = "manufactured"
	Encoded      MaterialCategory = "encoded"
)

// Categories lists the material categories in display order.
var Categories = []MaterialCategory{Raw, Manufactured, Encoded}

// Item is one named stack in an inventory listing.
type Item struct {
	Name    string `json:"name"` // internal name, lower case
	Display string `json:"display"`
	Count   int64  `json:"count"`
}

// CargoItem is one line of the ship's cargo hold.
type CargoItem struct {
	Name    string `json:"name"`
	Display string `json:"display,omitempty"`
	Count   int64  `json:"count"`
	Stolen  int64  `json:"stolen,omitempty"`
}

// Inventory is commander-wide; it is never cleared by a system change.
type Inventory struct {
	Materials        map[MaterialCategory]map[string]int64 `json:"materials,omitempty"`
	MaterialNames    map[string]string                     `json:"material_names,omitempty"`
	MaterialsUpdated string                                `json:"materials_updated,omitempty"`

	Locker        map[string]int64  `json:"locker,omitempty"`
	LockerNames   map[string]string `json:"locker_names,omitempty"`
	LockerUpdated string            `json:"locker_updated,omitempty"`

	Cargo      []CargoItem `json:"cargo,omitempty"`
	CargoCount int64       `json:"cargo_count,omitempty"`
	Limpets    int64       `json:"limpets,omitempty"`
}

// ItemKey is the inventory key for a journal item name.
func ItemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SetMaterials replaces one category with the given stacks. Stacks sharing a
// name are summed.
func (inv *Inventory) SetMaterials(cat MaterialCategory, items []Item, at string) {
	if inv.Materials == nil {
		inv.Materials = make(map[MaterialCategory]map[string]int64)
	}
	if inv.MaterialNames == nil {
		inv.MaterialNames = make(map[string]string)
	}
	inv.Materials[cat] = sumItems(items, inv.MaterialNames)
	if at != "" {
		inv.MaterialsUpdated = at
	}
}

// AdjustMaterial adds delta (which may be negative) to one material,
// flooring at zero, and returns the new count.
func (inv *Inventory) AdjustMaterial(cat MaterialCategory, it Item, delta int64) int64 {
	if inv.Materials == nil {
		inv.Materials = make(map[MaterialCategory]map[string]int64)
	}
	if inv.MaterialNames == nil {
		inv.MaterialNames = make(map[string]string)
	}
	m := inv.Materials[cat]
	if m == nil {
		m = make(map[string]int64)
		inv.Materials[cat] = m
	}
	n := max(0, m[it.Name]+delta)
	m[it.Name] = n
	if it.Display != "" {
		inv.MaterialNames[it.Name] = it.Display
	}
	return n
}

// SetLocker replaces the on-foot locker contents.
func (inv *Inventory) SetLocker(items []Item, at string) {
	if inv.LockerNames == nil {
		inv.LockerNames = make(map[string]string)
	}
	inv.Locker = sumItems(items, inv.LockerNames)
	if at != "" {
		inv.LockerUpdated = at
	}
}

// MaterialCount returns the count of a material in any category.
func (inv *Inventory) MaterialCount(name string) int64 {
	k := ItemKey(name)
	var n int64
	for _, m := range inv.Materials {
		n += m[k]
	}
	return n
}

// Listing returns a category's stacks sorted by display name.
func (inv *Inventory) Listing(cat MaterialCategory) []Item {
	return listing(inv.Materials[cat], inv.MaterialNames)
}

// LockerListing returns the locker stacks sorted by display name.
func (inv *Inventory) LockerListing() []Item {
	return listing(inv.Locker, inv.LockerNames)
}

func sumItems(items []Item, names map[string]string) map[string]int64 {
	out := make(map[string]int64, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		out[it.Name] += it.Count
		if it.Display != "" {
			names[it.Name] = it.Display
		}
	}
	return out
}

func listing(counts map[string]int64, names map[string]string) []Item {
	out := make([]Item, 0, len(counts))
	for k, n := range counts {
		d := names[k]
		if d == "" {
			d = k
		}
		out = append(out, Item{Name: k, Display: d, Count: n})
	}
	slices.SortFunc(out, func(a, b Item) int {
		if c := strings.Compare(strings.ToLower(a.Display), strings.ToLower(b.Display)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (inv Inventory) clone() Inventory {
	c := inv
	if inv.Materials != nil {
		c.Materials = make(map[MaterialCategory]map[string]int64, len(inv.Materials))
		for k, m := range inv.Materials {
			c.Materials[k] = maps.Clone(m)
		}
	}
	c.MaterialNames = maps.Clone(inv.MaterialNames)
	c.Locker = maps.Clone(inv.Locker)
	c.LockerNames = maps.Clone(inv.LockerNames)
	c.Cargo = slices.Clone(inv.Cargo)
	return c
}
