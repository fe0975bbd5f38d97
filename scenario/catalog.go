package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"BattleEngine/battle"
)

// ErrUnknownUnit is returned for unit names missing from the catalogue.
var ErrUnknownUnit = errors.New("unknown unit")

// UnitDef is the catalogue entry of a ship or defence.
type UnitDef struct {
	ID                  battle.UnitID  `yaml:"id" json:"id"`
	Name                string         `yaml:"name" json:"name"`
	Title               string         `yaml:"title" json:"title"`
	Kind                string         `yaml:"kind" json:"kind"`
	StructuralIntegrity float64        `yaml:"structural_integrity" json:"structural_integrity"`
	Shield              float64        `yaml:"shield" json:"shield"`
	Attack              float64        `yaml:"attack" json:"attack"`
	Rapidfire           map[string]int `yaml:"rapidfire,omitempty" json:"rapidfire,omitempty"`
}

// HullPlating is the hull a unit enters battle with: a tenth of its
// structural integrity.
func (d UnitDef) HullPlating() float64 {
	return d.StructuralIntegrity / 10
}

// Unit kinds.
const (
	KindShip    = "ship"
	KindDefence = "defence"
)

// Catalog holds unit definitions by machine name.
type Catalog struct {
	units map[string]UnitDef
}

// NewCatalog builds a catalogue from defs. Later entries replace earlier
// ones with the same name.
func NewCatalog(defs ...UnitDef) *Catalog {
	c := &Catalog{units: make(map[string]UnitDef, len(defs))}
	for _, d := range defs {
		c.units[d.Name] = d
	}
	return c
}

// Lookup returns the unit called name.
func (c *Catalog) Lookup(name string) (UnitDef, error) {
	d, ok := c.units[name]
	if !ok {
		return UnitDef{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return d, nil
}

// Units returns all definitions ordered by id.
func (c *Catalog) Units() []UnitDef {
	defs := make([]UnitDef, 0, len(c.units))
	for _, d := range c.units {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Merge returns a catalogue with the units of c replaced or extended by
// those of other.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := NewCatalog(c.Units()...)
	for name, d := range other.units {
		merged.units[name] = d
	}
	return merged
}

// catalogFile is the YAML layout of a unit catalogue.
type catalogFile struct {
	Units []UnitDef `yaml:"units"`
}

// LoadCatalog reads a YAML unit catalogue.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML unit catalogue.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, d := range f.Units {
		if d.Name == "" {
			return nil, fmt.Errorf("parse catalog: unit %d has no name", d.ID)
		}
	}
	return NewCatalog(f.Units...), nil
}

var defaultShipRapidfire = map[string]int{"espionage_probe": 5, "solar_satellite": 5, "crawler": 5}

func withProbes(extra map[string]int) map[string]int {
	rf := make(map[string]int, len(defaultShipRapidfire)+len(extra))
	for k, v := range defaultShipRapidfire {
		rf[k] = v
	}
	for k, v := range extra {
		rf[k] = v
	}
	return rf
}

// Default returns the standard ships and defences.
func Default() *Catalog {
	return NewCatalog(
		UnitDef{ID: 202, Name: "small_cargo", Title: "Small Cargo", Kind: KindShip, StructuralIntegrity: 4000, Shield: 10, Attack: 5,
			Rapidfire: withProbes(nil)},
		UnitDef{ID: 203, Name: "large_cargo", Title: "Large Cargo", Kind: KindShip, StructuralIntegrity: 12000, Shield: 25, Attack: 5,
			Rapidfire: withProbes(nil)},
		UnitDef{ID: 204, Name: "light_fighter", Title: "Light Fighter", Kind: KindShip, StructuralIntegrity: 4000, Shield: 10, Attack: 50,
			Rapidfire: withProbes(nil)},
		UnitDef{ID: 205, Name: "heavy_fighter", Title: "Heavy Fighter", Kind: KindShip, StructuralIntegrity: 10000, Shield: 25, Attack: 150,
			Rapidfire: withProbes(map[string]int{"small_cargo": 3})},
		UnitDef{ID: 206, Name: "cruiser", Title: "Cruiser", Kind: KindShip, StructuralIntegrity: 27000, Shield: 50, Attack: 400,
			Rapidfire: withProbes(map[string]int{"light_fighter": 6, "rocket_launcher": 10})},
		UnitDef{ID: 207, Name: "battle_ship", Title: "Battleship", Kind: KindShip, StructuralIntegrity: 60000, Shield: 200, Attack: 1000,
			Rapidfire: withProbes(map[string]int{"pathfinder": 5})},
		UnitDef{ID: 208, Name: "colony_ship", Title: "Colony Ship", Kind: KindShip, StructuralIntegrity: 30000, Shield: 100, Attack: 50,
			Rapidfire: withProbes(nil)},
		UnitDef{ID: 209, Name: "recycler", Title: "Recycler", Kind: KindShip, StructuralIntegrity: 16000, Shield: 10, Attack: 1,
			Rapidfire: withProbes(nil)},
		UnitDef{ID: 210, Name: "espionage_probe", Title: "Espionage Probe", Kind: KindShip, StructuralIntegrity: 1000, Shield: 0.01, Attack: 0.01},
		UnitDef{ID: 211, Name: "bomber", Title: "Bomber", Kind: KindShip, StructuralIntegrity: 75000, Shield: 500, Attack: 1000,
			Rapidfire: withProbes(map[string]int{"rocket_launcher": 20, "light_laser": 20, "heavy_laser": 10, "ion_cannon": 10, "gauss_cannon": 5, "plasma_turret": 5})},
		UnitDef{ID: 212, Name: "solar_satellite", Title: "Solar Satellite", Kind: KindShip, StructuralIntegrity: 2000, Shield: 1, Attack: 1},
		UnitDef{ID: 213, Name: "destroyer", Title: "Destroyer", Kind: KindShip, StructuralIntegrity: 110000, Shield: 500, Attack: 2000,
			Rapidfire: withProbes(map[string]int{"light_laser": 10, "battlecruiser": 2})},
		UnitDef{ID: 214, Name: "deathstar", Title: "Deathstar", Kind: KindShip, StructuralIntegrity: 9000000, Shield: 50000, Attack: 200000,
			Rapidfire: map[string]int{
				"small_cargo": 250, "large_cargo": 250, "light_fighter": 200, "heavy_fighter": 100, "cruiser": 33,
				"battle_ship": 30, "colony_ship": 250, "recycler": 250, "espionage_probe": 1250, "bomber": 25,
				"solar_satellite": 1250, "destroyer": 5, "battlecruiser": 15, "rocket_launcher": 200,
				"light_laser": 200, "heavy_laser": 100, "gauss_cannon": 50, "ion_cannon": 100,
				"crawler": 1250, "reaper": 10, "pathfinder": 30,
			}},
		UnitDef{ID: 215, Name: "battlecruiser", Title: "Battlecruiser", Kind: KindShip, StructuralIntegrity: 70000, Shield: 400, Attack: 700,
			Rapidfire: withProbes(map[string]int{"small_cargo": 3, "large_cargo": 3, "heavy_fighter": 4, "cruiser": 4, "battle_ship": 7})},
		UnitDef{ID: 217, Name: "crawler", Title: "Crawler", Kind: KindShip, StructuralIntegrity: 4000, Shield: 1, Attack: 1},
		UnitDef{ID: 218, Name: "reaper", Title: "Reaper", Kind: KindShip, StructuralIntegrity: 140000, Shield: 700, Attack: 2800,
			Rapidfire: withProbes(map[string]int{"battle_ship": 7, "bomber": 4, "destroyer": 3})},
		UnitDef{ID: 219, Name: "pathfinder", Title: "Pathfinder", Kind: KindShip, StructuralIntegrity: 23000, Shield: 100, Attack: 200,
			Rapidfire: withProbes(map[string]int{"cruiser": 3, "light_fighter": 3, "heavy_fighter": 2})},

		UnitDef{ID: 401, Name: "rocket_launcher", Title: "Rocket Launcher", Kind: KindDefence, StructuralIntegrity: 2000, Shield: 20, Attack: 80},
		UnitDef{ID: 402, Name: "light_laser", Title: "Light Laser", Kind: KindDefence, StructuralIntegrity: 2000, Shield: 25, Attack: 100},
		UnitDef{ID: 403, Name: "heavy_laser", Title: "Heavy Laser", Kind: KindDefence, StructuralIntegrity: 8000, Shield: 100, Attack: 250},
		UnitDef{ID: 404, Name: "gauss_cannon", Title: "Gauss Cannon", Kind: KindDefence, StructuralIntegrity: 35000, Shield: 200, Attack: 1100},
		UnitDef{ID: 405, Name: "ion_cannon", Title: "Ion Cannon", Kind: KindDefence, StructuralIntegrity: 8000, Shield: 500, Attack: 150},
		UnitDef{ID: 406, Name: "plasma_turret", Title: "Plasma Turret", Kind: KindDefence, StructuralIntegrity: 100000, Shield: 300, Attack: 3000},
		UnitDef{ID: 407, Name: "small_shield_dome", Title: "Small Shield Dome", Kind: KindDefence, StructuralIntegrity: 20000, Shield: 2000, Attack: 1},
		UnitDef{ID: 408, Name: "large_shield_dome", Title: "Large Shield Dome", Kind: KindDefence, StructuralIntegrity: 100000, Shield: 10000, Attack: 1},
	)
}
