package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"BattleEngine/battle"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	lf, err := c.Lookup("light_fighter")
	if err != nil {
		t.Fatal(err)
	}
	if lf.ID != 204 || lf.HullPlating() != 400 || lf.Shield != 10 || lf.Attack != 50 {
		t.Errorf("light fighter = %+v", lf)
	}
	if _, err := c.Lookup("x_wing"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("Lookup(x_wing) error = %v, want ErrUnknownUnit", err)
	}

	for _, tt := range []struct {
		name   string
		id     battle.UnitID
		hull   float64
		attack float64
	}{
		{"crawler", 217, 400, 1},
		{"reaper", 218, 14000, 2800},
		{"pathfinder", 219, 2300, 200},
	} {
		u, err := c.Lookup(tt.name)
		if err != nil {
			t.Error(err)
			continue
		}
		if u.ID != tt.id || u.HullPlating() != tt.hull || u.Attack != tt.attack {
			t.Errorf("%s = %+v", tt.name, u)
		}
	}
	if ds, _ := c.Lookup("deathstar"); ds.Rapidfire["reaper"] != 10 || ds.Rapidfire["crawler"] != 1250 {
		t.Errorf("deathstar rapidfire = %v", ds.Rapidfire)
	}

	units := c.Units()
	for i := 1; i < len(units); i++ {
		if units[i-1].ID >= units[i].ID {
			t.Fatalf("units not ordered by id: %d before %d", units[i-1].ID, units[i].ID)
		}
	}
	// Every rapidfire target must exist.
	for _, u := range units {
		for target := range u.Rapidfire {
			if _, err := c.Lookup(target); err != nil {
				t.Errorf("%s has rapidfire against %v", u.Name, err)
			}
		}
	}
}

const testCatalog = `
units:
  - id: 204
    name: light_fighter
    title: Light Fighter Mk II
    kind: ship
    structural_integrity: 5000
    shield: 15
    attack: 60
  - id: 220
    name: ravager
    title: Ravager
    kind: ship
    structural_integrity: 90000
    shield: 600
    attack: 2200
    rapidfire:
      battle_ship: 4
`

func TestLoadCatalogMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	custom, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	merged := Default().Merge(custom)

	lf, _ := merged.Lookup("light_fighter")
	if lf.Attack != 60 || lf.HullPlating() != 500 {
		t.Errorf("light fighter not replaced: %+v", lf)
	}
	if rv, err := merged.Lookup("ravager"); err != nil || rv.Rapidfire["battle_ship"] != 4 {
		t.Errorf("ravager = %+v, %v", rv, err)
	}
	if _, err := merged.Lookup("cruiser"); err != nil {
		t.Error(err)
	}
	if orig, _ := Default().Lookup("light_fighter"); orig.Attack != 50 {
		t.Error("merge changed the default catalogue")
	}
}

func TestParseCatalogErrors(t *testing.T) {
	if _, err := ParseCatalog([]byte("units:\n  - id: 1\n")); err == nil {
		t.Error("unit without name accepted")
	}
	if _, err := ParseCatalog([]byte("units: [")); err == nil {
		t.Error("broken YAML accepted")
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}
