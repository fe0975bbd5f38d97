// Package scenario turns fleet descriptions into battle input: unit names
// are looked up in a catalogue and combat values are raised by the tech
// levels of each side.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"BattleEngine/battle"
)

const (
	// MaxTechLevel is the highest accepted research level.
	MaxTechLevel = 30
	// techBonusPercent is the bonus of one research level on a base value.
	techBonusPercent = 10
	// MaxUnits is the most units one fleet may bring into a battle.
	MaxUnits = 10_000_000
	// generalBonusLevels is added to every combat tech of a General.
	generalBonusLevels = 2
)

// Player classes.
const (
	ClassNone       = ""
	ClassCollector  = "collector"
	ClassGeneral    = "general"
	ClassDiscoverer = "discoverer"
)

var (
	// ErrNegativeAmount is returned for fleets with fewer than zero units of a type.
	ErrNegativeAmount = errors.New("negative unit amount")
	// ErrTechLevel is returned for research levels outside 0..MaxTechLevel.
	ErrTechLevel = errors.New("tech level out of range")
	// ErrUnknownEngine is returned for engine names no engine answers to.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrFleetTooLarge is returned for fleets of more than MaxUnits units.
	ErrFleetTooLarge = errors.New("fleet too large")
	// ErrUnknownClass is returned for player classes other than the known ones.
	ErrUnknownClass = errors.New("unknown player class")
)

// Tech holds the combat research levels of one side.
type Tech struct {
	Weapon    int `yaml:"weapon" json:"weapon"`
	Shielding int `yaml:"shielding" json:"shielding"`
	Armour    int `yaml:"armour" json:"armour"`
}

func bonus(base float64, level int) float64 {
	return base * float64(100+level*techBonusPercent) / 100
}

// Fleet is one side of a scenario. A General fights as if each combat tech
// were two levels higher.
type Fleet struct {
	Class string         `yaml:"class,omitempty" json:"class,omitempty"`
	Tech  Tech           `yaml:"tech" json:"tech"`
	Units map[string]int `yaml:"units" json:"units"`
}

// effectiveTech returns the tech levels the fleet fights with.
func (f Fleet) effectiveTech() Tech {
	t := f.Tech
	if f.Class == ClassGeneral {
		t.Weapon += generalBonusLevels
		t.Shielding += generalBonusLevels
		t.Armour += generalBonusLevels
	}
	return t
}

// Scenario describes a battle to simulate.
type Scenario struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Engine   string `yaml:"engine,omitempty" json:"engine,omitempty"`
	Seed     uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers  int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	Attacker Fleet  `yaml:"attacker" json:"attacker"`
	Defender Fleet  `yaml:"defender" json:"defender"`
}

// Load reads a YAML scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}
	if err := yaml.UnmarshalStrict(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return s, nil
}

// Validate reports every problem of s against catalog.
func (s *Scenario) Validate(catalog *Catalog) error {
	var err error
	err = multierr.Append(err, s.Attacker.validate("attacker", catalog))
	err = multierr.Append(err, s.Defender.validate("defender", catalog))
	if _, engineErr := battle.EngineByName(s.Engine, s.Seed, s.Workers); engineErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownEngine, s.Engine))
	}
	return err
}

func (f Fleet) validate(side string, catalog *Catalog) error {
	var err error
	total, tooLarge := 0, false
	for _, name := range sortedNames(f.Units) {
		if _, lookupErr := catalog.Lookup(name); lookupErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", side, lookupErr))
		}
		n := f.Units[name]
		if n < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: %w: %s = %d", side, ErrNegativeAmount, name, n))
			continue
		}
		// Compared before adding so huge amounts cannot wrap the total.
		if n > MaxUnits-total {
			tooLarge = true
			continue
		}
		total += n
	}
	if tooLarge {
		err = multierr.Append(err, fmt.Errorf("%s: %w: more than %d units", side, ErrFleetTooLarge, MaxUnits))
	}
	switch f.Class {
	case ClassNone, ClassCollector, ClassGeneral, ClassDiscoverer:
	default:
		err = multierr.Append(err, fmt.Errorf("%s: %w: %q", side, ErrUnknownClass, f.Class))
	}
	for _, lvl := range []struct {
		name  string
		level int
	}{
		{"weapon", f.Tech.Weapon},
		{"shielding", f.Tech.Shielding},
		{"armour", f.Tech.Armour},
	} {
		if lvl.level < 0 || lvl.level > MaxTechLevel {
			err = multierr.Append(err, fmt.Errorf("%s: %w: %s %d", side, ErrTechLevel, lvl.name, lvl.level))
		}
	}
	return err
}

// Build validates s and converts it into battle input.
func (s *Scenario) Build(catalog *Catalog) (battle.Input, error) {
	if err := s.Validate(catalog); err != nil {
		return battle.Input{}, err
	}
	return battle.Input{
		AttackerUnits: s.Attacker.specs(catalog),
		DefenderUnits: s.Defender.specs(catalog),
	}, nil
}

// specs converts the fleet into unit specs. Units with zero amount are
// left out and rapidfire against units missing from the catalogue is
// dropped.
func (f Fleet) specs(catalog *Catalog) map[battle.UnitID]battle.UnitTypeSpec {
	specs := make(map[battle.UnitID]battle.UnitTypeSpec, len(f.Units))
	tech := f.effectiveTech()
	for name, amount := range f.Units {
		if amount <= 0 {
			continue
		}
		def, err := catalog.Lookup(name)
		if err != nil {
			continue
		}
		var rf map[battle.UnitID]int
		for target, value := range def.Rapidfire {
			t, err := catalog.Lookup(target)
			if err != nil {
				continue
			}
			if rf == nil {
				rf = make(map[battle.UnitID]int, len(def.Rapidfire))
			}
			rf[t.ID] = value
		}
		specs[def.ID] = battle.UnitTypeSpec{
			ID:           def.ID,
			Amount:       amount,
			ShieldPoints: bonus(def.Shield, tech.Shielding),
			AttackPower:  bonus(def.Attack, tech.Weapon),
			HullPlating:  bonus(def.HullPlating(), tech.Armour),
			Rapidfire:    rf,
		}
	}
	return specs
}

// NewEngine returns the engine the scenario asks for.
func (s *Scenario) NewEngine() (battle.Engine, error) {
	e, err := battle.EngineByName(s.Engine, s.Seed, s.Workers)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, s.Engine)
	}
	return e, nil
}

// Problems splits a validation error into its individual problems.
func Problems(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
