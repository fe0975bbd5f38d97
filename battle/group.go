package battle

import "fmt"

// UnitGroup holds all units of one type on one side. Units that have never
// been hit are only counted; a unit gets its own UnitInstance the first
// time it is targeted.
//
// Logical index i in [0, Total()) addresses a pristine unit when
// i < Pristine() and the damaged instance i-Pristine() otherwise.
type UnitGroup struct {
	id        UnitID
	pristine  int
	damaged   []UnitInstance
	shield    float64
	hull      float64
	attack    float64
	rapidfire map[UnitID]int
}

// NewUnitGroup creates a group of spec.Amount pristine units.
func NewUnitGroup(spec UnitTypeSpec) *UnitGroup {
	amount := spec.Amount
	if amount < 0 {
		amount = 0
	}
	return &UnitGroup{
		id:        spec.ID,
		pristine:  amount,
		shield:    spec.ShieldPoints,
		hull:      spec.HullPlating,
		attack:    spec.AttackPower,
		rapidfire: spec.Rapidfire,
	}
}

// ID returns the unit type of the group.
func (g *UnitGroup) ID() UnitID { return g.id }

// Total returns the number of units, pristine and damaged.
func (g *UnitGroup) Total() int { return g.pristine + len(g.damaged) }

// Pristine returns the number of units that were never hit.
func (g *UnitGroup) Pristine() int { return g.pristine }

// Damaged returns the number of units with their own state.
func (g *UnitGroup) Damaged() int { return len(g.damaged) }

// Resolve returns the unit at logical index i. A pristine unit is turned
// into a damaged instance at full stats and stays one for the rest of the
// battle.
//
// Promoting a pristine unit appends it at the end of the damaged list, so
// the pristine range shrinks by one, Total is unchanged and every damaged
// unit keeps its instance. Pristine units are interchangeable, so which one
// is promoted does not matter. The returned pointer is only valid until the
// next call.
func (g *UnitGroup) Resolve(i int) *UnitInstance {
	if i < 0 || i >= g.Total() {
		panic(fmt.Sprintf("battle: unit index %d out of range [0,%d) for unit %d", i, g.Total(), g.id))
	}
	if i < g.pristine {
		g.pristine--
		g.damaged = append(g.damaged, UnitInstance{ID: g.id, Shield: g.shield, Hull: g.hull})
		return &g.damaged[len(g.damaged)-1]
	}
	return &g.damaged[i-g.pristine]
}

// removeDestroyed drops damaged units without hull and returns how many
// were removed.
func (g *UnitGroup) removeDestroyed() int {
	kept := g.damaged[:0]
	for _, u := range g.damaged {
		if !u.destroyed() {
			kept = append(kept, u)
		}
	}
	lost := len(g.damaged) - len(kept)
	clear(g.damaged[len(kept):])
	g.damaged = kept
	return lost
}

// regenerateShields restores the shield of every damaged unit.
func (g *UnitGroup) regenerateShields() {
	for i := range g.damaged {
		g.damaged[i].Shield = g.shield
	}
}
