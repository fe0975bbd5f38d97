package battle

import (
	"maps"
	"sort"
)

// MaxRounds is the number of rounds after which a battle ends in a draw.
const MaxRounds = 6

// UnitID identifies a unit type (202 small cargo, 401 rocket launcher, ...).
type UnitID int

// UnitTypeSpec holds the combat values of one unit type on one side. It is
// never modified during a battle.
type UnitTypeSpec struct {
	ID           UnitID         `json:"unit_id" yaml:"unit_id"`
	Amount       int            `json:"amount" yaml:"amount"`
	ShieldPoints float64        `json:"shield_points" yaml:"shield_points"`
	AttackPower  float64        `json:"attack_power" yaml:"attack_power"`
	HullPlating  float64        `json:"hull_plating" yaml:"hull_plating"`
	Rapidfire    map[UnitID]int `json:"rapidfire" yaml:"rapidfire"`
}

// UnitInstance is a single unit with its own shield and hull state.
type UnitInstance struct {
	ID     UnitID
	Shield float64
	Hull   float64

	struck bool
}

// destroyed reports whether u was hit and has no hull left. Units without
// base hull survive until they are hit for the first time.
func (u *UnitInstance) destroyed() bool {
	return u.struck && u.Hull <= 0
}

// Input describes both fleets at the start of a battle.
type Input struct {
	AttackerUnits map[UnitID]UnitTypeSpec `json:"attacker_units"`
	DefenderUnits map[UnitID]UnitTypeSpec `json:"defender_units"`
}

// UnitCounts maps a unit type to an amount of units.
type UnitCounts map[UnitID]int

// Total sums all amounts.
func (c UnitCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func (c UnitCounts) add(id UnitID, n int) {
	c[id] += n
}

// Round is the record of one combat round. It is not modified after it has
// been appended to the output.
type Round struct {
	AttackerShips UnitCounts `json:"attacker_ships"`
	DefenderShips UnitCounts `json:"defender_ships"`

	// Cumulative losses compared to the starting fleets.
	AttackerLosses UnitCounts `json:"attacker_losses"`
	DefenderLosses UnitCounts `json:"defender_losses"`

	AttackerLossesInRound UnitCounts `json:"attacker_losses_in_round"`
	DefenderLossesInRound UnitCounts `json:"defender_losses_in_round"`

	AbsorbedDamageAttacker float64 `json:"absorbed_damage_attacker"`
	AbsorbedDamageDefender float64 `json:"absorbed_damage_defender"`
	FullStrengthAttacker   float64 `json:"full_strength_attacker"`
	FullStrengthDefender   float64 `json:"full_strength_defender"`
	HitsAttacker           int     `json:"hits_attacker"`
	HitsDefender           int     `json:"hits_defender"`
}

func newRound() *Round {
	return &Round{
		AttackerShips:         UnitCounts{},
		DefenderShips:         UnitCounts{},
		AttackerLosses:        UnitCounts{},
		DefenderLosses:        UnitCounts{},
		AttackerLossesInRound: UnitCounts{},
		DefenderLossesInRound: UnitCounts{},
	}
}

// clone returns a copy of r that shares no maps with it.
func (r Round) clone() Round {
	r.AttackerShips = maps.Clone(r.AttackerShips)
	r.DefenderShips = maps.Clone(r.DefenderShips)
	r.AttackerLosses = maps.Clone(r.AttackerLosses)
	r.DefenderLosses = maps.Clone(r.DefenderLosses)
	r.AttackerLossesInRound = maps.Clone(r.AttackerLossesInRound)
	r.DefenderLossesInRound = maps.Clone(r.DefenderLossesInRound)
	return r
}

// recordHit books one effective attack. The absorbed damage is booked on
// the side that was hit.
func (r *Round) recordHit(attacker bool, damage, absorbed float64) {
	if attacker {
		r.HitsAttacker++
		r.FullStrengthAttacker += damage
		r.AbsorbedDamageDefender += absorbed
		return
	}
	r.HitsDefender++
	r.FullStrengthDefender += damage
	r.AbsorbedDamageAttacker += absorbed
}

func (r *Round) lossesInRound(attacker bool) UnitCounts {
	if attacker {
		return r.AttackerLossesInRound
	}
	return r.DefenderLossesInRound
}

// MemoryMetrics reports the highest memory use sampled during a battle, in KiB.
type MemoryMetrics struct {
	PeakMemory uint64 `json:"peak_memory"`
}

// BattleOutput is the result of a battle.
type BattleOutput struct {
	Rounds        []Round       `json:"rounds"`
	MemoryMetrics MemoryMetrics `json:"memory_metrics"`
}

// sortedIDs returns the unit type ids of m in ascending order. Every loop
// whose order influences random draws goes through it.
func sortedIDs[V any](m map[UnitID]V) []UnitID {
	ids := make([]UnitID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// cumulativeLosses returns initial minus current amount for every unit type
// that lost at least one unit.
func cumulativeLosses(initial map[UnitID]UnitTypeSpec, current UnitCounts) UnitCounts {
	losses := UnitCounts{}
	for id, spec := range initial {
		if lost := spec.Amount - current[id]; lost > 0 {
			losses[id] = lost
		}
	}
	return losses
}
