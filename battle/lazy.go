package battle

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// LazyEngine resolves combat sequentially over unit groups. Units are only
// given their own state once they are hit, which keeps memory proportional
// to the number of damaged units instead of the fleet size. Damage is
// visible to later attackers of the same volley.
type LazyEngine struct {
	seed uint64
}

// NewLazyEngine returns a lazy engine whose random draws derive from seed.
func NewLazyEngine(seed uint64) *LazyEngine {
	return &LazyEngine{seed: seed}
}

// Name implements Engine.
func (e *LazyEngine) Name() string { return EngineLazy }

func (e *LazyEngine) newBattle(in Input, logger *zap.Logger) combat {
	b := &lazyBattle{
		attacker: newGroupSide(in.AttackerUnits),
		defender: newGroupSide(in.DefenderUnits),
		rng:      rand.New(rand.NewPCG(e.seed, lazyStream)),
	}
	logger.Debug("lazy engine ready",
		zap.Int("attacker_units", b.attacker.total),
		zap.Int("defender_units", b.defender.total),
	)
	return b
}

// lazyStream separates the lazy engine's draws from the parallel engine's
// for the same seed.
const lazyStream = 0x6c617a79

type lazyBattle struct {
	attacker *groupSide
	defender *groupSide
	rng      *rand.Rand
}

func (b *lazyBattle) totals() (int, int) {
	return b.attacker.total, b.defender.total
}

func (b *lazyBattle) fight(_ int, r *Round) {
	fireGroups(b.rng, b.attacker, b.defender, r, true)
	fireGroups(b.rng, b.defender, b.attacker, r, false)
}

func (b *lazyBattle) cleanup(r *Round) {
	b.attacker.cleanup(r.lossesInRound(true))
	b.defender.cleanup(r.lossesInRound(false))
}

func (b *lazyBattle) survivors() (UnitCounts, UnitCounts) {
	return b.attacker.compress(), b.defender.compress()
}

func (b *lazyBattle) footprint() int {
	return b.attacker.footprint() + b.defender.footprint()
}

// fireGroups lets every unit of attackers fire at defenders. Unit types fire
// in ascending id order and every unit of a type fires in turn, which fixes
// the order of random draws for a given seed.
func fireGroups(rng *rand.Rand, attackers, defenders *groupSide, r *Round, isAttacker bool) {
	for _, id := range attackers.order {
		g := attackers.groups[id]
		count := g.Total()
		for range count {
			if !fireUnit(rng, g.attack, g.rapidfire, defenders, r, isAttacker) {
				return
			}
		}
	}
}

// fireUnit resolves all shots of one unit. It returns false when defenders
// has no units left to shoot at.
func fireUnit(rng *rand.Rand, damage float64, rf map[UnitID]int, defenders *groupSide, r *Round, isAttacker bool) bool {
	for {
		g, target := defenders.selectRandom(rng)
		if target == nil {
			return false
		}
		h, ok := resolveHit(rng, *target, damage, g.shield, g.hull)
		if !ok {
			return true
		}
		h.apply(target)
		r.recordHit(isAttacker, damage, h.absorbed)
		if !rapidfire(rng, rf[g.id]) {
			return true
		}
	}
}
