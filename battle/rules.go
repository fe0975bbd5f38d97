package battle

import (
	"math"
	"math/rand/v2"
)

const (
	// A unit whose hull drops below this fraction of its base hull can explode.
	explosionThreshold = 0.7
	// Attacks weaker than this fraction of the target's base shield bounce off.
	minDamageShieldFraction = 0.01
)

// hit is the effect of one attack on one target.
type hit struct {
	absorbed  float64 // damage taken by the shield
	hull      float64 // damage taken by the hull
	destroyed bool    // the target exploded
}

// apply writes the effect of h onto u.
func (h hit) apply(u *UnitInstance) {
	u.struck = true
	u.Shield -= h.absorbed
	if u.Shield < 0 {
		u.Shield = 0
	}
	u.Hull -= h.hull
	if h.destroyed {
		u.Hull = 0
		u.Shield = 0
	}
}

// weaponTooWeak reports whether damage is below 1% of the base shield of the
// target type. Such an attack does nothing.
func weaponTooWeak(damage, baseShield float64) bool {
	return damage < minDamageShieldFraction*baseShield
}

// splitDamage divides damage between the current shield and the hull.
func splitDamage(damage, shield float64) (absorbed, hull float64) {
	switch {
	case shield <= 0:
		return 0, damage
	case damage <= shield:
		return damage, 0
	default:
		return shield, damage - shield
	}
}

// explosionChance is the chance in percent that a unit left with hull
// explodes: 100 - hull/baseHull*100.
func explosionChance(hull, baseHull float64) float64 {
	return (baseHull - hull) * 100 / baseHull
}

// explodes rolls the explosion check for a unit left with hull after a hit.
// Units without base hull explode on any hit and consume no roll.
func explodes(rng *rand.Rand, hull, baseHull float64) bool {
	if baseHull <= 0 {
		return true
	}
	if hull/baseHull >= explosionThreshold {
		return false
	}
	roll := rng.IntN(101)
	return float64(roll) < math.Trunc(explosionChance(hull, baseHull))
}

// resolveHit computes what damage does to target without modifying it.
// ok is false when the weapon is too weak for the target type.
func resolveHit(rng *rand.Rand, target UnitInstance, damage, baseShield, baseHull float64) (h hit, ok bool) {
	if weaponTooWeak(damage, baseShield) {
		return hit{}, false
	}
	h.absorbed, h.hull = splitDamage(damage, target.Shield)
	h.destroyed = explodes(rng, target.Hull-h.hull, baseHull)
	return h, true
}

// rapidfireChance returns the chance in percent to fire again for a
// rapidfire value: 100 - floor(10000/r)/100. Values of 1 or less give 0.
func rapidfireChance(r int) float64 {
	if r <= 1 {
		return 0
	}
	return 100 - float64(10000/r)/100
}

// rapidfire rolls whether a unit with rapidfire value r fires again.
func rapidfire(rng *rand.Rand, r int) bool {
	if r <= 1 {
		return false
	}
	roll := rng.Float64() * 100
	return roll <= rapidfireChance(r)
}
