package battle

import "math/rand/v2"

// groupSide is one side of a battle in the lazy model.
type groupSide struct {
	groups map[UnitID]*UnitGroup
	order  []UnitID // unit ids in ascending order
	total  int
}

func newGroupSide(units map[UnitID]UnitTypeSpec) *groupSide {
	s := &groupSide{groups: make(map[UnitID]*UnitGroup, len(units))}
	for id, spec := range units {
		g := NewUnitGroup(spec)
		s.groups[id] = g
		s.total += g.Total()
	}
	s.order = sortedIDs(s.groups)
	return s
}

func (s *groupSide) empty() bool {
	return s.total == 0
}

// locate maps a flat index over the whole side to a group and an index
// inside it. Groups are walked in ascending unit id order so that a given
// sequence of draws always picks the same units.
func (s *groupSide) locate(idx int) (*UnitGroup, int) {
	cumulative := 0
	for _, id := range s.order {
		g := s.groups[id]
		size := g.Total()
		if idx < cumulative+size {
			return g, idx - cumulative
		}
		cumulative += size
	}
	return nil, 0
}

// selectRandom picks a unit uniformly over the side and returns it together
// with its group. It returns nil when the side has no units.
func (s *groupSide) selectRandom(rng *rand.Rand) (*UnitGroup, *UnitInstance) {
	if s.total == 0 {
		return nil, nil
	}
	g, local := s.locate(rng.IntN(s.total))
	if g == nil {
		return nil, nil
	}
	return g, g.Resolve(local)
}

// cleanup removes destroyed units, books them in losses and restores the
// shields of the survivors.
func (s *groupSide) cleanup(losses UnitCounts) {
	s.total = 0
	for _, id := range s.order {
		g := s.groups[id]
		if lost := g.removeDestroyed(); lost > 0 {
			losses.add(id, lost)
		}
		g.regenerateShields()
		s.total += g.Total()
	}
}

func (s *groupSide) compress() UnitCounts {
	counts := UnitCounts{}
	for id, g := range s.groups {
		if n := g.Total(); n > 0 {
			counts[id] = n
		}
	}
	return counts
}

// footprint is the number of units that hold their own state.
func (s *groupSide) footprint() int {
	n := 0
	for _, g := range s.groups {
		n += g.Damaged()
	}
	return n
}
