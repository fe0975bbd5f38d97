package battle

import (
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParallelEngine expands every unit up front and splits each volley in two
// phases. In the compute phase every attacker works out its shots in
// parallel against the defenders as they were when the volley started. In
// the apply phase the shots are written back one attacker at a time in
// index order.
//
// Every attacker draws from its own generator seeded from the battle seed,
// the round, the firing side and its index, so the result does not depend
// on the number of workers or on scheduling.
type ParallelEngine struct {
	seed    uint64
	workers int
}

// NewParallelEngine returns a parallel engine. workers <= 0 uses one worker
// per CPU.
func NewParallelEngine(seed uint64, workers int) *ParallelEngine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelEngine{seed: seed, workers: workers}
}

// Name implements Engine.
func (e *ParallelEngine) Name() string { return EngineParallel }

// Workers returns the size of the worker pool.
func (e *ParallelEngine) Workers() int { return e.workers }

func (e *ParallelEngine) newBattle(in Input, logger *zap.Logger) combat {
	b := &parallelBattle{
		seed:     e.seed,
		workers:  e.workers,
		attacker: newFlatSide(in.AttackerUnits),
		defender: newFlatSide(in.DefenderUnits),
	}
	logger.Debug("parallel engine ready",
		zap.Int("workers", e.workers),
		zap.Int("attacker_units", len(b.attacker.units)),
		zap.Int("defender_units", len(b.defender.units)),
	)
	return b
}

const (
	// minChunk keeps tiny volleys from being split into more tasks than useful.
	minChunk = 256
	// maxPrealloc bounds the up-front allocation of a side; larger sides grow
	// by append.
	maxPrealloc = 1 << 24
)

// flatSide is one side of a battle in the parallel model.
type flatSide struct {
	units []UnitInstance
	specs map[UnitID]UnitTypeSpec
}

// newFlatSide expands units in ascending unit id order.
func newFlatSide(units map[UnitID]UnitTypeSpec) *flatSide {
	s := &flatSide{units: make([]UnitInstance, 0, flatCapacity(units)), specs: units}
	for _, id := range sortedIDs(units) {
		spec := units[id]
		for range spec.Amount {
			s.units = append(s.units, UnitInstance{ID: id, Shield: spec.ShieldPoints, Hull: spec.HullPlating})
		}
	}
	return s
}

// flatCapacity sums the positive amounts of units, saturating at
// maxPrealloc so the sum cannot wrap.
func flatCapacity(units map[UnitID]UnitTypeSpec) int {
	total := 0
	for _, spec := range units {
		if spec.Amount <= 0 {
			continue
		}
		if spec.Amount > maxPrealloc-total {
			return maxPrealloc
		}
		total += spec.Amount
	}
	return total
}

// cleanup removes destroyed units and restores shields.
func (s *flatSide) cleanup(losses UnitCounts) {
	kept := s.units[:0]
	for _, u := range s.units {
		if u.destroyed() {
			losses.add(u.ID, 1)
			continue
		}
		u.Shield = s.specs[u.ID].ShieldPoints
		kept = append(kept, u)
	}
	s.units = kept
}

func (s *flatSide) compress() UnitCounts {
	counts := UnitCounts{}
	for _, u := range s.units {
		counts.add(u.ID, 1)
	}
	return counts
}

// shot is one effective attack decided in the compute phase.
type shot struct {
	target int
	hit
}

type parallelBattle struct {
	seed     uint64
	workers  int
	attacker *flatSide
	defender *flatSide
}

func (b *parallelBattle) totals() (int, int) {
	return len(b.attacker.units), len(b.defender.units)
}

func (b *parallelBattle) fight(round int, r *Round) {
	b.volley(round, true, b.attacker, b.defender, r)
	b.volley(round, false, b.defender, b.attacker, r)
}

func (b *parallelBattle) cleanup(r *Round) {
	b.attacker.cleanup(r.lossesInRound(true))
	b.defender.cleanup(r.lossesInRound(false))
}

func (b *parallelBattle) survivors() (UnitCounts, UnitCounts) {
	return b.attacker.compress(), b.defender.compress()
}

func (b *parallelBattle) footprint() int {
	return len(b.attacker.units) + len(b.defender.units)
}

// volley lets all attackers fire at defenders.
func (b *parallelBattle) volley(round int, isAttacker bool, attackers, defenders *flatSide, r *Round) {
	n := len(attackers.units)
	if n == 0 || len(defenders.units) == 0 {
		return
	}
	shots := make([][]shot, n)

	chunk := (n + b.workers - 1) / b.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	var g errgroup.Group
	g.SetLimit(b.workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			src := rand.NewPCG(0, 0)
			rng := rand.New(src)
			for i := start; i < end; i++ {
				src.Seed(taskSeed(b.seed, round, isAttacker, i))
				shots[i] = computeShots(rng, attackers.units[i], attackers.specs, defenders)
			}
			return nil
		})
	}
	// Tasks never fail; Wait is the barrier between the two phases.
	_ = g.Wait()

	damage := 0.0
	for i, list := range shots {
		if len(list) > 0 {
			damage = attackers.specs[attackers.units[i].ID].AttackPower
		}
		for _, s := range list {
			s.apply(&defenders.units[s.target])
			r.recordHit(isAttacker, damage, s.absorbed)
		}
	}
}

// computeShots works out every shot of one attacker against a read-only
// view of defenders.
func computeShots(rng *rand.Rand, attacker UnitInstance, specs map[UnitID]UnitTypeSpec, defenders *flatSide) []shot {
	spec := specs[attacker.ID]
	var out []shot
	for {
		t := rng.IntN(len(defenders.units))
		target := defenders.units[t]
		ts := defenders.specs[target.ID]
		h, ok := resolveHit(rng, target, spec.AttackPower, ts.ShieldPoints, ts.HullPlating)
		if !ok {
			return out
		}
		out = append(out, shot{target: t, hit: h})
		if !rapidfire(rng, spec.Rapidfire[target.ID]) {
			return out
		}
	}
}

// taskSeed derives the generator seed of one attacker. It depends only on
// the position of the attacker, never on which worker runs it.
func taskSeed(seed uint64, round int, isAttacker bool, index int) (uint64, uint64) {
	side := uint64(1)
	if isAttacker {
		side = 0
	}
	hi := splitmix64(seed ^ splitmix64(uint64(round)<<1|side))
	lo := splitmix64(hi ^ uint64(index))
	return hi, lo
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
