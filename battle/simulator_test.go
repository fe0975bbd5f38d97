package battle

import (
	"bytes"
	"encoding/json"
	"testing"
)

// testEngines returns fresh engines for the given seed.
func testEngines(seed uint64) []Engine {
	return []Engine{NewLazyEngine(seed), NewParallelEngine(seed, 4)}
}

func fighterVsLauncher(attackers, defenders int) Input {
	return Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{204: testSpec(204, attackers, 10, 50, 400, nil)},
		DefenderUnits: map[UnitID]UnitTypeSpec{401: testSpec(401, defenders, 20, 80, 200, nil)},
	}
}

func TestScenarioFightersVersusLaunchers(t *testing.T) {
	for _, e := range testEngines(1) {
		t.Run(e.Name(), func(t *testing.T) {
			out := Simulate(fighterVsLauncher(100, 100), e)
			if len(out.Rounds) == 0 || len(out.Rounds) > MaxRounds {
				t.Fatalf("rounds = %d, want 1..%d", len(out.Rounds), MaxRounds)
			}
			first := out.Rounds[0]
			if first.AbsorbedDamageAttacker <= 0 || first.AbsorbedDamageDefender <= 0 {
				t.Errorf("round 1 absorbed damage attacker=%v defender=%v, want both > 0",
					first.AbsorbedDamageAttacker, first.AbsorbedDamageDefender)
			}
			if first.HitsAttacker != 100 || first.HitsDefender != 100 {
				t.Errorf("round 1 hits = %d/%d, want 100/100", first.HitsAttacker, first.HitsDefender)
			}
			if first.FullStrengthAttacker != 5000 || first.FullStrengthDefender != 8000 {
				t.Errorf("round 1 full strength = %v/%v, want 5000/8000", first.FullStrengthAttacker, first.FullStrengthDefender)
			}
			for i, r := range out.Rounds {
				if n := r.AttackerShips.Total() + r.DefenderShips.Total(); n > 200 {
					t.Errorf("round %d: %d survivors, want at most 200", i+1, n)
				}
			}
		})
	}
}

// mixedFleets gives both sides several unit types so that type ordering
// affects the random draws.
func mixedFleets() Input {
	return Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{
			204: testSpec(204, 400, 10, 50, 400, nil),
			206: testSpec(206, 60, 50, 400, 2700, map[UnitID]int{204: 6, 401: 10}),
		},
		DefenderUnits: map[UnitID]UnitTypeSpec{
			401: testSpec(401, 500, 20, 80, 200, nil),
			402: testSpec(402, 200, 25, 100, 200, nil),
			204: testSpec(204, 100, 10, 50, 400, nil),
		},
	}
}

func TestRoundInvariants(t *testing.T) {
	in := mixedFleets()
	for _, e := range testEngines(3) {
		t.Run(e.Name(), func(t *testing.T) {
			out := Simulate(in, e)
			checkInvariants(t, in, out)
		})
	}
}

func checkInvariants(t *testing.T, in Input, out BattleOutput) {
	t.Helper()
	if len(out.Rounds) > MaxRounds {
		t.Fatalf("rounds = %d, want at most %d", len(out.Rounds), MaxRounds)
	}
	prevAtt, prevDef := UnitCounts{}, UnitCounts{}
	for i, r := range out.Rounds {
		checkSide(t, i+1, "attacker", in.AttackerUnits, r.AttackerShips, r.AttackerLosses, prevAtt)
		checkSide(t, i+1, "defender", in.DefenderUnits, r.DefenderShips, r.DefenderLosses, prevDef)
		prevAtt, prevDef = r.AttackerLosses, r.DefenderLosses

		empty := r.AttackerShips.Total() == 0 || r.DefenderShips.Total() == 0
		if empty && i != len(out.Rounds)-1 {
			t.Errorf("round %d left a side empty but the battle went on", i+1)
		}
	}
}

func checkSide(t *testing.T, n int, side string, initial map[UnitID]UnitTypeSpec, ships, losses, prev UnitCounts) {
	t.Helper()
	for id, spec := range initial {
		if ships[id] > spec.Amount {
			t.Errorf("round %d %s: %d units of %d, started with %d", n, side, ships[id], id, spec.Amount)
		}
		if ships[id]+losses[id] != spec.Amount {
			t.Errorf("round %d %s: %d survivors + %d losses of %d != %d", n, side, ships[id], losses[id], id, spec.Amount)
		}
		if losses[id] < prev[id] {
			t.Errorf("round %d %s: losses of %d went from %d to %d", n, side, id, prev[id], losses[id])
		}
	}
}

func TestLossesInRoundMatchCumulative(t *testing.T) {
	in := fighterVsLauncher(300, 300)
	for _, e := range testEngines(5) {
		t.Run(e.Name(), func(t *testing.T) {
			out := Simulate(in, e)
			sum := UnitCounts{}
			for i, r := range out.Rounds {
				for id, n := range r.DefenderLossesInRound {
					sum[id] += n
				}
				if sum[401] != r.DefenderLosses[401] {
					t.Errorf("round %d: summed losses %d, cumulative %d", i+1, sum[401], r.DefenderLosses[401])
				}
			}
		})
	}
}

func TestEmptySideFightsNoRounds(t *testing.T) {
	in := fighterVsLauncher(10, 0)
	for _, e := range testEngines(1) {
		if out := Simulate(in, e); len(out.Rounds) != 0 {
			t.Errorf("%s: %d rounds against an empty side", e.Name(), len(out.Rounds))
		}
	}
	if out := Simulate(Input{}, NewLazyEngine(1)); len(out.Rounds) != 0 {
		t.Errorf("%d rounds without any units", len(out.Rounds))
	}
}

func TestWeakWeaponsNeverHit(t *testing.T) {
	in := Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{1: testSpec(1, 50, 1000, 1, 100, nil)},
		DefenderUnits: map[UnitID]UnitTypeSpec{2: testSpec(2, 50, 1000, 9.99, 100, nil)},
	}
	for _, e := range testEngines(1) {
		t.Run(e.Name(), func(t *testing.T) {
			out := Simulate(in, e)
			if len(out.Rounds) != MaxRounds {
				t.Fatalf("rounds = %d, want %d", len(out.Rounds), MaxRounds)
			}
			for i, r := range out.Rounds {
				if r.HitsAttacker != 0 || r.HitsDefender != 0 {
					t.Errorf("round %d: hits %d/%d, want none", i+1, r.HitsAttacker, r.HitsDefender)
				}
				if r.AbsorbedDamageAttacker != 0 || r.AbsorbedDamageDefender != 0 || r.FullStrengthAttacker != 0 {
					t.Errorf("round %d recorded damage: %+v", i+1, r)
				}
				if r.AttackerShips[1] != 50 || r.DefenderShips[2] != 50 {
					t.Errorf("round %d: ships %v %v, want 50 each", i+1, r.AttackerShips, r.DefenderShips)
				}
			}
		})
	}
}

func TestZeroHullUnitsDieOnFirstHit(t *testing.T) {
	in := Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{1: testSpec(1, 5, 0, 10, 100, nil)},
		DefenderUnits: map[UnitID]UnitTypeSpec{2: testSpec(2, 1, 0, 0, 0, nil)},
	}
	for _, e := range testEngines(1) {
		out := Simulate(in, e)
		if len(out.Rounds) != 1 {
			t.Fatalf("%s: rounds = %d, want 1", e.Name(), len(out.Rounds))
		}
		if r := out.Rounds[0]; r.DefenderShips.Total() != 0 || r.DefenderLossesInRound[2] != 1 {
			t.Errorf("%s: defender ships %v, losses %v", e.Name(), r.DefenderShips, r.DefenderLossesInRound)
		}
	}
}

// Rapidfire 5 against the target type means 1/(1-0.8) = 5 shots per unit in
// expectation.
func TestRapidfireShotsPerUnit(t *testing.T) {
	const attackers = 2000
	target := testSpec(10, 5000, 0, 0, 1e12, nil)
	for _, e := range testEngines(9) {
		t.Run(e.Name(), func(t *testing.T) {
			with := Simulate(Input{
				AttackerUnits: map[UnitID]UnitTypeSpec{1: testSpec(1, attackers, 10, 1, 100, map[UnitID]int{10: 5})},
				DefenderUnits: map[UnitID]UnitTypeSpec{10: target},
			}, e)
			without := Simulate(Input{
				AttackerUnits: map[UnitID]UnitTypeSpec{2: testSpec(2, attackers, 10, 1, 100, nil)},
				DefenderUnits: map[UnitID]UnitTypeSpec{10: target},
			}, e)

			rf := float64(with.Rounds[0].HitsAttacker) / attackers
			plain := float64(without.Rounds[0].HitsAttacker) / attackers
			if plain != 1 {
				t.Errorf("plain units fired %.3f shots each, want 1", plain)
			}
			if rf < 4.6 || rf > 5.4 {
				t.Errorf("rapidfire units fired %.3f shots each, want about 5", rf)
			}
		})
	}
}

func TestRapidfireOnlyAgainstListedType(t *testing.T) {
	in := Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{1: testSpec(1, 500, 10, 1, 100, map[UnitID]int{99: 10})},
		DefenderUnits: map[UnitID]UnitTypeSpec{10: testSpec(10, 500, 0, 0, 1e12, nil)},
	}
	for _, e := range testEngines(2) {
		if hits := Simulate(in, e).Rounds[0].HitsAttacker; hits != 500 {
			t.Errorf("%s: hits = %d, want 500", e.Name(), hits)
		}
	}
}

// Map iteration order changes between runs, so identical results over many
// runs show that groups fire and are targeted in unit id order.
func TestLazyEngineReproducible(t *testing.T) {
	want := roundsJSON(t, Simulate(mixedFleets(), NewLazyEngine(77)))
	for i := 0; i < 30; i++ {
		if got := roundsJSON(t, Simulate(mixedFleets(), NewLazyEngine(77))); !bytes.Equal(got, want) {
			t.Fatalf("run %d: same seed produced different rounds", i)
		}
	}
}

func TestParallelEngineIndependentOfWorkers(t *testing.T) {
	in := Input{
		AttackerUnits: map[UnitID]UnitTypeSpec{
			204: testSpec(204, 3000, 10, 50, 400, nil),
			206: testSpec(206, 300, 50, 400, 2700, map[UnitID]int{401: 10}),
		},
		DefenderUnits: map[UnitID]UnitTypeSpec{
			401: testSpec(401, 4000, 20, 80, 200, nil),
			403: testSpec(403, 200, 100, 250, 800, nil),
		},
	}
	want := roundsJSON(t, Simulate(in, NewParallelEngine(123, 1)))
	for _, workers := range []int{2, 3, 8, 16} {
		got := roundsJSON(t, Simulate(in, NewParallelEngine(123, workers)))
		if !bytes.Equal(got, want) {
			t.Errorf("%d workers produced different rounds than 1 worker", workers)
		}
	}
	if other := roundsJSON(t, Simulate(in, NewParallelEngine(124, 4))); bytes.Equal(other, want) {
		t.Error("different seeds produced identical rounds")
	}
}

func roundsJSON(t *testing.T, out BattleOutput) []byte {
	t.Helper()
	data, err := json.Marshal(out.Rounds)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestSimulatorHooksAndMemory(t *testing.T) {
	var seen []int
	samples := uint64(0)
	sim := NewSimulator(NewLazyEngine(1),
		WithRoundHook(func(n int, r Round) { seen = append(seen, n) }),
		WithMemorySampler(func() uint64 { samples++; return samples * 10 }),
		WithLogger(nil),
	)
	out := sim.Run(fighterVsLauncher(100, 100))
	if len(seen) != len(out.Rounds) {
		t.Fatalf("hook saw %d rounds, output has %d", len(seen), len(out.Rounds))
	}
	for i, n := range seen {
		if n != i+1 {
			t.Errorf("hook round %d numbered %d", i+1, n)
		}
	}
	if want := uint64(len(out.Rounds)+1) * 10; out.MemoryMetrics.PeakMemory != want {
		t.Errorf("peak memory = %d, want %d", out.MemoryMetrics.PeakMemory, want)
	}
}

func TestRoundHookCannotChangeOutput(t *testing.T) {
	in := fighterVsLauncher(100, 100)
	want := roundsJSON(t, Simulate(in, NewLazyEngine(5)))
	sim := NewSimulator(NewLazyEngine(5), WithRoundHook(func(n int, r Round) {
		r.AttackerShips[204] = -1
		r.DefenderLosses[401] = 1e6
		delete(r.DefenderShips, 401)
		r.AttackerLossesInRound[999] = 7
	}))
	if got := roundsJSON(t, sim.Run(in)); !bytes.Equal(got, want) {
		t.Error("round hook changed the recorded rounds")
	}
}

func TestDefaultMemorySampler(t *testing.T) {
	if out := Simulate(fighterVsLauncher(10, 10), NewLazyEngine(1)); out.MemoryMetrics.PeakMemory == 0 {
		t.Error("peak memory not sampled")
	}
}

func TestEngineByName(t *testing.T) {
	for _, name := range []string{"", "lazy", "Parallel"} {
		if _, err := EngineByName(name, 1, 2); err != nil {
			t.Errorf("EngineByName(%q): %v", name, err)
		}
	}
	if _, err := EngineByName("quantum", 1, 0); err == nil {
		t.Error("unknown engine accepted")
	}
	if e := NewParallelEngine(1, 0); e.Workers() < 1 {
		t.Errorf("default workers = %d", e.Workers())
	}
}
