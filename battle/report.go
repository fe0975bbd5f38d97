package battle

import (
	"fmt"
	"math"
	"time"
)

// Battle winners.
const (
	WinnerAttacker = "attacker"
	WinnerDefender = "defender"
	WinnerDraw     = "draw"
)

// Report summarises a battle.
type Report struct {
	Rounds         int        `json:"rounds"`
	AttackerStart  int        `json:"attacker_start"`
	DefenderStart  int        `json:"defender_start"`
	AttackerEnd    int        `json:"attacker_end"`
	DefenderEnd    int        `json:"defender_end"`
	AttackerLosses int        `json:"attacker_losses"`
	DefenderLosses int        `json:"defender_losses"`
	AttackerResult UnitCounts `json:"attacker_units_result"`
	DefenderResult UnitCounts `json:"defender_units_result"`
	Winner         string     `json:"winner"`
}

// Summarize builds the report of out, a battle fought with in.
func Summarize(in Input, out BattleOutput) Report {
	rep := Report{
		Rounds:         len(out.Rounds),
		AttackerResult: startCounts(in.AttackerUnits),
		DefenderResult: startCounts(in.DefenderUnits),
	}
	rep.AttackerStart = rep.AttackerResult.Total()
	rep.DefenderStart = rep.DefenderResult.Total()
	if n := len(out.Rounds); n > 0 {
		last := out.Rounds[n-1]
		rep.AttackerResult = last.AttackerShips
		rep.DefenderResult = last.DefenderShips
	}
	rep.AttackerEnd = rep.AttackerResult.Total()
	rep.DefenderEnd = rep.DefenderResult.Total()
	rep.AttackerLosses = rep.AttackerStart - rep.AttackerEnd
	rep.DefenderLosses = rep.DefenderStart - rep.DefenderEnd

	switch {
	case rep.AttackerEnd > 0 && rep.DefenderEnd == 0:
		rep.Winner = WinnerAttacker
	case rep.DefenderEnd > 0 && rep.AttackerEnd == 0:
		rep.Winner = WinnerDefender
	default:
		rep.Winner = WinnerDraw
	}
	return rep
}

func startCounts(units map[UnitID]UnitTypeSpec) UnitCounts {
	counts := UnitCounts{}
	for id, spec := range units {
		if spec.Amount > 0 {
			counts[id] = spec.Amount
		}
	}
	return counts
}

// absorbedTolerance is the largest difference in absorbed damage that
// Compare does not report.
const absorbedTolerance = 0.01

// EngineRun is the outcome of one engine in a comparison.
type EngineRun struct {
	Engine   string        `json:"engine"`
	Output   BattleOutput  `json:"output"`
	Duration time.Duration `json:"duration"`
}

// Comparison holds the outcome of two engines fighting the same battle.
type Comparison struct {
	First       EngineRun `json:"first"`
	Second      EngineRun `json:"second"`
	Speedup     float64   `json:"speedup_factor"`
	Differences []string  `json:"differences"`
}

// Match reports whether both engines produced the same rounds.
func (c Comparison) Match() bool {
	return len(c.Differences) == 0
}

// Compare runs the same battle with two engines. The engines model combat
// differently, so differences are expected and only informational.
func Compare(in Input, first, second Engine, opts ...Option) Comparison {
	c := Comparison{
		First:  timedRun(in, first, opts),
		Second: timedRun(in, second, opts),
	}
	if c.Second.Duration > 0 {
		c.Speedup = float64(c.First.Duration) / float64(c.Second.Duration)
	}
	c.Differences = diffOutputs(c.First.Output, c.Second.Output)
	return c
}

func timedRun(in Input, engine Engine, opts []Option) EngineRun {
	start := time.Now()
	out := NewSimulator(engine, opts...).Run(in)
	return EngineRun{Engine: engine.Name(), Output: out, Duration: time.Since(start)}
}

func diffOutputs(a, b BattleOutput) []string {
	var diffs []string
	if len(a.Rounds) != len(b.Rounds) {
		return append(diffs, fmt.Sprintf("different number of rounds: %d vs %d", len(a.Rounds), len(b.Rounds)))
	}
	for i := range a.Rounds {
		ra, rb := a.Rounds[i], b.Rounds[i]
		n := i + 1
		if !sameCounts(ra.AttackerShips, rb.AttackerShips) {
			diffs = append(diffs, fmt.Sprintf("round %d: attacker ships differ", n))
		}
		if !sameCounts(ra.DefenderShips, rb.DefenderShips) {
			diffs = append(diffs, fmt.Sprintf("round %d: defender ships differ", n))
		}
		if !sameCounts(ra.AttackerLosses, rb.AttackerLosses) {
			diffs = append(diffs, fmt.Sprintf("round %d: attacker losses differ", n))
		}
		if !sameCounts(ra.DefenderLosses, rb.DefenderLosses) {
			diffs = append(diffs, fmt.Sprintf("round %d: defender losses differ", n))
		}
		if math.Abs(ra.AbsorbedDamageAttacker-rb.AbsorbedDamageAttacker) > absorbedTolerance {
			diffs = append(diffs, fmt.Sprintf("round %d: absorbed damage attacker differs: %.2f vs %.2f",
				n, ra.AbsorbedDamageAttacker, rb.AbsorbedDamageAttacker))
		}
		if math.Abs(ra.AbsorbedDamageDefender-rb.AbsorbedDamageDefender) > absorbedTolerance {
			diffs = append(diffs, fmt.Sprintf("round %d: absorbed damage defender differs: %.2f vs %.2f",
				n, ra.AbsorbedDamageDefender, rb.AbsorbedDamageDefender))
		}
		if ra.HitsAttacker != rb.HitsAttacker {
			diffs = append(diffs, fmt.Sprintf("round %d: attacker hits differ: %d vs %d", n, ra.HitsAttacker, rb.HitsAttacker))
		}
		if ra.HitsDefender != rb.HitsDefender {
			diffs = append(diffs, fmt.Sprintf("round %d: defender hits differ: %d vs %d", n, ra.HitsDefender, rb.HitsDefender))
		}
	}
	return diffs
}

func sameCounts(a, b UnitCounts) bool {
	if len(a) != len(b) {
		return false
	}
	for id, n := range a {
		if b[id] != n {
			return false
		}
	}
	return true
}
