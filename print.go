package main

import (
	"fmt"
	"io"
	"sort"

	"BattleEngine/battle"
	"BattleEngine/scenario"
)

func unitName(catalog *scenario.Catalog, id battle.UnitID) string {
	for _, d := range catalog.Units() {
		if d.ID == id {
			return d.Title
		}
	}
	return fmt.Sprintf("unit %d", id)
}

func printCounts(w io.Writer, catalog *scenario.Catalog, counts battle.UnitCounts) {
	ids := make([]battle.UnitID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintf(w, "\t%s = %d\n", unitName(catalog, id), counts[id])
	}
}

func printReport(w io.Writer, catalog *scenario.Catalog, rep battle.Report, out battle.BattleOutput) {
	for i, r := range out.Rounds {
		fmt.Fprintf(w, "--- Round %d ---\n", i+1)
		fmt.Fprintf(w, "Attacker fires %d shots (%.0f damage), defender absorbs %.0f\n",
			r.HitsAttacker, r.FullStrengthAttacker, r.AbsorbedDamageDefender)
		fmt.Fprintf(w, "Defender fires %d shots (%.0f damage), attacker absorbs %.0f\n",
			r.HitsDefender, r.FullStrengthDefender, r.AbsorbedDamageAttacker)
		fmt.Fprintf(w, "Attacker: %d left, lost this round:\n", r.AttackerShips.Total())
		printCounts(w, catalog, r.AttackerLossesInRound)
		fmt.Fprintf(w, "Defender: %d left, lost this round:\n", r.DefenderShips.Total())
		printCounts(w, catalog, r.DefenderLossesInRound)
	}
	fmt.Fprintln(w, "--------")
	fmt.Fprintf(w, "Rounds: %d | Winner: %s | Peak memory: %d KiB\n", rep.Rounds, rep.Winner, out.MemoryMetrics.PeakMemory)
	fmt.Fprintf(w, "Attacker: %d -> %d (lost %d)\n", rep.AttackerStart, rep.AttackerEnd, rep.AttackerLosses)
	printCounts(w, catalog, rep.AttackerResult)
	fmt.Fprintf(w, "Defender: %d -> %d (lost %d)\n", rep.DefenderStart, rep.DefenderEnd, rep.DefenderLosses)
	printCounts(w, catalog, rep.DefenderResult)
}

func printComparison(c battle.Comparison) {
	fmt.Printf("%-10s %10.2f ms  (memory %d KiB, %d rounds)\n", c.First.Engine,
		float64(c.First.Duration.Microseconds())/1000, c.First.Output.MemoryMetrics.PeakMemory, len(c.First.Output.Rounds))
	fmt.Printf("%-10s %10.2f ms  (memory %d KiB, %d rounds)\n", c.Second.Engine,
		float64(c.Second.Duration.Microseconds())/1000, c.Second.Output.MemoryMetrics.PeakMemory, len(c.Second.Output.Rounds))
	fmt.Printf("speedup %.2fx\n", c.Speedup)
	if c.Match() {
		fmt.Println("results match")
		return
	}
	fmt.Println("results differ:")
	for _, d := range c.Differences {
		fmt.Printf("  - %s\n", d)
	}
}
