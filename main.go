package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"BattleEngine/battle"
	"BattleEngine/scenario"
)

const (
	_defaultScenario = "./scenarios/fighters_vs_launchers.yaml"
	_defaultAddr     = ":8080"
)

type options struct {
	scenario string
	catalog  string
	engine   string
	seed     uint64
	workers  int
	runs     int
	compare  bool
	jsonOut  bool
	serve    bool
	addr     string
	debug    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("BattleEngine", flag.ContinueOnError)
	fs.StringVar(&o.scenario, "scenario", _defaultScenario, "YAML scenario file")
	fs.StringVar(&o.catalog, "catalog", "", "YAML unit catalogue added to the built-in units")
	fs.StringVar(&o.engine, "engine", "", "engine to use: lazy or parallel (overrides the scenario)")
	fs.Uint64Var(&o.seed, "seed", 0, "random seed (0 keeps the scenario seed, or uses the clock)")
	fs.IntVar(&o.workers, "workers", 0, "parallel engine workers (0 = one per CPU)")
	fs.IntVar(&o.runs, "runs", 1, "number of battles to fight for loss percentiles")
	fs.BoolVar(&o.compare, "compare", false, "fight the battle with both engines and compare")
	fs.BoolVar(&o.jsonOut, "json", false, "print the battle output as JSON")
	fs.BoolVar(&o.serve, "serve", false, "start the simulator API")
	fs.StringVar(&o.addr, "addr", _defaultAddr, "API listen address")
	fs.BoolVar(&o.debug, "debug", false, "log every round")
	err := fs.Parse(args)
	return o, err
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := initLogger(o.debug); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLogger()

	if err := run(o); err != nil {
		combatLogger.Error("battle failed", zap.Error(err))
		closeLogger()
		os.Exit(1)
	}
}

func run(o options) error {
	catalog, err := loadCatalog(o.catalog)
	if err != nil {
		return err
	}
	if o.serve {
		return serve(o.addr, newServer(catalog, logger()))
	}

	s, err := scenario.Load(o.scenario)
	if err != nil {
		return err
	}
	applyOverrides(s, o)

	in, err := s.Build(catalog)
	if err != nil {
		for _, p := range scenario.Problems(err) {
			logger().Warn("invalid scenario", zap.String("problem", p))
		}
		return fmt.Errorf("scenario %s: %w", o.scenario, err)
	}

	if o.compare {
		printComparison(battle.Compare(in,
			battle.NewLazyEngine(s.Seed),
			battle.NewParallelEngine(s.Seed, s.Workers),
			battle.WithLogger(logger()),
		))
		return nil
	}

	engine, err := s.NewEngine()
	if err != nil {
		return err
	}
	if o.runs > 1 {
		att, def, err := lossSim(in, s, o.runs)
		if err != nil {
			return err
		}
		fmt.Printf("%s over %d battles\n", engine.Name(), o.runs)
		fmt.Printf("attacker losses: 68th: %v, 95th: %v\n", att[0], att[1])
		fmt.Printf("defender losses: 68th: %v, 95th: %v\n", def[0], def[1])
		return nil
	}

	start := time.Now()
	out := battle.NewSimulator(engine, battle.WithLogger(logger())).Run(in)
	logger().Info("battle finished",
		zap.String("engine", engine.Name()),
		zap.Uint64("seed", s.Seed),
		zap.Int("rounds", len(out.Rounds)),
		zap.Duration("took", time.Since(start)),
		zap.Uint64("peak_memory_kb", out.MemoryMetrics.PeakMemory),
	)
	if o.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printReport(os.Stdout, catalog, battle.Summarize(in, out), out)
	return nil
}

func loadCatalog(path string) (*scenario.Catalog, error) {
	catalog := scenario.Default()
	if path == "" {
		return catalog, nil
	}
	custom, err := scenario.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return catalog.Merge(custom), nil
}

func applyOverrides(s *scenario.Scenario, o options) {
	if o.engine != "" {
		s.Engine = o.engine
	}
	if o.workers > 0 {
		s.Workers = o.workers
	}
	if o.seed != 0 {
		s.Seed = o.seed
	}
	if s.Seed == 0 {
		s.Seed = uint64(time.Now().UnixNano())
	}
}

// lossSim fights the battle runs times with consecutive seeds and returns
// the 68th and 95th percentile of the units lost by each side.
func lossSim(in battle.Input, s *scenario.Scenario, runs int) (attacker, defender [2]int, err error) {
	var attLosses, defLosses []int
	for i := 0; i < runs; i++ {
		engine, engineErr := battle.EngineByName(s.Engine, s.Seed+uint64(i), s.Workers)
		if engineErr != nil {
			return attacker, defender, fmt.Errorf("%w: %q", scenario.ErrUnknownEngine, s.Engine)
		}
		// Only the first battle logs its rounds.
		opts := []battle.Option{}
		if i == 0 {
			opts = append(opts, battle.WithLogger(logger()))
		}
		rep := battle.Summarize(in, battle.NewSimulator(engine, opts...).Run(in))
		attLosses = append(attLosses, rep.AttackerLosses)
		defLosses = append(defLosses, rep.DefenderLosses)
	}
	return percentiles(attLosses), percentiles(defLosses), nil
}

// percentiles returns the values that 68% and 95% of samples stay at or
// below.
func percentiles(samples []int) [2]int {
	if len(samples) == 0 {
		return [2]int{}
	}
	sorted := append([]int(nil), samples...)
	sort.Ints(sorted)
	at := func(p float64) int {
		idx := int(p * float64(len(sorted)-1))
		return sorted[idx]
	}
	return [2]int{at(0.68), at(0.95)}
}
