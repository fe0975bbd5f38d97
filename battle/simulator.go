package battle

import (
	"runtime"

	"go.uber.org/zap"
)

// Simulator runs battles round by round with one engine.
type Simulator struct {
	engine  Engine
	logger  *zap.Logger
	onRound func(n int, r Round)
	memory  func() uint64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for round progress.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoundHook registers fn to be called with every finished round, n
// starting at 1. fn receives its own copy of the round; changing it does not
// affect the battle output.
func WithRoundHook(fn func(n int, r Round)) Option {
	return func(s *Simulator) { s.onRound = fn }
}

// WithMemorySampler replaces the function reporting current memory use in KiB.
func WithMemorySampler(fn func() uint64) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.memory = fn
		}
	}
}

// NewSimulator returns a simulator for engine.
func NewSimulator(engine Engine, opts ...Option) *Simulator {
	s := &Simulator{
		engine: engine,
		logger: zap.NewNop(),
		memory: processMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine the simulator runs.
func (s *Simulator) Engine() Engine { return s.engine }

// Run fights up to MaxRounds rounds. It stops after the first round that
// leaves either side without units; a battle where one side starts empty
// has no rounds.
func (s *Simulator) Run(in Input) BattleOutput {
	b := s.engine.newBattle(in, s.logger)

	var peak uint64
	s.sample(&peak)

	rounds := make([]Round, 0, MaxRounds)
	for n := 0; n < MaxRounds; n++ {
		attackers, defenders := b.totals()
		if attackers == 0 || defenders == 0 {
			break
		}

		r := newRound()
		b.fight(n, r)
		b.cleanup(r)
		r.AttackerShips, r.DefenderShips = b.survivors()
		r.AttackerLosses = cumulativeLosses(in.AttackerUnits, r.AttackerShips)
		r.DefenderLosses = cumulativeLosses(in.DefenderUnits, r.DefenderShips)
		rounds = append(rounds, *r)

		s.logger.Debug("round finished",
			zap.String("engine", s.engine.Name()),
			zap.Int("round", n+1),
			zap.Int("attacker_ships", r.AttackerShips.Total()),
			zap.Int("defender_ships", r.DefenderShips.Total()),
			zap.Int("hits_attacker", r.HitsAttacker),
			zap.Int("hits_defender", r.HitsDefender),
			zap.Float64("absorbed_attacker", r.AbsorbedDamageAttacker),
			zap.Float64("absorbed_defender", r.AbsorbedDamageDefender),
			zap.Int("unit_instances", b.footprint()),
		)
		if s.onRound != nil {
			s.onRound(n+1, r.clone())
		}
		s.sample(&peak)
	}

	return BattleOutput{
		Rounds:        rounds,
		MemoryMetrics: MemoryMetrics{PeakMemory: peak},
	}
}

func (s *Simulator) sample(peak *uint64) {
	if m := s.memory(); m > *peak {
		*peak = m
	}
}

// Simulate runs a battle with engine and default options.
func Simulate(in Input, engine Engine) BattleOutput {
	return NewSimulator(engine).Run(in)
}

// processMemory returns the memory obtained from the OS by the Go runtime,
// in KiB.
func processMemory() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys / 1024
}
