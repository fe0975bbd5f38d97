package battle

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Engine names accepted by EngineByName.
const (
	EngineLazy     = "lazy"
	EngineParallel = "parallel"
)

// Engine is a combat model. Both engines apply the same rules; they differ
// in how units are stored and in when damage becomes visible to other
// attackers, so their results are not expected to match.
type Engine interface {
	Name() string
	newBattle(in Input, logger *zap.Logger) combat
}

// combat is the state of one battle inside an engine.
type combat interface {
	// totals returns the number of units left on each side.
	totals() (attacker, defender int)
	// fight lets the attacker fire at the defender and then the defender at
	// the attacker. Units destroyed by the first volley still fire back.
	fight(round int, r *Round)
	// cleanup removes destroyed units, books them as losses in r and
	// restores the shields of all survivors.
	cleanup(r *Round)
	// survivors returns the unit counts per type of both sides.
	survivors() (attacker, defender UnitCounts)
	// footprint is the number of unit instances currently held in memory.
	footprint() int
}

// EngineByName returns the engine registered under name. workers is only
// used by the parallel engine; zero or less means one worker per CPU.
func EngineByName(name string, seed uint64, workers int) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineLazy:
		return NewLazyEngine(seed), nil
	case EngineParallel:
		return NewParallelEngine(seed, workers), nil
	default:
		return nil, fmt.Errorf("battle: unknown engine %q", name)
	}
}
