package match

import (
	"math/rand"
	"sort"

	"p2racer/internal/physics"
	"p2racer/pkg/types"
)

// Stepper advances the whole world by one tick. Only the current host drives
// it; everything it touches is owned by the calling goroutine. Given the same
// sequence of (now, dt, inputs) and the same seed, two steppers produce
// identical trajectories, which is what host migration relies on.
type Stepper struct {
	trk physics.Track
	rng *rand.Rand
}

func NewStepper(trk physics.Track, seed string) *Stepper {
	return &Stepper{
		trk: trk,
		rng: rand.New(rand.NewSource(SeedSource(seed))),
	}
}

// Step runs one world tick: per-car physics and mode rules, elimination
// rounds, collisions, then the end-condition check. Missing inputs fall back
// to the neutral constant: a player who has not sent anything yet simply
// coasts; nothing blocks or errors.
func (sp *Stepper) Step(now int64, dt float64, cars map[types.PlayerID]*types.CarState, inputs map[types.PlayerID]types.CarInput, rt *types.MatchRuntime) {
	if rt == nil || !rt.Running || now < rt.StartAt {
		return
	}

	for _, id := range sortedIDs(cars) {
		car := cars[id]
		if !car.Alive || car.Finished {
			continue
		}
		in, ok := inputs[id]
		if !ok {
			in = types.NeutralInput(now)
		}

		physics.Advance(car, in, dt, now, sp.trk)

		if needsRespawn(car, in) {
			respawnAt(car, sp.trk)
		}

		updateProgress(car, sp.trk.SampleAt(car.Pos.X, car.Pos.Z))
		applyModeRules(rt, id, car, sp.trk, sp.rng)
	}

	runEliminationRounds(rt, cars, now)
	physics.ResolveCollisions(now, cars)
	checkEnd(rt, cars, now)
}

// sortedIDs fixes the iteration order; map order would break determinism.
func sortedIDs(cars map[types.PlayerID]*types.CarState) []types.PlayerID {
	ids := make([]types.PlayerID, 0, len(cars))
	for id := range cars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
