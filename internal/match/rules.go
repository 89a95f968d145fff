package match

import (
	"math"
	"math/rand"

	"p2racer/internal/physics"
	"p2racer/pkg/types"
)

const (
	checkpointRadius = 6.0
	floorY           = -40.0
	worldBound       = 600.0
	spawnSlotGap     = 2.6

	// Bounded re-rolls of the chaos target. Usually picks a different
	// checkpoint; a repeat is allowed once the retries run out rather than
	// looping forever.
	chaosRetargetRetries = 8
)

// SpawnCar creates a fresh car at the checkpoint-0 spawn with a deterministic
// per-slot lateral offset so cars never stack on the same point.
func SpawnCar(slot int, trk physics.Track) types.CarState {
	pos, yaw := trk.CheckpointSpawn(0)
	side := types.Vec3{X: -math.Sin(yaw), Z: math.Cos(yaw)}
	offset := float64(slot) - 1.5
	st := types.CarState{
		Pos:      pos.Add(side.Scale(offset * spawnSlotGap)).Add(types.Vec3{Y: physics.RideHeight}),
		Yaw:      yaw,
		Grounded: true,
		Alive:    true,
	}
	return st
}

// respawnAt resets a car to the spawn pose of its last checkpoint. Velocity
// becomes exactly zero; lap, score, and flags are untouched.
func respawnAt(car *types.CarState, trk physics.Track) {
	pos, yaw := trk.CheckpointSpawn(car.LastCp)
	car.Pos = pos.Add(types.Vec3{Y: physics.RideHeight})
	car.Vel = types.Vec3{}
	car.Yaw = yaw
	car.YawVel = 0
	car.Pitch = 0
	car.Roll = 0
	car.Grounded = true
}

// needsRespawn is the out-of-bounds/stuck recovery policy, not an error path.
func needsRespawn(car *types.CarState, in types.CarInput) bool {
	if in.Respawn {
		return true
	}
	if car.Pos.Y < floorY {
		return true
	}
	return math.Hypot(car.Pos.X, car.Pos.Z) > worldBound
}

// updateProgress refreshes arclength progress and detects lap completion. The
// wrap test (above 0.8 one tick, below 0.2 the next) tolerates jitter around
// the seam without double counting.
func updateProgress(car *types.CarState, sample physics.SurfaceSample) {
	prev := car.S
	car.S = sample.S
	if prev > 0.8 && car.S < 0.2 {
		car.Lap++
	}
}

// applyModeRules runs the per-car rule set for the match mode. Each mode is a
// plain function over (car, runtime, rng) so it can be tested in isolation.
func applyModeRules(rt *types.MatchRuntime, id types.PlayerID, car *types.CarState, trk physics.Track, rng *rand.Rand) {
	switch rt.Settings.Mode {
	case types.ModeRace:
		raceRules(rt, id, car, trk)
	case types.ModeCheckpointChaos:
		chaosRules(rt, id, car, trk, rng)
	case types.ModeElimination:
		// Elimination progresses on the shared round timer, nothing per car.
	}
}

func raceRules(rt *types.MatchRuntime, id types.PlayerID, car *types.CarState, trk physics.Track) {
	n := trk.CheckpointCount()
	next := (car.LastCp + 1) % n
	if !withinCheckpoint(car, trk.CheckpointPos(next)) {
		return
	}
	car.LastCp = next
	if next == 0 && car.Lap >= rt.Settings.Laps && !car.Finished {
		car.Finished = true
		appendUnique(&rt.FinishedOrder, id)
	}
}

func chaosRules(rt *types.MatchRuntime, id types.PlayerID, car *types.CarState, trk physics.Track, rng *rand.Rand) {
	n := trk.CheckpointCount()
	target := rt.ChaosTargetCp % n
	if !withinCheckpoint(car, trk.CheckpointPos(target)) {
		return
	}
	rt.Scores[id]++
	car.LastCp = target

	next := target
	for i := 0; i < chaosRetargetRetries; i++ {
		next = rng.Intn(n)
		if n == 1 || next != target {
			break
		}
	}
	rt.ChaosTargetCp = next
}

func withinCheckpoint(car *types.CarState, cp types.Vec3) bool {
	return math.Hypot(car.Pos.X-cp.X, car.Pos.Z-cp.Z) <= checkpointRadius
}

// runEliminationRounds marks the trailing car not-alive once per round
// interval, measured from match start so late snapshots can't skip rounds.
func runEliminationRounds(rt *types.MatchRuntime, cars map[types.PlayerID]*types.CarState, now int64) {
	if rt.Settings.Mode != types.ModeElimination {
		return
	}
	interval := int64(rt.Settings.RoundIntervalSec) * 1000
	if interval <= 0 {
		// A runtime adopted from a remote snapshot bypasses NewRuntime's
		// sanitizing, so the interval cannot be trusted here.
		return
	}
	due := int((now - rt.StartAt) / interval)
	for rt.ElimRounds < due {
		rt.ElimRounds++
		if id, ok := lowestProgress(cars); ok {
			cars[id].Alive = false
			appendUnique(&rt.Eliminated, id)
		}
		if countAlive(cars) <= 1 {
			return
		}
	}
}

func lowestProgress(cars map[types.PlayerID]*types.CarState) (types.PlayerID, bool) {
	var worst types.PlayerID
	best := math.Inf(1)
	found := false
	for _, id := range sortedIDs(cars) {
		c := cars[id]
		if !c.Alive {
			continue
		}
		p := float64(c.Lap) + c.S
		if p < best {
			best = p
			worst = id
			found = true
		}
	}
	if countAlive(cars) < 2 {
		return "", false
	}
	return worst, found
}

// checkEnd applies the running→ended transition. Ended is terminal.
func checkEnd(rt *types.MatchRuntime, cars map[types.PlayerID]*types.CarState, now int64) {
	if !rt.Running {
		return
	}
	if now >= rt.EndAt {
		rt.Running = false
		return
	}
	switch rt.Settings.Mode {
	case types.ModeRace:
		alive := countAlive(cars)
		if alive > 0 && len(rt.FinishedOrder) >= alive {
			rt.Running = false
		}
	case types.ModeCheckpointChaos:
		for _, s := range rt.Scores {
			if s >= rt.Settings.TargetScore {
				rt.Running = false
				return
			}
		}
	case types.ModeElimination:
		if countAlive(cars) <= 1 {
			rt.Running = false
		}
	}
}

func countAlive(cars map[types.PlayerID]*types.CarState) int {
	n := 0
	for _, c := range cars {
		if c.Alive {
			n++
		}
	}
	return n
}
