package match

import (
	"math/rand"
	"testing"

	"p2racer/internal/physics"
	"p2racer/pkg/types"
)

func testTrack() *physics.RingTrack { return physics.NewRingTrack(120, 14, 4) }

func TestLapCountsOnceAcrossSeam(t *testing.T) {
	car := &types.CarState{S: 0.9}
	for _, s := range []float64{0.95, 0.97, 0.99, 0.01, 0.05} {
		updateProgress(car, physics.SurfaceSample{S: s})
	}
	if car.Lap != 1 {
		t.Fatalf("laps = %d, want exactly 1", car.Lap)
	}
}

func TestLapDoesNotCountOnJitter(t *testing.T) {
	car := &types.CarState{S: 0.5}
	for _, s := range []float64{0.55, 0.5, 0.55, 0.6} {
		updateProgress(car, physics.SurfaceSample{S: s})
	}
	if car.Lap != 0 {
		t.Fatalf("mid-track jitter counted a lap: %d", car.Lap)
	}
}

func TestRespawnResetsPoseExactly(t *testing.T) {
	trk := testTrack()
	car := &types.CarState{
		Pos:    types.Vec3{X: 400, Y: -100, Z: 9},
		Vel:    types.Vec3{X: 30, Y: -20, Z: 5},
		Yaw:    2.2,
		YawVel: 3,
		Lap:    2,
		LastCp: 1,
		Alive:  true,
	}
	respawnAt(car, trk)

	if car.Vel != (types.Vec3{}) {
		t.Fatalf("respawn velocity = %+v, want exactly zero", car.Vel)
	}
	wantPos, wantYaw := trk.CheckpointSpawn(1)
	wantPos = wantPos.Add(types.Vec3{Y: physics.RideHeight})
	if car.Pos != wantPos || car.Yaw != wantYaw {
		t.Fatalf("respawn pose = %+v yaw %.2f, want %+v yaw %.2f", car.Pos, car.Yaw, wantPos, wantYaw)
	}
	if car.Lap != 2 || car.LastCp != 1 {
		t.Fatalf("respawn touched progress: lap %d cp %d", car.Lap, car.LastCp)
	}

	// Idempotent: a second respawn lands on the identical pose.
	again := *car
	respawnAt(&again, trk)
	if again != *car {
		t.Fatalf("respawn is not idempotent")
	}
}

func TestNeedsRespawnPolicy(t *testing.T) {
	cases := []struct {
		name string
		car  types.CarState
		in   types.CarInput
		want bool
	}{
		{"onTrack", types.CarState{Pos: types.Vec3{X: 120, Y: 1}}, types.CarInput{}, false},
		{"manual", types.CarState{Pos: types.Vec3{X: 120, Y: 1}}, types.CarInput{Respawn: true}, true},
		{"fellOff", types.CarState{Pos: types.Vec3{Y: -50}}, types.CarInput{}, true},
		{"outOfBounds", types.CarState{Pos: types.Vec3{X: 700}}, types.CarInput{}, true},
	}
	for _, tc := range cases {
		if got := needsRespawn(&tc.car, tc.in); got != tc.want {
			t.Errorf("%s: needsRespawn = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRaceFinishRecordedOnce(t *testing.T) {
	trk := testTrack()
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeRace, Laps: 1}, "seed", 0)
	car := &types.CarState{
		Pos:    trk.CheckpointPos(0),
		Lap:    1,
		LastCp: trk.CheckpointCount() - 1,
		Alive:  true,
	}

	raceRules(rt, "a", car, trk)
	raceRules(rt, "a", car, trk)

	if !car.Finished {
		t.Fatalf("car not finished after crossing the line")
	}
	if len(rt.FinishedOrder) != 1 || rt.FinishedOrder[0] != "a" {
		t.Fatalf("FinishedOrder = %v, want [a]", rt.FinishedOrder)
	}
}

func TestRaceRequiresCheckpointsInOrder(t *testing.T) {
	trk := testTrack()
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeRace, Laps: 1}, "seed", 0)
	// Parked on checkpoint 2 while the next expected one is 1.
	car := &types.CarState{Pos: trk.CheckpointPos(2), LastCp: 0, Alive: true}

	raceRules(rt, "a", car, trk)
	if car.LastCp != 0 {
		t.Fatalf("out-of-order checkpoint advanced progress to %d", car.LastCp)
	}
}

func TestChaosScoresAndRetargets(t *testing.T) {
	trk := testTrack()
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeCheckpointChaos}, "seed", 0)
	rt.ChaosTargetCp = 1
	car := &types.CarState{Pos: trk.CheckpointPos(1), Alive: true}

	chaosRules(rt, "a", car, trk, rand.New(rand.NewSource(1)))

	if rt.Scores["a"] != 1 {
		t.Fatalf("score = %d, want 1", rt.Scores["a"])
	}
	if car.LastCp != 1 {
		t.Fatalf("LastCp = %d, want the captured target", car.LastCp)
	}
	if rt.ChaosTargetCp < 0 || rt.ChaosTargetCp >= trk.CheckpointCount() {
		t.Fatalf("retarget out of range: %d", rt.ChaosTargetCp)
	}
}

func TestEliminationDropsTrailingCarEachRound(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeElimination, RoundIntervalSec: 20}, "seed", 0)
	cars := map[types.PlayerID]*types.CarState{
		"a": {Alive: true, Lap: 2, S: 0.5},
		"b": {Alive: true, Lap: 1, S: 0.9},
		"c": {Alive: true, Lap: 1, S: 0.1},
	}

	runEliminationRounds(rt, cars, 20_000)
	if cars["c"].Alive || rt.ElimRounds != 1 {
		t.Fatalf("round 1: want c eliminated, got %v rounds %d", rt.Eliminated, rt.ElimRounds)
	}

	runEliminationRounds(rt, cars, 40_000)
	if cars["b"].Alive {
		t.Fatalf("round 2: want b eliminated, got %v", rt.Eliminated)
	}
	if !cars["a"].Alive {
		t.Fatalf("leader must survive")
	}

	checkEnd(rt, cars, 40_000)
	if rt.Running {
		t.Fatalf("match still running with one car alive")
	}
}

func TestEliminationToleratesZeroRoundInterval(t *testing.T) {
	// A runtime mirrored from another peer's snapshot never went through
	// NewRuntime, so a zero interval must be survivable, not a crash.
	rt := &types.MatchRuntime{
		Settings: types.MatchSettings{Mode: types.ModeElimination},
		Running:  true,
		Scores:   map[types.PlayerID]int{},
	}
	cars := map[types.PlayerID]*types.CarState{
		"a": {Alive: true, S: 0.5},
		"b": {Alive: true, S: 0.1},
	}
	runEliminationRounds(rt, cars, 60_000)
	if !cars["a"].Alive || !cars["b"].Alive || rt.ElimRounds != 0 {
		t.Fatalf("zero interval ran rounds: %+v", rt)
	}
}

func TestEliminationNeverDropsLastCar(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeElimination, RoundIntervalSec: 20}, "seed", 0)
	cars := map[types.PlayerID]*types.CarState{
		"a": {Alive: true, S: 0.2},
	}
	runEliminationRounds(rt, cars, 200_000)
	if !cars["a"].Alive {
		t.Fatalf("sole survivor was eliminated")
	}
}

func TestCheckEndRaceWhenAllFinished(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeRace, Laps: 1}, "seed", 0)
	cars := map[types.PlayerID]*types.CarState{
		"a": {Alive: true, Finished: true},
		"b": {Alive: true, Finished: true},
	}
	rt.FinishedOrder = []types.PlayerID{"a", "b"}
	checkEnd(rt, cars, 1000)
	if rt.Running {
		t.Fatalf("race still running with every car finished")
	}
}

func TestCheckEndChaosTargetScore(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeCheckpointChaos, TargetScore: 3}, "seed", 0)
	cars := map[types.PlayerID]*types.CarState{"a": {Alive: true}}
	rt.Scores["a"] = 3
	checkEnd(rt, cars, 1000)
	if rt.Running {
		t.Fatalf("chaos still running at target score")
	}
}

func TestCheckEndDurationIsTerminal(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{Mode: types.ModeRace, DurationSec: 10}, "seed", 0)
	cars := map[types.PlayerID]*types.CarState{"a": {Alive: true}}
	checkEnd(rt, cars, 10_000)
	if rt.Running {
		t.Fatalf("match outlived its duration")
	}
}

func TestNewRuntimeSanitizesSettings(t *testing.T) {
	rt := NewRuntime(types.MatchSettings{}, "seed", 5000)
	s := rt.Settings
	if s.Laps != 3 || s.TargetScore != 10 || s.RoundIntervalSec != 20 || s.DurationSec != 300 {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if rt.EndAt != 5000+300*1000 {
		t.Fatalf("EndAt = %d", rt.EndAt)
	}
}

func TestSeedSourceIsStable(t *testing.T) {
	if SeedSource("abc") != SeedSource("abc") {
		t.Fatalf("same seed produced different sources")
	}
	if SeedSource("abc") == SeedSource("abd") {
		t.Fatalf("distinct seeds collided")
	}
}
