package physics

import (
	"math"
	"testing"

	"p2racer/pkg/types"
)

func TestResolveCollisionsSeparatesAndConservesMomentum(t *testing.T) {
	cars := map[types.PlayerID]*types.CarState{
		"a": {Pos: types.Vec3{X: 0, Y: 1}, Vel: types.Vec3{X: 5}, Alive: true},
		"b": {Pos: types.Vec3{X: 1, Y: 1}, Vel: types.Vec3{X: -5}, Alive: true},
	}
	sumBefore := cars["a"].Vel.X + cars["b"].Vel.X

	ResolveCollisions(1000, cars)

	dx := cars["b"].Pos.X - cars["a"].Pos.X
	dz := cars["b"].Pos.Z - cars["a"].Pos.Z
	if dist := math.Hypot(dx, dz); dist < 2*CollisionRadius-1e-9 {
		t.Fatalf("pair still overlapping, dist %.3f", dist)
	}
	sumAfter := cars["a"].Vel.X + cars["b"].Vel.X
	if math.Abs(sumAfter-sumBefore) > 1e-9 {
		t.Fatalf("impulse not symmetric: sum %.4f -> %.4f", sumBefore, sumAfter)
	}
	if cars["a"].LastHitAt != 1000 || cars["b"].LastHitAt != 1000 {
		t.Fatalf("hit timestamps not stamped: %d %d", cars["a"].LastHitAt, cars["b"].LastHitAt)
	}
}

func TestResolveCollisionsClampsImpulse(t *testing.T) {
	cars := map[types.PlayerID]*types.CarState{
		"a": {Pos: types.Vec3{X: 0}, Vel: types.Vec3{X: 100}, Alive: true},
		"b": {Pos: types.Vec3{X: 1}, Vel: types.Vec3{X: -100}, Alive: true},
	}
	ResolveCollisions(0, cars)
	if delta := 100 - cars["a"].Vel.X; delta > maxCollisionImpulse+1e-9 {
		t.Fatalf("impulse %.2f exceeds clamp %.2f", delta, maxCollisionImpulse)
	}
}

func TestResolveCollisionsSkipsCoincidentPair(t *testing.T) {
	cars := map[types.PlayerID]*types.CarState{
		"a": {Pos: types.Vec3{X: 2, Z: 3}, Alive: true},
		"b": {Pos: types.Vec3{X: 2, Z: 3}, Alive: true},
	}
	ResolveCollisions(0, cars)
	for id, c := range cars {
		if math.IsNaN(c.Pos.X) || math.IsNaN(c.Vel.X) || math.IsNaN(c.Vel.Y) {
			t.Fatalf("NaN leaked into car %s: %+v", id, c)
		}
		if c.Pos.X != 2 || c.Pos.Z != 3 {
			t.Fatalf("coincident pair was moved: %+v", c)
		}
	}
}

func TestResolveCollisionsIgnoresDeadCars(t *testing.T) {
	cars := map[types.PlayerID]*types.CarState{
		"a": {Pos: types.Vec3{X: 0}, Alive: true},
		"b": {Pos: types.Vec3{X: 0.5}, Alive: false},
	}
	ResolveCollisions(0, cars)
	if cars["b"].Pos.X != 0.5 || cars["b"].LastHitAt != 0 {
		t.Fatalf("dead car was touched: %+v", cars["b"])
	}
}
