package physics

import (
	"math"
	"sort"

	"p2racer/pkg/types"
)

const (
	maxCollisionImpulse = 9.0
	collisionPop        = 1.6
)

// ResolveCollisions runs a pairwise scan over all alive cars and pushes
// overlapping pairs apart with a symmetric impulse. n is at most 8 here, so
// O(n²) beats any spatial structure. Never produces NaN: exactly coincident
// pairs have no defined normal and are skipped.
func ResolveCollisions(now int64, cars map[types.PlayerID]*types.CarState) {
	ids := make([]types.PlayerID, 0, len(cars))
	for id, c := range cars {
		if c.Alive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := cars[ids[i]], cars[ids[j]]
			dx := b.Pos.X - a.Pos.X
			dz := b.Pos.Z - a.Pos.Z
			dist := math.Hypot(dx, dz)
			if dist >= 2*CollisionRadius || dist < 1e-9 {
				continue
			}
			nx, nz := dx/dist, dz/dist
			pen := 2*CollisionRadius - dist

			// Split the positional correction evenly.
			a.Pos.X -= nx * pen / 2
			a.Pos.Z -= nz * pen / 2
			b.Pos.X += nx * pen / 2
			b.Pos.Z += nz * pen / 2

			// Impulse along the normal, clamped, exact negation on each side.
			closing := (a.Vel.X-b.Vel.X)*nx + (a.Vel.Z-b.Vel.Z)*nz
			if closing > 0 {
				imp := closing / 2
				if imp > maxCollisionImpulse {
					imp = maxCollisionImpulse
				}
				a.Vel.X -= nx * imp
				a.Vel.Z -= nz * imp
				b.Vel.X += nx * imp
				b.Vel.Z += nz * imp
			}

			// Small vertical pop so hits read on screen.
			a.Vel.Y += collisionPop
			b.Vel.Y += collisionPop
			a.LastHitAt = now
			b.LastHitAt = now
		}
	}
}
