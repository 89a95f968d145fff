// Package reconcile keeps a non-host peer's mirrored world converged on the
// host's snapshots while its own car stays responsive through local
// prediction.
package reconcile

import (
	"math"

	"p2racer/internal/physics"
	"p2racer/internal/protocol"
	"p2racer/pkg/types"
)

const (
	// Blend factor per applied snapshot. The local car trusts prediction and
	// corrects gently; remote cars trust the snapshot.
	ownBlend    = 0.15
	remoteBlend = 0.6
)

// Reconciler tracks the most recently applied snapshot timestamp so stale or
// reordered snapshots can never roll the mirror backwards.
type Reconciler struct {
	lastApplied int64
}

// Reset forgets snapshot history, e.g. at match start or when promoted to host.
func (r *Reconciler) Reset() { r.lastApplied = 0 }

// LastApplied returns the timestamp of the newest snapshot applied so far.
func (r *Reconciler) LastApplied() int64 { return r.lastApplied }

// Predict advances the local player's car with the local input for one frame.
// Pure client-side responsiveness; the result is never authoritative and gets
// pulled toward the next snapshot.
func (r *Reconciler) Predict(car *types.CarState, in types.CarInput, dt float64, now int64, trk physics.Track) {
	if car == nil || !car.Alive || car.Finished {
		return
	}
	physics.Advance(car, in, dt, now, trk)
}

// Apply blends the mirrored cars toward snap. Returns false when snap is
// stale (older than, or same as, the last applied one) and was discarded.
// Continuous motion fields are interpolated, shortest-path for yaw; discrete
// fields are snapped straight from the snapshot.
func (r *Reconciler) Apply(snap *protocol.Snapshot, cars map[types.PlayerID]*types.CarState, self types.PlayerID) bool {
	if snap == nil || snap.T <= r.lastApplied {
		return false
	}
	r.lastApplied = snap.T

	for id, sc := range snap.Cars {
		local, ok := cars[id]
		if !ok {
			cp := sc
			cars[id] = &cp
			continue
		}
		alpha := remoteBlend
		if id == self {
			alpha = ownBlend
		}

		local.Pos = local.Pos.Lerp(sc.Pos, alpha)
		local.Vel = local.Vel.Lerp(sc.Vel, alpha)
		local.Yaw = blendAngle(local.Yaw, sc.Yaw, alpha)
		local.Pitch = blendAngle(local.Pitch, sc.Pitch, alpha)
		local.Roll = blendAngle(local.Roll, sc.Roll, alpha)
		local.YawVel += (sc.YawVel - local.YawVel) * alpha

		// Progress comes straight from the host; blending S across the lap
		// seam would glitch lap detection.
		local.S = sc.S
		local.Grounded = sc.Grounded
		local.BoostCd = sc.BoostCd
		local.Lap = sc.Lap
		local.LastCp = sc.LastCp
		local.Finished = sc.Finished
		local.Alive = sc.Alive
		local.LastHitAt = sc.LastHitAt
	}
	return true
}

// blendAngle interpolates along the shortest arc, never across the ±π seam.
func blendAngle(from, to, alpha float64) float64 {
	d := to - from
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	a := from + d*alpha
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
