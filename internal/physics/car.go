package physics

import (
	"math"

	"p2racer/pkg/types"
)

// Tuning constants for the arcade vehicle model. Damping coefficients are
// continuous rates fed through exp(-k*dt), so behavior is identical at any
// tick rate. Callers depend on that for reproducibility.
const (
	SubStep       = 1.0 / 120.0
	MaxFrameDelta = 0.08

	CollisionRadius = 1.1
	RideHeight      = 0.5

	groundAccel = 34.0
	brakeAccel  = 52.0
	airAccel    = 5.0

	gripRoad         = 9.0
	gripOffroad      = 3.2
	gripAir          = 0.4
	handbrakeGripMul = 0.22

	dragGround = 0.55
	dragAir    = 0.10

	steerPower    = 4.2
	steerSpeedRef = 12.0
	yawDamp       = 4.5

	gravity = -26.0

	springPull  = 9.0 // suspension snap toward ride height
	springDamp  = 6.0
	springReach = 2.5 // above this gap the car is simply airborne

	bounceSpeed       = 7.0
	bounceRestitution = 0.35

	boostCooldownSec = 2.5
	boostImpulse     = 13.0
	boostLift        = 2.0

	tiltProbe      = 0.9
	tiltRateGround = 9.0
	tiltRateAir    = 1.4
)

// Advance integrates one variable-length frame as a run of fixed sub-steps,
// capping the total simulated time so a stalled frame can never spiral.
func Advance(st *types.CarState, in types.CarInput, frameDt float64, now int64, trk Track) {
	in = in.Clamp()
	dt := frameDt
	if dt > MaxFrameDelta {
		dt = MaxFrameDelta
	}
	for dt > 1e-9 {
		h := SubStep
		if dt < h {
			h = dt
		}
		Step(st, in, h, now, trk)
		dt -= h
	}
}

// Step advances one fixed sub-step of the vehicle model.
func Step(st *types.CarState, in types.CarInput, dt float64, now int64, trk Track) {
	// Decompose velocity against the actual current yaw, never a cached one.
	forward := headingOf(st.Yaw)
	right := types.Vec3{X: -forward.Z, Z: forward.X}
	fwdSpeed := st.Vel.Dot(forward)
	latSpeed := st.Vel.Dot(right)

	here := trk.SampleAt(st.Pos.X, st.Pos.Z)

	// Throttle / brake. Opposing the current travel direction brakes harder
	// than open throttle accelerates.
	accel := airAccel
	if st.Grounded {
		accel = groundAccel
		if in.Throttle*fwdSpeed < 0 {
			accel = brakeAccel
		}
	}
	fwdSpeed += in.Throttle * accel * dt

	// Lateral grip bleeds off slip; the handbrake lets the tail out.
	grip := gripAir
	if st.Grounded {
		grip = gripOffroad
		if here.OnRoad {
			grip = gripRoad
		}
		if in.Handbrake {
			grip *= handbrakeGripMul
		}
	}
	latSpeed *= math.Exp(-grip * dt)

	drag := dragAir
	if st.Grounded {
		drag = dragGround
	}
	fwdSpeed *= math.Exp(-drag * dt)

	// Steering authority grows mildly with speed, then saturates.
	speed := math.Abs(fwdSpeed)
	power := steerPower * (0.35 + 0.65*speed/(speed+steerSpeedRef))
	st.YawVel += in.Steer * power * dt
	st.YawVel *= math.Exp(-yawDamp * dt)
	st.Yaw = wrapAngle(st.Yaw + st.YawVel*dt)

	forward = headingOf(st.Yaw)
	right = types.Vec3{X: -forward.Z, Z: forward.X}
	st.Vel = forward.Scale(fwdSpeed).Add(right.Scale(latSpeed)).Add(types.Vec3{Y: st.Vel.Y})

	st.Vel.Y += gravity * dt
	st.Pos = st.Pos.Add(st.Vel.Scale(dt))

	// Ground contact: clamp-and-bounce below ride height, suspension snap
	// when hovering just above it.
	ground := trk.SampleAt(st.Pos.X, st.Pos.Z)
	target := ground.Height + RideHeight
	gap := st.Pos.Y - target
	switch {
	case gap <= 0:
		st.Pos.Y = target
		if st.Vel.Y < -bounceSpeed {
			st.Vel.Y = -st.Vel.Y * bounceRestitution
		} else if st.Vel.Y < 0 {
			st.Vel.Y = 0
		}
		st.Grounded = true
	case gap < springReach:
		st.Vel.Y += (-springPull*gap - springDamp*st.Vel.Y) * dt
		st.Grounded = false
	default:
		st.Grounded = false
	}

	// Pitch/roll follow the local terrain slope sampled around the car.
	hF := trk.SampleAt(st.Pos.X+forward.X*tiltProbe, st.Pos.Z+forward.Z*tiltProbe).Height
	hB := trk.SampleAt(st.Pos.X-forward.X*tiltProbe, st.Pos.Z-forward.Z*tiltProbe).Height
	hR := trk.SampleAt(st.Pos.X+right.X*tiltProbe, st.Pos.Z+right.Z*tiltProbe).Height
	hL := trk.SampleAt(st.Pos.X-right.X*tiltProbe, st.Pos.Z-right.Z*tiltProbe).Height
	targetPitch := math.Atan2(hF-hB, 2*tiltProbe)
	targetRoll := math.Atan2(hL-hR, 2*tiltProbe)
	rate := tiltRateAir
	if st.Grounded {
		rate = tiltRateGround
	}
	blend := 1 - math.Exp(-rate*dt)
	st.Pitch += (targetPitch - st.Pitch) * blend
	st.Roll += (targetRoll - st.Roll) * blend

	// Boost: player impulse on cooldown, pads while grounded.
	st.BoostCd -= dt
	if st.BoostCd < 0 {
		st.BoostCd = 0
	}
	if in.Boost && st.BoostCd <= 0 {
		st.Vel = st.Vel.Add(forward.Scale(boostImpulse)).Add(types.Vec3{Y: boostLift})
		st.BoostCd = boostCooldownSec
	}
	if st.Grounded {
		for _, pad := range trk.BoostPads() {
			dx := st.Pos.X - pad.Pos.X
			dz := st.Pos.Z - pad.Pos.Z
			if math.Hypot(dx, dz) <= pad.Radius {
				st.Vel = st.Vel.Add(forward.Scale(pad.Impulse)).Add(types.Vec3{Y: pad.Lift})
				st.LastHitAt = now
			}
		}
	}
}

func headingOf(yaw float64) types.Vec3 {
	return types.Vec3{X: math.Cos(yaw), Z: math.Sin(yaw)}
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
