package physics

import (
	"math"

	"p2racer/pkg/types"
)

// SurfaceSample is the terrain/track answer for one (x,z) query.
type SurfaceSample struct {
	Height     float64    // ground height at the point
	OnRoad     bool       // within the paved surface
	S          float64    // normalized centerline arclength in [0,1)
	Tangent    types.Vec3 // unit direction of increasing s
	FromCenter float64    // signed lateral offset from the centerline
}

// Track is the boundary to the (out of scope) terrain/track module: ground
// queries, checkpoint poses for spawn/respawn, and boost pad trigger volumes.
type Track interface {
	SampleAt(x, z float64) SurfaceSample
	CheckpointCount() int
	CheckpointPos(i int) types.Vec3
	CheckpointSpawn(i int) (types.Vec3, float64) // position + yaw
	BoostPads() []BoostPad
}

// BoostPad is a trigger volume that shoves grounded cars forward.
type BoostPad struct {
	Pos     types.Vec3
	Radius  float64
	Impulse float64
	Lift    float64
}

// RingTrack is a flat-ish analytic circuit: a circular centerline of the given
// radius with gentle elevation change along the lap. It stands in for the real
// track module in the demo binary and in tests.
type RingTrack struct {
	Radius      float64
	Width       float64
	Checkpoints int
	Pads        []BoostPad
}

// NewRingTrack builds a ring with n evenly spaced checkpoints and one boost
// pad halfway between checkpoints 0 and 1.
func NewRingTrack(radius, width float64, n int) *RingTrack {
	if n < 1 {
		n = 1
	}
	t := &RingTrack{Radius: radius, Width: width, Checkpoints: n}
	padS := 0.5 / float64(n)
	t.Pads = []BoostPad{{
		Pos:     t.centerlineAt(padS),
		Radius:  4,
		Impulse: 12,
		Lift:    1.5,
	}}
	return t
}

func (t *RingTrack) centerlineAt(s float64) types.Vec3 {
	theta := s * 2 * math.Pi
	return types.Vec3{
		X: t.Radius * math.Cos(theta),
		Y: t.elevation(s),
		Z: t.Radius * math.Sin(theta),
	}
}

func (t *RingTrack) elevation(s float64) float64 {
	return 1.2 * math.Sin(s*2*math.Pi*3)
}

func (t *RingTrack) SampleAt(x, z float64) SurfaceSample {
	theta := math.Atan2(z, x)
	s := theta / (2 * math.Pi)
	if s < 0 {
		s += 1
	}
	fromCenter := math.Hypot(x, z) - t.Radius
	tangent := types.Vec3{X: -math.Sin(theta), Z: math.Cos(theta)}
	height := t.elevation(s)
	if math.Abs(fromCenter) > t.Width/2 {
		// off-road shoulder slopes away from the pavement
		height -= 0.08 * (math.Abs(fromCenter) - t.Width/2)
	}
	return SurfaceSample{
		Height:     height,
		OnRoad:     math.Abs(fromCenter) <= t.Width/2,
		S:          s,
		Tangent:    tangent,
		FromCenter: fromCenter,
	}
}

func (t *RingTrack) CheckpointCount() int { return t.Checkpoints }

func (t *RingTrack) CheckpointPos(i int) types.Vec3 {
	s := float64(i%t.Checkpoints) / float64(t.Checkpoints)
	return t.centerlineAt(s)
}

func (t *RingTrack) CheckpointSpawn(i int) (types.Vec3, float64) {
	s := float64(i%t.Checkpoints) / float64(t.Checkpoints)
	pos := t.centerlineAt(s)
	tan := t.SampleAt(pos.X, pos.Z).Tangent
	return pos, math.Atan2(tan.Z, tan.X)
}

func (t *RingTrack) BoostPads() []BoostPad { return t.Pads }
