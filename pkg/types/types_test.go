package types

import (
	"math"
	"testing"
	"time"
)

func TestVecNormalizedZeroSafe(t *testing.T) {
	if got := (Vec3{}).Normalized(); got != (Vec3{}) {
		t.Fatalf("Normalized(zero) = %+v", got)
	}
	got := Vec3{X: 3, Y: 4}.Normalized()
	if math.Abs(got.Len()-1) > 1e-12 {
		t.Fatalf("unit length = %f", got.Len())
	}
}

func TestInputClamp(t *testing.T) {
	in := CarInput{Throttle: 2, Steer: -7, Boost: true}.Clamp()
	if in.Throttle != 1 || in.Steer != -1 || !in.Boost {
		t.Fatalf("clamp result: %+v", in)
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeRace, ModeCheckpointChaos, ModeElimination} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("demolition"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestMatchRuntimeCloneIsDeep(t *testing.T) {
	var nilRT *MatchRuntime
	if nilRT.Clone() != nil {
		t.Fatalf("Clone(nil) != nil")
	}

	rt := &MatchRuntime{
		FinishedOrder: []PlayerID{"a"},
		Scores:        map[PlayerID]int{"a": 1},
	}
	cp := rt.Clone()
	cp.FinishedOrder = append(cp.FinishedOrder, "b")
	cp.Scores["b"] = 2
	if len(rt.FinishedOrder) != 1 || len(rt.Scores) != 1 {
		t.Fatalf("clone aliased the original: %+v", rt)
	}
}

func TestRoomConfigSanitized(t *testing.T) {
	cfg := RoomConfig{}.Sanitized()
	if cfg.TickRate != 60 || cfg.MaxFrameDelta != 0.08 {
		t.Fatalf("zero config not repaired: %+v", cfg)
	}
	if cfg.ElectionTimeout < 500*time.Millisecond {
		t.Fatalf("election timeout too small: %v", cfg.ElectionTimeout)
	}
}
