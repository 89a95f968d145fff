package types

import "fmt"

// PlayerID is a stable identifier (e.g. the peer's node id string).
type PlayerID = string

// CarInput is the per-tick control state for one car. Produced once per local
// tick and sent to the host when this peer is not the host.
type CarInput struct {
	T         int64   `json:"t"`
	Throttle  float64 `json:"throttle"` // -1..1, negative brakes/reverses
	Steer     float64 `json:"steer"`    // -1..1
	Handbrake bool    `json:"handbrake"`
	Boost     bool    `json:"boost"`
	Respawn   bool    `json:"respawn"`
}

// NeutralInput is the explicit default used whenever no input has arrived for
// a player this tick. Never nil-check inputs; substitute this.
func NeutralInput(t int64) CarInput { return CarInput{T: t} }

// Clamp bounds the analog axes to their valid range.
func (in CarInput) Clamp() CarInput {
	if in.Throttle > 1 {
		in.Throttle = 1
	}
	if in.Throttle < -1 {
		in.Throttle = -1
	}
	if in.Steer > 1 {
		in.Steer = 1
	}
	if in.Steer < -1 {
		in.Steer = -1
	}
	return in
}

// CarState is the full per-player simulation state. Owned and mutated only by
// the current host; other peers hold a mirror reconciled from snapshots.
type CarState struct {
	Pos       Vec3    `json:"pos"`
	Vel       Vec3    `json:"vel"`
	Yaw       float64 `json:"yaw"`
	YawVel    float64 `json:"yaw_vel"`
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`
	Grounded  bool    `json:"grounded"`
	BoostCd   float64 `json:"boost_cd"`
	Lap       int     `json:"lap"`
	S         float64 `json:"s"` // normalized track arclength in [0,1)
	LastCp    int     `json:"last_cp"`
	Finished  bool    `json:"finished"`
	Alive     bool    `json:"alive"`
	LastHitAt int64   `json:"last_hit_at"` // unix ms, for hit feedback
}

// Mode selects the per-match rule set.
type Mode int

const (
	ModeRace Mode = iota
	ModeCheckpointChaos
	ModeElimination
)

func (m Mode) String() string {
	switch m {
	case ModeRace:
		return "race"
	case ModeCheckpointChaos:
		return "chaos"
	case ModeElimination:
		return "elimination"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a user-facing mode name to its tag.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "race":
		return ModeRace, nil
	case "chaos", "checkpointChaos":
		return ModeCheckpointChaos, nil
	case "elimination", "elim":
		return ModeElimination, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// MatchSettings are chosen by the host and broadcast at match start.
type MatchSettings struct {
	Mode             Mode `json:"mode"`
	Laps             int  `json:"laps"`
	TargetScore      int  `json:"target_score"`
	RoundIntervalSec int  `json:"round_interval_sec"`
	DurationSec      int  `json:"duration_sec"`
}

// MatchRuntime is the live match progress. Host-owned; clients mirror it from
// snapshots. FinishedOrder and Eliminated only ever grow within one match.
type MatchRuntime struct {
	Settings      MatchSettings    `json:"settings"`
	Seed          string           `json:"seed"`
	StartAt       int64            `json:"start_at"` // unix ms
	EndAt         int64            `json:"end_at"`   // unix ms
	Running       bool             `json:"running"`
	FinishedOrder []PlayerID       `json:"finished_order"`
	Eliminated    []PlayerID       `json:"eliminated"`
	ChaosTargetCp int              `json:"chaos_target_cp"`
	ElimRounds    int              `json:"elim_rounds"`
	Scores        map[PlayerID]int `json:"scores"`
}

// Clone returns an independent deep copy suitable for crossing the network
// boundary or goroutine ownership boundary.
func (m *MatchRuntime) Clone() *MatchRuntime {
	if m == nil {
		return nil
	}
	out := *m
	out.FinishedOrder = append([]PlayerID(nil), m.FinishedOrder...)
	out.Eliminated = append([]PlayerID(nil), m.Eliminated...)
	out.Scores = make(map[PlayerID]int, len(m.Scores))
	for id, s := range m.Scores {
		out.Scores[id] = s
	}
	return &out
}
