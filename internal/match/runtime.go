package match

import (
	"hash/fnv"

	"p2racer/pkg/types"
)

// NewRuntime builds the host-owned match state for one match. startAt is
// scheduled slightly in the future by the host so peers with clock skew still
// begin together.
func NewRuntime(settings types.MatchSettings, seed string, startAt int64) *types.MatchRuntime {
	settings = sanitizeSettings(settings)
	return &types.MatchRuntime{
		Settings:      settings,
		Seed:          seed,
		StartAt:       startAt,
		EndAt:         startAt + int64(settings.DurationSec)*1000,
		Running:       true,
		FinishedOrder: []types.PlayerID{},
		Eliminated:    []types.PlayerID{},
		Scores:        make(map[types.PlayerID]int),
	}
}

func sanitizeSettings(s types.MatchSettings) types.MatchSettings {
	if s.Laps <= 0 {
		s.Laps = 3
	}
	if s.TargetScore <= 0 {
		s.TargetScore = 10
	}
	if s.RoundIntervalSec <= 0 {
		s.RoundIntervalSec = 20
	}
	if s.DurationSec <= 0 {
		s.DurationSec = 300
	}
	return s
}

// SeedSource folds the shared seed string into a deterministic RNG seed so
// every peer that replays the match draws the same stream.
func SeedSource(seed string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int64(h.Sum64())
}

func appendUnique(ids *[]types.PlayerID, id types.PlayerID) {
	for _, x := range *ids {
		if x == id {
			return
		}
	}
	*ids = append(*ids, id)
}
