package protocol

import "p2racer/pkg/types"

// PlayerInfo is broadcast by each peer when it joins and unicast to
// latecomers so everyone can render a roster.
type PlayerInfo struct {
	ID    PeerID `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// StartMatch carries the host's match parameters. StartAt is scheduled in the
// future to buffer clock skew between peers.
type StartMatch struct {
	Settings types.MatchSettings `json:"settings"`
	Seed     string              `json:"seed"`
	StartAt  int64               `json:"start_at"` // unix ms
}

// Snapshot is the timestamped, self-contained copy of all car and match state
// the host broadcasts periodically. Immutable once built; every broadcast is a
// fresh deep copy, and receivers copy again before installing.
type Snapshot struct {
	T     int64                             `json:"t"` // unix ms
	Cars  map[types.PlayerID]types.CarState `json:"cars"`
	Match *types.MatchRuntime               `json:"match,omitempty"`
}

// Clone returns an independent deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cars := make(map[types.PlayerID]types.CarState, len(s.Cars))
	for id, c := range s.Cars {
		cars[id] = c
	}
	return &Snapshot{T: s.T, Cars: cars, Match: s.Match.Clone()}
}
