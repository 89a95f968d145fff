package room

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"p2racer/internal/match"
	"p2racer/internal/protocol"
	"p2racer/pkg/types"
)

const startDelay = 3 * time.Second // clock-skew buffer before a match begins

// StartMatch schedules a new match and broadcasts it. Host-only; on any other
// peer this logs and does nothing. Safe to call from any goroutine once Run
// has started. Calling it again after a match has ended is the rematch path.
func (r *Room) StartMatch(settings types.MatchSettings) {
	r.do(func() {
		if !r.isHost() {
			r.log.Warn().Msg("only the host can start a match")
			return
		}
		start := protocol.StartMatch{
			Settings: settings,
			Seed:     fmt.Sprintf("%08x", rand.Int63()),
			StartAt:  time.Now().Add(startDelay).UnixMilli(),
		}
		r.installMatch(start)
		s := start
		r.send(protocol.NetMessage{Type: protocol.MsgStartMatch, Start: &s})
	})
}

// installMatch resets all per-match state and respawns every car at the grid.
// Slots are assigned in sorted id order so all peers derive identical spawn
// poses without coordination.
func (r *Room) installMatch(start protocol.StartMatch) {
	r.rt = match.NewRuntime(start.Settings, start.Seed, start.StartAt)
	r.stepper = newStepperFor(r)
	r.recon.Reset()
	r.lastSnap = nil
	r.inputs = make(map[types.PlayerID]types.CarInput)

	ids := make([]string, 0, len(r.cars))
	for id := range r.cars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for slot, id := range ids {
		st := match.SpawnCar(slot, r.trk)
		r.cars[id] = &st
	}
}

func newStepperFor(r *Room) *match.Stepper {
	return match.NewStepper(r.trk, r.rt.Seed)
}

// broadcastSnapshot ships a fresh deep copy of the authoritative world.
// Host-only; a non-host calling this is a bug upstream and is ignored.
func (r *Room) broadcastSnapshot(nowMs int64) {
	if !r.isHost() {
		return
	}
	snap := r.buildSnapshot(nowMs)
	r.send(protocol.NetMessage{
		Type:  protocol.MsgSnapshot,
		Term:  r.claim.Term,
		State: snap,
	})
}

// buildSnapshot deep-copies cars and match so the value on the wire can never
// alias live simulation state.
func (r *Room) buildSnapshot(nowMs int64) *protocol.Snapshot {
	cars := make(map[types.PlayerID]types.CarState, len(r.cars))
	for id, c := range r.cars {
		cars[id] = *c
	}
	return &protocol.Snapshot{T: nowMs, Cars: cars, Match: r.rt.Clone()}
}

// sendInputToHost unicasts the local input upstream. Before a host is known
// it falls back to best-effort broadcast so whoever wins election has seen at
// least one input from us.
func (r *Room) sendInputToHost(nowMs int64) {
	if r.isHost() {
		return
	}
	in := r.localInput
	in.T = nowMs
	r.send(protocol.NetMessage{
		To:    r.claim.HostID, // empty host means broadcast
		Type:  protocol.MsgInput,
		Input: &in,
	})
}

// adoptAuthority runs when this peer is promoted to host mid-match: the last
// received snapshot becomes the authoritative state, deep-copied so nothing
// lingers from the client-side mirror.
func (r *Room) adoptAuthority() {
	if r.lastSnap == nil {
		return
	}
	for id, cs := range r.lastSnap.Cars {
		cp := cs
		r.cars[id] = &cp
	}
	r.rt = r.lastSnap.Match.Clone()
	if r.stepper == nil && r.rt != nil {
		r.stepper = newStepperFor(r)
	}
	r.recon.Reset()
	r.log.Info().Uint64("term", r.claim.Term).Msg("resuming simulation as host")
}
