package room

import (
	"p2racer/internal/protocol"
)

// handle applies one inbound message. Called only from the room goroutine, in
// arrival order. Malformed or not-yet-converged messages are ignored, never
// fatal: the periodic snapshot and claim broadcasts make state catch up.
func (r *Room) handle(msg protocol.NetMessage) {
	r.clock.Observe(msg.Lamport)

	switch msg.Type {
	case protocol.MsgPeerUp:
		r.onPeerUp(msg.From)

	case protocol.MsgPeerDown:
		r.onPeerDown(msg.From)

	case protocol.MsgPlayerInfo:
		if msg.Info == nil {
			return
		}
		_, known := r.peers[msg.From]
		r.peers[msg.From] = *msg.Info
		r.ensureCar(msg.From)
		// First contact doubles as a handshake: reply with our own info, and
		// hand over the claim when hosting, so a peer that attached after the
		// transport-level join still converges.
		if !known {
			info := r.info
			r.send(protocol.NetMessage{To: msg.From, Type: protocol.MsgPlayerInfo, Info: &info})
			if r.isHost() {
				r.broadcastClaim(msg.From)
			}
		}

	case protocol.MsgHostClaim:
		if msg.Claim == nil {
			return
		}
		r.acceptClaim(*msg.Claim)

	case protocol.MsgStartMatch:
		if msg.Start == nil {
			return
		}
		// Only the agreed host starts matches; before convergence we accept
		// and let the claim traffic sort the rest out.
		if r.claim.HostID != "" && msg.From != r.claim.HostID {
			return
		}
		r.installMatch(*msg.Start)
		r.log.Info().
			Str("mode", msg.Start.Settings.Mode.String()).
			Str("seed", msg.Start.Seed).
			Msg("match starting")

	case protocol.MsgSnapshot:
		r.onSnapshot(msg)

	case protocol.MsgInput:
		if msg.Input == nil || !r.isHost() {
			return
		}
		r.inputs[playerID(msg.From)] = msg.Input.Clamp()
	}
}

// onPeerUp introduces ourselves to the joiner and, when hosting, hands them
// the current claim directly so latecomers converge without waiting for the
// next broadcast.
func (r *Room) onPeerUp(id protocol.PeerID) {
	if id == r.self {
		return
	}
	if _, ok := r.peers[id]; !ok {
		r.peers[id] = protocol.PlayerInfo{ID: id}
	}
	info := r.info
	r.send(protocol.NetMessage{To: id, Type: protocol.MsgPlayerInfo, Info: &info})
	if r.isHost() {
		r.broadcastClaim(id)
	}
	r.runElection()
}

// onPeerDown drops the peer's membership and car. If the host vanished, the
// term is bumped with the empty migration marker and a new host is elected.
func (r *Room) onPeerDown(id protocol.PeerID) {
	delete(r.peers, id)
	delete(r.cars, playerID(id))
	delete(r.inputs, playerID(id))
	if r.claim.HostID == id {
		r.claim = protocol.HostClaim{Term: r.claim.Term + 1}
		r.log.Info().Uint64("term", r.claim.Term).Msg("host left, migrating")
		r.runElection()
	}
}

func (r *Room) onSnapshot(msg protocol.NetMessage) {
	if msg.State == nil || r.isHost() {
		return
	}
	if msg.Term < r.claim.Term {
		return
	}
	// A snapshot is implicit evidence of authority; adopt the sender when we
	// have no better claim.
	r.acceptClaim(protocol.HostClaim{Term: msg.Term, HostID: msg.From})

	if !r.recon.Apply(msg.State, r.cars, playerID(r.self)) {
		return // stale, discarded
	}
	r.lastSnap = msg.State.Clone()
	r.rt = msg.State.Match.Clone()
	if r.stepper == nil && r.rt != nil {
		r.stepper = newStepperFor(r)
	}
}
