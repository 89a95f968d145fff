package room

import (
	"sort"
	"time"

	"p2racer/internal/protocol"
)

// runElection deterministically picks the host from the candidate set (self +
// every known peer): smallest id wins. No-op once a host is agreed. If we win
// we claim and broadcast; otherwise we record the expected winner locally and
// wait for that peer's own claim to confirm or override.
func (r *Room) runElection() {
	if r.claim.HostID != "" {
		return
	}
	ids := []string{string(r.self)}
	for id := range r.peers {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	winner := protocol.PeerID(ids[0])

	term := r.claim.Term
	if term < 1 {
		term = 1
	}
	if winner == r.self {
		r.acceptClaim(protocol.HostClaim{Term: term, HostID: r.self})
		r.broadcastClaim("")
		return
	}
	r.claim = protocol.HostClaim{Term: term, HostID: winner}
	r.electionDeadline = time.Time{}
	r.log.Info().Str("host", string(winner)).Uint64("term", term).Msg("expecting host")
}

// acceptClaim applies the convergent claim-acceptance rule to every claim,
// including our own. Claims that do not supersede the current one are
// silently kept out; the rule is order-independent, so peers agree on the
// final (term, host) no matter how delivery interleaves.
func (r *Room) acceptClaim(c protocol.HostClaim) {
	if !c.Supersedes(r.claim) {
		return
	}
	wasHost := r.isHost()
	r.claim = c
	r.electionDeadline = time.Time{}
	r.log.Info().Str("host", string(c.HostID)).Uint64("term", c.Term).Msg("host claim accepted")

	if r.isHost() && !wasHost {
		r.adoptAuthority()
	}
}

// broadcastClaim sends the current claim to one peer, or to everyone when the
// target is empty.
func (r *Room) broadcastClaim(to protocol.PeerID) {
	claim := r.claim
	r.send(protocol.NetMessage{
		To:    to,
		Type:  protocol.MsgHostClaim,
		Term:  claim.Term,
		Claim: &claim,
	})
}
