package protocol

// HostClaim names the peer that owns the authoritative simulation for a room.
// The term increases monotonically on every migration; a claim with an empty
// HostID is the local migration-in-progress marker and is never broadcast.
type HostClaim struct {
	Term   uint64 `json:"term"`
	HostID PeerID `json:"host_id"`
}

// Supersedes reports whether c should replace cur. The rule is commutative
// and convergent: applying any set of claims in any arrival order leaves every
// peer on the same (term, hostId) pair. Strictly greater terms always win; on
// equal terms the lexicographically smaller host id wins, and any host beats
// the empty marker.
func (c HostClaim) Supersedes(cur HostClaim) bool {
	if c.HostID == "" {
		// Not yet converged; wait for a real claim.
		return false
	}
	if c.Term != cur.Term {
		return c.Term > cur.Term
	}
	if cur.HostID == "" {
		return true
	}
	return c.HostID < cur.HostID
}
