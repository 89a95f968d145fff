package protocol

import "p2racer/pkg/types"

type MsgType string

const (
	MsgPlayerInfo MsgType = "PLAYER_INFO"
	MsgHostClaim  MsgType = "HOST_CLAIM"
	MsgStartMatch MsgType = "START_MATCH"
	MsgSnapshot   MsgType = "SNAPSHOT"
	MsgInput      MsgType = "INPUT"

	// Synthesized locally by the node from transport peer events so rooms see
	// membership changes in-order with regular traffic. Never sent on the wire.
	MsgPeerUp   MsgType = "PEER_UP"
	MsgPeerDown MsgType = "PEER_DOWN"
)

// NetMessage is the single envelope carried by the transport. To == ""
// means broadcast; otherwise the transport delivers to that peer only.
type NetMessage struct {
	Room    RoomID          `json:"room"`
	From    PeerID          `json:"from"`
	To      PeerID          `json:"to,omitempty"`
	Type    MsgType         `json:"type"`
	Term    uint64          `json:"term,omitempty"`
	Lamport uint64          `json:"lamport"`
	Info    *PlayerInfo     `json:"info,omitempty"`
	Claim   *HostClaim      `json:"claim,omitempty"`
	Start   *StartMatch     `json:"start,omitempty"`
	State   *Snapshot       `json:"state,omitempty"`
	Input   *types.CarInput `json:"input,omitempty"`
}
