package protocol

import (
	"fmt"
	"math/rand"
)

// PeerID is the opaque stable identity of one peer, as assigned by the
// transport/signaling substrate. Lexicographic order on PeerID is the
// deterministic tie-break for host election.
type PeerID string

// RoomID names one room; every message is scoped to a room.
type RoomID string

func NewPeerID() PeerID { return PeerID(fmt.Sprintf("p-%016x", rand.Int63())) }
func NewRoomID() RoomID { return RoomID(fmt.Sprintf("r-%08x", rand.Int31())) }
