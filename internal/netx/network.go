// Package netx provides the abstract peer-to-peer message channel the room
// protocol runs over, plus two implementations: an in-memory mesh for tests
// and demos, and a websocket mesh for real peers.
package netx

import (
	"context"

	"p2racer/internal/protocol"
)

// PeerEventKind distinguishes membership transitions.
type PeerEventKind int

const (
	PeerUp PeerEventKind = iota
	PeerDown
)

// PeerEvent reports a peer appearing or disappearing on the transport. The
// down event is the only way a vanished host is detected.
type PeerEvent struct {
	Kind PeerEventKind
	ID   protocol.PeerID
}

// Network is the abstract transport: reliable broadcast (To == ""), reliable
// unicast by peer id, and membership events. Sends are fire-and-forget; a
// failed delivery to one peer never affects delivery to the others.
type Network interface {
	Inbox() <-chan protocol.NetMessage
	Outbox() chan<- protocol.NetMessage
	Events() <-chan PeerEvent
	Start(ctx context.Context) error
	Close() error
}
