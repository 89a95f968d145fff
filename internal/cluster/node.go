package cluster

import (
	"context"

	"github.com/rs/zerolog"

	"p2racer/internal/netx"
	"p2racer/internal/protocol"
)

// Node ties one peer identity to a transport and routes traffic into rooms.
type Node struct {
	ID     protocol.PeerID
	net    netx.Network
	router *Router
	mgr    *Manager
	clock  *protocol.Clock
	log    zerolog.Logger
}

func NewNode(id protocol.PeerID, name string, network netx.Network, log zerolog.Logger) *Node {
	if id == "" {
		id = protocol.NewPeerID()
	}
	router := NewRouter()
	clock := &protocol.Clock{}
	info := protocol.PlayerInfo{ID: id, Name: name}
	mgr := NewManager(id, info, clock, router, network.Outbox(), log)
	return &Node{
		ID:     id,
		net:    network,
		router: router,
		mgr:    mgr,
		clock:  clock,
		log:    log.With().Str("peer", string(id)).Logger(),
	}
}

func (n *Node) Start(ctx context.Context) error {
	if err := n.net.Start(ctx); err != nil {
		return err
	}
	go n.dispatch(ctx)
	return nil
}

// dispatch pumps inbound messages to their room and turns transport peer
// events into the synthetic PEER_UP/PEER_DOWN messages rooms handle in-order
// with everything else.
func (n *Node) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.net.Inbox():
			if msg.From == n.ID {
				continue // own broadcast echoed back
			}
			if !n.router.Route(msg) {
				n.log.Debug().Str("room", string(msg.Room)).Msg("message for unknown room")
			}
		case ev := <-n.net.Events():
			kind := protocol.MsgPeerUp
			if ev.Kind == netx.PeerDown {
				kind = protocol.MsgPeerDown
			}
			n.router.Fanout(protocol.NetMessage{From: ev.ID, Type: kind, Lamport: n.clock.Tick()})
		}
	}
}

func (n *Node) Network() netx.Network { return n.net }

func (n *Node) Rooms() *Manager { return n.mgr }
