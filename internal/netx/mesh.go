package netx

import (
	"context"
	"sort"
	"sync"

	"p2racer/internal/protocol"
)

// Mesh is an in-memory multi-peer transport. Every port sees every other port
// as a peer; Join/Leave produce the same up/down events a real mesh would.
// Handy for multi-node tests and single-process demos without sockets.
type Mesh struct {
	mu    sync.RWMutex
	ports map[protocol.PeerID]*MeshPort
}

func NewMesh() *Mesh {
	return &Mesh{ports: make(map[protocol.PeerID]*MeshPort)}
}

// Join attaches a new endpoint. Existing ports get a PeerUp for the newcomer
// and the newcomer gets a PeerUp for each existing port.
func (m *Mesh) Join(id protocol.PeerID) *MeshPort {
	p := &MeshPort{
		mesh:   m,
		id:     id,
		inbox:  make(chan protocol.NetMessage, 1024),
		outbox: make(chan protocol.NetMessage, 1024),
		events: make(chan PeerEvent, 64),
	}
	m.mu.Lock()
	for _, other := range m.sortedPortsLocked() {
		other.pushEvent(PeerEvent{Kind: PeerUp, ID: id})
		p.pushEvent(PeerEvent{Kind: PeerUp, ID: other.id})
	}
	m.ports[id] = p
	m.mu.Unlock()
	return p
}

// Leave detaches the endpoint and announces PeerDown to the survivors.
func (m *Mesh) Leave(id protocol.PeerID) {
	m.mu.Lock()
	delete(m.ports, id)
	others := m.sortedPortsLocked()
	m.mu.Unlock()
	for _, other := range others {
		other.pushEvent(PeerEvent{Kind: PeerDown, ID: id})
	}
}

func (m *Mesh) sortedPortsLocked() []*MeshPort {
	ids := make([]string, 0, len(m.ports))
	for id := range m.ports {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	out := make([]*MeshPort, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.ports[protocol.PeerID(id)])
	}
	return out
}

func (m *Mesh) deliver(from protocol.PeerID, msg protocol.NetMessage) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if msg.To != "" {
		if p, ok := m.ports[msg.To]; ok {
			p.push(msg)
		}
		return
	}
	for id, p := range m.ports {
		if id == from {
			continue
		}
		p.push(msg)
	}
}

// MeshPort is one peer's endpoint on the mesh; it implements Network.
type MeshPort struct {
	mesh   *Mesh
	id     protocol.PeerID
	inbox  chan protocol.NetMessage
	outbox chan protocol.NetMessage
	events chan PeerEvent
}

func (p *MeshPort) ID() protocol.PeerID { return p.id }

func (p *MeshPort) Inbox() <-chan protocol.NetMessage { return p.inbox }

func (p *MeshPort) Outbox() chan<- protocol.NetMessage { return p.outbox }

func (p *MeshPort) Events() <-chan PeerEvent { return p.events }

func (p *MeshPort) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-p.outbox:
				p.mesh.deliver(p.id, msg)
			}
		}
	}()
	return nil
}

func (p *MeshPort) Close() error {
	p.mesh.Leave(p.id)
	return nil
}

func (p *MeshPort) push(msg protocol.NetMessage) {
	select {
	case p.inbox <- msg:
	default:
		// Full inbox models a lossy link; the next snapshot repairs state.
	}
}

func (p *MeshPort) pushEvent(ev PeerEvent) {
	select {
	case p.events <- ev:
	default:
	}
}
