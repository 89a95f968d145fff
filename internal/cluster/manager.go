package cluster

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"p2racer/internal/physics"
	"p2racer/internal/protocol"
	"p2racer/internal/room"
	"p2racer/pkg/types"
)

var ErrRoomExists = errors.New("room exists")

// Manager owns the rooms this node participates in.
type Manager struct {
	self   protocol.PeerID
	info   protocol.PlayerInfo
	clock  *protocol.Clock
	router *Router
	netOut chan<- protocol.NetMessage
	log    zerolog.Logger

	mu    sync.RWMutex
	rooms map[protocol.RoomID]*room.Room
}

func NewManager(self protocol.PeerID, info protocol.PlayerInfo, clock *protocol.Clock, router *Router, netOut chan<- protocol.NetMessage, log zerolog.Logger) *Manager {
	return &Manager{
		self:   self,
		info:   info,
		clock:  clock,
		router: router,
		netOut: netOut,
		log:    log,
		rooms:  make(map[protocol.RoomID]*room.Room),
	}
}

// Host creates a room with this peer claiming the host role at term 1.
func (m *Manager) Host(ctx context.Context, id protocol.RoomID, cfg types.RoomConfig, trk physics.Track) (*room.Room, error) {
	return m.attach(ctx, id, cfg, trk, true)
}

// Join enters an existing room as a regular member; if no host claim shows up
// within the election timeout the room elects one.
func (m *Manager) Join(ctx context.Context, id protocol.RoomID, cfg types.RoomConfig, trk physics.Track) (*room.Room, error) {
	return m.attach(ctx, id, cfg, trk, false)
}

func (m *Manager) attach(ctx context.Context, id protocol.RoomID, cfg types.RoomConfig, trk physics.Track, asHost bool) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[id]; exists {
		return nil, ErrRoomExists
	}
	in := make(chan protocol.NetMessage, 256)
	rm := room.New(id, m.self, m.info, cfg, asHost, trk, m.log, m.clock, in, m.netOut)
	m.rooms[id] = rm
	m.router.Register(id, in)
	go rm.Run(ctx)
	return rm, nil
}

func (m *Manager) Get(id protocol.RoomID) (*room.Room, bool) {
	m.mu.RLock()
	rm, ok := m.rooms[id]
	m.mu.RUnlock()
	return rm, ok
}

// ListIDs returns a sorted list of room ids known locally.
func (m *Manager) ListIDs() []protocol.RoomID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]protocol.RoomID, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
