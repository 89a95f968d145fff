package cluster

import (
	"sync"

	"p2racer/internal/protocol"
)

// Router delivers inbound NetMessages to the owning room goroutine by RoomID.
type Router struct {
	mu     sync.RWMutex
	byRoom map[protocol.RoomID]chan<- protocol.NetMessage
}

func NewRouter() *Router {
	return &Router{byRoom: make(map[protocol.RoomID]chan<- protocol.NetMessage)}
}

func (r *Router) Register(id protocol.RoomID, inbox chan<- protocol.NetMessage) {
	r.mu.Lock()
	r.byRoom[id] = inbox
	r.mu.Unlock()
}

func (r *Router) Unregister(id protocol.RoomID) {
	r.mu.Lock()
	delete(r.byRoom, id)
	r.mu.Unlock()
}

func (r *Router) Route(msg protocol.NetMessage) bool {
	r.mu.RLock()
	ch, ok := r.byRoom[msg.Room]
	r.mu.RUnlock()
	if ok {
		select {
		case ch <- msg:
		default:
			// Room inbox saturated; the next snapshot repairs staleness.
		}
	}
	return ok
}

// Fanout copies a message into every room inbox. Used for transport peer
// events, which concern all rooms on this node.
func (r *Router) Fanout(msg protocol.NetMessage) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, ch := range r.byRoom {
		m := msg
		m.Room = id
		select {
		case ch <- m:
		default:
		}
	}
}
