// Package room implements peer membership, host election and migration, and
// the host-authoritative simulation loop for one room. A Room is a single
// goroutine that owns every piece of car and match state on this peer;
// network traffic and external commands are funneled through channels and
// applied at tick boundaries, never concurrently with a step.
package room

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"p2racer/internal/match"
	"p2racer/internal/physics"
	"p2racer/internal/protocol"
	"p2racer/internal/reconcile"
	"p2racer/pkg/types"
)

type Room struct {
	id    protocol.RoomID
	self  protocol.PeerID
	info  protocol.PlayerInfo
	cfg   types.RoomConfig
	trk   physics.Track
	log   zerolog.Logger
	clock *protocol.Clock

	in     <-chan protocol.NetMessage
	netOut chan<- protocol.NetMessage
	cmds   chan func()

	// membership + authority
	peers            map[protocol.PeerID]protocol.PlayerInfo
	claim            protocol.HostClaim
	electionDeadline time.Time // zero while disarmed

	// simulation state (host-owned, client-mirrored)
	cars     map[types.PlayerID]*types.CarState
	inputs   map[types.PlayerID]types.CarInput
	rt       *types.MatchRuntime
	stepper  *match.Stepper
	recon    *reconcile.Reconciler
	lastSnap *protocol.Snapshot

	localInput     types.CarInput
	pending        []protocol.NetMessage
	lastFrame      time.Time
	lastSnapshotAt time.Time
	lastInputAt    time.Time
}

// New creates a room member. When asHost is set the peer claims the host role
// at term 1 immediately; otherwise it waits ElectionTimeout for a claim before
// electing one itself.
func New(
	id protocol.RoomID,
	self protocol.PeerID,
	info protocol.PlayerInfo,
	cfg types.RoomConfig,
	asHost bool,
	trk physics.Track,
	log zerolog.Logger,
	clock *protocol.Clock,
	in <-chan protocol.NetMessage,
	out chan<- protocol.NetMessage,
) *Room {
	r := &Room{
		id:     id,
		self:   self,
		info:   info,
		cfg:    cfg.Sanitized(),
		trk:    trk,
		log:    log.With().Str("room", string(id)).Logger(),
		clock:  clock,
		in:     in,
		netOut: out,
		cmds:   make(chan func(), 16),
		peers:  make(map[protocol.PeerID]protocol.PlayerInfo),
		cars:   make(map[types.PlayerID]*types.CarState),
		inputs: make(map[types.PlayerID]types.CarInput),
		recon:  &reconcile.Reconciler{},
	}
	r.ensureCar(self)
	if asHost {
		r.acceptClaim(protocol.HostClaim{Term: 1, HostID: self})
	} else {
		r.electionDeadline = time.Now().Add(r.cfg.ElectionTimeout)
	}
	return r
}

func (r *Room) ID() protocol.RoomID { return r.id }

func (r *Room) isHost() bool { return r.claim.HostID == r.self }

// playerID maps a transport peer identity onto its simulation key.
func playerID(id protocol.PeerID) types.PlayerID { return types.PlayerID(id) }

// Run drives the event loop until ctx is cancelled. Messages are buffered as
// they arrive and applied in arrival order at the start of the next tick.
// SetInput, StartMatch, and Status are serviced by this loop and block until
// it runs; start Run before calling them.
func (r *Room) Run(ctx context.Context) {
	r.announce()

	frame := time.Second / time.Duration(r.cfg.TickRate)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	r.lastFrame = time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.in:
			r.pending = append(r.pending, msg)
		case f := <-r.cmds:
			f()
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

// announce broadcasts our player info (and claim, when hosting) so existing
// members learn about us without waiting for their peer-up handling.
func (r *Room) announce() {
	info := r.info
	r.send(protocol.NetMessage{Type: protocol.MsgPlayerInfo, Info: &info})
	if r.isHost() {
		r.broadcastClaim("")
	}
}

func (r *Room) tick(now time.Time) {
	for _, msg := range r.pending {
		r.handle(msg)
	}
	r.pending = r.pending[:0]

	if !r.electionDeadline.IsZero() && now.After(r.electionDeadline) {
		r.electionDeadline = time.Time{}
		r.runElection()
	}

	dt := now.Sub(r.lastFrame).Seconds()
	r.lastFrame = now
	if dt > r.cfg.MaxFrameDelta {
		dt = r.cfg.MaxFrameDelta
	}
	nowMs := now.UnixMilli()

	if r.rt == nil {
		return
	}
	wasRunning := r.rt.Running

	if r.isHost() {
		r.localInput.T = nowMs
		r.inputs[playerID(r.self)] = r.localInput
		r.stepper.Step(nowMs, dt, r.cars, r.inputs, r.rt)
		if now.Sub(r.lastSnapshotAt) >= r.cfg.SnapshotInterval {
			r.lastSnapshotAt = now
			r.broadcastSnapshot(nowMs)
		}
	} else {
		if r.rt.Running && nowMs >= r.rt.StartAt {
			r.recon.Predict(r.cars[playerID(r.self)], r.localInput, dt, nowMs, r.trk)
		}
		if now.Sub(r.lastInputAt) >= r.cfg.InputInterval {
			r.lastInputAt = now
			r.sendInputToHost(nowMs)
		}
	}

	if wasRunning && !r.rt.Running {
		r.log.Info().
			Str("mode", r.rt.Settings.Mode.String()).
			Strs("finished", r.rt.FinishedOrder).
			Msg("match ended")
	}
}

// ensureCar keeps the one-car-per-connected-player invariant: an entry exists
// from join until disconnect.
func (r *Room) ensureCar(id protocol.PeerID) {
	pid := playerID(id)
	if _, ok := r.cars[pid]; ok {
		return
	}
	st := match.SpawnCar(len(r.cars), r.trk)
	r.cars[pid] = &st
}

// send stamps and queues one outbound message. Fire-and-forget: when the
// transport outbox is saturated the message is dropped and the next periodic
// broadcast repairs any staleness.
func (r *Room) send(msg protocol.NetMessage) {
	msg.Room = r.id
	msg.From = r.self
	msg.Lamport = r.clock.Tick()
	select {
	case r.netOut <- msg:
	default:
		r.log.Debug().Str("type", string(msg.Type)).Msg("outbox full, dropped")
	}
}

// SetInput records the local player's control state for the next ticks.
// Safe to call from any goroutine once Run has started.
func (r *Room) SetInput(in types.CarInput) {
	r.do(func() { r.localInput = in.Clamp() })
}

// Status is a point-in-time copy of the room for UIs and tests.
type Status struct {
	Room    protocol.RoomID
	Self    protocol.PeerID
	Host    protocol.PeerID
	Term    uint64
	PeerIDs []protocol.PeerID
	Car     types.CarState
	Match   *types.MatchRuntime
}

// Status snapshots the room state. Safe to call from any goroutine once Run
// has started.
func (r *Room) Status() Status {
	ch := make(chan Status, 1)
	r.do(func() {
		st := Status{
			Room: r.id,
			Self: r.self,
			Host: r.claim.HostID,
			Term: r.claim.Term,
		}
		for id := range r.peers {
			st.PeerIDs = append(st.PeerIDs, id)
		}
		if car, ok := r.cars[playerID(r.self)]; ok {
			st.Car = *car
		}
		st.Match = r.rt.Clone()
		ch <- st
	})
	return <-ch
}

func (r *Room) do(f func()) { r.cmds <- f }
