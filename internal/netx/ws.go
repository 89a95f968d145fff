package netx

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"p2racer/internal/protocol"
)

const peerIDHeader = "X-Peer-Id"

var errMissingPeerID = errors.New("peer id missing from handshake response")

// WS is a websocket peer mesh: every node listens on /ws and dials the peers
// it knows about. It stands in for the WebRTC data-channel substrate the
// game embeds in; the room protocol only sees Network.
type WS struct {
	self protocol.PeerID
	addr string
	log  zerolog.Logger

	inbox  chan protocol.NetMessage
	outbox chan protocol.NetMessage
	events chan PeerEvent

	upgrader websocket.Upgrader
	srv      *http.Server

	mu    sync.RWMutex
	peers map[protocol.PeerID]*wsPeer
}

// wsPeer serializes writes to one connection; gorilla conns allow only a
// single concurrent writer.
type wsPeer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *wsPeer) write(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

func NewWS(self protocol.PeerID, addr string, log zerolog.Logger) *WS {
	return &WS{
		self:   self,
		addr:   addr,
		log:    log.With().Str("transport", "ws").Logger(),
		inbox:  make(chan protocol.NetMessage, 4096),
		outbox: make(chan protocol.NetMessage, 4096),
		events: make(chan PeerEvent, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[protocol.PeerID]*wsPeer),
	}
}

func (t *WS) Inbox() <-chan protocol.NetMessage { return t.inbox }

func (t *WS) Outbox() chan<- protocol.NetMessage { return t.outbox }

func (t *WS) Events() <-chan PeerEvent { return t.events }

func (t *WS) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWS(ctx, w, r)
	})
	t.srv = &http.Server{
		Addr:              t.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		t.log.Info().Str("addr", t.addr).Msg("listening")
		if err := t.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.log.Error().Err(err).Msg("listener failed")
		}
	}()

	// Send pump: broadcast or unicast depending on the envelope target.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-t.outbox:
				t.send(msg)
			}
		}
	}()
	return nil
}

func (t *WS) Close() error {
	if t.srv != nil {
		_ = t.srv.Close()
	}
	t.mu.Lock()
	for _, p := range t.peers {
		_ = p.conn.Close()
	}
	t.peers = map[protocol.PeerID]*wsPeer{}
	t.mu.Unlock()
	return nil
}

// AddPeer dials a remote node's /ws endpoint. Peer identities ride on the
// handshake: ours in the query, theirs in the response header.
func (t *WS) AddPeer(ctx context.Context, baseURL string) error {
	url := baseURL + "/ws?peer=" + string(t.self)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	remote := protocol.PeerID(resp.Header.Get(peerIDHeader))
	if remote == "" {
		conn.Close()
		return errMissingPeerID
	}
	t.register(ctx, remote, conn)
	return nil
}

func (t *WS) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	remote := protocol.PeerID(r.URL.Query().Get("peer"))
	if remote == "" {
		http.Error(w, "missing peer id", http.StatusBadRequest)
		return
	}
	conn, err := t.upgrader.Upgrade(w, r, http.Header{peerIDHeader: []string{string(t.self)}})
	if err != nil {
		t.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	t.register(ctx, remote, conn)
}

func (t *WS) register(ctx context.Context, id protocol.PeerID, conn *websocket.Conn) {
	t.mu.Lock()
	if old, ok := t.peers[id]; ok {
		_ = old.conn.Close()
	}
	t.peers[id] = &wsPeer{conn: conn}
	t.mu.Unlock()

	t.log.Info().Str("peer", string(id)).Msg("peer connected")
	t.pushEvent(PeerEvent{Kind: PeerUp, ID: id})
	go t.readLoop(ctx, id, conn)
}

func (t *WS) readLoop(ctx context.Context, id protocol.PeerID, conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
		t.mu.Lock()
		if cur, ok := t.peers[id]; ok && cur.conn == conn {
			delete(t.peers, id)
		}
		t.mu.Unlock()
		t.log.Info().Str("peer", string(id)).Msg("peer disconnected")
		t.pushEvent(PeerEvent{Kind: PeerDown, ID: id})
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := Decode(frame)
		if err != nil {
			t.log.Warn().Err(err).Str("peer", string(id)).Msg("bad frame")
			continue
		}
		select {
		case t.inbox <- msg:
		default:
			// Inbox saturated; drop, the next snapshot repairs state.
		}
	}
}

// send delivers to one peer or fans out to all. Per-peer failures are logged
// and skipped so one dead connection never blocks the rest.
func (t *WS) send(msg protocol.NetMessage) {
	frame, err := Encode(msg)
	if err != nil {
		t.log.Warn().Err(err).Msg("encode failed")
		return
	}

	t.mu.RLock()
	targets := make(map[protocol.PeerID]*wsPeer, len(t.peers))
	if msg.To != "" {
		if p, ok := t.peers[msg.To]; ok {
			targets[msg.To] = p
		}
	} else {
		for id, p := range t.peers {
			targets[id] = p
		}
	}
	t.mu.RUnlock()

	for id, p := range targets {
		if err := p.write(frame); err != nil {
			t.log.Warn().Err(err).Str("peer", string(id)).Msg("write failed")
		}
	}
}

func (t *WS) pushEvent(ev PeerEvent) {
	select {
	case t.events <- ev:
	default:
	}
}
