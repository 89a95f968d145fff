package netx

import (
	"context"
	"testing"
	"time"

	"p2racer/internal/protocol"
)

func recvMsg(t *testing.T, ch <-chan protocol.NetMessage) protocol.NetMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
		return protocol.NetMessage{}
	}
}

func recvEvent(t *testing.T, ch <-chan PeerEvent) PeerEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for peer event")
		return PeerEvent{}
	}
}

func TestMeshBroadcastExcludesSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mesh := NewMesh()
	a := mesh.Join("p-a")
	b := mesh.Join("p-b")
	c := mesh.Join("p-c")
	for _, p := range []*MeshPort{a, b, c} {
		if err := p.Start(ctx); err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	a.Outbox() <- protocol.NetMessage{From: "p-a", Type: protocol.MsgPlayerInfo}

	for _, p := range []*MeshPort{b, c} {
		if got := recvMsg(t, p.Inbox()); got.From != "p-a" {
			t.Fatalf("wrong sender: %+v", got)
		}
	}
	select {
	case msg := <-a.Inbox():
		t.Fatalf("sender received its own broadcast: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMeshUnicast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mesh := NewMesh()
	a := mesh.Join("p-a")
	b := mesh.Join("p-b")
	c := mesh.Join("p-c")
	for _, p := range []*MeshPort{a, b, c} {
		_ = p.Start(ctx)
	}

	a.Outbox() <- protocol.NetMessage{From: "p-a", To: "p-b", Type: protocol.MsgInput}

	if got := recvMsg(t, b.Inbox()); got.To != "p-b" {
		t.Fatalf("unicast mangled: %+v", got)
	}
	select {
	case msg := <-c.Inbox():
		t.Fatalf("unicast leaked to a third peer: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMeshJoinLeaveEvents(t *testing.T) {
	mesh := NewMesh()
	a := mesh.Join("p-a")

	b := mesh.Join("p-b")
	if ev := recvEvent(t, a.Events()); ev.Kind != PeerUp || ev.ID != "p-b" {
		t.Fatalf("a saw %+v, want PeerUp p-b", ev)
	}
	if ev := recvEvent(t, b.Events()); ev.Kind != PeerUp || ev.ID != "p-a" {
		t.Fatalf("b saw %+v, want PeerUp p-a", ev)
	}

	_ = b.Close()
	if ev := recvEvent(t, a.Events()); ev.Kind != PeerDown || ev.ID != "p-b" {
		t.Fatalf("a saw %+v, want PeerDown p-b", ev)
	}
}
