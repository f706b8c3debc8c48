package netio

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/events"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/wireproto"
)

func testLogger() *observability.Logger {
	return observability.NewLogger("voxelterra-test", "test", io.Discard)
}

// loopback returns two connected net.Conn half over a real TCP socket, so
// RemoteAddr() yields a genuine IPv4 socket address (net.Pipe's synthetic
// addresses don't parse as AddrPort).
func loopback(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		acceptCh <- c
	}()

	client, err = net.Dial("tcp4", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server = <-acceptCh
	return server, client
}

func TestConnectionReaderFiresReceivedPacketEvent(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()

	bus := dispatcher.New(4)
	provider := dispatcher.Handler[events.ReceivedPacket[wireproto.RequestGeneratorsPacket]](bus)

	conn, err := Accept(server, bus, wireproto.LevelFast, testLogger(), nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Terminate()

	pkt := wireproto.EncodeRequestGenerators(wireproto.RequestGeneratorsPacket{RequestID: 42})
	if err := wireproto.WritePacketBuffer(client, pkt, wireproto.LevelFast); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, evt, ok := provider.Recv(ctx)
	if !ok {
		t.Fatal("expected ReceivedPacket event")
	}
	if evt.Packet.RequestID != 42 {
		t.Fatalf("RequestID = %d, want 42", evt.Packet.RequestID)
	}
}

func TestConnectionSendPacketReachesPeer(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()

	bus := dispatcher.New(4)
	conn, err := Accept(server, bus, wireproto.LevelFast, testLogger(), nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Terminate()

	if err := conn.SendPacket(wireproto.EncodeFinishRequest(wireproto.FinishRequestPacket{RequestID: 7})); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := wireproto.ReadPacketBuffer(client)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if got.ID != wireproto.IDFinishRequest {
		t.Fatalf("id = %d, want %d", got.ID, wireproto.IDFinishRequest)
	}
}

func TestConnectionTerminateSendsFatalTerminatedNotice(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()

	bus := dispatcher.New(4)
	conn, err := Accept(server, bus, wireproto.LevelFast, testLogger(), nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	conn.Terminate()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := wireproto.ReadPacketBuffer(client)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	p, err := wireproto.DecodeProtocolError(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.Fatal {
		t.Fatal("expected fatal error")
	}
	if _, ok := p.Kind.(wireproto.TerminatedError); !ok {
		t.Fatalf("kind = %T, want TerminatedError", p.Kind)
	}
}

func TestConnectionTerminateIsIdempotent(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()

	bus := dispatcher.New(4)
	conn, err := Accept(server, bus, wireproto.LevelFast, testLogger(), nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	conn.Terminate()
	conn.Terminate()
	conn.Terminate()

	if conn.State() != StateDead {
		t.Fatalf("state = %v, want Dead", conn.State())
	}
}

func TestConnectionBadFrameTerminatesWithoutPanic(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()

	bus := dispatcher.New(4)
	conn, err := Accept(server, bus, wireproto.LevelFast, testLogger(), nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	// A header declaring a huge decompressed length must be rejected and
	// the connection torn down, not crash the server.
	client.Write([]byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn.State() == StateDead {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("connection never terminated after malformed header")
}
