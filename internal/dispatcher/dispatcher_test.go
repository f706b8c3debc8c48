package dispatcher

import (
	"context"
	"testing"
	"time"
)

type pingEvent struct{ N int }
type pongEvent struct{ N int }

func TestFireEventBroadcastsToEveryHandler(t *testing.T) {
	d := New(4)
	const k = 3
	providers := make([]*Provider[pingEvent], k)
	for i := range providers {
		providers[i] = Handler[pingEvent](d)
	}

	ok := FireEvent(d, Context{Bus: d}, pingEvent{N: 7})
	if !ok {
		t.Fatalf("FireEvent returned false with %d subscribers", k)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i, p := range providers {
		_, evt, ok := p.Recv(ctx)
		if !ok {
			t.Fatalf("subscriber %d got no event", i)
		}
		if evt.N != 7 {
			t.Fatalf("subscriber %d got N=%d, want 7", i, evt.N)
		}
	}
}

func TestFireEventNoSubscribersReturnsFalse(t *testing.T) {
	d := New(4)
	if FireEvent(d, Context{Bus: d}, pingEvent{N: 1}) {
		t.Fatal("expected false with zero subscribers")
	}
}

func TestEventTypesAreIndependent(t *testing.T) {
	d := New(4)
	pingP := Handler[pingEvent](d)
	_ = Handler[pongEvent](d)

	FireEvent(d, Context{Bus: d}, pingEvent{N: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, evt, ok := pingP.Recv(ctx)
	if !ok || evt.N != 1 {
		t.Fatalf("ping subscriber did not receive its own event: %v %v", evt, ok)
	}
}

func TestClosedProviderStopsReceiving(t *testing.T) {
	d := New(4)
	p := Handler[pingEvent](d)
	p.Close()

	// Firing after the only subscriber closed must report no subscribers.
	if FireEvent(d, Context{Bus: d}, pingEvent{N: 1}) {
		t.Fatal("expected false after sole subscriber closed")
	}
}

func TestLaggedSubscriberDoesNotBlockPublisher(t *testing.T) {
	d := New(1)
	p := Handler[pingEvent](d)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			FireEvent(d, Context{Bus: d}, pingEvent{N: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("FireEvent blocked on a lagged subscriber")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, ok := p.Recv(ctx); !ok {
		t.Fatal("expected at least the buffered event to be received")
	}
}
