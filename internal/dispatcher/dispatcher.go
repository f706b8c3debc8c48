// Package dispatcher implements the server's in-process typed broadcast
// bus: handlers subscribe to a concrete event type and receive every event
// of that type fired after they subscribed, in FIFO order per subscriber.
// There is no ordering guarantee across event types.
package dispatcher

import (
	"context"
	"reflect"
	"sync"
)

// DefaultBufferSize is the per-subscriber channel capacity used when a
// Dispatcher is constructed with a non-positive buffer size.
const DefaultBufferSize = 20

// Context accompanies every event delivered through the bus. It carries a
// handle back to the Dispatcher so a handler can itself fire follow-up
// events (the completion events a pool task fires re-use the Context its
// dispatch event arrived with). Handlers reach the generator registry,
// worker pool and connection registry through their own receiver state
// rather than through Context. Context is a small value type and is cheap
// to copy/clone.
type Context struct {
	Bus *Dispatcher
}

// entry pairs a Context with the event value delivered alongside it.
type entry[E any] struct {
	ctx Context
	evt E
}

// bus is the type-erased-from-the-outside channel set for one concrete
// event type E. Each subscriber owns an independent buffered channel;
// publishing never blocks on a slow subscriber.
type bus[E any] struct {
	mu      sync.Mutex
	subs    map[int]chan entry[E]
	nextID  int
	bufSize int
}

// Dispatcher is the broadcast bus shared by every connection and handler
// in the server. Buses for concrete event types are created lazily on
// first subscribe, keyed by reflect.Type since Go has no runtime anymap.
type Dispatcher struct {
	mu      sync.RWMutex
	buses   map[reflect.Type]any
	bufSize int
}

// New constructs a Dispatcher whose per-subscriber channels have the given
// capacity. A non-positive size falls back to DefaultBufferSize.
func New(bufSize int) *Dispatcher {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Dispatcher{
		buses:   make(map[reflect.Type]any),
		bufSize: bufSize,
	}
}

func eventType[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

func busFor[E any](d *Dispatcher, create bool) (*bus[E], bool) {
	t := eventType[E]()

	d.mu.RLock()
	if existing, ok := d.buses[t]; ok {
		d.mu.RUnlock()
		return existing.(*bus[E]), true
	}
	d.mu.RUnlock()

	if !create {
		return nil, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.buses[t]; ok {
		return existing.(*bus[E]), true
	}
	nb := &bus[E]{subs: make(map[int]chan entry[E]), bufSize: d.bufSize}
	d.buses[t] = nb
	return nb, true
}

// Provider is a live subscription to event type E, returned by Handler.
type Provider[E any] struct {
	d  *Dispatcher
	b  *bus[E]
	id int
	ch chan entry[E]
}

// Handler subscribes to event type E. The returned Provider receives every
// E fired via FireEvent after this call returns.
func Handler[E any](d *Dispatcher) *Provider[E] {
	b, _ := busFor[E](d, true)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan entry[E], b.bufSize)
	b.subs[id] = ch
	b.mu.Unlock()

	return &Provider[E]{d: d, b: b, id: id, ch: ch}
}

// Recv blocks until an event arrives or ctx is cancelled.
func (p *Provider[E]) Recv(ctx context.Context) (Context, E, bool) {
	select {
	case e, ok := <-p.ch:
		if !ok {
			var zero E
			return Context{}, zero, false
		}
		return e.ctx, e.evt, true
	case <-ctx.Done():
		var zero E
		return Context{}, zero, false
	}
}

// Close unsubscribes the provider. Events fired after Close are not
// delivered to it; Close is idempotent.
func (p *Provider[E]) Close() {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if ch, ok := p.b.subs[p.id]; ok {
		delete(p.b.subs, p.id)
		close(ch)
	}
}

// FireEvent publishes e of type E to every current subscriber. Delivery to
// a lagged subscriber (its channel full) is skipped rather than blocking
// the publisher — lost events are not retried. FireEvent itself never
// suspends, so it is safe to call from a worker-pool task as well as from
// an I/O-bound handler goroutine. It returns true iff at least one
// subscriber existed at publish time.
func FireEvent[E any](d *Dispatcher, ctx Context, e E) bool {
	b, ok := busFor[E](d, false)
	if !ok {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs) == 0 {
		return false
	}

	item := entry[E]{ctx: ctx, evt: e}
	for _, ch := range b.subs {
		select {
		case ch <- item:
		default:
			// subscriber lagged: drop for this subscriber only.
		}
	}
	return true
}
