// Package netio implements the per-connection reader/writer state machine,
// the TCP listener, and the live-connection registry. It is the transport
// layer between raw TCP bytes and the dispatcher event bus.
package netio

import (
	"errors"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/events"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/wireproto"
)

// State is a Connection's lifecycle stage.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateTerminating
	StateDead
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	default:
		return "dead"
	}
}

// OutboundQueueCapacity is the default bound on a connection's outbound
// packet queue.
const OutboundQueueCapacity = 128

// Sentinel errors for SendPacket.
var (
	ErrDisconnected      = errors.New("netio: connection is not running")
	ErrOutboundQueueFull = errors.New("netio: outbound queue is full")
)

// Metrics is the subset of observability.Metrics netio updates. Defined
// locally so this package does not need the full metrics type.
type Metrics interface {
	RecordProtocolErrorSent(fatal bool)
	RecordConnectionAccepted()
	RecordConnectionRejected()
	RecordConnectionClosed()
}

// Connection represents one accepted TCP client: independent reader and
// writer goroutines sharing a bounded outbound queue and a running flag.
// The read half is touched only by the reader goroutine and the write
// half only by the writer; per-half mutexes guard against accidental
// reentrancy rather than real contention.
type Connection struct {
	id    netip.AddrPort
	conn  net.Conn
	level wireproto.Level

	bus     *dispatcher.Dispatcher
	log     *observability.Logger
	metrics Metrics

	readMu  sync.Mutex
	writeMu sync.Mutex

	outboundMu     sync.Mutex
	outbound       chan wireproto.PacketBuffer
	outboundClosed bool
	writerDone     chan struct{}

	state         atomic.Int32
	terminateOnce sync.Once
	done          chan struct{}
}

// Accept wraps an already-accepted net.Conn as a Connection, rejecting
// non-IPv4 peers per the connection-id contract, and launches its reader
// and writer goroutines.
func Accept(conn net.Conn, bus *dispatcher.Dispatcher, level wireproto.Level, log *observability.Logger, metrics Metrics) (*Connection, error) {
	addrPort, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		conn.Close()
		if metrics != nil {
			metrics.RecordConnectionRejected()
		}
		return nil, errors.New("netio: could not parse remote address")
	}
	if !addrPort.Addr().Is4() {
		conn.Close()
		if metrics != nil {
			metrics.RecordConnectionRejected()
		}
		return nil, errors.New("netio: non-IPv4 peer rejected")
	}
	if metrics != nil {
		metrics.RecordConnectionAccepted()
	}

	c := &Connection{
		id:         addrPort,
		conn:       conn,
		level:      level,
		bus:        bus,
		log:        log,
		metrics:    metrics,
		outbound:   make(chan wireproto.PacketBuffer, OutboundQueueCapacity),
		writerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
	c.state.Store(int32(StateStarting))
	c.setState(StateRunning)

	go c.readLoop()
	go c.writeLoop()

	return c, nil
}

// ID returns the peer's IPv4 socket address, the connection's identity.
func (c *Connection) ID() netip.AddrPort { return c.id }

// State reports the connection's current lifecycle stage.
func (c *Connection) State() State { return State(c.state.Load()) }

// Done is closed once the connection reaches Dead.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.log.ConnectionStateChanged(c.id.String(), old.String(), s.String())
	}
}

func (c *Connection) running() bool {
	return c.State() == StateRunning
}

// dispatchContext builds the dispatcher.Context attached to every event
// this connection fires.
func (c *Connection) dispatchContext() dispatcher.Context {
	return dispatcher.Context{Bus: c.bus}
}

// SendPacket enqueues a packet for the writer goroutine. It returns
// ErrDisconnected if the connection is not running, or
// ErrOutboundQueueFull if the bounded queue has no room (back-pressure
// from a writer that cannot keep up).
func (c *Connection) SendPacket(buf wireproto.PacketBuffer) error {
	if !c.running() {
		return ErrDisconnected
	}
	c.outboundMu.Lock()
	defer c.outboundMu.Unlock()
	if c.outboundClosed {
		return ErrDisconnected
	}
	select {
	case c.outbound <- buf:
		return nil
	default:
		return ErrOutboundQueueFull
	}
}

// GentleError sends a non-fatal ProtocolError; the connection stays open.
func (c *Connection) GentleError(kind wireproto.ProtocolErrorKind) error {
	if c.metrics != nil {
		c.metrics.RecordProtocolErrorSent(false)
	}
	return c.SendPacket(wireproto.EncodeProtocolError(wireproto.GentleError(kind)))
}

// FatalError sends kind as a fatal ProtocolError and tears the connection
// down.
func (c *Connection) FatalError(kind wireproto.ProtocolErrorKind) error {
	if c.metrics != nil {
		c.metrics.RecordProtocolErrorSent(true)
	}
	notice := wireproto.EncodeProtocolError(wireproto.FatalError(kind))
	return c.shutdown(&notice)
}

// Terminate is a best-effort fatal ProtocolError{Terminated} notice
// followed by tearing the connection down. It is idempotent.
func (c *Connection) Terminate() {
	notice := wireproto.EncodeProtocolError(wireproto.FatalError(wireproto.TerminatedError{Details: "Server stopped"}))
	_ = c.shutdown(&notice)
}

// drainTimeout bounds how long shutdown waits for the writer to flush the
// outbound queue before closing the socket out from under it.
const drainTimeout = 3 * time.Second

// shutdown performs the one-time teardown: best-effort enqueue of notice,
// draining the outbound queue so the notice reaches the peer, then closing
// the socket and transitioning to Dead. Whichever of Terminate/FatalError
// calls it first wins; later calls are no-ops, matching terminate()'s
// idempotence contract.
func (c *Connection) shutdown(notice *wireproto.PacketBuffer) error {
	var sendErr error
	c.terminateOnce.Do(func() {
		wasRunning := c.running()
		c.setState(StateTerminating)

		if wasRunning && notice != nil {
			c.outboundMu.Lock()
			if !c.outboundClosed {
				select {
				case c.outbound <- *notice:
				default:
					sendErr = ErrOutboundQueueFull
				}
			}
			c.outboundMu.Unlock()
		}

		c.outboundMu.Lock()
		if !c.outboundClosed {
			c.outboundClosed = true
			close(c.outbound)
		}
		c.outboundMu.Unlock()

		select {
		case <-c.writerDone:
		case <-time.After(drainTimeout):
		}

		c.setState(StateDead)
		close(c.done)
		c.conn.Close()
		c.log.ConnectionTerminated(c.id.String(), "terminate")
		if c.metrics != nil {
			c.metrics.RecordConnectionClosed()
		}
	})
	return sendErr
}

func (c *Connection) readLoop() {
	for c.running() {
		c.readMu.Lock()
		buf, err := wireproto.ReadPacketBuffer(c.conn)
		c.readMu.Unlock()
		if err != nil {
			c.log.TransportError(c.id.String(), err)
			c.Terminate()
			return
		}

		c.dispatchInbound(buf)
	}
}

// dispatchInbound decodes buf by its id and fires the matching
// ReceivedPacket[T] event. Decode errors and unknown ids are logged but
// never terminate the connection.
func (c *Connection) dispatchInbound(buf wireproto.PacketBuffer) {
	switch buf.ID {
	case wireproto.IDGenerateRegion:
		p, err := wireproto.DecodeGenerateRegion(buf)
		if err != nil {
			c.log.DecodeError(c.id.String(), buf.ID, err)
			return
		}
		c.fireOrWarn(dispatcher.FireEvent(c.bus, c.dispatchContext(), events.ReceivedPacket[wireproto.GenerateRegionPacket]{Connection: c, Packet: p}), buf.ID)
	case wireproto.IDGenerateBrush:
		p, err := wireproto.DecodeGenerateBrush(buf)
		if err != nil {
			c.log.DecodeError(c.id.String(), buf.ID, err)
			return
		}
		c.fireOrWarn(dispatcher.FireEvent(c.bus, c.dispatchContext(), events.ReceivedPacket[wireproto.GenerateBrushPacket]{Connection: c, Packet: p}), buf.ID)
	case wireproto.IDRequestGenerators:
		p, err := wireproto.DecodeRequestGenerators(buf)
		if err != nil {
			c.log.DecodeError(c.id.String(), buf.ID, err)
			return
		}
		c.fireOrWarn(dispatcher.FireEvent(c.bus, c.dispatchContext(), events.ReceivedPacket[wireproto.RequestGeneratorsPacket]{Connection: c, Packet: p}), buf.ID)
	case wireproto.IDProtocolError:
		p, err := wireproto.DecodeProtocolError(buf)
		if err != nil {
			c.log.DecodeError(c.id.String(), buf.ID, err)
			return
		}
		c.fireOrWarn(dispatcher.FireEvent(c.bus, c.dispatchContext(), events.ReceivedPacket[wireproto.ProtocolErrorPacket]{Connection: c, Packet: p}), buf.ID)
	default:
		c.log.UnknownPacketID(c.id.String(), buf.ID)
	}
}

func (c *Connection) fireOrWarn(delivered bool, packetID uint16) {
	if !delivered {
		c.log.UnroutedPacket(c.id.String(), packetID)
	}
}

func (c *Connection) writeLoop() {
	defer close(c.writerDone)
	for buf := range c.outbound {
		c.writeMu.Lock()
		err := wireproto.WritePacketBuffer(c.conn, buf, c.level)
		c.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

var _ events.ConnectionHandle = (*Connection)(nil)
