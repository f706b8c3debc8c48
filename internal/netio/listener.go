package netio

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/wireproto"
)

// ErrListenerNotRunning is returned by Accept when the listener has not
// been started (or has been stopped).
var ErrListenerNotRunning = errors.New("netio: listener is not running")

// Listener owns the bound TCP socket. Start binds it; Stop flips its
// running flag and closes the socket, unblocking any pending Accept.
type Listener struct {
	ln      net.Listener
	running atomic.Bool
}

// Start binds addr ("host:port") and marks the listener running.
func Start(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{ln: ln}
	l.running.Store(true)
	return l, nil
}

// Stop flips the running flag and closes the bound socket.
func (l *Listener) Stop() error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}
	return l.ln.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept awaits one inbound TCP connection. It returns
// ErrListenerNotRunning if the listener was stopped.
func (l *Listener) Accept() (net.Conn, error) {
	if !l.running.Load() {
		return nil, ErrListenerNotRunning
	}
	conn, err := l.ln.Accept()
	if err != nil {
		if !l.running.Load() {
			return nil, ErrListenerNotRunning
		}
		return nil, err
	}
	return conn, nil
}

// Serve loops Accept, wrapping each inbound socket as a Connection and
// registering it, until the listener is stopped. It returns when Accept
// starts failing (normally because Stop was called).
func Serve(l *Listener, reg *Registry, bus *dispatcher.Dispatcher, level wireproto.Level, log *observability.Logger, metrics Metrics) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if !errors.Is(err, ErrListenerNotRunning) {
				log.Error(err, "accept failed")
			}
			return
		}

		c, err := Accept(conn, bus, level, log, metrics)
		if err != nil {
			log.Error(err, "rejecting connection")
			continue
		}
		log.ConnectionAccepted(c.ID().String())
		reg.Add(c)
		go func(c *Connection) {
			<-c.Done()
			reg.Remove(c.ID(), c)
		}(c)
	}
}
