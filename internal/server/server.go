// Package server assembles the terrain server from its parts: the TCP
// listener and connection registry, the dispatcher bus, the generator
// registry and worker pool, the chunk result cache, and the service
// handlers, under a single Start/Shutdown lifecycle.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/voxelterra/server/internal/cache"
	"github.com/voxelterra/server/internal/config"
	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/genreg"
	"github.com/voxelterra/server/internal/netio"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/service"
	"github.com/voxelterra/server/internal/wireproto"
)

// Server is one terrain server instance. Construct with New, register
// recipes through Generators, then Start. Shutdown notifies every live
// client before closing.
type Server struct {
	cfg     *config.Config
	log     *observability.Logger
	metrics *observability.Metrics
	level   wireproto.Level

	bus         *dispatcher.Dispatcher
	generators  *genreg.Registry
	connections *netio.Registry
	pool        *genreg.Pool
	chunkCache  *cache.Cache
	svc         *service.Service

	listener     *netio.Listener
	cancel       context.CancelFunc
	serveDone    chan struct{}
	shutdownOnce sync.Once
}

// New builds a stopped Server from cfg. Metrics may be nil (tests);
// log may not.
func New(cfg *config.Config, log *observability.Logger, metrics *observability.Metrics) (*Server, error) {
	level, err := wireproto.ParseLevel(cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}

	pool := genreg.NewPool(cfg.WorkerCount)
	if cfg.Coarsening > 0 {
		pool.WithCoarsening(rate.NewLimiter(rate.Limit(cfg.Coarsening), cfg.Coarsening))
	}

	var chunkCache *cache.Cache
	if cfg.CachePath != "" {
		chunkCache, err = cache.Open(cfg.CachePath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("server: open chunk cache: %w", err)
		}
	}

	generators := genreg.NewRegistry()
	return &Server{
		cfg:         cfg,
		log:         log,
		metrics:     metrics,
		level:       level,
		bus:         dispatcher.New(cfg.EventBufferSize),
		generators:  generators,
		connections: netio.NewRegistry(),
		pool:        pool,
		chunkCache:  chunkCache,
		svc:         service.New(generators, pool, chunkCache, log, metrics),
	}, nil
}

// Generators exposes the recipe registry so the embedding host can
// register its region and brush recipes before Start.
func (s *Server) Generators() *genreg.Registry { return s.generators }

// Pool exposes the generation worker pool, mainly for health reporting.
func (s *Server) Pool() *genreg.Pool { return s.pool }

// Start binds the listener, launches the service handlers and the accept
// loop, and begins the cache GC sweep if a cache is configured.
func (s *Server) Start() error {
	ln, err := netio.Start(s.cfg.BindAddress)
	if err != nil {
		return err
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.svc.Start(ctx, s.bus)

	var nm netio.Metrics
	if s.metrics != nil {
		nm = s.metrics
	}

	s.serveDone = make(chan struct{})
	go func() {
		defer close(s.serveDone)
		netio.Serve(ln, s.connections, s.bus, s.level, s.log, nm)
	}()

	if s.chunkCache != nil && s.cfg.CacheGCInterval > 0 {
		go s.cacheGCLoop(ctx)
	}

	s.log.Info("terrain server listening on " + ln.Addr().String())
	return nil
}

// Addr returns the listener's bound address. Only valid after Start.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Shutdown sends every live client a fatal ProtocolError{Terminated},
// stops the listener and handler goroutines, and drains the worker pool.
// In-flight generation tasks run to completion; their results are dropped
// when the send fails. Shutdown is idempotent.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.connections.DisconnectAll()
		if s.listener != nil {
			_ = s.listener.Stop()
			<-s.serveDone
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.pool.Close()
		if s.chunkCache != nil {
			_ = s.chunkCache.Close()
		}
		s.log.Info("terrain server stopped")
	})
}

func (s *Server) cacheGCLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.CacheGCInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			removed, err := s.chunkCache.GC(s.cfg.CacheMaxAge)
			if err != nil {
				s.log.Error(err, "chunk cache GC failed")
			} else if removed > 0 {
				s.log.Info(fmt.Sprintf("chunk cache GC removed %d entries", removed))
			}
		}
	}
}
