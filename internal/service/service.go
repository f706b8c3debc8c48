// Package service is the handler glue between the dispatcher bus and the
// generation machinery: it subscribes to the typed packet events every
// Connection fires, translates them into application events, routes those
// to the generator registry and worker pool, and turns completion events
// back into outbound VoxelData/FinishRequest/ProtocolError packets.
package service

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxelterra/server/internal/cache"
	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/events"
	"github.com/voxelterra/server/internal/genreg"
	"github.com/voxelterra/server/internal/observability"
	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

// Service owns the handler goroutines. One Service instance serves every
// connection; per-request state lives in the inflight map, keyed by the
// (request id, peer address) pair that names a request.
type Service struct {
	log        *observability.Logger
	metrics    *observability.Metrics
	generators *genreg.Registry
	pool       *genreg.Pool
	chunks     *cache.Cache // nil disables the result cache
	tracer     trace.Tracer

	mu       sync.Mutex
	inflight map[requestKey]*inflightRequest
}

// requestKey names one in-flight request: the client-chosen request id
// scoped to the originating connection's peer address.
type requestKey struct {
	requestID uint32
	peer      netip.AddrPort
}

type inflightRequest struct {
	correlationID string
	startedAt     time.Time
	span          trace.Span
}

// New builds a Service over the given registry, pool and (optional) chunk
// cache. Metrics may be nil; logging may not.
func New(generators *genreg.Registry, pool *genreg.Pool, chunks *cache.Cache, log *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		log:        log,
		metrics:    metrics,
		generators: generators,
		pool:       pool,
		chunks:     chunks,
		tracer:     otel.Tracer("voxelterra/service"),
		inflight:   make(map[requestKey]*inflightRequest),
	}
}

// Start subscribes every handler on bus and launches its loop. Handler
// goroutines exit when ctx is cancelled.
func (s *Service) Start(ctx context.Context, bus *dispatcher.Dispatcher) {
	runHandler(ctx, bus, s.onGenerateRegionPacket)
	runHandler(ctx, bus, s.onGenerateBrushPacket)
	runHandler(ctx, bus, s.onRequestGeneratorsPacket)
	runHandler(ctx, bus, s.onPeerProtocolError)
	runHandler(ctx, bus, s.onGenerateRegion)
	runHandler(ctx, bus, s.onGenerateBrush)
	runHandler(ctx, bus, s.onRequestGenerators)
	runHandler(ctx, bus, s.onRegionFinished)
	runHandler(ctx, bus, s.onBrushFinished)
}

// runHandler subscribes to event type E and pumps deliveries into handle
// until ctx is cancelled.
func runHandler[E any](ctx context.Context, bus *dispatcher.Dispatcher, handle func(dispatcher.Context, E)) {
	p := dispatcher.Handler[E](bus)
	go func() {
		defer p.Close()
		for {
			dctx, evt, ok := p.Recv(ctx)
			if !ok {
				return
			}
			handle(dctx, evt)
		}
	}()
}

// begin opens the tracking entry for a request: a correlation id, a start
// timestamp for the duration histogram, and a tracing span covering the
// request from dispatch to FinishRequest.
func (s *Service) begin(kind string, requestID uint32, peer netip.AddrPort, generatorName string) {
	corr := uuid.NewString()
	_, span := s.tracer.Start(context.Background(), "generate."+kind,
		trace.WithAttributes(
			attribute.String("correlation_id", corr),
			attribute.Int64("request_id", int64(requestID)),
			attribute.String("generator_name", generatorName),
			attribute.String("peer", peer.String()),
		))

	s.mu.Lock()
	s.inflight[requestKey{requestID: requestID, peer: peer}] = &inflightRequest{
		correlationID: corr,
		startedAt:     time.Now(),
		span:          span,
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordRequestDispatched(kind)
	}
	s.log.RequestDispatched(peer.String(), generatorName, requestID, kind, corr)
}

// take removes and returns a request's tracking entry, or nil if the
// request was never tracked (a duplicate completion, for instance).
func (s *Service) take(requestID uint32, peer netip.AddrPort) *inflightRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := requestKey{requestID: requestID, peer: peer}
	r := s.inflight[k]
	delete(s.inflight, k)
	return r
}

// fail drops a request: closes its span, counts the failure, and replies
// with a gentle protocol error. The connection stays open.
func (s *Service) fail(kind string, requestID uint32, conn events.ConnectionHandle, stage string, pkt wireproto.ProtocolErrorKind) {
	if r := s.take(requestID, conn.ID()); r != nil {
		r.span.SetAttributes(attribute.String("failure_stage", stage))
		r.span.End()
	}
	if s.metrics != nil {
		s.metrics.RecordRequestFailed(kind, stage)
	}
	if err := conn.GentleError(pkt); err != nil {
		s.log.Error(err, "could not deliver protocol error")
	}
}

// complete streams a finished request's chunks to the client followed by
// FinishRequest, or a gentle GenerationError if the generator failed. A
// send failure means the connection terminated mid-request; the remaining
// result is dropped silently.
func (s *Service) complete(kind string, requestID uint32, conn events.ConnectionHandle, generatorName string, chunks []*voxel.Chunk[voxel.Positioned], genErr error) {
	peer := conn.ID()

	if genErr != nil {
		s.log.GenerationFailed(peer.String(), generatorName, requestID, genErr)
		s.fail(kind, requestID, conn, "generate",
			wireproto.GenerationError{GeneratorName: generatorName, RequestID: requestID, Details: genErr.Error()})
		return
	}

	for _, c := range chunks {
		if err := conn.SendPacket(wireproto.EncodeVoxelData(wireproto.VoxelDataPacket{RequestID: requestID, Chunk: c})); err != nil {
			s.dropResult(requestID, peer)
			return
		}
	}
	if err := conn.SendPacket(wireproto.EncodeFinishRequest(wireproto.FinishRequestPacket{RequestID: requestID})); err != nil {
		s.dropResult(requestID, peer)
		return
	}

	duration := 0.0
	if r := s.take(requestID, peer); r != nil {
		duration = time.Since(r.startedAt).Seconds()
		r.span.SetAttributes(attribute.Int("chunk_count", len(chunks)))
		r.span.End()
	}
	if s.metrics != nil {
		s.metrics.RecordRequestCompleted(kind, duration, len(chunks))
	}
	s.log.RequestCompleted(peer.String(), requestID, len(chunks))
}

func (s *Service) dropResult(requestID uint32, peer netip.AddrPort) {
	if r := s.take(requestID, peer); r != nil {
		r.span.SetAttributes(attribute.Bool("result_dropped", true))
		r.span.End()
	}
}

// cachedChunks serves a request from the chunk result cache. A decode
// failure on a stored value is treated as a miss.
func (s *Service) cachedChunks(bucket string, key []byte) ([]*voxel.Chunk[voxel.Positioned], bool) {
	data, hit, err := s.chunks.Get(bucket, key)
	if err != nil {
		s.log.Error(err, "chunk cache read failed")
	}
	if err == nil && hit {
		chunks, decErr := decodeChunkList(data)
		if decErr == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return chunks, true
		}
		s.log.Error(decErr, "chunk cache entry undecodable, ignoring")
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(false)
	}
	return nil, false
}

func (s *Service) storeChunks(bucket string, key []byte, chunks []*voxel.Chunk[voxel.Positioned]) {
	if s.chunks == nil || key == nil {
		return
	}
	if err := s.chunks.Put(bucket, key, encodeChunkList(chunks)); err != nil {
		s.log.Error(err, "chunk cache write failed")
	}
}
