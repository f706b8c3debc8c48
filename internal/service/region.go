package service

import (
	"context"

	"github.com/voxelterra/server/internal/cache"
	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/events"
	"github.com/voxelterra/server/internal/genreg"
	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

// onGenerateRegionPacket translates an inbound GenerateRegion packet into
// its application event.
func (s *Service) onGenerateRegionPacket(ctx dispatcher.Context, e events.ReceivedPacket[wireproto.GenerateRegionPacket]) {
	dispatcher.FireEvent(ctx.Bus, ctx, events.GenerateRegionEvent{
		RequestID:  e.Packet.RequestID,
		Region:     e.Packet.Bounds,
		Params:     e.Packet.Params,
		Connection: e.Connection,
	})
}

// onGenerateRegion dispatches a region request: registry lookup, cache
// probe, factory instantiation, then a pool task that runs the generator
// over a bounded volume and fires the completion event.
func (s *Service) onGenerateRegion(ctx dispatcher.Context, e events.GenerateRegionEvent) {
	name := e.Params.GeneratorName
	peer := e.Connection.ID()
	s.begin("region", e.RequestID, peer, name)

	factory, minHeight, maxHeight, defaultVoxel, hasDefault, ok := s.generators.LookupRegion(name)
	if !ok {
		s.log.GeneratorNotFound(peer.String(), name, e.RequestID)
		s.fail("region", e.RequestID, e.Connection, "generator_not_found",
			wireproto.GeneratorNotFoundError{GeneratorName: name, RequestID: e.RequestID})
		return
	}

	var key []byte
	if s.chunks != nil {
		key = cache.RegionKey(name, e.Params, e.Region)
		if chunks, hit := s.cachedChunks(name, key); hit {
			dispatcher.FireEvent(ctx.Bus, ctx, events.FinishedGeneratingRegionEvent{
				RequestID:     e.RequestID,
				GeneratorName: name,
				Chunks:        chunks,
				Connection:    e.Connection,
			})
			return
		}
	}

	gen, err := factory.NewGenerator(e.Params)
	if err != nil {
		s.log.GenerationFailed(peer.String(), name, e.RequestID, err)
		s.fail("region", e.RequestID, e.Connection, "factory",
			wireproto.FactoryError{GeneratorName: name, RequestID: e.RequestID, Details: err.Error()})
		return
	}

	gctx := genreg.GenerationContext{
		RequestID:     e.RequestID,
		GeneratorName: name,
		MinHeight:     minHeight,
		MaxHeight:     maxHeight,
		DefaultVoxel:  defaultVoxel,
		HasDefault:    hasDefault,
	}
	volume := voxel.NewBoundedVolume(e.Region)
	s.pool.Submit(context.Background(), func() error {
		return gen.Generate(volume, gctx)
	}, func(genErr error) {
		evt := events.FinishedGeneratingRegionEvent{
			RequestID:     e.RequestID,
			GeneratorName: name,
			Connection:    e.Connection,
			Err:           genErr,
		}
		if genErr == nil {
			evt.Chunks = volume.Chunks()
			s.storeChunks(name, key, evt.Chunks)
		}
		dispatcher.FireEvent(ctx.Bus, ctx, evt)
	})
	if s.metrics != nil {
		s.metrics.SetQueueDepth(s.pool.QueueDepth())
	}
}

// onRegionFinished consumes the pool's completion event and streams the
// result to the client.
func (s *Service) onRegionFinished(_ dispatcher.Context, e events.FinishedGeneratingRegionEvent) {
	s.complete("region", e.RequestID, e.Connection, e.GeneratorName, e.Chunks, e.Err)
}
