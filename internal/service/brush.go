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

// onGenerateBrushPacket translates an inbound GenerateBrush packet into
// its application event.
func (s *Service) onGenerateBrushPacket(ctx dispatcher.Context, e events.ReceivedPacket[wireproto.GenerateBrushPacket]) {
	dispatcher.FireEvent(ctx.Bus, ctx, events.GenerateBrushEvent{
		RequestID:  e.Packet.RequestID,
		Pos:        e.Packet.Pos,
		Params:     e.Packet.Params,
		Connection: e.Connection,
	})
}

// onGenerateBrush dispatches a brush request. The volume is unbounded: the
// output extent is whatever the generator chooses to write around Pos, and
// the chunk set is read off the volume once Generate returns.
func (s *Service) onGenerateBrush(ctx dispatcher.Context, e events.GenerateBrushEvent) {
	name := e.Params.GeneratorName
	peer := e.Connection.ID()
	s.begin("brush", e.RequestID, peer, name)

	factory, ok := s.generators.LookupBrush(name)
	if !ok {
		s.log.GeneratorNotFound(peer.String(), name, e.RequestID)
		s.fail("brush", e.RequestID, e.Connection, "generator_not_found",
			wireproto.GeneratorNotFoundError{GeneratorName: name, RequestID: e.RequestID})
		return
	}

	var key []byte
	if s.chunks != nil {
		key = cache.BrushKey(name, e.Params, e.Pos)
		if chunks, hit := s.cachedChunks(name, key); hit {
			dispatcher.FireEvent(ctx.Bus, ctx, events.FinishedGeneratingBrushEvent{
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
		s.fail("brush", e.RequestID, e.Connection, "factory",
			wireproto.FactoryError{GeneratorName: name, RequestID: e.RequestID, Details: err.Error()})
		return
	}

	gctx := genreg.GenerationContext{RequestID: e.RequestID, GeneratorName: name}
	volume := voxel.NewUnboundedVolume()
	s.pool.Submit(context.Background(), func() error {
		return gen.Generate(e.Pos, volume, gctx)
	}, func(genErr error) {
		evt := events.FinishedGeneratingBrushEvent{
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

// onBrushFinished consumes the pool's completion event and streams the
// result to the client.
func (s *Service) onBrushFinished(_ dispatcher.Context, e events.FinishedGeneratingBrushEvent) {
	s.complete("brush", e.RequestID, e.Connection, e.GeneratorName, e.Chunks, e.Err)
}
