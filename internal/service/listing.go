package service

import (
	"fmt"
	"sort"

	"github.com/voxelterra/server/internal/dispatcher"
	"github.com/voxelterra/server/internal/events"
	"github.com/voxelterra/server/internal/wireproto"
)

// onRequestGeneratorsPacket translates an inbound RequestGenerators packet
// into its application event.
func (s *Service) onRequestGeneratorsPacket(ctx dispatcher.Context, e events.ReceivedPacket[wireproto.RequestGeneratorsPacket]) {
	dispatcher.FireEvent(ctx.Bus, ctx, events.RequestGeneratorsEvent{
		RequestID:  e.Packet.RequestID,
		Connection: e.Connection,
	})
}

// onRequestGenerators answers with every registered recipe name. Sorted so
// repeated listings are stable for clients that diff them.
func (s *Service) onRequestGenerators(_ dispatcher.Context, e events.RequestGeneratorsEvent) {
	names := s.generators.AllNames()
	sort.Strings(names)
	err := e.Connection.SendPacket(wireproto.EncodeListGenerators(wireproto.ListGeneratorsPacket{
		RequestID:  e.RequestID,
		Generators: names,
	}))
	if err != nil {
		s.log.Error(err, "could not send generator listing")
	}
}

// onPeerProtocolError logs a ProtocolError the client sent to us. The
// server takes no action beyond logging; a client announcing a fatal error
// is expected to close its own end.
func (s *Service) onPeerProtocolError(_ dispatcher.Context, e events.ReceivedPacket[wireproto.ProtocolErrorPacket]) {
	s.log.PeerProtocolError(e.Connection.ID().String(), fmt.Sprintf("%T", e.Packet.Kind), e.Packet.Fatal)
}
