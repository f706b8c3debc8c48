// Package events defines the event payloads carried over the dispatcher
// bus: the packet-arrival events a Connection fires, the application
// events handlers translate them into, and the completion events the
// worker pool fires back. ConnectionHandle is an interface rather than a
// concrete netio.Connection reference so this package (imported by both
// netio and the handler glue) never has to import netio itself.
package events

import (
	"net/netip"

	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

// ConnectionHandle is the subset of Connection's behavior visible to
// handlers: enough to identify the peer and to reply.
type ConnectionHandle interface {
	ID() netip.AddrPort
	SendPacket(wireproto.PacketBuffer) error
	GentleError(wireproto.ProtocolErrorKind) error
	FatalError(wireproto.ProtocolErrorKind) error
	Terminate()
}

// ReceivedPacket is fired by a Connection's reader loop once per decoded
// inbound packet of concrete type T.
type ReceivedPacket[T wireproto.Packet] struct {
	Connection ConnectionHandle
	Packet     T
}

// GenerateRegionEvent is the application-level translation of a
// GenerateRegion packet, fired by the handler that subscribes to
// ReceivedPacket[GenerateRegionPacket].
type GenerateRegionEvent struct {
	RequestID  uint32
	Region     voxel.BoundingBox
	Params     wireproto.Parameters
	Connection ConnectionHandle
}

// GenerateBrushEvent is the brush-request counterpart of
// GenerateRegionEvent.
type GenerateBrushEvent struct {
	RequestID  uint32
	Pos        voxel.IVec3
	Params     wireproto.Parameters
	Connection ConnectionHandle
}

// RequestGeneratorsEvent is fired for an inbound RequestGenerators packet.
type RequestGeneratorsEvent struct {
	RequestID  uint32
	Connection ConnectionHandle
}

// FinishedGeneratingRegionEvent is fired by the worker pool once a region
// generation task completes. Chunks is nil iff Err is non-nil; otherwise
// it holds every chunk the generator (or a cache hit) produced, each
// already labeled with its chunk-grid position.
type FinishedGeneratingRegionEvent struct {
	RequestID     uint32
	GeneratorName string
	Chunks        []*voxel.Chunk[voxel.Positioned]
	Err           error
	Connection    ConnectionHandle
}

// FinishedGeneratingBrushEvent is the brush-request counterpart of
// FinishedGeneratingRegionEvent.
type FinishedGeneratingBrushEvent struct {
	RequestID     uint32
	GeneratorName string
	Chunks        []*voxel.Chunk[voxel.Positioned]
	Err           error
	Connection    ConnectionHandle
}
