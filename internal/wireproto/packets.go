package wireproto

import "github.com/voxelterra/server/internal/voxel"

// Packet ids, big-endian u16 on the wire, tagging each frame's body.
const (
	IDProtocolError     uint16 = 0
	IDGenerateRegion    uint16 = 1
	IDGenerateBrush     uint16 = 2
	IDFinishRequest     uint16 = 3
	IDVoxelData         uint16 = 4
	IDRequestGenerators uint16 = 6
	IDListGenerators    uint16 = 7
)

// ProtocolErrorPacket reports a protocol-level condition: an unknown
// generator, a failed generation, or termination. Fatal marks whether the
// sender closes the connection after this frame.
type ProtocolErrorPacket struct {
	Kind  ProtocolErrorKind
	Fatal bool
}

func (ProtocolErrorPacket) ID() uint16 { return IDProtocolError }

// EncodeProtocolError builds the wire frame for a ProtocolErrorPacket.
func EncodeProtocolError(p ProtocolErrorPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteProtocolErrorKind(p.Kind)
	e.WriteBool(p.Fatal)
	return PacketBuffer{ID: IDProtocolError, Body: e.Bytes()}
}

// DecodeProtocolError parses a ProtocolError frame.
func DecodeProtocolError(buf PacketBuffer) (ProtocolErrorPacket, error) {
	if buf.ID != IDProtocolError {
		return ProtocolErrorPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	kind, err := d.ReadProtocolErrorKind()
	if err != nil {
		return ProtocolErrorPacket{}, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return ProtocolErrorPacket{}, err
	}
	return ProtocolErrorPacket{Kind: kind, Fatal: fatal}, nil
}

// GenerateRegionPacket requests a generator fill every chunk intersecting
// a world-space bounding box.
type GenerateRegionPacket struct {
	RequestID uint32
	Bounds    voxel.BoundingBox
	Params    Parameters
}

func (GenerateRegionPacket) ID() uint16 { return IDGenerateRegion }

func EncodeGenerateRegion(p GenerateRegionPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	e.WriteBoundingBox(p.Bounds)
	e.WriteParameters(p.Params)
	return PacketBuffer{ID: IDGenerateRegion, Body: e.Bytes()}
}

func DecodeGenerateRegion(buf PacketBuffer) (GenerateRegionPacket, error) {
	if buf.ID != IDGenerateRegion {
		return GenerateRegionPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return GenerateRegionPacket{}, err
	}
	bounds, err := d.ReadBoundingBox()
	if err != nil {
		return GenerateRegionPacket{}, err
	}
	params, err := d.ReadParameters()
	if err != nil {
		return GenerateRegionPacket{}, err
	}
	return GenerateRegionPacket{RequestID: id, Bounds: bounds, Params: params}, nil
}

// GenerateBrushPacket requests a brush generator anchored at a world-space
// point; the extent of its output is whatever the generator writes.
type GenerateBrushPacket struct {
	RequestID uint32
	Pos       voxel.IVec3
	Params    Parameters
}

func (GenerateBrushPacket) ID() uint16 { return IDGenerateBrush }

func EncodeGenerateBrush(p GenerateBrushPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	e.WriteIVec3(p.Pos)
	e.WriteParameters(p.Params)
	return PacketBuffer{ID: IDGenerateBrush, Body: e.Bytes()}
}

func DecodeGenerateBrush(buf PacketBuffer) (GenerateBrushPacket, error) {
	if buf.ID != IDGenerateBrush {
		return GenerateBrushPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return GenerateBrushPacket{}, err
	}
	pos, err := d.ReadIVec3()
	if err != nil {
		return GenerateBrushPacket{}, err
	}
	params, err := d.ReadParameters()
	if err != nil {
		return GenerateBrushPacket{}, err
	}
	return GenerateBrushPacket{RequestID: id, Pos: pos, Params: params}, nil
}

// FinishRequestPacket tells the peer no more VoxelData frames will follow
// for RequestID.
type FinishRequestPacket struct {
	RequestID uint32
}

func (FinishRequestPacket) ID() uint16 { return IDFinishRequest }

func EncodeFinishRequest(p FinishRequestPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	return PacketBuffer{ID: IDFinishRequest, Body: e.Bytes()}
}

func DecodeFinishRequest(buf PacketBuffer) (FinishRequestPacket, error) {
	if buf.ID != IDFinishRequest {
		return FinishRequestPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return FinishRequestPacket{}, err
	}
	return FinishRequestPacket{RequestID: id}, nil
}

// VoxelDataPacket carries one generated chunk belonging to RequestID.
type VoxelDataPacket struct {
	RequestID uint32
	Chunk     *voxel.Chunk[voxel.Positioned]
}

func (VoxelDataPacket) ID() uint16 { return IDVoxelData }

func EncodeVoxelData(p VoxelDataPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	e.WriteChunk(p.Chunk)
	return PacketBuffer{ID: IDVoxelData, Body: e.Bytes()}
}

func DecodeVoxelData(buf PacketBuffer) (VoxelDataPacket, error) {
	if buf.ID != IDVoxelData {
		return VoxelDataPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return VoxelDataPacket{}, err
	}
	chunk, err := d.ReadChunk()
	if err != nil {
		return VoxelDataPacket{}, err
	}
	return VoxelDataPacket{RequestID: id, Chunk: chunk}, nil
}

// RequestGeneratorsPacket asks the server to list its registered recipe
// names.
type RequestGeneratorsPacket struct {
	RequestID uint32
}

func (RequestGeneratorsPacket) ID() uint16 { return IDRequestGenerators }

func EncodeRequestGenerators(p RequestGeneratorsPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	return PacketBuffer{ID: IDRequestGenerators, Body: e.Bytes()}
}

func DecodeRequestGenerators(buf PacketBuffer) (RequestGeneratorsPacket, error) {
	if buf.ID != IDRequestGenerators {
		return RequestGeneratorsPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return RequestGeneratorsPacket{}, err
	}
	return RequestGeneratorsPacket{RequestID: id}, nil
}

// ListGeneratorsPacket answers a RequestGenerators with the registered
// recipe names, in no particular order.
type ListGeneratorsPacket struct {
	RequestID  uint32
	Generators []string
}

func (ListGeneratorsPacket) ID() uint16 { return IDListGenerators }

func EncodeListGenerators(p ListGeneratorsPacket) PacketBuffer {
	e := NewEncoder()
	e.WriteU32(p.RequestID)
	e.WriteU64(uint64(len(p.Generators)))
	for _, name := range p.Generators {
		e.WriteString(name)
	}
	return PacketBuffer{ID: IDListGenerators, Body: e.Bytes()}
}

func DecodeListGenerators(buf PacketBuffer) (ListGeneratorsPacket, error) {
	if buf.ID != IDListGenerators {
		return ListGeneratorsPacket{}, ErrMismatchedID
	}
	d := NewDecoder(buf.Body)
	id, err := d.ReadU32()
	if err != nil {
		return ListGeneratorsPacket{}, err
	}
	n, err := d.ReadU64()
	if err != nil {
		return ListGeneratorsPacket{}, err
	}
	names := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		name, err := d.ReadString()
		if err != nil {
			return ListGeneratorsPacket{}, err
		}
		names = append(names, name)
	}
	return ListGeneratorsPacket{RequestID: id, Generators: names}, nil
}
