package voxel

import "math"

// positionStatus is the type-level tag distinguishing an abstract chunk
// from one anchored at a chunk-grid coordinate. Only Positioned exposes a
// concrete world origin; Unpositioned's origin is implicitly zero.
type positionStatus interface {
	origin() IVec3
}

// Unpositioned tags a chunk with no world anchor.
type Unpositioned struct{}

func (Unpositioned) origin() IVec3 { return IVec3{} }

// Positioned tags a chunk anchored at a chunk-grid coordinate.
type Positioned struct {
	Pos IVec3
}

func (p Positioned) origin() IVec3 { return p.Pos.Scale(Size) }

type cell struct {
	present bool
	block   BlockId
}

// Chunk is a 16x16x16 cube of optional blocks, tagged Unpositioned or
// Positioned. The storage is heap-allocated once and moved (not copied)
// between position states by ToPositioned/ToUnpositioned.
type Chunk[P positionStatus] struct {
	storage *[Volume]cell
	pos     P
}

// NewUnpositioned returns an empty chunk with no world anchor.
func NewUnpositioned() *Chunk[Unpositioned] {
	return &Chunk[Unpositioned]{storage: &[Volume]cell{}, pos: Unpositioned{}}
}

// NewPositioned returns an empty chunk anchored at the given chunk-grid
// position.
func NewPositioned(pos IVec3) *Chunk[Positioned] {
	return &Chunk[Positioned]{storage: &[Volume]cell{}, pos: Positioned{Pos: pos}}
}

// ToPositioned anchors an unpositioned chunk at a chunk-grid position,
// transferring its storage without copying.
func ToPositioned(c *Chunk[Unpositioned], pos IVec3) *Chunk[Positioned] {
	return &Chunk[Positioned]{storage: c.storage, pos: Positioned{Pos: pos}}
}

// ToUnpositioned discards a chunk's world anchor, transferring its storage
// without copying.
func ToUnpositioned(c *Chunk[Positioned]) *Chunk[Unpositioned] {
	return &Chunk[Unpositioned]{storage: c.storage, pos: Unpositioned{}}
}

// PositionOf returns a positioned chunk's chunk-grid coordinate.
func PositionOf(c *Chunk[Positioned]) IVec3 {
	return c.pos.Pos
}

// BoundingBoxOf returns a positioned chunk's half-open world bounding box.
func BoundingBoxOf(c *Chunk[Positioned]) BoundingBox {
	return ChunkBoundingBox(c.pos.Pos)
}

func localIndex(local IVec3) (int, bool) {
	if local.X < 0 || local.X >= Size ||
		local.Y < 0 || local.Y >= Size ||
		local.Z < 0 || local.Z >= Size {
		return 0, false
	}
	return int(local.Z*Size*Size + local.Y*Size + local.X), true
}

// SetLocal writes a block at a chunk-local coordinate in [0,16)^3.
func (c *Chunk[P]) SetLocal(local IVec3, id BlockId) bool {
	idx, ok := localIndex(local)
	if !ok {
		return false
	}
	c.storage[idx] = cell{present: true, block: id}
	return true
}

// GetLocal reads the slot at a chunk-local coordinate.
func (c *Chunk[P]) GetLocal(local IVec3) VoxelSlot {
	idx, ok := localIndex(local)
	if !ok {
		return OutOfBounds
	}
	cl := c.storage[idx]
	if !cl.present {
		return EmptySlot
	}
	return Occupied(cl.block)
}

// Set writes a block at a world voxel coordinate, translating through the
// chunk's origin. Returns false if the coordinate falls outside the chunk.
func (c *Chunk[P]) Set(world IVec3, id BlockId) bool {
	return c.SetLocal(world.Sub(c.pos.origin()), id)
}

// Get reads the slot at a world voxel coordinate.
func (c *Chunk[P]) Get(world IVec3) VoxelSlot {
	return c.GetLocal(world.Sub(c.pos.origin()))
}

// LocalSlots renders the chunk's storage as a flat array of slots in
// z-major, y-mid, x-minor order (index = z*Size*Size + y*Size + x) — the
// same order localIndex computes from a local coordinate. Wire encoding
// walks this array directly.
func (c *Chunk[P]) LocalSlots() [Volume]VoxelSlot {
	var out [Volume]VoxelSlot
	for i, cl := range c.storage {
		if cl.present {
			out[i] = Occupied(cl.block)
		} else {
			out[i] = EmptySlot
		}
	}
	return out
}

// NewPositionedFromLocalSlots rebuilds a positioned chunk from a flat slot
// array in the same order LocalSlots produces, as when decoding one off
// the wire.
func NewPositionedFromLocalSlots(pos IVec3, slots [Volume]VoxelSlot) *Chunk[Positioned] {
	c := NewPositioned(pos)
	for i, s := range slots {
		if s.Kind == SlotOccupied {
			c.storage[i] = cell{present: true, block: s.Block}
		}
	}
	return c
}

// SentinelEmpty is the value embedding-host bindings must use for
// Empty/OutOfBounds voxels when converting a chunk to a foreign-runtime
// 3D array, per the wire/embedding contract.
const SentinelEmpty int64 = math.MaxInt64

// ToSentinelArray renders the chunk's storage as a 16x16x16 array of
// signed 64-bit integers indexed [x][y][z], with SentinelEmpty standing in
// for Empty/OutOfBounds voxels and an occupied slot widened to its block
// id. This is the pure conversion step a native host binding calls into;
// it does not itself produce a foreign-runtime object.
func (c *Chunk[P]) ToSentinelArray() [16][16][16]int64 {
	var out [16][16][16]int64
	for z := int64(0); z < Size; z++ {
		for y := int64(0); y < Size; y++ {
			for x := int64(0); x < Size; x++ {
				cl := c.storage[z*Size*Size+y*Size+x]
				if cl.present {
					out[x][y][z] = int64(cl.block)
				} else {
					out[x][y][z] = SentinelEmpty
				}
			}
		}
	}
	return out
}
