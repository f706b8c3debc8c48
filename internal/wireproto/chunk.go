package wireproto

import "github.com/voxelterra/server/internal/voxel"

const (
	chunkPositionKey uint32 = 0
	chunkStorageKey  uint32 = 1
)

// WriteChunk writes a positioned chunk as the 2-entry map the wire format
// describes: a u64 entry count, then (key, value) pairs for the chunk-grid
// position and the flat voxel storage, keyed 0 and 1 respectively.
func (e *Encoder) WriteChunk(c *voxel.Chunk[voxel.Positioned]) {
	e.WriteU64(2)

	e.WriteU32(chunkPositionKey)
	e.WriteIVec3(voxel.PositionOf(c))

	e.WriteU32(chunkStorageKey)
	slots := c.LocalSlots()
	e.WriteU64(uint64(len(slots)))
	for _, s := range slots {
		block, present := s.Option()
		e.WriteOptionBlock(block, present)
	}
}

// ReadChunk reads a positioned chunk in the layout WriteChunk produces.
func (d *Decoder) ReadChunk() (*voxel.Chunk[voxel.Positioned], error) {
	entries, err := d.ReadU64()
	if err != nil {
		return nil, err
	}
	if entries != 2 {
		return nil, ErrMalformedChunk
	}

	key, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if key != chunkPositionKey {
		return nil, ErrMalformedChunk
	}
	pos, err := d.ReadIVec3()
	if err != nil {
		return nil, err
	}

	key, err = d.ReadU32()
	if err != nil {
		return nil, err
	}
	if key != chunkStorageKey {
		return nil, ErrMalformedChunk
	}
	n, err := d.ReadU64()
	if err != nil {
		return nil, err
	}
	if n != uint64(voxel.Volume) {
		return nil, ErrMalformedChunk
	}

	var slots [voxel.Volume]voxel.VoxelSlot
	for i := range slots {
		block, present, err := d.ReadOptionBlock()
		if err != nil {
			return nil, err
		}
		if present {
			slots[i] = voxel.Occupied(block)
		} else {
			slots[i] = voxel.EmptySlot
		}
	}

	return voxel.NewPositionedFromLocalSlots(pos, slots), nil
}
