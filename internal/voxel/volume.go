package voxel

import "sync"

// VoxelVolume is a sparse mapping from chunk-grid coordinate to an
// Unpositioned chunk. With no bounds it is the "Unbounded" variant from
// spec: Set always materializes a chunk and succeeds, Get outside any
// stored chunk is Empty. With bounds set it is the "Bounded" variant: Set
// outside the box fails, Get outside the box is OutOfBounds, and an
// in-box but unwritten position is Empty.
type VoxelVolume struct {
	bounds *BoundingBox
	chunks map[IVec3]*Chunk[Unpositioned]
	mu     sync.Mutex
}

// NewUnboundedVolume constructs the Unbounded variant.
func NewUnboundedVolume() *VoxelVolume {
	return &VoxelVolume{chunks: make(map[IVec3]*Chunk[Unpositioned])}
}

// NewBoundedVolume constructs the Bounded variant over the given box.
func NewBoundedVolume(bb BoundingBox) *VoxelVolume {
	return &VoxelVolume{bounds: &bb, chunks: make(map[IVec3]*Chunk[Unpositioned])}
}

// Bounds reports the volume's bounding box, if any.
func (v *VoxelVolume) Bounds() (BoundingBox, bool) {
	if v.bounds == nil {
		return BoundingBox{}, false
	}
	return *v.bounds, true
}

// Set writes a block at a world voxel coordinate. It returns false only
// for a Bounded volume when the coordinate falls outside its box.
func (v *VoxelVolume) Set(world IVec3, id BlockId) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bounds != nil && !v.bounds.Contains(world) {
		return false
	}

	gridPos := world.ChunkGridPos()
	c, ok := v.chunks[gridPos]
	if !ok {
		c = NewUnpositioned()
		v.chunks[gridPos] = c
	}

	local := world.Sub(gridPos.Scale(Size))
	return c.SetLocal(local, id)
}

// Get reads the slot at a world voxel coordinate.
func (v *VoxelVolume) Get(world IVec3) VoxelSlot {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bounds != nil && !v.bounds.Contains(world) {
		return OutOfBounds
	}

	gridPos := world.ChunkGridPos()
	c, ok := v.chunks[gridPos]
	if !ok {
		return EmptySlot
	}

	local := world.Sub(gridPos.Scale(Size))
	return c.GetLocal(local)
}

// Chunks returns every stored chunk, each relabeled with its chunk-grid
// position. Order is unspecified.
func (v *VoxelVolume) Chunks() []*Chunk[Positioned] {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]*Chunk[Positioned], 0, len(v.chunks))
	for gridPos, c := range v.chunks {
		out = append(out, ToPositioned(c, gridPos))
	}
	return out
}

// Len reports the number of materialized chunks.
func (v *VoxelVolume) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.chunks)
}
