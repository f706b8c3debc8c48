package voxel

// IndexSpace identifies the coordinate space an index into a chunk is
// expressed in. Client bindings hand indexes over in whichever space is
// natural for them; ToLocal normalizes before storage access.
type IndexSpace int

const (
	// LocalSpace indexes are already chunk-local, in [0,16)^3.
	LocalSpace IndexSpace = iota
	// ChunkRelativeSpace indexes are offsets from the chunk's bounding
	// box minimum. For uniform 16^3 chunks this coincides with LocalSpace.
	ChunkRelativeSpace
	// WorldSpace indexes are absolute world voxel coordinates.
	WorldSpace
)

// ToLocal converts idx, expressed in space, to the local coordinate of a
// chunk whose world bounding box is bb. Pure; no bounds check is applied —
// feed the result to GetLocal/SetLocal, which reject out-of-range values.
func ToLocal(space IndexSpace, idx IVec3, bb BoundingBox) IVec3 {
	switch space {
	case WorldSpace:
		return idx.Sub(bb.Min)
	default:
		return idx
	}
}
