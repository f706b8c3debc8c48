package voxel

import "fmt"

// IVec3 is an integer 3-vector used for chunk-grid and world-voxel
// coordinates throughout the server.
type IVec3 struct {
	X, Y, Z int64
}

func (v IVec3) Add(o IVec3) IVec3 {
	return IVec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v IVec3) Sub(o IVec3) IVec3 {
	return IVec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v IVec3) Scale(s int64) IVec3 {
	return IVec3{v.X * s, v.Y * s, v.Z * s}
}

func (v IVec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// ChunkGridPos returns the chunk-grid coordinate containing the given
// world voxel coordinate, i.e. floor(v / Size) component-wise.
func (v IVec3) ChunkGridPos() IVec3 {
	return IVec3{floorDiv(v.X, Size), floorDiv(v.Y, Size), floorDiv(v.Z, Size)}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// BoundingBox is a half-open axis-aligned box [Min, Max).
type BoundingBox struct {
	Min, Max IVec3
}

// Contains reports whether the world voxel coordinate p falls within the
// half-open box.
func (b BoundingBox) Contains(p IVec3) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// ChunkBoundingBox returns the half-open world-voxel bounding box of the
// chunk at the given chunk-grid position.
func ChunkBoundingBox(gridPos IVec3) BoundingBox {
	min := gridPos.Scale(Size)
	return BoundingBox{Min: min, Max: min.Add(IVec3{Size, Size, Size})}
}
