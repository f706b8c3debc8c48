package voxel

import "testing"

func TestChunkIndexingMatchesWorldOffset(t *testing.T) {
	gridPos := IVec3{X: 2, Y: -1, Z: 5}
	c := NewPositioned(gridPos)

	for x := int64(0); x < Size; x++ {
		for y := int64(0); y < Size; y++ {
			for z := int64(0); z < Size; z++ {
				local := IVec3{X: x, Y: y, Z: z}
				world := gridPos.Scale(Size).Add(local)
				if !c.Set(world, BlockId(x+y*16+z*256)) {
					t.Fatalf("Set(%v) failed", world)
				}
			}
		}
	}

	for x := int64(0); x < Size; x++ {
		for y := int64(0); y < Size; y++ {
			for z := int64(0); z < Size; z++ {
				local := IVec3{X: x, Y: y, Z: z}
				world := gridPos.Scale(Size).Add(local)
				got := c.Get(world)
				want := c.GetLocal(local)
				if got != want {
					t.Fatalf("Get(world) = %+v, GetLocal(local) = %+v", got, want)
				}
				if got.Kind != SlotOccupied || got.Block != BlockId(x+y*16+z*256) {
					t.Fatalf("unexpected slot at %v: %+v", local, got)
				}
			}
		}
	}
}

func TestChunkOutOfBoundsLocal(t *testing.T) {
	c := NewPositioned(IVec3{})
	if c.SetLocal(IVec3{X: 16}, BlockId(1)) {
		t.Fatal("expected SetLocal to fail out of bounds")
	}
	if slot := c.GetLocal(IVec3{X: -1}); slot.Kind != SlotOutOfBounds {
		t.Fatalf("expected OutOfBounds, got %+v", slot)
	}
}

func TestChunkRoundTripPositioned(t *testing.T) {
	pos := IVec3{X: 10, Y: 11, Z: 12}
	c := NewPositioned(pos)
	if !c.Set(pos.Scale(Size).Add(IVec3{X: 5, Y: 5, Z: 5}), BlockId(202)) {
		t.Fatal("Set failed")
	}

	unpositioned := ToUnpositioned(c)
	restored := ToPositioned(unpositioned, pos)

	for x := int64(0); x < Size; x++ {
		for y := int64(0); y < Size; y++ {
			for z := int64(0); z < Size; z++ {
				local := IVec3{X: x, Y: y, Z: z}
				if restored.GetLocal(local) != c.GetLocal(local) {
					t.Fatalf("slot mismatch at %v after round trip", local)
				}
			}
		}
	}
}

func TestChunkRoundTripTwice(t *testing.T) {
	pos := IVec3{X: 1, Y: 2, Z: 3}
	c := NewPositioned(pos)
	c.Set(pos.Scale(Size).Add(IVec3{X: 3, Y: 4, Z: 5}), BlockId(7))

	once := ToPositioned(ToUnpositioned(c), pos)
	twice := ToPositioned(ToUnpositioned(once), pos)

	for x := int64(0); x < Size; x++ {
		for y := int64(0); y < Size; y++ {
			for z := int64(0); z < Size; z++ {
				local := IVec3{X: x, Y: y, Z: z}
				if twice.GetLocal(local) != c.GetLocal(local) {
					t.Fatalf("slot mismatch at %v after double round trip", local)
				}
			}
		}
	}
}

func TestBoundingBoxOf(t *testing.T) {
	pos := IVec3{X: 1, Y: 2, Z: 3}
	c := NewPositioned(pos)
	bb := BoundingBoxOf(c)
	want := BoundingBox{Min: IVec3{16, 32, 48}, Max: IVec3{32, 48, 64}}
	if bb != want {
		t.Fatalf("BoundingBoxOf = %+v, want %+v", bb, want)
	}
}

func TestToSentinelArray(t *testing.T) {
	c := NewPositioned(IVec3{})
	c.SetLocal(IVec3{X: 1, Y: 2, Z: 3}, BlockId(42))

	arr := c.ToSentinelArray()
	if arr[1][2][3] != 42 {
		t.Fatalf("expected occupied voxel to widen to 42, got %d", arr[1][2][3])
	}
	if arr[0][0][0] != SentinelEmpty {
		t.Fatalf("expected empty voxel to be sentinel, got %d", arr[0][0][0])
	}
}
