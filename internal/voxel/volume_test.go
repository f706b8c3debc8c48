package voxel

import "testing"

func TestBoundedVolumeInvariants(t *testing.T) {
	bb := BoundingBox{Min: IVec3{}, Max: IVec3{X: 16, Y: 16, Z: 16}}
	v := NewBoundedVolume(bb)

	for x := int64(0); x < 16; x++ {
		for y := int64(0); y < 16; y++ {
			for z := int64(0); z < 16; z++ {
				p := IVec3{X: x, Y: y, Z: z}
				if !v.Set(p, BlockId(99)) {
					t.Fatalf("Set(%v) should succeed inside bounds", p)
				}
			}
		}
	}

	for x := int64(0); x < 16; x++ {
		for y := int64(0); y < 16; y++ {
			for z := int64(0); z < 16; z++ {
				p := IVec3{X: x, Y: y, Z: z}
				if slot := v.Get(p); slot.Kind != SlotOccupied || slot.Block != 99 {
					t.Fatalf("Get(%v) = %+v, want Occupied(99)", p, slot)
				}
			}
		}
	}

	outside := IVec3{X: 16, Y: 0, Z: 0}
	if v.Set(outside, BlockId(1)) {
		t.Fatal("Set outside bounding box should fail")
	}
	if slot := v.Get(outside); slot.Kind != SlotOutOfBounds {
		t.Fatalf("Get outside box = %+v, want OutOfBounds", slot)
	}

	unwritten := IVec3{X: 1, Y: 1, Z: 1}
	fresh := NewBoundedVolume(bb)
	if slot := fresh.Get(unwritten); slot.Kind != SlotEmpty {
		t.Fatalf("Get unwritten-but-inside = %+v, want Empty", slot)
	}
}

func TestUnboundedVolumeInvariants(t *testing.T) {
	v := NewUnboundedVolume()
	p := IVec3{X: 1000, Y: -500, Z: 3}

	if slot := v.Get(p); slot.Kind != SlotEmpty {
		t.Fatalf("Get before any Set = %+v, want Empty", slot)
	}

	if !v.Set(p, BlockId(7)) {
		t.Fatal("Set on unbounded volume must always succeed")
	}
	if block, ok := v.Get(p).Option(); !ok || block != 7 {
		t.Fatalf("Get after Set = (%v,%v), want (7,true)", block, ok)
	}
}

func TestVolumeChunksRelabeled(t *testing.T) {
	v := NewUnboundedVolume()
	v.Set(IVec3{X: 0, Y: 0, Z: 0}, BlockId(1))
	v.Set(IVec3{X: 16, Y: 0, Z: 0}, BlockId(2))

	chunks := v.Chunks()
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	seen := map[IVec3]bool{}
	for _, c := range chunks {
		seen[PositionOf(c)] = true
	}
	if !seen[IVec3{0, 0, 0}] || !seen[IVec3{1, 0, 0}] {
		t.Fatalf("unexpected grid positions: %+v", seen)
	}
}
