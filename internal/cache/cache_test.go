package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheMissThenHit(t *testing.T) {
	c := openTestCache(t)

	bounds := voxel.BoundingBox{Min: voxel.IVec3{}, Max: voxel.IVec3{X: 16, Y: 16, Z: 16}}
	params := wireproto.Parameters{GeneratorName: "DEMO"}
	key := RegionKey("DEMO", params, bounds)

	if _, ok, err := c.Get("DEMO", key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Put("DEMO", key, []byte("chunk-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	val, ok, err := c.Get("DEMO", key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "chunk-bytes" {
		t.Fatalf("val = %q", val)
	}
}

func TestRegionKeyIsDeterministicAndParamSensitive(t *testing.T) {
	bounds := voxel.BoundingBox{Min: voxel.IVec3{}, Max: voxel.IVec3{X: 16, Y: 16, Z: 16}}
	p1 := wireproto.Parameters{GeneratorName: "DEMO", Extra: map[string]string{"seed": "1", "biome": "plains"}}
	p2 := wireproto.Parameters{GeneratorName: "DEMO", Extra: map[string]string{"biome": "plains", "seed": "1"}}

	k1 := RegionKey("DEMO", p1, bounds)
	k2 := RegionKey("DEMO", p2, bounds)
	if string(k1) != string(k2) {
		t.Fatal("key should be insensitive to map iteration order")
	}

	p3 := wireproto.Parameters{GeneratorName: "DEMO", Extra: map[string]string{"seed": "2", "biome": "plains"}}
	k3 := RegionKey("DEMO", p3, bounds)
	if string(k1) == string(k3) {
		t.Fatal("differing params must produce differing keys")
	}
}

func TestRegionAndBrushKeysDiffer(t *testing.T) {
	params := wireproto.Parameters{GeneratorName: "DEMO"}
	bounds := voxel.BoundingBox{Min: voxel.IVec3{}, Max: voxel.IVec3{X: 16, Y: 16, Z: 16}}
	regionKey := RegionKey("DEMO", params, bounds)
	brushKey := BrushKey("DEMO", params, voxel.IVec3{})
	if string(regionKey) == string(brushKey) {
		t.Fatal("region and brush keys must not collide")
	}
}

func TestCacheGC(t *testing.T) {
	c := openTestCache(t)
	key := RegionKey("DEMO", wireproto.Parameters{GeneratorName: "DEMO"}, voxel.BoundingBox{Max: voxel.IVec3{X: 16, Y: 16, Z: 16}})

	if err := c.Put("DEMO", key, []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removed, err := c.GC(-time.Minute)
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, ok, _ := c.Get("DEMO", key); ok {
		t.Fatal("expected entry to be gone after GC")
	}
}
