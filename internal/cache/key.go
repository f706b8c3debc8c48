package cache

import (
	"sort"

	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
	"github.com/zeebo/blake3"
)

// RegionKey returns the content-addressed key for a region request:
// blake3(generatorName || sorted params.Extra || "region" || bounds).
func RegionKey(generatorName string, params wireproto.Parameters, bounds voxel.BoundingBox) []byte {
	h := newKeyHasher(generatorName, params)
	h.Write([]byte("region"))
	writeIVec3(h, bounds.Min)
	writeIVec3(h, bounds.Max)
	return h.Sum(nil)
}

// BrushKey returns the content-addressed key for a brush request:
// blake3(generatorName || sorted params.Extra || "brush" || pos).
func BrushKey(generatorName string, params wireproto.Parameters, pos voxel.IVec3) []byte {
	h := newKeyHasher(generatorName, params)
	h.Write([]byte("brush"))
	writeIVec3(h, pos)
	return h.Sum(nil)
}

func newKeyHasher(generatorName string, params wireproto.Parameters) *blake3.Hasher {
	h := blake3.New()
	h.Write([]byte(generatorName))

	keys := make([]string, 0, len(params.Extra))
	for k := range params.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(params.Extra[k]))
		h.Write([]byte{0})
	}
	return h
}

func writeIVec3(h *blake3.Hasher, v voxel.IVec3) {
	var buf [24]byte
	putI64(buf[0:8], v.X)
	putI64(buf[8:16], v.Y)
	putI64(buf[16:24], v.Z)
	h.Write(buf[:])
}

func putI64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}
