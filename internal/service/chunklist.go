package service

import (
	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

// encodeChunkList serialises a chunk set as a cache value: a u64 count
// followed by each chunk in the same layout the wire codec uses.
func encodeChunkList(chunks []*voxel.Chunk[voxel.Positioned]) []byte {
	e := wireproto.NewEncoder()
	e.WriteU64(uint64(len(chunks)))
	for _, c := range chunks {
		e.WriteChunk(c)
	}
	return append([]byte(nil), e.Bytes()...)
}

func decodeChunkList(data []byte) ([]*voxel.Chunk[voxel.Positioned], error) {
	d := wireproto.NewDecoder(data)
	n, err := d.ReadU64()
	if err != nil {
		return nil, err
	}
	chunks := make([]*voxel.Chunk[voxel.Positioned], 0, n)
	for i := uint64(0); i < n; i++ {
		c, err := d.ReadChunk()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
