package wireproto

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/voxelterra/server/internal/voxel"
)

func TestPacketBufferRoundTrip(t *testing.T) {
	region := EncodeGenerateRegion(GenerateRegionPacket{
		RequestID: 420,
		Bounds:    voxel.BoundingBox{Min: voxel.IVec3{}, Max: voxel.IVec3{X: 16, Y: 16, Z: 16}},
		Params:    Parameters{GeneratorName: "DEMO", Extra: map[string]string{"seed": "1"}},
	})

	var wire bytes.Buffer
	if err := WritePacketBuffer(&wire, region, LevelBest); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadPacketBuffer(&wire)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != IDGenerateRegion {
		t.Fatalf("id = %d, want %d", got.ID, IDGenerateRegion)
	}

	decoded, err := DecodeGenerateRegion(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.RequestID != 420 || decoded.Params.GeneratorName != "DEMO" || decoded.Params.Extra["seed"] != "1" {
		t.Fatalf("round-trip mismatch: %+v", decoded)
	}
}

func TestPacketBufferRoundTripEveryType(t *testing.T) {
	chunk := voxel.NewPositioned(voxel.IVec3{X: 1, Y: -2, Z: 3})
	chunk.SetLocal(voxel.IVec3{X: 1, Y: 2, Z: 3}, voxel.BlockId(100))

	cases := []PacketBuffer{
		EncodeProtocolError(ProtocolErrorPacket{Kind: GeneratorNotFoundError{GeneratorName: "X", RequestID: 1}, Fatal: false}),
		EncodeGenerateBrush(GenerateBrushPacket{RequestID: 7, Pos: voxel.IVec3{X: 5, Y: 5, Z: 5}, Params: Parameters{GeneratorName: "BRUSH"}}),
		EncodeFinishRequest(FinishRequestPacket{RequestID: 7}),
		EncodeVoxelData(VoxelDataPacket{RequestID: 7, Chunk: chunk}),
		EncodeRequestGenerators(RequestGeneratorsPacket{RequestID: 9}),
		EncodeListGenerators(ListGeneratorsPacket{RequestID: 9, Generators: []string{"A", "B"}}),
	}

	for _, pb := range cases {
		var wire bytes.Buffer
		if err := WritePacketBuffer(&wire, pb, LevelFast); err != nil {
			t.Fatalf("write id=%d: %v", pb.ID, err)
		}
		got, err := ReadPacketBuffer(&wire)
		if err != nil {
			t.Fatalf("read id=%d: %v", pb.ID, err)
		}
		if got.ID != pb.ID || !bytes.Equal(got.Body, pb.Body) {
			t.Fatalf("round-trip mismatch for id=%d", pb.ID)
		}
	}
}

func TestReadPacketBufferEmptyBody(t *testing.T) {
	var wire bytes.Buffer
	if err := WritePacketBuffer(&wire, PacketBuffer{ID: 0, Body: nil}, LevelFast); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadPacketBuffer(&wire)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != 0 || len(got.Body) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestReadPacketBufferShortBody(t *testing.T) {
	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	zw.Write([]byte{0x00})
	zw.Close()

	var wire bytes.Buffer
	var hb [HeaderSize]byte
	binary.BigEndian.PutUint32(hb[0:4], uint32(deflated.Len()))
	binary.BigEndian.PutUint32(hb[4:8], 1)
	wire.Write(hb[:])
	wire.Write(deflated.Bytes())

	if _, err := ReadPacketBuffer(&wire); err != ErrShortBody {
		t.Fatalf("err = %v, want ErrShortBody", err)
	}
}

func TestReadPacketBufferHeaderOverLimit(t *testing.T) {
	var wire bytes.Buffer
	wire.Write([]byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF})

	if _, err := ReadPacketBuffer(&wire); err != ErrHeaderOverLimit {
		t.Fatalf("err = %v, want ErrHeaderOverLimit", err)
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("fast"); err != nil || l != LevelFast {
		t.Fatalf("fast: %v %v", l, err)
	}
	if l, err := ParseLevel("best"); err != nil || l != LevelBest {
		t.Fatalf("best: %v %v", l, err)
	}
	if l, err := ParseLevel("6"); err != nil || l != 6 {
		t.Fatalf("numeric: %v %v", l, err)
	}
	if _, err := ParseLevel("nonsense"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
