package wireproto

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/voxelterra/server/internal/voxel"
)

// Encoder accumulates a packet body in the little-endian, length-prefixed
// layout described by the wire format: fixed-width integers are written
// native-width little-endian, and every variable-length sequence (strings,
// vecs, maps) is preceded by its element count as a little-endian u64.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty body encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated body. The slice aliases the encoder's
// internal buffer and must not be retained across further writes.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteI64(v int64) {
	e.WriteU64(uint64(v))
}

// WriteString writes a u64 byte-length prefix followed by the raw UTF-8
// bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteU64(uint64(len(s)))
	e.buf.WriteString(s)
}

// WriteIVec3 writes three little-endian i64 components, X then Y then Z.
func (e *Encoder) WriteIVec3(v voxel.IVec3) {
	e.WriteI64(v.X)
	e.WriteI64(v.Y)
	e.WriteI64(v.Z)
}

// WriteBoundingBox writes a Min/Max pair of IVec3.
func (e *Encoder) WriteBoundingBox(bb voxel.BoundingBox) {
	e.WriteIVec3(bb.Min)
	e.WriteIVec3(bb.Max)
}

// WriteOptionBlock writes Option<BlockId>: a u32 discriminant (0 = None,
// 1 = Some) followed by the block id when present.
func (e *Encoder) WriteOptionBlock(id voxel.BlockId, present bool) {
	if !present {
		e.WriteU32(0)
		return
	}
	e.WriteU32(1)
	e.WriteU32(uint32(id))
}

// Decoder reads a packet body written by Encoder, enforcing bounds on
// every read so a truncated or hostile body surfaces as an error rather
// than a panic.
type Decoder struct {
	r *bytes.Reader
}

// NewDecoder wraps a packet body for sequential reads.
func NewDecoder(body []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(body)}
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("wireproto: read bool: %w", err)
	}
	return b != 0, nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, fmt.Errorf("wireproto: read u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (d *Decoder) ReadU64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, fmt.Errorf("wireproto: read u64: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (d *Decoder) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadU64()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", fmt.Errorf("wireproto: read string body: %w", err)
	}
	return string(buf), nil
}

func (d *Decoder) ReadIVec3() (voxel.IVec3, error) {
	x, err := d.ReadI64()
	if err != nil {
		return voxel.IVec3{}, err
	}
	y, err := d.ReadI64()
	if err != nil {
		return voxel.IVec3{}, err
	}
	z, err := d.ReadI64()
	if err != nil {
		return voxel.IVec3{}, err
	}
	return voxel.IVec3{X: x, Y: y, Z: z}, nil
}

func (d *Decoder) ReadBoundingBox() (voxel.BoundingBox, error) {
	min, err := d.ReadIVec3()
	if err != nil {
		return voxel.BoundingBox{}, err
	}
	max, err := d.ReadIVec3()
	if err != nil {
		return voxel.BoundingBox{}, err
	}
	return voxel.BoundingBox{Min: min, Max: max}, nil
}

// ReadOptionBlock reads Option<BlockId> and reports presence separately,
// mirroring voxel.VoxelSlot.Option's (BlockId, bool) shape.
func (d *Decoder) ReadOptionBlock() (voxel.BlockId, bool, error) {
	tag, err := d.ReadU32()
	if err != nil {
		return 0, false, err
	}
	switch tag {
	case 0:
		return 0, false, nil
	case 1:
		v, err := d.ReadU32()
		if err != nil {
			return 0, false, err
		}
		return voxel.BlockId(v), true, nil
	default:
		return 0, false, ErrUnknownVariant
	}
}
