package wireproto

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Level selects a zlib compression level for encoding packets. The named
// levels mirror the "fast"/"best"/numeric server parameter from the
// external interface: Fast favors throughput, Best favors wire size.
type Level int

const (
	LevelFast Level = zlib.BestSpeed
	LevelBest Level = zlib.BestCompression
)

// ParseLevel resolves a configured compression level string ("fast",
// "best", or a decimal in the deflate range) to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "fast":
		return LevelFast, nil
	case "best":
		return LevelBest, nil
	default:
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return 0, fmt.Errorf("wireproto: invalid compression level %q", s)
		}
		if n < zlib.NoCompression || n > zlib.BestCompression {
			return 0, fmt.Errorf("wireproto: compression level %d out of range", n)
		}
		return Level(n), nil
	}
}

// Header is the fixed 8-byte frame prefix: the zlib-compressed length of
// the body, and the length it inflates to.
type Header struct {
	CompressedLen   uint32
	DecompressedLen uint32
}

const HeaderSize = 8

// Packet is any concrete packet type this server's wire protocol carries.
// Every packet knows its own type tag.
type Packet interface {
	ID() uint16
}

// PacketBuffer is an undecoded frame body: a 2-byte big-endian id prefix
// plus the remaining application bytes. Construction from a stream
// requires at least 2 bytes, enforced by ReadPacketBuffer.
type PacketBuffer struct {
	ID   uint16
	Body []byte
}

// WritePacketBuffer encodes a PacketBuffer (already-serialised body) to w,
// flushing the frame atomically from the caller's perspective.
func WritePacketBuffer(w io.Writer, buf PacketBuffer, level Level) error {
	var plain bytes.Buffer
	var idBuf [2]byte
	binary.BigEndian.PutUint16(idBuf[:], buf.ID)
	plain.Write(idBuf[:])
	plain.Write(buf.Body)

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, int(level))
	if err != nil {
		return fmt.Errorf("wireproto: init deflate: %w", err)
	}
	if _, err := zw.Write(plain.Bytes()); err != nil {
		return fmt.Errorf("wireproto: deflate write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("wireproto: deflate close: %w", err)
	}

	var hb [HeaderSize]byte
	binary.BigEndian.PutUint32(hb[0:4], uint32(compressed.Len()))
	binary.BigEndian.PutUint32(hb[4:8], uint32(plain.Len()))
	if _, err := w.Write(hb[:]); err != nil {
		return fmt.Errorf("wireproto: write header: %w", err)
	}
	if _, err := w.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("wireproto: write body: %w", err)
	}
	return nil
}

// ReadPacketBuffer reads one framed packet off r: an 8-byte header, then
// exactly CompressedLen zlib-deflated bytes, inflated and split into id
// and body. It fails with ErrHeaderOverLimit if either declared length
// exceeds MaxDecompressedLen, and ErrShortBody if fewer than 2
// bytes inflate.
func ReadPacketBuffer(r io.Reader) (PacketBuffer, error) {
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return PacketBuffer{}, fmt.Errorf("wireproto: read header: %w", err)
	}
	hdr := Header{
		CompressedLen:   binary.BigEndian.Uint32(hb[0:4]),
		DecompressedLen: binary.BigEndian.Uint32(hb[4:8]),
	}
	if hdr.DecompressedLen > MaxDecompressedLen || hdr.CompressedLen > MaxDecompressedLen {
		return PacketBuffer{}, ErrHeaderOverLimit
	}

	compressed := make([]byte, hdr.CompressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return PacketBuffer{}, fmt.Errorf("wireproto: read body: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return PacketBuffer{}, fmt.Errorf("wireproto: init inflate: %w", err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(io.LimitReader(zr, int64(MaxDecompressedLen)+1))
	if err != nil {
		return PacketBuffer{}, fmt.Errorf("wireproto: inflate: %w", err)
	}
	if len(plain) < 2 {
		return PacketBuffer{}, ErrShortBody
	}

	return PacketBuffer{
		ID:   binary.BigEndian.Uint16(plain[0:2]),
		Body: plain[2:],
	}, nil
}
