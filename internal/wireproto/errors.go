package wireproto

import "errors"

// Sentinel errors surfaced by codec operations. A netio connection treats
// a ReadPacketBuffer failure (ErrShortBody, ErrHeaderOverLimit) as a
// transport-layer failure and tears itself down; a body decode failure
// (ErrMismatchedID, ErrUnknownVariant, ErrMalformedChunk) is logged and
// only that packet is dropped. None of them reach application packet
// handlers.
var (
	ErrShortBody       = errors.New("wireproto: decompressed body is under 2 bytes")
	ErrMismatchedID    = errors.New("wireproto: packet id does not match requested type")
	ErrUnknownVariant  = errors.New("wireproto: unknown enum discriminant")
	ErrMalformedChunk  = errors.New("wireproto: positioned-chunk map has unexpected shape")
	ErrHeaderOverLimit = errors.New("wireproto: declared frame length exceeds maximum frame size")
)

// MaxDecompressedLen bounds both the compressed_len and the
// decompressed_len a peer may declare in a frame header. It exists only to keep a hostile or corrupt header from
// making ReadPacketBuffer allocate an unbounded buffer; it is far above
// the size of any legitimate region/brush packet.
const MaxDecompressedLen = 64 << 20

// ProtocolErrorKind is the payload of a ProtocolError packet. Concrete
// variants are the struct types below; a type switch distinguishes them on
// encode and ReadProtocolErrorKind's discriminant does the same on decode.
type ProtocolErrorKind interface {
	wireTag() uint32
}

// OtherError carries a free-form diagnostic unrelated to any specific
// request.
type OtherError struct {
	Details string
}

func (OtherError) wireTag() uint32 { return 0 }

// GeneratorNotFoundError reports that a request named a generator with no
// matching registry entry.
type GeneratorNotFoundError struct {
	GeneratorName string
	RequestID     uint32
}

func (GeneratorNotFoundError) wireTag() uint32 { return 1 }

// GenerationError reports that a generator's Generate call returned an
// error for a specific request.
type GenerationError struct {
	GeneratorName string
	RequestID     uint32
	Details       string
}

func (GenerationError) wireTag() uint32 { return 2 }

// FactoryError reports that instantiating a generator from its factory
// failed for a specific request.
type FactoryError struct {
	GeneratorName string
	RequestID     uint32
	Details       string
}

func (FactoryError) wireTag() uint32 { return 3 }

// TerminatedError is sent to every connection as the server shuts down.
type TerminatedError struct {
	Details string
}

func (TerminatedError) wireTag() uint32 { return 4 }
