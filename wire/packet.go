// Package wire implements the framed UDP packet envelope and the six body
// types that ride inside it. Every datagram on the link starts with a fixed
// 8-byte header (type, size) followed by a type-specific body; fixed-size
// bodies are always sent at full capacity, with size marking the meaningful
// prefix, so a short read never means a truncated field.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PacketType identifies the body that follows the header.
type PacketType uint32

const (
	TypeAck PacketType = iota
	TypeDisplayport
	TypeDetection
	TypeSysTelemetry
	TypeCmd
	TypeRc
)

func (t PacketType) String() string {
	switch t {
	case TypeAck:
		return "Ack"
	case TypeDisplayport:
		return "Displayport"
	case TypeDetection:
		return "Detection"
	case TypeSysTelemetry:
		return "SysTelemetry"
	case TypeCmd:
		return "Cmd"
	case TypeRc:
		return "Rc"
	default:
		return fmt.Sprintf("PacketType(%d)", uint32(t))
	}
}

func (t PacketType) valid() bool {
	return t <= TypeRc
}

// Size caps from §4.1/§8.
const (
	MaxDisplayportSize = 1500
	MaxCmdDataSize     = 256
	MaxDetectionBoxes  = 64
	MaxRCChannels      = 16

	HeaderSize = 8 // type (u32 LE) + size (u32 LE)
)

// Protocol-level errors. Never fatal — the receive loop drops the packet
// and continues (§7).
var (
	ErrProtocol  = errors.New("wire: protocol error")
	ErrOversize  = errors.New("wire: body exceeds capacity for this packet type")
	ErrTruncated = errors.New("wire: datagram shorter than header")
)

// Header is the 8-byte envelope prefix common to every packet.
type Header struct {
	Type PacketType
	Size uint32 // meaningful prefix length of the body that follows
}

func (h Header) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Type))
	binary.LittleEndian.PutUint32(buf[4:8], h.Size)
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	h := Header{
		Type: PacketType(binary.LittleEndian.Uint32(buf[0:4])),
		Size: binary.LittleEndian.Uint32(buf[4:8]),
	}
	if !h.Type.valid() {
		return Header{}, fmt.Errorf("%w: unknown packet type %d", ErrProtocol, uint32(h.Type))
	}
	return h, nil
}

// capacity returns the on-wire body capacity for a packet type, i.e. the
// number of bytes actually transmitted after the header regardless of the
// meaningful Size prefix.
func capacity(t PacketType) int {
	switch t {
	case TypeAck:
		return 0
	case TypeDisplayport:
		return MaxDisplayportSize
	case TypeDetection:
		return 1 + MaxDetectionBoxes*detectionBoxSize
	case TypeSysTelemetry:
		return sysTelemetryBodySize
	case TypeCmd:
		return cmdBodySize
	case TypeRc:
		return 1 + MaxRCChannels*2
	default:
		return 0
	}
}

// Decode splits a raw datagram into its header and the meaningful body
// slice (buf[HeaderSize : HeaderSize+Size]). It never panics on a short or
// malformed datagram; callers drop the packet on error per §7/§8 invariant 2.
func Decode(buf []byte) (Header, []byte, error) {
	h, err := decodeHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}
	rest := buf[HeaderSize:]
	if int(h.Size) > len(rest) {
		return Header{}, nil, fmt.Errorf("%w: size %d exceeds received %d bytes", ErrProtocol, h.Size, len(rest))
	}
	return h, rest[:h.Size], nil
}

// Encode builds a full datagram for packet type t carrying body (whose
// length becomes Header.Size). The wire body is zero-padded to the type's
// fixed on-wire capacity so every send transmits a uniform datagram size per
// kind, per §3/§6; a body longer than that capacity is rejected with
// ErrOversize.
func Encode(t PacketType, body []byte) ([]byte, error) {
	cap := capacity(t)
	if len(body) > cap {
		return nil, fmt.Errorf("%w: %s body %d > capacity %d", ErrOversize, t, len(body), cap)
	}
	out := make([]byte, HeaderSize+cap)
	Header{Type: t, Size: uint32(len(body))}.encode(out)
	copy(out[HeaderSize:], body)
	return out, nil
}
