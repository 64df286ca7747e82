package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// --- Detection ---------------------------------------------------------

const detectionBoxSize = 4 * 4 // x, y, w, h as f32

// Box is one normalized (0..1) detection bounding box.
type Box struct {
	X, Y, W, H float32
}

// Detection is the decoded §3 Detection body: up to 64 boxes.
type Detection struct {
	Boxes []Box
}

func EncodeDetection(d Detection) ([]byte, error) {
	if len(d.Boxes) > MaxDetectionBoxes {
		return nil, fmt.Errorf("%w: %d detection boxes > %d", ErrOversize, len(d.Boxes), MaxDetectionBoxes)
	}
	body := make([]byte, 1+len(d.Boxes)*detectionBoxSize)
	body[0] = uint8(len(d.Boxes))
	off := 1
	for _, b := range d.Boxes {
		binary.LittleEndian.PutUint32(body[off:], math.Float32bits(b.X))
		binary.LittleEndian.PutUint32(body[off+4:], math.Float32bits(b.Y))
		binary.LittleEndian.PutUint32(body[off+8:], math.Float32bits(b.W))
		binary.LittleEndian.PutUint32(body[off+12:], math.Float32bits(b.H))
		off += detectionBoxSize
	}
	return Encode(TypeDetection, body)
}

func DecodeDetection(body []byte) (Detection, error) {
	if len(body) < 1 {
		return Detection{}, fmt.Errorf("%w: detection body empty", ErrProtocol)
	}
	count := int(body[0])
	if count > MaxDetectionBoxes {
		return Detection{}, fmt.Errorf("%w: detection count %d > %d", ErrProtocol, count, MaxDetectionBoxes)
	}
	need := 1 + count*detectionBoxSize
	if len(body) < need {
		return Detection{}, fmt.Errorf("%w: detection body %d bytes, need %d", ErrProtocol, len(body), need)
	}
	boxes := make([]Box, count)
	off := 1
	for i := range boxes {
		boxes[i] = Box{
			X: math.Float32frombits(binary.LittleEndian.Uint32(body[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(body[off+4:])),
			W: math.Float32frombits(binary.LittleEndian.Uint32(body[off+8:])),
			H: math.Float32frombits(binary.LittleEndian.Uint32(body[off+12:])),
		}
		off += detectionBoxSize
	}
	return Detection{Boxes: boxes}, nil
}

// --- System telemetry ----------------------------------------------------

// PhyType tags which radio/transport a SysTelemetry reading came from.
type PhyType uint8

const (
	PhyNone PhyType = iota
	PhyLTE
	PhyWCDMA
	PhyWiFi
	PhyEthernet
)

// SysTelemetry is the base §3 body plus the extended per-PHY signal record.
type SysTelemetry struct {
	CPUTempC    float32
	CPUUsagePct float32

	Phy PhyType
	// LTE
	RSSI, RSRQ, RSRP, SNR float32
	// WCDMA
	WCDMARSSI float32
}

const sysTelemetryBodySize = 4 + 4 + 1 + 4*4 + 4

func EncodeSysTelemetry(t SysTelemetry) ([]byte, error) {
	body := make([]byte, sysTelemetryBodySize)
	binary.LittleEndian.PutUint32(body[0:], math.Float32bits(t.CPUTempC))
	binary.LittleEndian.PutUint32(body[4:], math.Float32bits(t.CPUUsagePct))
	body[8] = byte(t.Phy)
	binary.LittleEndian.PutUint32(body[9:], math.Float32bits(t.RSSI))
	binary.LittleEndian.PutUint32(body[13:], math.Float32bits(t.RSRQ))
	binary.LittleEndian.PutUint32(body[17:], math.Float32bits(t.RSRP))
	binary.LittleEndian.PutUint32(body[21:], math.Float32bits(t.SNR))
	binary.LittleEndian.PutUint32(body[25:], math.Float32bits(t.WCDMARSSI))
	return Encode(TypeSysTelemetry, body)
}

func DecodeSysTelemetry(body []byte) (SysTelemetry, error) {
	// Tolerate the base-only 8-byte form as well as the extended form, since
	// both are valid truncated prefixes per the header's size semantics.
	if len(body) < 8 {
		return SysTelemetry{}, fmt.Errorf("%w: sys telemetry body %d bytes, need >= 8", ErrProtocol, len(body))
	}
	t := SysTelemetry{
		CPUTempC:    math.Float32frombits(binary.LittleEndian.Uint32(body[0:])),
		CPUUsagePct: math.Float32frombits(binary.LittleEndian.Uint32(body[4:])),
	}
	if len(body) >= sysTelemetryBodySize {
		t.Phy = PhyType(body[8])
		t.RSSI = math.Float32frombits(binary.LittleEndian.Uint32(body[9:]))
		t.RSRQ = math.Float32frombits(binary.LittleEndian.Uint32(body[13:]))
		t.RSRP = math.Float32frombits(binary.LittleEndian.Uint32(body[17:]))
		t.SNR = math.Float32frombits(binary.LittleEndian.Uint32(body[21:]))
		t.WCDMARSSI = math.Float32frombits(binary.LittleEndian.Uint32(body[25:]))
	}
	return t, nil
}

// --- RC --------------------------------------------------------------------

// RC is the decoded §3 RC body.
type RC struct {
	Channels []uint16
}

func EncodeRC(r RC) ([]byte, error) {
	if len(r.Channels) > MaxRCChannels {
		return nil, fmt.Errorf("%w: %d rc channels > %d", ErrOversize, len(r.Channels), MaxRCChannels)
	}
	body := make([]byte, 1+len(r.Channels)*2)
	body[0] = uint8(len(r.Channels))
	for i, ch := range r.Channels {
		binary.LittleEndian.PutUint16(body[1+i*2:], ch)
	}
	return Encode(TypeRc, body)
}

func DecodeRC(body []byte) (RC, error) {
	if len(body) < 1 {
		return RC{}, fmt.Errorf("%w: rc body empty", ErrProtocol)
	}
	count := int(body[0])
	if count > MaxRCChannels {
		return RC{}, fmt.Errorf("%w: rc channel count %d > %d", ErrProtocol, count, MaxRCChannels)
	}
	need := 1 + count*2
	if len(body) < need {
		return RC{}, fmt.Errorf("%w: rc body %d bytes, need %d", ErrProtocol, len(body), need)
	}
	chans := make([]uint16, count)
	for i := range chans {
		chans[i] = binary.LittleEndian.Uint16(body[1+i*2:])
	}
	return RC{Channels: chans}, nil
}

// --- DisplayPort -------------------------------------------------------

// EncodeDisplayport wraps an opaque MSP DisplayPort byte blob (§3, <=1500B).
func EncodeDisplayport(data []byte) ([]byte, error) {
	return Encode(TypeDisplayport, data)
}

// DecodeDisplayport is the identity operation: the body is already the
// meaningful prefix returned by Decode.
func DecodeDisplayport(body []byte) []byte {
	return body
}

// EncodeAck builds an empty informational Ack packet (§4.1: "Ack packets
// with no body are informational and logged").
func EncodeAck() ([]byte, error) {
	return Encode(TypeAck, nil)
}
