package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sigurn/crc16"
)

// CmdKind is the GET/SET/ACK/NACK axis, orthogonal to the sub-command being
// addressed (Design Notes §9).
type CmdKind uint8

const (
	CmdGet CmdKind = iota
	CmdSet
	CmdAck
	CmdNack
)

func (k CmdKind) String() string {
	switch k {
	case CmdGet:
		return "Get"
	case CmdSet:
		return "Set"
	case CmdAck:
		return "Ack"
	case CmdNack:
		return "Nack"
	default:
		return fmt.Sprintf("CmdKind(%d)", uint8(k))
	}
}

// SubCmd partitions the flat command namespace described in §3. Values are
// stable within this module but are not wire-compatible with any other
// implementation of the protocol.
type SubCmd uint8

const (
	SubCmdSysInfo SubCmd = iota
	SubCmdFPS
	SubCmdBitrate
	SubCmdGOP
	SubCmdCodec
	SubCmdVBR
	SubCmdPayloadSize
	SubCmdBrightness
	SubCmdContrast
	SubCmdSaturation
	SubCmdSharpness
	SubCmdHDR
	SubCmdMirrorFlip
	SubCmdStreamSelect
	SubCmdWFBKey
	SubCmdReboot
	SubCmdSetGSIP
	SubCmdSavePersistent
	SubCmdRestoreDefault
	SubCmdFocusMode
	SubCmdDetectionEnable
	SubCmdSwitchCameras
)

var subCmdNames = map[SubCmd]string{
	SubCmdSysInfo:         "SysInfo",
	SubCmdFPS:             "FPS",
	SubCmdBitrate:         "Bitrate",
	SubCmdGOP:             "GOP",
	SubCmdCodec:           "Codec",
	SubCmdVBR:             "VBR",
	SubCmdPayloadSize:     "PayloadSize",
	SubCmdBrightness:      "Brightness",
	SubCmdContrast:        "Contrast",
	SubCmdSaturation:      "Saturation",
	SubCmdSharpness:       "Sharpness",
	SubCmdHDR:             "HDR",
	SubCmdMirrorFlip:      "MirrorFlip",
	SubCmdStreamSelect:    "StreamSelect",
	SubCmdWFBKey:          "WFBKey",
	SubCmdReboot:          "Reboot",
	SubCmdSetGSIP:         "SetGSIP",
	SubCmdSavePersistent:  "SavePersistent",
	SubCmdRestoreDefault:  "RestoreDefault",
	SubCmdFocusMode:       "FocusMode",
	SubCmdDetectionEnable: "DetectionEnable",
	SubCmdSwitchCameras:   "SwitchCameras",
}

func (s SubCmd) String() string {
	if n, ok := subCmdNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SubCmd(%d)", uint8(s))
}

// cmdBodySize is the fixed on-wire size of a Cmd body: cmd_id, subcmd_id,
// size, a 2-byte CRC16 of data[:size], then the 256-byte payload area.
const cmdBodySize = 1 + 1 + 1 + 2 + MaxCmdDataSize

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Command is the decoded form of a Cmd packet body (§3).
type Command struct {
	Kind   CmdKind
	Sub    SubCmd
	Data   []byte // length <= MaxCmdDataSize
}

// EncodeCommand serializes a Command into a full Cmd-type datagram,
// checksumming the payload with CRC16/XMODEM so a bit-flipped command never
// silently applies the wrong value to hardware (§7 Protocol errors: a
// failed checksum is dropped like any other malformed packet).
func EncodeCommand(c Command) ([]byte, error) {
	if len(c.Data) > MaxCmdDataSize {
		return nil, fmt.Errorf("%w: command data %d > %d", ErrOversize, len(c.Data), MaxCmdDataSize)
	}
	body := make([]byte, 1+1+1+2+len(c.Data))
	body[0] = byte(c.Kind)
	body[1] = byte(c.Sub)
	body[2] = uint8(len(c.Data))
	binary.LittleEndian.PutUint16(body[3:5], crc16.Checksum(c.Data, crcTable))
	copy(body[5:], c.Data)
	return Encode(TypeCmd, body)
}

// DecodeCommand parses the meaningful body slice returned by Decode for a
// TypeCmd packet.
func DecodeCommand(body []byte) (Command, error) {
	if len(body) < 5 {
		return Command{}, fmt.Errorf("%w: command body too short", ErrProtocol)
	}
	n := int(body[2])
	if len(body) < 5+n {
		return Command{}, fmt.Errorf("%w: command declares %d data bytes but body has %d", ErrProtocol, n, len(body)-5)
	}
	data := body[5 : 5+n]
	want := binary.LittleEndian.Uint16(body[3:5])
	if got := crc16.Checksum(data, crcTable); got != want {
		return Command{}, fmt.Errorf("%w: command CRC mismatch (want %04x got %04x)", ErrProtocol, want, got)
	}
	return Command{Kind: CmdKind(body[0]), Sub: SubCmd(body[1]), Data: data}, nil
}

// --- scalar payload helpers -------------------------------------------------
//
// Sub-commands exchange little-endian scalars or UTF-8 byte strings (§3).
// These helpers keep every handler from hand-rolling binary.LittleEndian
// calls.

func PutU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func GetU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: want 4 bytes, got %d", ErrProtocol, len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

func PutU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func GetU16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("%w: want 2 bytes, got %d", ErrProtocol, len(b))
	}
	return binary.LittleEndian.Uint16(b), nil
}

func PutBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func GetBool(b []byte) (bool, error) {
	if len(b) < 1 {
		return false, fmt.Errorf("%w: want 1 byte, got 0", ErrProtocol)
	}
	return b[0] != 0, nil
}

func PutFloat32(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func GetFloat32(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: want 4 bytes, got %d", ErrProtocol, len(b))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}
