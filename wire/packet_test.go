package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	cases := []struct {
		name string
		typ  PacketType
		body []byte
	}{
		{"ack empty", TypeAck, nil},
		{"displayport short", TypeDisplayport, []byte("hello osd")},
		{"displayport full", TypeDisplayport, bytes.Repeat([]byte{0xab}, MaxDisplayportSize)},
		{"rc empty", TypeRc, []byte{0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			datagram, err := Encode(c.typ, c.body)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			hdr, body, err := Decode(datagram)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if hdr.Type != c.typ {
				t.Fatalf("type = %v, want %v", hdr.Type, c.typ)
			}
			if !bytes.Equal(body, c.body) {
				t.Fatalf("body = %v, want %v", body, c.body)
			}
		})
	}
}

func TestEncodeOversizeRejected(t *testing.T) {
	_, err := Encode(TypeDisplayport, bytes.Repeat([]byte{1}, MaxDisplayportSize+1))
	if !errors.Is(err, ErrOversize) {
		t.Fatalf("err = %v, want ErrOversize", err)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	buf := make([]byte, HeaderSize)
	// type = 99, an out-of-range PacketType
	buf[0] = 99
	_, _, err := Decode(buf)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestDecodeSizeExceedsReceived(t *testing.T) {
	datagram, err := Encode(TypeDisplayport, []byte("abc"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Claim more meaningful bytes than the datagram carries: size becomes
	// 0xff03, beyond the 1500-byte padded displayport body.
	datagram[5] = 0xff
	if _, _, err := Decode(datagram); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestEveryPacketTypeTransmitsFixedCapacity(t *testing.T) {
	for _, typ := range []PacketType{TypeAck, TypeDisplayport, TypeDetection, TypeSysTelemetry, TypeCmd, TypeRc} {
		datagram, err := Encode(typ, nil)
		if err != nil {
			t.Fatalf("Encode(%v): %v", typ, err)
		}
		if got, want := len(datagram), HeaderSize+capacity(typ); got != want {
			t.Fatalf("%v datagram length = %d, want %d", typ, got, want)
		}
	}
}
