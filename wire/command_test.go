package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandRoundtrip(t *testing.T) {
	c := Command{Kind: CmdSet, Sub: SubCmdBitrate, Data: PutU32(4_000_000)}
	datagram, err := EncodeCommand(c)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}

	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := DecodeCommand(body)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if got.Kind != c.Kind || got.Sub != c.Sub || !bytes.Equal(got.Data, c.Data) {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, c)
	}
}

func TestCommandCRCMismatchRejected(t *testing.T) {
	c := Command{Kind: CmdSet, Sub: SubCmdFPS, Data: PutU32(30)}
	datagram, err := EncodeCommand(c)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}
	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	corrupted := append([]byte(nil), body...)
	corrupted[5] ^= 0xff // flip a data byte without fixing the CRC

	if _, err := DecodeCommand(corrupted); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestCommandDataOversizeRejected(t *testing.T) {
	_, err := EncodeCommand(Command{Data: bytes.Repeat([]byte{1}, MaxCmdDataSize+1)})
	if !errors.Is(err, ErrOversize) {
		t.Fatalf("err = %v, want ErrOversize", err)
	}
}

func TestScalarHelpersRoundtrip(t *testing.T) {
	if v, err := GetU32(PutU32(123456)); err != nil || v != 123456 {
		t.Fatalf("u32 roundtrip = %d, %v", v, err)
	}
	if v, err := GetU16(PutU16(4242)); err != nil || v != 4242 {
		t.Fatalf("u16 roundtrip = %d, %v", v, err)
	}
	if v, err := GetBool(PutBool(true)); err != nil || !v {
		t.Fatalf("bool roundtrip = %v, %v", v, err)
	}
	if v, err := GetFloat32(PutFloat32(3.25)); err != nil || v != 3.25 {
		t.Fatalf("float32 roundtrip = %v, %v", v, err)
	}
}

func TestGetScalarsRejectShortInput(t *testing.T) {
	if _, err := GetU32([]byte{1, 2}); !errors.Is(err, ErrProtocol) {
		t.Fatalf("GetU32 short input err = %v, want ErrProtocol", err)
	}
	if _, err := GetBool(nil); !errors.Is(err, ErrProtocol) {
		t.Fatalf("GetBool empty input err = %v, want ErrProtocol", err)
	}
}

func TestSubCmdStringFallback(t *testing.T) {
	if got := SubCmd(250).String(); got == "" {
		t.Fatal("expected a non-empty fallback string for an unknown SubCmd")
	}
}
