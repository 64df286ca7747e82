package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectionRoundtrip(t *testing.T) {
	d := Detection{Boxes: []Box{
		{X: 0.1, Y: 0.2, W: 0.3, H: 0.4},
		{X: 0.5, Y: 0.6, W: 0.7, H: 0.8},
	}}
	datagram, err := EncodeDetection(d)
	if err != nil {
		t.Fatalf("EncodeDetection: %v", err)
	}
	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := DecodeDetection(body)
	if err != nil {
		t.Fatalf("DecodeDetection: %v", err)
	}
	if len(got.Boxes) != len(d.Boxes) || got.Boxes[1].H != d.Boxes[1].H {
		t.Fatalf("got %+v, want %+v", got, d)
	}
}

func TestEncodeDetectionTooManyBoxesRejected(t *testing.T) {
	d := Detection{Boxes: make([]Box, MaxDetectionBoxes+1)}
	if _, err := EncodeDetection(d); !errors.Is(err, ErrOversize) {
		t.Fatalf("err = %v, want ErrOversize", err)
	}
}

func TestDecodeDetectionTruncatedBodyErrors(t *testing.T) {
	// Header claims 2 boxes but only carries bytes for one.
	body := make([]byte, 1+detectionBoxSize)
	body[0] = 2
	if _, err := DecodeDetection(body); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestRCRoundtrip(t *testing.T) {
	r := RC{Channels: []uint16{1500, 1000, 2000, 0, 65535}}
	datagram, err := EncodeRC(r)
	if err != nil {
		t.Fatalf("EncodeRC: %v", err)
	}
	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := DecodeRC(body)
	if err != nil {
		t.Fatalf("DecodeRC: %v", err)
	}
	if len(got.Channels) != len(r.Channels) {
		t.Fatalf("got %d channels, want %d", len(got.Channels), len(r.Channels))
	}
	for i := range r.Channels {
		if got.Channels[i] != r.Channels[i] {
			t.Fatalf("channel %d = %d, want %d", i, got.Channels[i], r.Channels[i])
		}
	}
}

func TestEncodeRCTooManyChannelsRejected(t *testing.T) {
	r := RC{Channels: make([]uint16, MaxRCChannels+1)}
	if _, err := EncodeRC(r); !errors.Is(err, ErrOversize) {
		t.Fatalf("err = %v, want ErrOversize", err)
	}
}

func TestSysTelemetryRoundtripExtended(t *testing.T) {
	want := SysTelemetry{
		CPUTempC: 52.5, CPUUsagePct: 13.0,
		Phy: PhyLTE, RSSI: -70, RSRQ: -10, RSRP: -95, SNR: 12,
	}
	datagram, err := EncodeSysTelemetry(want)
	if err != nil {
		t.Fatalf("EncodeSysTelemetry: %v", err)
	}
	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := DecodeSysTelemetry(body)
	if err != nil {
		t.Fatalf("DecodeSysTelemetry: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeSysTelemetryTruncatedToBaseFieldsOnly(t *testing.T) {
	// Only the 8-byte CPU-only prefix is present; extended PHY fields must
	// stay zero rather than erroring.
	body := make([]byte, 8)
	datagram, err := Encode(TypeSysTelemetry, body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, decodedBody, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := DecodeSysTelemetry(decodedBody)
	if err != nil {
		t.Fatalf("DecodeSysTelemetry: %v", err)
	}
	if got.Phy != PhyNone {
		t.Fatalf("Phy = %v, want PhyNone for a base-only body", got.Phy)
	}
}

func TestDecodeSysTelemetryTooShortErrors(t *testing.T) {
	if _, err := DecodeSysTelemetry([]byte{1, 2, 3}); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestDisplayportIsIdentityPassthrough(t *testing.T) {
	payload := []byte("msp displayport blob")
	datagram, err := EncodeDisplayport(payload)
	if err != nil {
		t.Fatalf("EncodeDisplayport: %v", err)
	}
	_, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := DecodeDisplayport(body); !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestEncodeAckHasEmptyBody(t *testing.T) {
	datagram, err := EncodeAck()
	if err != nil {
		t.Fatalf("EncodeAck: %v", err)
	}
	hdr, body, err := Decode(datagram)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if hdr.Type != TypeAck || len(body) != 0 {
		t.Fatalf("hdr = %+v, body = %v, want empty Ack", hdr, body)
	}
}
