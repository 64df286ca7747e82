package telemetry

import (
	"context"
	"errors"
	"testing"

	"skylink/wire"
)

type fakeTelemetrySender struct {
	sent []wire.SysTelemetry
}

func (f *fakeTelemetrySender) SendSysTelemetry(t wire.SysTelemetry) error {
	f.sent = append(f.sent, t)
	return nil
}

type fakeModemQuerier struct {
	raw []byte
	err error
}

func (q *fakeModemQuerier) Query(ctx context.Context) ([]byte, error) {
	return q.raw, q.err
}

func TestSampleWithNilModemIsCPUOnly(t *testing.T) {
	p := New(&fakeTelemetrySender{}, nil, 0)
	got := p.sample(context.Background())
	if got.Phy != wire.PhyNone {
		t.Fatalf("Phy = %v, want PhyNone with no modem configured", got.Phy)
	}
}

func TestSampleWithModemQueryFailureKeepsCPUOnlySample(t *testing.T) {
	modem := &fakeModemQuerier{err: errors.New("fake: modem query failed")}
	p := New(&fakeTelemetrySender{}, modem, 0)
	got := p.sample(context.Background())
	if got.Phy != wire.PhyNone {
		t.Fatalf("Phy = %v, want PhyNone on query failure", got.Phy)
	}
}

func TestSampleWithUnparseableModemOutputKeepsCPUOnlySample(t *testing.T) {
	modem := &fakeModemQuerier{raw: []byte("garbage, not json or key/value")}
	p := New(&fakeTelemetrySender{}, modem, 0)
	got := p.sample(context.Background())
	if got.Phy != wire.PhyNone {
		t.Fatalf("Phy = %v, want PhyNone on unparseable output", got.Phy)
	}
}

func TestSampleWithValidModemOutputFillsPhyFields(t *testing.T) {
	modem := &fakeModemQuerier{raw: []byte(`{"phy":"lte","rssi":-70,"rsrq":-10,"rsrp":-95,"snr":12,"wcdma_rssi":0}`)}
	p := New(&fakeTelemetrySender{}, modem, 0)
	got := p.sample(context.Background())
	if got.Phy != wire.PhyLTE || got.RSSI != -70 {
		t.Fatalf("got %+v", got)
	}
}
