// Package telemetry implements the periodic CPU/modem telemetry producer
// [ADD] in SPEC_FULL.md §4.6: the drone side collects CPU temperature,
// CPU usage, and the extended PHY signal record and publishes them as
// SysTelemetry packets.
package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"skylink/wire"
)

// Sender is the subset of *link.Peer the producer needs.
type Sender interface {
	SendSysTelemetry(t wire.SysTelemetry) error
}

// ModemQuerier is the external LTE/QMI modem-query tool collaborator §1
// leaves out of scope. Query returns raw bytes, typically line-oriented
// JSON from a vendor CLI tool, which Producer parses tolerantly.
type ModemQuerier interface {
	Query(ctx context.Context) ([]byte, error)
}

// Producer samples system and modem telemetry on a fixed cadence and
// pushes SysTelemetry packets over peer.
type Producer struct {
	peer   Sender
	modem  ModemQuerier
	period time.Duration
}

func New(peer Sender, modem ModemQuerier, period time.Duration) *Producer {
	return &Producer{peer: peer, modem: modem, period: period}
}

// Run blocks, sampling every period until ctx is canceled.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := p.sample(ctx)
			if err := p.peer.SendSysTelemetry(t); err != nil {
				log.Println("telemetry: send failed:", err)
			}
		}
	}
}

func (p *Producer) sample(ctx context.Context) wire.SysTelemetry {
	t := wire.SysTelemetry{
		CPUTempC:    readCPUTemp(),
		CPUUsagePct: readCPUUsage(),
	}

	if p.modem == nil {
		return t
	}

	raw, err := p.modem.Query(ctx)
	if err != nil {
		log.Println("telemetry: modem query failed:", err)
		return t
	}

	phy, ok := parseModemReport(raw)
	if !ok {
		log.Println("telemetry: modem report unparseable, keeping CPU-only sample")
		return t
	}
	t.Phy = phy.Phy
	t.RSSI, t.RSRQ, t.RSRP, t.SNR, t.WCDMARSSI = phy.RSSI, phy.RSRQ, phy.RSRP, phy.SNR, phy.WCDMARSSI
	return t
}

// readCPUTemp parses /sys/class/thermal/thermal_zone0/temp, the standard
// millidegree-Celsius sysfs reading on embedded Linux.
func readCPUTemp() float32 {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return float32(milli) / 1000.0
}

// readCPUUsage samples /proc/stat twice, 100ms apart, and returns the
// share of non-idle ticks over that window as a percentage (0-100).
func readCPUUsage() float32 {
	a, err := readStatTotals()
	if err != nil {
		return 0
	}
	time.Sleep(100 * time.Millisecond)
	b, err := readStatTotals()
	if err != nil {
		return 0
	}

	totalDelta := b.total - a.total
	idleDelta := b.idle - a.idle
	if totalDelta <= 0 {
		return 0
	}
	return float32(totalDelta-idleDelta) / float32(totalDelta) * 100
}

type statTotals struct {
	total, idle uint64
}

func readStatTotals() (statTotals, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return statTotals{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return statTotals{}, fmt.Errorf("telemetry: /proc/stat empty")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return statTotals{}, fmt.Errorf("telemetry: unexpected /proc/stat format")
	}

	var st statTotals
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			continue
		}
		st.total += v
		if i == 3 { // idle field
			st.idle = v
		}
	}
	return st, nil
}
