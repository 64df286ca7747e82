package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"skylink/wire"
)

type phyReport struct {
	Phy                   wire.PhyType
	RSSI, RSRQ, RSRP, SNR float32
	WCDMARSSI             float32
}

// modemJSON is the shape a well-behaved run of the query tool emits.
type modemJSON struct {
	Phy       string  `json:"phy"`
	RSSI      float32 `json:"rssi"`
	RSRQ      float32 `json:"rsrq"`
	RSRP      float32 `json:"rsrp"`
	SNR       float32 `json:"snr"`
	WCDMARSSI float32 `json:"wcdma_rssi"`
}

var phyNames = map[string]wire.PhyType{
	"lte":      wire.PhyLTE,
	"wcdma":    wire.PhyWCDMA,
	"wifi":     wire.PhyWiFi,
	"ethernet": wire.PhyEthernet,
}

// parseModemReport first tries a strict json.Unmarshal of the whole
// payload; real vendor CLI tools frequently interleave log lines with the
// JSON blob, so on failure it falls back to scanning line-by-line for the
// first line that parses, and failing that to picking key: value pairs
// out of free text — the same tolerant byte-scan idiom the teacher's
// splitJPEGs applies to a concatenated MJPEG stream, applied here to a
// noisy line-oriented tool instead of a binary frame boundary.
func parseModemReport(raw []byte) (phyReport, bool) {
	var m modemJSON
	if err := json.Unmarshal(raw, &m); err == nil {
		return toReport(m), true
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var lm modemJSON
		if err := json.Unmarshal([]byte(line), &lm); err == nil {
			return toReport(lm), true
		}
	}

	return parseKeyValueFallback(raw)
}

func toReport(m modemJSON) phyReport {
	return phyReport{
		Phy:       phyNames[strings.ToLower(m.Phy)],
		RSSI:      m.RSSI,
		RSRQ:      m.RSRQ,
		RSRP:      m.RSRP,
		SNR:       m.SNR,
		WCDMARSSI: m.WCDMARSSI,
	}
}

// parseKeyValueFallback recovers "key: value" or "key=value" pairs from
// arbitrary free text, tolerating a tool that never emits valid JSON at
// all.
func parseKeyValueFallback(raw []byte) (phyReport, bool) {
	var r phyReport
	found := false

	for _, line := range strings.Split(string(raw), "\n") {
		key, val, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "phy":
			r.Phy = phyNames[strings.ToLower(val)]
			found = true
		case "rssi":
			r.RSSI, found = parseFloatOr(r.RSSI, val, found)
		case "rsrq":
			r.RSRQ, found = parseFloatOr(r.RSRQ, val, found)
		case "rsrp":
			r.RSRP, found = parseFloatOr(r.RSRP, val, found)
		case "snr":
			r.SNR, found = parseFloatOr(r.SNR, val, found)
		case "wcdma_rssi":
			r.WCDMARSSI, found = parseFloatOr(r.WCDMARSSI, val, found)
		}
	}

	return r, found
}

func splitKeyValue(line string) (key, val string, ok bool) {
	line = strings.TrimSpace(line)
	for _, sep := range []string{":", "="} {
		if i := strings.Index(line, sep); i > 0 {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", "", false
}

func parseFloatOr(cur float32, val string, found bool) (float32, bool) {
	v, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return cur, found
	}
	return float32(v), true
}

// CLIQuerier runs an external modem-query binary and returns its stdout,
// the external-tool collaborator §1 leaves unspecified.
type CLIQuerier struct {
	Path string
	Args []string
}

func (q CLIQuerier) Query(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, q.Path, q.Args...)
	return cmd.Output()
}
