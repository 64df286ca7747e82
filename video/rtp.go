package video

import (
	"fmt"
	"log"
	"net"

	"github.com/pion/rtp"
)

// NALSink receives reassembled NAL units, either from the short-lived
// detect demuxer or the steady-state decoder-feeding demuxer (§4.3 "On
// the first decisive packet, detection ends ... a new demuxer is
// constructed that forwards reassembled NAL units to the decoder").
type NALSink interface {
	FeedNAL(nal []byte)
}

// Ingress reads RTP packets off a UDP socket and reassembles Annex-B NAL
// units, handing each to the currently-installed sink. Depacketization
// uses github.com/pion/rtp for header parsing rather than hand-rolling it,
// grounded on the RTP library the reference pack's RTSP/RTP repos all
// depend on (bluenviron-gortsplib, bluenviron-mediamtx,
// holoplot-rtp-monitor, smazurov-videonode).
type Ingress struct {
	conn *net.UDPConn
	sink NALSink

	fuBuf []byte // in-progress FU-A/FU reassembly buffer
}

func NewIngress(conn *net.UDPConn, sink NALSink) *Ingress {
	return &Ingress{conn: conn, sink: sink}
}

// SetSink swaps the NAL sink, used when the detect demuxer hands off to
// the decoder-feeding demuxer.
func (ing *Ingress) SetSink(sink NALSink) {
	ing.sink = sink
}

// Run blocks, reading RTP packets until the socket closes.
func (ing *Ingress) Run() error {
	buf := make([]byte, 64*1024)
	for {
		n, _, err := ing.conn.ReadFromUDP(buf)
		if err != nil {
			return fmt.Errorf("video: rtp ingress read: %w", err)
		}
		if err := ing.handlePacket(buf[:n]); err != nil {
			log.Println("video: dropping malformed rtp packet:", err)
		}
	}
}

func (ing *Ingress) handlePacket(datagram []byte) error {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(datagram); err != nil {
		return fmt.Errorf("rtp unmarshal: %w", err)
	}
	if len(pkt.Payload) == 0 {
		return nil
	}

	// The stream's codec isn't known yet at this layer (detection runs
	// downstream on reassembled NALs, per §4.3), so both interpretations of
	// the header byte are computed; H.264 FU-A (28) and H.265 FU (49) never
	// collide under the other codec's mask, so checking both is safe.
	h264Type := pkt.Payload[0] & 0x1F
	h265Type := (pkt.Payload[0] >> 1) & 0x3F
	switch {
	case h264Type == 28: // H.264 FU-A
		return ing.handleFUA(pkt.Payload)
	case h265Type == 49: // H.265 fragmentation unit
		return ing.handleFUH265(pkt.Payload)
	case h264Type >= 1 && h264Type <= 23, h264Type >= 24 && h264Type <= 27, h265Type == 48:
		// Single NAL unit, H.264 STAP, or H.265 aggregation packet —
		// forward as-is; sub-unit unpacking is left to the decoder demuxer,
		// which only needs contiguous Annex-B units, not sub-unit
		// boundaries, for codec detection.
		ing.deliver(pkt.Payload)
		return nil
	default:
		ing.deliver(pkt.Payload)
		return nil
	}
}

func (ing *Ingress) handleFUA(payload []byte) error {
	if len(payload) < 2 {
		return fmt.Errorf("fu-a payload too short")
	}
	indicator := payload[0]
	header := payload[1]
	start := header&0x80 != 0
	end := header&0x40 != 0
	nalType := header & 0x1F

	if start {
		reconstructed := (indicator & 0xE0) | nalType
		ing.fuBuf = append([]byte{reconstructed}, payload[2:]...)
	} else {
		if ing.fuBuf == nil {
			return fmt.Errorf("fu-a continuation with no start fragment")
		}
		ing.fuBuf = append(ing.fuBuf, payload[2:]...)
	}

	if end {
		nal := ing.fuBuf
		ing.fuBuf = nil
		ing.deliver(nal)
	}
	return nil
}

// handleFUH265 reassembles an H.265 fragmentation unit (RFC 7798 §4.4.3):
// a 2-byte PayloadHdr, a 1-byte FU header (S|E|6-bit FuType), then data.
// The reconstructed NAL header keeps PayloadHdr's forbidden/layer-id-high
// bit and both layer-id-low/TID bits from byte 1, substituting FuType
// back into the type field.
func (ing *Ingress) handleFUH265(payload []byte) error {
	if len(payload) < 3 {
		return fmt.Errorf("h265 fu payload too short")
	}
	payloadHdr0, payloadHdr1 := payload[0], payload[1]
	fuHeader := payload[2]
	start := fuHeader&0x80 != 0
	end := fuHeader&0x40 != 0
	fuType := fuHeader & 0x3F

	if start {
		reconstructed0 := (payloadHdr0 & 0x81) | (fuType << 1)
		ing.fuBuf = append([]byte{reconstructed0, payloadHdr1}, payload[3:]...)
	} else {
		if ing.fuBuf == nil {
			return fmt.Errorf("h265 fu continuation with no start fragment")
		}
		ing.fuBuf = append(ing.fuBuf, payload[3:]...)
	}

	if end {
		nal := ing.fuBuf
		ing.fuBuf = nil
		ing.deliver(nal)
	}
	return nil
}

func (ing *Ingress) deliver(nal []byte) {
	if ing.sink != nil {
		ing.sink.FeedNAL(nal)
	}
}
