// Command groundstation is the GS-side process: it terminates the UDP
// control link, ingests and decodes the RTP video stream, composites the
// OSD character grids and the gsui widget overlay, and presents the
// result on a display plane (§4.1, §4.3, §4.4).
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"skylink/gsui"
	"skylink/hardware/display"
	"skylink/hardware/videohw"
	"skylink/link"
	"skylink/osd"
	"skylink/video"
	"skylink/wire"
)

func main() {
	var (
		droneIP    = flag.String("drone-ip", "127.0.0.1", "drone IP (direct mode) or remote overlay IP (tunnel mode)")
		tunnelMode = flag.Bool("tunnel", false, "run the link over the tunnel transport instead of direct UDP")
		rtpAddr    = flag.String("rtp-listen", "0.0.0.0:5600", "local UDP address the RTP video ingress listens on")
		planeW     = flag.Int("plane-width", 1920, "display plane width")
		planeH     = flag.Int("plane-height", 1080, "display plane height")
		mspW       = flag.Int("msp-cols", 53, "MSP DisplayPort grid columns")
		mspH       = flag.Int("msp-rows", 20, "MSP DisplayPort grid rows")
		glyphW     = flag.Int("glyph-width", 36, "font glyph pixel width")
		glyphH     = flag.Int("glyph-height", 54, "font glyph pixel height")
		widgetW    = flag.Int("widget-width", 1920, "gsui widget surface width")
		widgetH    = flag.Int("widget-height", 1080, "gsui widget surface height")
		headless   = flag.Bool("headless", false, "skip launching the gsui control panel window")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := link.Direct
	if *tunnelMode {
		mode = link.Tunnel
	}

	fonts := osd.NewFontSet()
	composer := osd.NewComposer(*mspW, *mspH, *glyphW, *glyphH, fonts, osd.Rotate0)
	osdPlane := display.NewOSDPlane(*mspW**glyphW, *mspH**glyphH)

	detector := video.NewDetector()
	mspParser := osd.NewParser(composer.MSP, func() {
		osd.RemapFakeHD(composer.MSP, composer.Render)
		if err := osdPlane.Push(composer.Compose()); err != nil {
			log.Println("display: osd push failed:", err)
		}
	})

	plane := display.NewPlane(*planeW, *planeH)
	presenter := video.NewPresenter(plane, plane, video.Rotate0)

	hwDecoder := videohw.NewDecoder()
	dmaPool := videohw.NewDMAPool()
	decoder := video.NewDecoder(hwDecoder, dmaPool, presenter)

	peer, err := link.New(link.GroundStation, mode, *droneIP, link.Callbacks{
		OnDisplayport: func(data []byte) {
			if err := mspParser.Feed(data); err != nil {
				log.Println("osd: malformed displayport packet:", err)
			}
		},
		OnSysTelemetry: func(t wire.SysTelemetry) {
			log.Printf("telemetry: cpu=%.1fC usage=%.1f%% phy=%v rssi=%.1f", t.CPUTempC, t.CPUUsagePct, t.Phy, t.RSSI)
		},
		OnDetection: func(d wire.Detection) {
			log.Println("detection:", d)
		},
	})
	if err != nil {
		log.Fatal("link: ", err)
	}
	defer peer.Deinit()

	rtpConn, err := net.ListenPacket("udp", *rtpAddr)
	if err != nil {
		log.Fatal("video: rtp listen: ", err)
	}
	udpConn, ok := rtpConn.(*net.UDPConn)
	if !ok {
		log.Fatal("video: expected a UDP connection")
	}

	ingress := video.NewIngress(udpConn, detectingSink{detector: detector, decoder: decoder})

	stopDecoder := make(chan struct{})
	go decoder.Run(stopDecoder)
	go func() {
		if err := ingress.Run(); err != nil {
			log.Println("video: rtp ingress stopped:", err)
		}
	}()

	var panel *gsui.App
	if !*headless {
		panel = gsui.NewApp(*widgetW, *widgetH)
		go func() {
			if err := gsui.RunApp(panel); err != nil {
				log.Println("gsui: control panel exited:", err)
			}
		}()

		// Pull the panel's latest widget redraw into the composer at a fixed
		// rate; osd.Composer.Compose blends it source-over with the MSP/
		// overlay grids on the next draw-complete triggered remap.
		go func() {
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if fb, dirty := panel.TakeBuffer(); dirty {
						composer.SetWidgetBuffer(fb)
					}
				}
			}
		}()
	}

	log.Println("groundstation: link up, mode=", mode)
	<-ctx.Done()
	close(stopDecoder)
	log.Println("groundstation: shutting down")
}

// detectingSink runs codec auto-detection on each NAL before handing it to
// the decoder (§4.3): a short-lived classifier in front of the steady-state
// feed, cheap enough to run on every unit since Feed short-circuits once
// Decided.
type detectingSink struct {
	detector *video.Detector
	decoder  *video.Decoder
}

func (s detectingSink) FeedNAL(nal []byte) {
	if s.detector.Decided() == video.CodecUnknown {
		if c := s.detector.Feed(nal); c != video.CodecUnknown {
			log.Println("video: detected codec", c)
		}
	}
	s.decoder.FeedNAL(nal)
}
