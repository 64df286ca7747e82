package video

import (
	"log"
)

// PixelFormat mirrors the decoder's output format, which decides the byte
// multiplier used to size each DMA buffer (§4.3 info-change math).
type PixelFormat int

const (
	FormatNV12 PixelFormat = iota
	FormatYUV422
	Format10BitPacked
)

// bppFactor returns, as num/den, the "bpp_factor" §4.3 calls out per
// format: NV12 is 3/2 bytes per pixel, YUV422 is 2, 10-bit variants are
// 2 or 4 depending on packing.
func bppFactor(f PixelFormat) (num, den int) {
	switch f {
	case FormatNV12:
		return 3, 2
	case FormatYUV422:
		return 2, 1
	case Format10BitPacked:
		return 4, 1
	default:
		return 3, 2
	}
}

// EventKind tags a hardware decoder event (§4.3 "Decoder loop").
type EventKind int

const (
	EventInfoChange EventKind = iota
	EventFrame
	EventEndOfStream
)

// Event is one event pulled non-blockingly off the hardware decoder.
type Event struct {
	Kind   EventKind
	Width  int
	Height int
	Format PixelFormat
	DMAFd  int
}

// HWDecoder is the external hardware codec SDK collaborator §1 places out
// of scope. PollEvent is non-blocking: ok=false means nothing is ready yet.
type HWDecoder interface {
	Feed(nal []byte) error
	PollEvent() (Event, bool)
	AttachBuffers(fds []int) error
	AckInfoChange() error
}

// DMAAllocator allocates/releases the fixed-size DMA buffer pool the
// decoder writes into, another hardware collaborator left abstract here.
type DMAAllocator interface {
	Alloc(size int, count int) ([]int, error) // returns dma_fds
	Release(fds []int) error
}

// dropFrames is K from §4.3: "drop the first K ≈ 6 frames to let the
// buffer pool stabilize".
const dropFrames = 6

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

// Decoder runs the dedicated hardware-decode-loop thread of §4.3.
type Decoder struct {
	hw    HWDecoder
	dma   DMAAllocator
	pres  *Presenter
	nalIn chan []byte

	currentFds       []int
	framesSinceAlloc int
	stallCount       int
}

func NewDecoder(hw HWDecoder, dma DMAAllocator, pres *Presenter) *Decoder {
	return &Decoder{hw: hw, dma: dma, pres: pres, nalIn: make(chan []byte, 64)}
}

// FeedNAL implements NALSink: it's how the RTP ingress hands reassembled
// NAL units to the decoder loop without the ingress goroutine blocking on
// the hardware decoder (§4.3 "Decoder stall ... increments a stall
// counter and drops the packet").
func (d *Decoder) FeedNAL(nal []byte) {
	select {
	case d.nalIn <- nal:
	default:
		d.stallCount++
		log.Println("video: decoder stalled, dropping packet (stall count", d.stallCount, ")")
	}
}

// Run pulls queued NAL units, feeds the hardware decoder, and drains its
// event stream until stop is closed.
func (d *Decoder) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			d.teardown()
			return
		case nal := <-d.nalIn:
			if err := d.hw.Feed(nal); err != nil {
				d.stallCount++
				log.Println("video: feed failed, dropping packet:", err)
				continue
			}
			d.drainEvents()
		}
	}
}

func (d *Decoder) drainEvents() {
	for {
		ev, ok := d.hw.PollEvent()
		if !ok {
			return
		}
		switch ev.Kind {
		case EventInfoChange:
			d.handleInfoChange(ev)
		case EventEndOfStream:
			return
		case EventFrame:
			d.handleFrame(ev)
		}
	}
}

func (d *Decoder) handleInfoChange(ev Event) {
	if d.currentFds != nil {
		if err := d.dma.Release(d.currentFds); err != nil {
			log.Println("video: releasing previous buffer group failed:", err)
		}
		d.currentFds = nil
	}

	strideH := alignUp(ev.Width, 16)
	strideV := alignUp(ev.Height, 16)
	num, den := bppFactor(ev.Format)
	size := strideH * strideV * num / den

	const bufferCount = 8
	fds, err := d.dma.Alloc(size, bufferCount)
	if err != nil {
		log.Println("video: allocating", bufferCount, "buffers of", size, "bytes failed:", err)
		return
	}

	if err := d.hw.AttachBuffers(fds); err != nil {
		log.Println("video: attaching buffers failed:", err)
		_ = d.dma.Release(fds)
		return
	}
	if err := d.hw.AckInfoChange(); err != nil {
		log.Println("video: acking info change failed:", err)
	}

	d.currentFds = fds
	d.framesSinceAlloc = 0
	d.pres.SetSourceDimensions(ev.Width, ev.Height, strideH, strideV)
}

func (d *Decoder) handleFrame(ev Event) {
	d.framesSinceAlloc++
	if d.framesSinceAlloc <= dropFrames {
		return
	}
	if err := d.pres.Present(ev.DMAFd); err != nil {
		log.Println("video: present failed, dropping frame:", err)
	}
}

func (d *Decoder) teardown() {
	if d.currentFds != nil {
		if err := d.dma.Release(d.currentFds); err != nil {
			log.Println("video: release on teardown failed:", err)
		}
		d.currentFds = nil
	}
}
