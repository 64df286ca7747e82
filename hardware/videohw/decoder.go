// Package videohw implements video.HWDecoder and video.DMAAllocator
// against the hardware codec/ISP SDK that §1 places out of scope. These
// are the control-plane shims a real vendor binding would fill in;
// nothing here touches actual silicon.
package videohw

import (
	"fmt"
	"log"
	"sync"

	"skylink/video"
)

// Decoder is a software stand-in for the hardware video decoder: it
// accepts fed NAL units and synthesizes the info-change/frame event
// sequence a real decoder would emit, so the rest of the pipeline can run
// end to end without silicon.
type Decoder struct {
	mu        sync.Mutex
	events    []video.Event
	nextFd    int
	announced bool
}

func NewDecoder() *Decoder {
	return &Decoder{nextFd: 1}
}

func (d *Decoder) Feed(nal []byte) error {
	if len(nal) == 0 {
		return fmt.Errorf("videohw: empty nal unit")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.announced {
		d.announced = true
		d.events = append(d.events, video.Event{
			Kind:   video.EventInfoChange,
			Width:  1920,
			Height: 1080,
			Format: video.FormatNV12,
		})
	}

	fd := d.nextFd
	d.nextFd++
	d.events = append(d.events, video.Event{Kind: video.EventFrame, DMAFd: fd})
	return nil
}

func (d *Decoder) PollEvent() (video.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return video.Event{}, false
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, true
}

func (d *Decoder) AttachBuffers(fds []int) error {
	log.Println("videohw: attach", len(fds), "dma buffers")
	return nil
}

func (d *Decoder) AckInfoChange() error {
	log.Println("videohw: ack info change")
	return nil
}

// DMAPool is a software stand-in for the DMA buffer allocator: it hands
// out synthetic fds and tracks outstanding allocations so double-release
// or leak bugs upstream would show up in tests.
type DMAPool struct {
	mu      sync.Mutex
	nextFd  int
	pending map[int]bool
}

func NewDMAPool() *DMAPool {
	return &DMAPool{nextFd: 100, pending: map[int]bool{}}
}

func (p *DMAPool) Alloc(size, count int) ([]int, error) {
	if size <= 0 || count <= 0 {
		return nil, fmt.Errorf("videohw: invalid alloc request size=%d count=%d", size, count)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fds := make([]int, count)
	for i := range fds {
		fd := p.nextFd
		p.nextFd++
		p.pending[fd] = true
		fds[i] = fd
	}
	log.Println("videohw: allocated", count, "buffers of", size, "bytes")
	return fds, nil
}

func (p *DMAPool) Release(fds []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fd := range fds {
		if !p.pending[fd] {
			return fmt.Errorf("videohw: double-release of dma fd %d", fd)
		}
		delete(p.pending, fd)
	}
	log.Println("videohw: released", len(fds), "buffers")
	return nil
}
