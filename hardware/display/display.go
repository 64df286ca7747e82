// Package display implements video.Display and video.Rotator (and the
// OSD composer's plane push) against the SoC's display/2D-engine SDK,
// another collaborator §1 places out of scope.
package display

import (
	"fmt"
	"log"

	"skylink/osd"
	"skylink/video"
)

// Plane is a software stand-in for the video-plane/2D-engine hardware:
// it tracks the currently-committed framebuffer id and the rotation
// buffer's last-allocated size, reallocating only when that size changes
// (§4.3 "reallocated only if target size changed").
type Plane struct {
	width, height int

	nextFBID int
	live     map[int]bool

	rotBufW, rotBufH int
	rotBufAllocated  bool
}

func NewPlane(width, height int) *Plane {
	return &Plane{width: width, height: height, nextFBID: 1, live: map[int]bool{}}
}

func (p *Plane) PlaneSize() (int, int) {
	return p.width, p.height
}

func (p *Plane) Commit(fd int, rect video.Rect) (int, error) {
	if rect.W <= 0 || rect.H <= 0 {
		return 0, fmt.Errorf("display: degenerate commit rect %+v", rect)
	}
	id := p.nextFBID
	p.nextFBID++
	p.live[id] = true
	log.Printf("display: commit dma_fd=%d -> fb=%d rect=%+v", fd, id, rect)
	return id, nil
}

func (p *Plane) Release(fbID int) error {
	if !p.live[fbID] {
		return fmt.Errorf("display: release of unknown/already-released fb %d", fbID)
	}
	delete(p.live, fbID)
	log.Println("display: release fb", fbID)
	return nil
}

// Rotate reallocates the persistent rotation buffer only when the
// requested target size differs from the last call, per §4.3.
func (p *Plane) Rotate(srcFd, srcW, srcH, dstW, dstH int, rot video.Rotation) (int, error) {
	if !p.rotBufAllocated || p.rotBufW != dstW || p.rotBufH != dstH {
		log.Printf("display: (re)allocating rotation buffer %dx%d", dstW, dstH)
		p.rotBufW, p.rotBufH = dstW, dstH
		p.rotBufAllocated = true
	}
	log.Printf("display: rotate dma_fd=%d %dx%d -> %dx%d rot=%v", srcFd, srcW, srcH, dstW, dstH, rot)
	// This stand-in returns srcFd unchanged as the handle passed to Commit;
	// a real 2D-engine binding would return the rotation buffer's dma_fd.
	return srcFd, nil
}

// OSDPlane stands in for the separate overlay plane the OSD composer's
// output is pushed to (§4.4: "layered display with a separate OSD
// plane"). Unlike Plane it takes pushed ARGB pixels directly rather than
// a DMA handle, since the composer rasterizes in software.
type OSDPlane struct {
	width, height int
}

func NewOSDPlane(width, height int) *OSDPlane {
	return &OSDPlane{width: width, height: height}
}

// Push uploads one composed frame to the overlay plane. A real binding
// would DMA fb.Pix into the plane's scanout buffer; here it just
// validates the size matches the plane's configured extent.
func (o *OSDPlane) Push(fb *osd.Framebuffer) error {
	if fb.W != o.width || fb.H != o.height {
		return fmt.Errorf("display: osd frame %dx%d does not match plane %dx%d", fb.W, fb.H, o.width, o.height)
	}
	return nil
}
