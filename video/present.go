package video

import "fmt"

// Rotation is the display's fixed mount rotation (§4.3 Present).
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Rect is an axis-aligned destination rectangle on the display.
type Rect struct {
	X, Y, W, H int
}

// Rotator is the hardware 2D engine collaborator used to rotate a decoded
// frame into a persistent rotation buffer for 90°/270° mounts.
type Rotator interface {
	// Rotate writes the rotated contents of srcFd into the current
	// rotation buffer (reallocating it first if dstW/dstH changed since
	// the last call) and returns the rotation buffer's handle.
	Rotate(srcFd int, srcW, srcH, dstW, dstH int, rot Rotation) (dstFd int, err error)
}

// Display is the collaborator that turns a DMA handle into a committed
// framebuffer on the video plane.
type Display interface {
	// Commit converts fd into a framebuffer object, commits it into rect
	// atomically, and returns the new framebuffer id. The caller releases
	// the previous id only after Commit returns (§4.3 "Handle lifetime
	// rule").
	Commit(fd int, rect Rect) (fbID int, err error)
	Release(fbID int) error
	PlaneSize() (w, h int)
}

// Presenter implements the §4.3 "Present" stage: fit-rectangle
// computation, rotation-buffer reuse, and the two-slot previous/current
// framebuffer handle lifetime rule.
type Presenter struct {
	display  Display
	rotator  Rotator
	rotation Rotation

	srcW, srcH       int
	strideH, strideV int

	currentFB int
	haveFB    bool
}

func NewPresenter(display Display, rotator Rotator, rotation Rotation) *Presenter {
	return &Presenter{display: display, rotator: rotator, rotation: rotation}
}

// SetSourceDimensions is called on every decoder info-change event.
func (p *Presenter) SetSourceDimensions(width, height, strideH, strideV int) {
	p.srcW, p.srcH = width, height
	p.strideH, p.strideV = strideH, strideV
}

// fitRect computes the largest axis-aligned rectangle fitting planeW x
// planeH that preserves srcW:srcH, centered (§4.3).
func fitRect(srcW, srcH, planeW, planeH int) Rect {
	if srcW <= 0 || srcH <= 0 || planeW <= 0 || planeH <= 0 {
		return Rect{}
	}

	srcAspect := float64(srcW) / float64(srcH)
	planeAspect := float64(planeW) / float64(planeH)

	var w, h int
	if srcAspect > planeAspect {
		// source wider than plane: fit width, letterbox top/bottom
		w = planeW
		h = int(float64(planeW) / srcAspect)
	} else {
		// source taller/narrower: fit height, pillarbox left/right
		h = planeH
		w = int(float64(planeH) * srcAspect)
	}

	x := (planeW - w) / 2
	y := (planeH - h) / 2
	return Rect{X: x, Y: y, W: w, H: h}
}

// Present commits one decoded frame, routing through the rotation buffer
// for 90°/270° mounts and swapping source dimensions in the fit-rectangle
// layout when it does (§4.3).
func (p *Presenter) Present(srcFd int) error {
	planeW, planeH := p.display.PlaneSize()

	fd := srcFd
	layoutW, layoutH := p.srcW, p.srcH

	if p.rotation == Rotate90 || p.rotation == Rotate270 {
		dstW, dstH := p.srcH, p.srcW // dimensions swap under 90/270 rotation
		rotFd, err := p.rotator.Rotate(srcFd, p.srcW, p.srcH, dstW, dstH, p.rotation)
		if err != nil {
			return fmt.Errorf("video: rotate: %w", err)
		}
		fd = rotFd
		layoutW, layoutH = dstW, dstH
	}

	rect := fitRect(layoutW, layoutH, planeW, planeH)

	newFB, err := p.display.Commit(fd, rect)
	if err != nil {
		return fmt.Errorf("video: commit: %w", err)
	}

	// Handle lifetime rule: only release the previous framebuffer once the
	// new commit has returned successfully — never release before submit.
	if p.haveFB {
		if err := p.display.Release(p.currentFB); err != nil {
			return fmt.Errorf("video: release previous framebuffer: %w", err)
		}
	}
	p.currentFB = newFB
	p.haveFB = true
	return nil
}
